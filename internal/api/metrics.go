package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LeadsReceived counts inbound submission requests that decoded cleanly.
	LeadsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aperture_leads_received_total",
		Help: "Number of lead submissions received",
	})

	// LeadsRejected counts submissions rejected before dispatch, by reason.
	LeadsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aperture_leads_rejected_total",
		Help: "Number of lead submissions rejected before dispatch",
	}, []string{"reason"})

	// DispatchResults counts dispatch outcomes by result.
	DispatchResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aperture_dispatch_total",
		Help: "Number of dispatch attempts by result (delivered, failed)",
	}, []string{"result"})

	// DispatchDuration records end-to-end dispatch latency.
	DispatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "aperture_dispatch_duration_seconds",
		Help:    "Latency of the full fan-out dispatch",
		Buckets: prometheus.DefBuckets,
	})

	// ReadinessStatus is 1 when a component is healthy, 0 otherwise.
	ReadinessStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "aperture_readiness_status",
		Help: "Readiness status of Aperture components (1=ok, 0=error)",
	}, []string{"component"})
)
