package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/user/aperture"
	"github.com/user/aperture/internal/api"
	"github.com/user/aperture/internal/config"
	"github.com/user/aperture/internal/dispatch"
	"github.com/user/aperture/internal/logging"
	"github.com/user/aperture/internal/notification"
	"github.com/user/aperture/pkg/sink/emailjs"
	"github.com/user/aperture/pkg/sink/failover"
	"github.com/user/aperture/pkg/sink/googlesheets"
	"github.com/user/aperture/pkg/sink/smtp"
	"github.com/user/aperture/pkg/sink/stdout"
)

func main() {
	configPath := flag.String("config", "", "path to config file (YAML or JSON)")
	addr := flag.String("addr", "", "listen address (overrides config)")
	dryRun := flag.Bool("dry-run", false, "print leads to stdout instead of calling providers")
	flag.Parse()

	logger := logging.New()

	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
		cfg.ApplyEnv()
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	cfg.Server.DryRun = *dryRun

	primary, secondary := buildSinks(cfg, logger)

	var alerts *notification.Service
	alertSettings := notification.Settings{
		SlackWebhook:   cfg.Alerts.SlackWebhook,
		DiscordWebhook: cfg.Alerts.DiscordWebhook,
		WebhookURL:     cfg.Alerts.WebhookURL,
	}
	if alertSettings.Configured() {
		alerts = notification.FromSettings(alertSettings, logger)
	}

	dispatcher := dispatch.New(primary, secondary, logger, alerts)
	defer dispatcher.Close()

	server := api.NewServer(cfg, dispatcher, primary, secondary, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.Routes(),
	}

	go func() {
		logger.Info("Starting Aperture lead service", "addr", cfg.Server.Addr, "dry_run", *dryRun)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", "error", err)
	}
}

// buildSinks wires the primary email channel and the best-effort spreadsheet
// backup from config. In dry-run mode both are replaced by stdout.
func buildSinks(cfg *config.Config, logger aperture.Logger) (primary, secondary aperture.Sink) {
	if cfg.Server.DryRun {
		return stdout.NewStdoutSink(), stdout.NewStdoutSink()
	}

	if cfg.EmailJS.Configured() {
		var channel aperture.Sink = emailjs.NewEmailJSSink(
			cfg.EmailJS.Endpoint,
			cfg.EmailJS.ServiceID,
			cfg.EmailJS.TemplateID,
			cfg.EmailJS.PublicKey,
			cfg.EmailJS.PrivateKey,
		)
		if cfg.SMTP.Configured() {
			fallback := smtp.NewSmtpSink(
				cfg.SMTP.Host, cfg.SMTP.Port,
				cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.SSL,
				cfg.SMTP.From, strings.Split(cfg.SMTP.To, ","),
			)
			fo := failover.NewFailoverSink(channel, fallback)
			fo.SetLogger(logger)
			channel = fo
		}
		primary = channel
	} else {
		// The handler refuses dispatches while the provider is unconfigured;
		// the stdout sink only keeps readiness probes meaningful.
		logger.Warn("Primary email provider not configured")
		primary = stdout.NewStdoutSink()
	}

	if cfg.Sheets.Configured() {
		secondary = googlesheets.NewGoogleSheetsSink(
			cfg.Sheets.SpreadsheetID,
			cfg.Sheets.Range,
			cfg.Sheets.CredentialsJSON,
			cfg.Sheets.CredentialsFile,
		)
	} else {
		logger.Warn("Spreadsheet backup not configured, leads will not be logged to a sheet")
	}

	return primary, secondary
}
