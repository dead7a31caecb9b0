package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the readiness of the lead service and its providers",
	Run: func(cmd *cobra.Command, args []string) {
		fetchStatus()
	},
}

func fetchStatus() {
	client := &http.Client{Timeout: 10 * time.Second}
	url := fmt.Sprintf("%s/readyz", viper.GetString("url"))

	resp, err := client.Get(url)
	if err != nil {
		fmt.Printf("Error connecting to service: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var readiness struct {
		Ready      bool `json:"ready"`
		Components map[string]struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"components"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&readiness); err != nil {
		fmt.Printf("Error parsing readiness data: %v\n", err)
		return
	}

	state := "NOT READY"
	if readiness.Ready {
		state = "READY"
	}
	fmt.Printf("Service:    [%s]\n", state)
	for name, c := range readiness.Components {
		if c.Error != "" {
			fmt.Printf("%-11s %s (%s)\n", name+":", c.Status, c.Error)
		} else {
			fmt.Printf("%-11s %s\n", name+":", c.Status)
		}
	}
}
