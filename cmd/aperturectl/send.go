package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	sendName     string
	sendEmail    string
	sendLocation string
	sendInterest string
	sendVision   string
)

func init() {
	sendCmd.Flags().StringVar(&sendName, "name", "Test Lead", "full name")
	sendCmd.Flags().StringVar(&sendEmail, "email", "test@example.com", "email address")
	sendCmd.Flags().StringVar(&sendLocation, "location", "Test City", "event location")
	sendCmd.Flags().StringVar(&sendInterest, "interest", "wedding", "interest key")
	sendCmd.Flags().StringVar(&sendVision, "vision", "", "vision free text")
	rootCmd.AddCommand(sendCmd)
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Submit a test lead to the running service",
	Run: func(cmd *cobra.Command, args []string) {
		sendTestLead()
	},
}

func sendTestLead() {
	body, _ := json.Marshal(map[string]interface{}{
		"fullName":      sendName,
		"email":         sendEmail,
		"eventLocation": sendLocation,
		"interests":     map[string]bool{sendInterest: true},
		"vision":        sendVision,
	})

	client := &http.Client{Timeout: 30 * time.Second}
	url := fmt.Sprintf("%s/api/leads", viper.GetString("url"))

	resp, err := client.Post(url, "application/json", bytes.NewBuffer(body))
	if err != nil {
		fmt.Printf("Error submitting lead: %v\n", err)
		return
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %d\n%s\n", resp.StatusCode, raw)
}
