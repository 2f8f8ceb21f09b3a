package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Probe /readyz on the local server; exits non-zero when not ready",
	RunE: func(cmd *cobra.Command, _ []string) error {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		client := &http.Client{Timeout: 3 * time.Second}
		resp, err := client.Get("http://127.0.0.1:" + port + "/readyz")
		if err != nil {
			return fmt.Errorf("healthcheck: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("healthcheck: status %d", resp.StatusCode)
		}
		cmd.Println("ready")
		return nil
	},
}
