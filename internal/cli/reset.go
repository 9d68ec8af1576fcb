package cli

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var resetService string

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear quarantine state for one service or all services",
	Run:   runReset,
}

func init() {
	resetCmd.Flags().StringVar(&resetService, "service", "", "service to reset (all when omitted)")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) {
	endpoint := adminAddr + "/reset"
	if resetService != "" {
		endpoint += "?service=" + url.QueryEscape(resetService)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(endpoint, "application/json", nil)
	if err != nil {
		slog.Error("Failed to reach admin server", "addr", adminAddr, "error", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		slog.Error("Reset failed", "status", resp.StatusCode, "body", strings.TrimSpace(string(body)))
		os.Exit(1)
	}

	if resetService == "" {
		fmt.Println("reset all services")
	} else {
		fmt.Printf("reset %s\n", resetService)
	}
}
