package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hireloop/keypool/internal/keypool"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show credential pool health for all services",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(adminAddr + "/status")
	if err != nil {
		slog.Error("Failed to reach admin server", "addr", adminAddr, "error", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var status map[string]keypool.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		slog.Error("Failed to decode status", "error", err)
		os.Exit(1)
	}

	names := make([]string, 0, len(status))
	for name := range status {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "SERVICE\tTOTAL\tQUARANTINED\tAVAILABLE\tCURSOR")
	for _, name := range names {
		snap := status[name]
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", name, snap.Total, snap.Quarantined, snap.Available, snap.Cursor)
	}
	_ = w.Flush()
}
