package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iwangdonghui/tsconv-sub005/internal/core/config"
	"github.com/iwangdonghui/tsconv-sub005/internal/health"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the health of a running tsconv instance",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	url := fmt.Sprintf("http://localhost:%d/health/detailed", cfg.Server.HealthPort)

	resp, err := client.Get(url)
	if err != nil {
		slog.Error("Failed to reach health endpoint", "url", url, "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var report health.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		slog.Error("Failed to decode health report", "error", err)
		os.Exit(1)
	}

	fmt.Printf("System: %s (recovery: %s)\n\n", report.SystemStatus, report.Recovery)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "COMPONENT\tSTATUS\tERROR")
	for _, c := range report.Components {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, c.Status, c.Error)
	}
	_ = w.Flush()

	fmt.Printf("\nErrors last hour: %d  History size: %d\n",
		report.Stats.ErrorsLastHour, report.Stats.HistorySize)
	fmt.Printf("Bulkhead: %d active, %d queued\n",
		report.Stats.Bulkhead.ActiveRequests, report.Stats.Bulkhead.QueuedRequests)
	for key, circuit := range report.Stats.Circuits {
		fmt.Printf("Circuit %s: %s (failures: %d)\n", key, circuit.State, circuit.FailureCount)
	}
}
