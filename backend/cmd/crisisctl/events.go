package main

import (
	"fmt"
	"strings"

	"github.com/blackrose-blackhat/crisis-guard/backend/internal/audit"
	"github.com/spf13/cobra"
)

var (
	eventsDB    string
	eventsLimit int
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the most recent anonymized crisis events from a SQLite event log",
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn := eventsDB
		if dsn == "" {
			dsn = "crisis_events.db"
			if cfg.EventLog.Driver == "sqlite" && cfg.EventLog.Path != "" {
				dsn = cfg.EventLog.Path
			}
		}

		store, err := audit.OpenSQLite(cmd.Context(), dsn)
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.Recent(cmd.Context(), eventsLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, "No crisis events logged.")
			return nil
		}
		for _, rec := range records {
			fmt.Fprintf(out, "%s  %-6s risk=%.1f conf=%.1f  %s\n",
				rec.Timestamp, rec.Severity, rec.RiskScore, rec.Confidence, strings.Join(rec.Keywords, ", "))
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().StringVar(&eventsDB, "db", "", "SQLite event log path (default $EVENT_LOG_PATH or crisis_events.db)")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 20, "number of events to show")
	rootCmd.AddCommand(eventsCmd)
}
