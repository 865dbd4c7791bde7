package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/fra-dss/internal/monitoring"
)

var statusSendAlerts bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show claim backlog, geocode coverage and eligibility query health",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx, "status", false)
		if err != nil {
			return err
		}
		defer a.Close()

		snap, alerts, err := a.Checker.CheckOnce(ctx)
		if err != nil {
			return err
		}

		sent := 0
		if statusSendAlerts && len(alerts) > 0 {
			sent = monitoring.NewAlerter(cfg.Monitoring).SendAlerts(ctx, alerts)
		}

		return printJSON(cmd.OutOrStdout(), map[string]any{
			"snapshot":    snap,
			"alerts":      alerts,
			"alerts_sent": sent,
		})
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusSendAlerts, "send-alerts", false, "post breached thresholds to the monitoring webhook")
	rootCmd.AddCommand(statusCmd)
}
