package main

import (
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/fra-dss/internal/fetcher"
)

var ingestConcurrency int

var ingestCmd = &cobra.Command{
	Use:   "ingest <dir|ftp://host/path>",
	Short: "Extract and store every claim document in a directory or FTP drop",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if ingestConcurrency > 0 {
			cfg.Ingest.Concurrency = ingestConcurrency
		}

		a, err := newApp(ctx, "ingest", true)
		if err != nil {
			return err
		}
		defer a.Close()

		src, err := openSource(args[0])
		if err != nil {
			return err
		}

		report, err := a.Intake.IngestSource(ctx, src)
		if report != nil {
			if perr := printJSON(cmd.OutOrStdout(), report); perr != nil {
				return perr
			}
		}
		if err != nil {
			return err
		}
		if report.Failed > 0 {
			return eris.Errorf("ingest: %d of %d documents failed", report.Failed, report.Total)
		}
		return nil
	},
}

func openSource(location string) (fetcher.Source, error) {
	if strings.HasPrefix(strings.ToLower(location), "ftp://") {
		return fetcher.NewFTPSource(location, fetcher.FTPOptions{
			Timeout: time.Duration(cfg.Ingest.FTPTimeoutSecs) * time.Second,
		})
	}
	return fetcher.NewDirSource(location), nil
}

func init() {
	ingestCmd.Flags().IntVar(&ingestConcurrency, "concurrency", 0, "documents processed at once (default from config)")
	rootCmd.AddCommand(ingestCmd)
}
