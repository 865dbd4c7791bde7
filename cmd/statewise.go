package main

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var statewiseCmd = &cobra.Command{
	Use:   "statewise",
	Short: "Manage published state-wise claim figures",
}

var statewiseImportCmd = &cobra.Command{
	Use:   "import <file.xlsx|file.csv>",
	Short: "Import a state-wise claims and titles table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "statewise", false)
		if err != nil {
			return err
		}
		defer a.Close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read %s", args[0])
		}
		res, err := a.Dashboard.Import(cmd.Context(), filepath.Base(args[0]), data)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var statewiseSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the dashboard KPIs and per-state progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "statewise", false)
		if err != nil {
			return err
		}
		defer a.Close()

		sum, err := a.Dashboard.Summary(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), sum)
	},
}

func init() {
	statewiseCmd.AddCommand(statewiseImportCmd, statewiseSummaryCmd)
	rootCmd.AddCommand(statewiseCmd)
}
