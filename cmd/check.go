package main

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/fra-dss/internal/dss"
)

var checkXLSX string

var checkCmd = &cobra.Command{
	Use:   `check "<question>"`,
	Short: "Answer an eligibility question against stored claims",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx, "check", false)
		if err != nil {
			return err
		}
		defer a.Close()

		out := a.DSS.Check(ctx, strings.Join(args, " "))
		if err := printJSON(cmd.OutOrStdout(), out); err != nil {
			return err
		}
		if !out.OK() {
			return eris.Errorf("check: %s", out.Message)
		}

		if checkXLSX != "" {
			f, err := os.Create(checkXLSX)
			if err != nil {
				return eris.Wrap(err, "check: create xlsx")
			}
			defer f.Close() //nolint:errcheck
			if err := dss.ExportXLSX(out, f); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkXLSX, "xlsx", "", "also write the eligible claims to this workbook")
	rootCmd.AddCommand(checkCmd)
}
