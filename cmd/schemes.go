package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/fra-dss/internal/dss"
)

var schemesCmd = &cobra.Command{
	Use:   "schemes",
	Short: "Manage government scheme definitions",
}

var schemesSeedCmd = &cobra.Command{
	Use:   "seed [file.yaml]",
	Short: "Load schemes from a YAML file; existing schemes are skipped",
	Long:  "Loads schemes from the given YAML file, dss.scheme_seed_file, or the built-in catalogue, in that order.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "schemes", false)
		if err != nil {
			return err
		}
		defer a.Close()

		path := cfg.DSS.SchemeSeedFile
		if len(args) == 1 {
			path = args[0]
		}
		res, err := seedSchemes(cmd, a, path)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var schemesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored schemes",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "schemes", false)
		if err != nil {
			return err
		}
		defer a.Close()

		schemes, err := a.DSS.ListSchemes(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), schemes)
	},
}

// seedSchemes loads path, or the built-in catalogue when path is empty.
func seedSchemes(cmd *cobra.Command, a *app, path string) (dss.SeedResult, error) {
	if path == "" {
		return a.DSS.SeedDefaults(cmd.Context())
	}
	f, err := os.Open(path)
	if err != nil {
		return dss.SeedResult{}, eris.Wrapf(err, "open seed file %s", path)
	}
	defer f.Close() //nolint:errcheck
	return a.DSS.SeedSchemes(cmd.Context(), f)
}

func init() {
	schemesCmd.AddCommand(schemesSeedCmd, schemesListCmd)
	rootCmd.AddCommand(schemesCmd)
}
