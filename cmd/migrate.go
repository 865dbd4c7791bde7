package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateSeed bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx, "migrate", false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Store.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate")
		}
		zap.L().Info("migrations applied", zap.String("driver", cfg.Store.Driver))

		if !migrateSeed {
			return nil
		}
		res, err := seedSchemes(cmd, a, cfg.DSS.SchemeSeedFile)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateSeed, "seed", false, "load the scheme catalogue after migrating")
	rootCmd.AddCommand(migrateCmd)
}
