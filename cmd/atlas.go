package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fra-dss/internal/atlas"
)

var (
	atlasSHP     string
	atlasGeoJSON string
)

var atlasCmd = &cobra.Command{
	Use:   "atlas",
	Short: "Export claims with coordinates for GIS tools",
}

var atlasExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write claim locations as a shapefile and/or GeoJSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if atlasSHP == "" && atlasGeoJSON == "" {
			return eris.New("atlas export: set --shp and/or --geojson")
		}

		a, err := newApp(cmd.Context(), "atlas", false)
		if err != nil {
			return err
		}
		defer a.Close()

		claims, err := a.Atlas.Claims(cmd.Context())
		if err != nil {
			return err
		}
		marks := atlas.Placemarks(claims)

		if atlasSHP != "" {
			n, err := atlas.WriteShapefile(atlasSHP, marks)
			if err != nil {
				return err
			}
			zap.L().Info("shapefile written", zap.String("path", atlasSHP), zap.Int("records", n))
		}

		if atlasGeoJSON != "" {
			f, err := os.Create(atlasGeoJSON)
			if err != nil {
				return eris.Wrap(err, "atlas export: create geojson")
			}
			defer f.Close() //nolint:errcheck
			if err := atlas.WriteGeoJSON(f, marks); err != nil {
				return err
			}
			zap.L().Info("geojson written", zap.String("path", atlasGeoJSON), zap.Int("features", len(marks)))
		}
		return nil
	},
}

func init() {
	atlasExportCmd.Flags().StringVar(&atlasSHP, "shp", "", "shapefile path (.shp; .shx, .dbf and .prj are written alongside)")
	atlasExportCmd.Flags().StringVar(&atlasGeoJSON, "geojson", "", "GeoJSON output path")
	atlasCmd.AddCommand(atlasExportCmd)
	rootCmd.AddCommand(atlasCmd)
}
