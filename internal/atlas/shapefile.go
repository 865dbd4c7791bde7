package atlas

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
)

// wgs84PRJ is written next to every shapefile so GIS tools pick up the
// datum of the claim coordinates.
const wgs84PRJ = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// dBase field names are limited to ten characters.
var shapeFields = []shp.Field{
	shp.StringField("ID", 36),
	shp.StringField("CLAIM_ID", 40),
	shp.StringField("HOLDER", 80),
	shp.StringField("VILLAGE", 60),
	shp.StringField("DISTRICT", 60),
	shp.StringField("STATE", 40),
	shp.StringField("AREA", 40),
	shp.StringField("LAND_USE", 60),
	shp.StringField("STATUS", 12),
}

func shapeValues(m Placemark) []string {
	c := m.Claim
	return []string{c.ID, c.ClaimID, c.HolderName, c.Village, c.District, c.State, c.TotalAreaClaimed, c.LandUse, string(c.Status)}
}

// WriteShapefile writes a POINT shapefile (.shp, .shx, .dbf, .prj) at path
// and returns the number of records written. Attribute values longer than
// their column are truncated.
func WriteShapefile(path string, marks []Placemark) (int, error) {
	if strings.ToLower(filepath.Ext(path)) != ".shp" {
		path += ".shp"
	}

	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return 0, eris.Wrapf(err, "atlas: create shapefile %s", path)
	}
	if err := w.SetFields(shapeFields); err != nil {
		w.Close()
		return 0, eris.Wrap(err, "atlas: set shapefile fields")
	}

	for _, m := range marks {
		row := int(w.Write(&shp.Point{X: m.Point.X(), Y: m.Point.Y()}))
		for i, v := range shapeValues(m) {
			if err := w.WriteAttribute(row, i, truncate(v, int(shapeFields[i].Size))); err != nil {
				w.Close()
				return row, eris.Wrapf(err, "atlas: write attribute %d of record %d", i, row)
			}
		}
	}
	w.Close()

	prj := strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
	if err := os.WriteFile(prj, []byte(wgs84PRJ), 0o644); err != nil {
		return len(marks), eris.Wrap(err, "atlas: write projection")
	}
	return len(marks), nil
}

// WriteShapefileZip writes the shapefile set for marks into a zip archive
// on out, each member named base plus its extension.
func WriteShapefileZip(out io.Writer, base string, marks []Placemark) error {
	dir, err := os.MkdirTemp("", "fra-atlas-*")
	if err != nil {
		return eris.Wrap(err, "atlas: create temp dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	if _, err := WriteShapefile(filepath.Join(dir, base+".shp"), marks); err != nil {
		return err
	}

	zw := zip.NewWriter(out)
	for _, ext := range []string{".shp", ".shx", ".dbf", ".prj"} {
		if err := addZipFile(zw, filepath.Join(dir, base+ext)); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return eris.Wrap(err, "atlas: close zip")
	}
	return nil
}

func addZipFile(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "atlas: open %s", filepath.Base(path))
	}
	defer f.Close() //nolint:errcheck

	dst, err := zw.Create(filepath.Base(path))
	if err != nil {
		return eris.Wrapf(err, "atlas: zip %s", filepath.Base(path))
	}
	if _, err := io.Copy(dst, f); err != nil {
		return eris.Wrapf(err, "atlas: zip %s", filepath.Base(path))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
