package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fra-dss/internal/atlas"
	"github.com/sells-group/fra-dss/internal/dss"
	"github.com/sells-group/fra-dss/internal/intake"
	"github.com/sells-group/fra-dss/internal/ocr"
	"github.com/sells-group/fra-dss/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

// writeError reports err in the {"detail": ...} shape clients already parse.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (s *server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	zap.L().Error("api: request failed", zap.String("path", r.URL.Path), zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	if s.DB != nil {
		if err := s.DB.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) || strings.Contains(err.Error(), "request body too large") {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart form with a file field required")
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field required")
		return
	}
	defer f.Close() //nolint:errcheck

	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	res, err := s.Intake.Upload(r.Context(), ocr.Document{Name: hdr.Filename, Data: data})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case eris.Is(err, intake.ErrEmptyDocument), eris.Is(err, intake.ErrUnsupportedDocument):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.internalError(w, r, err)
	}
}

func (s *server) listUploads(w http.ResponseWriter, r *http.Request) {
	claims, err := s.Intake.ListClaims(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "count": len(claims), "results": nonNil(claims)})
}

func (s *server) atlasClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := s.Atlas.Claims(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": nonNil(claims)})
}

func (s *server) atlasGeoJSON(w http.ResponseWriter, r *http.Request) {
	claims, err := s.Atlas.Claims(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	if err := atlas.WriteGeoJSON(w, atlas.Placemarks(claims)); err != nil {
		zap.L().Warn("api: write geojson", zap.Error(err))
	}
}

func (s *server) atlasShapefile(w http.ResponseWriter, r *http.Request) {
	claims, err := s.Atlas.Claims(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="fra_claims.zip"`)
	if err := atlas.WriteShapefileZip(w, "fra_claims", atlas.Placemarks(claims)); err != nil {
		zap.L().Warn("api: write shapefile", zap.Error(err))
	}
}

func (s *server) dashboardSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.Dashboard.Summary(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *server) createScheme(w http.ResponseWriter, r *http.Request) {
	var in dss.SchemeInput
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sc, err := s.DSS.CreateScheme(r.Context(), in)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"id": sc.ID, "name": sc.Name})
	case eris.Is(err, dss.ErrInvalidScheme):
		writeError(w, http.StatusBadRequest, err.Error())
	case eris.Is(err, store.ErrSchemeExists):
		writeError(w, http.StatusConflict, "scheme already exists")
	default:
		s.internalError(w, r, err)
	}
}

func (s *server) listSchemes(w http.ResponseWriter, r *http.Request) {
	schemes, err := s.DSS.ListSchemes(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(schemes))
}

func (s *server) check(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusUnprocessableEntity, "query parameter q is required")
		return
	}

	out := s.DSS.Check(r.Context(), q)

	// No scheme and unknown scheme are answers, not server faults.
	status := http.StatusOK
	switch out.Failure {
	case dss.FailureStorage:
		status = http.StatusInternalServerError
	case dss.FailureCancelled:
		status = http.StatusServiceUnavailable
	}

	if out.OK() && r.URL.Query().Get("format") == "xlsx" {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="eligible.xlsx"`)
		if err := dss.ExportXLSX(out, w); err != nil {
			zap.L().Warn("api: write xlsx", zap.Error(err))
		}
		return
	}
	writeJSON(w, status, out)
}

func (s *server) snapshot(w http.ResponseWriter, r *http.Request) {
	if s.Monitor == nil {
		writeError(w, http.StatusNotFound, "monitoring disabled")
		return
	}
	snap, alerts, err := s.Monitor.CheckOnce(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshot": snap, "alerts": nonNil(alerts)})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
