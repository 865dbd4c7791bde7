// Package ocr turns uploaded claim documents (PDF scans, photos, plain text)
// into raw text for the field extractor.
package ocr

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fra-dss/internal/config"
)

// Document is an uploaded file.
type Document struct {
	Name string
	Data []byte
}

// Kind classifies a document for OCR routing.
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
	KindText  Kind = "text"
)

// Extractor extracts text content from documents.
type Extractor interface {
	ExtractText(ctx context.Context, doc Document) (string, error)
}

// DetectKind sniffs the content and falls back to the file extension.
func DetectKind(doc Document) (Kind, error) {
	ct := http.DetectContentType(doc.Data)
	switch {
	case ct == "application/pdf":
		return KindPDF, nil
	case strings.HasPrefix(ct, "image/"):
		return KindImage, nil
	}

	switch strings.ToLower(filepath.Ext(doc.Name)) {
	case ".pdf":
		return KindPDF, nil
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".webp":
		return KindImage, nil
	case ".txt", ".text":
		return KindText, nil
	}

	if strings.HasPrefix(ct, "text/plain") {
		return KindText, nil
	}
	return "", eris.Errorf("ocr: unsupported document %q (%s)", doc.Name, ct)
}

// mimeType returns the MIME type used in data URLs for doc.
func mimeType(doc Document, kind Kind) string {
	if kind == KindPDF {
		return "application/pdf"
	}
	ct := http.DetectContentType(doc.Data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return ct
}

// NewExtractor creates an Extractor based on config.
func NewExtractor(cfg config.OCRConfig) (Extractor, error) {
	switch cfg.Provider {
	case "local", "":
		return NewLocal(cfg.PdfToTextPath, cfg.TesseractPath, cfg.TesseractLang), nil
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, eris.New("ocr: mistral provider requires mistral_api_key")
		}
		return NewMistralOCR(cfg.MistralKey, cfg.MistralModel), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}
