// Package fetcher reads claim documents from local directories and FTP
// drops, and parses tabular uploads (CSV, XLSX).
package fetcher

import (
	"context"
	"path"
	"strings"
)

// Source lists and reads claim documents from one location.
type Source interface {
	// List returns document names relative to the source root.
	List(ctx context.Context) ([]string, error)
	// Read returns the content of a listed document.
	Read(ctx context.Context, name string) ([]byte, error)
}

// documentExts are the file types the OCR step can handle.
var documentExts = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".txt":  true,
}

// IsDocument reports whether name has a supported document extension.
func IsDocument(name string) bool {
	return documentExts[strings.ToLower(path.Ext(name))]
}
