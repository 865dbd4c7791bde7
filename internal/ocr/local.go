package ocr

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Runner lets tests stub external commands.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, eris.Wrapf(err, "%s: %s", name, strings.TrimSpace(stderr.String()))
	}
	zap.L().Debug("ocr: exec ok",
		zap.String("cmd", name),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("stdout_bytes", stdout.Len()),
	)
	return stdout.Bytes(), nil
}

// Local extracts text with the pdftotext and tesseract CLI tools. Plain text
// documents pass through unchanged.
type Local struct {
	pdfToText string
	tesseract string
	lang      string
	runner    Runner
}

// NewLocal creates a Local extractor. Empty paths use the binaries on PATH;
// an empty lang uses "eng".
func NewLocal(pdfToTextPath, tesseractPath, lang string) *Local {
	if pdfToTextPath == "" {
		pdfToTextPath = "pdftotext"
	}
	if tesseractPath == "" {
		tesseractPath = "tesseract"
	}
	if lang == "" {
		lang = "eng"
	}
	return &Local{pdfToText: pdfToTextPath, tesseract: tesseractPath, lang: lang, runner: execRunner{}}
}

// ExtractText implements Extractor.
func (l *Local) ExtractText(ctx context.Context, doc Document) (string, error) {
	kind, err := DetectKind(doc)
	if err != nil {
		return "", err
	}
	if kind == KindText {
		return string(doc.Data), nil
	}

	// Both tools read from a path, so the upload is spooled to a temp file.
	dir, err := os.MkdirTemp("", "fra-ocr-*")
	if err != nil {
		return "", eris.Wrap(err, "ocr: create temp dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	name := filepath.Base(doc.Name)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "document"
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, doc.Data, 0o600); err != nil {
		return "", eris.Wrapf(err, "ocr: spool %s", doc.Name)
	}

	var out []byte
	switch kind {
	case KindPDF:
		out, err = l.runner.Run(ctx, l.pdfToText, "-layout", path, "-")
		if err != nil {
			return "", eris.Wrapf(err, "ocr: pdftotext failed for %s", doc.Name)
		}
	case KindImage:
		out, err = l.runner.Run(ctx, l.tesseract, path, "stdout", "-l", l.lang)
		if err != nil {
			return "", eris.Wrapf(err, "ocr: tesseract failed for %s", doc.Name)
		}
	}
	return string(out), nil
}
