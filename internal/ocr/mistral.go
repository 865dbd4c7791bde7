package ocr

import (
	"bytes"
	"cmp"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fra-dss/internal/resilience"
)

const (
	mistralOCREndpoint  = "https://api.mistral.ai/v1/ocr"
	defaultMistralModel = "mistral-ocr-latest"
)

// MistralOCR sends scans and PDFs to the Mistral OCR API. Transient
// failures (429, 5xx, network) are retried with backoff.
type MistralOCR struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	retry    resilience.Backoff
}

// NewMistralOCR falls back to mistral-ocr-latest when model is empty.
func NewMistralOCR(apiKey, model string) *MistralOCR {
	return &MistralOCR{
		apiKey:   apiKey,
		model:    cmp.Or(model, defaultMistralModel),
		endpoint: mistralOCREndpoint,
		client:   &http.Client{Timeout: 2 * time.Minute},
		retry:    resilience.DefaultBackoff(),
	}
}

// ocrRequest is the body of POST /v1/ocr. PDFs go as document_url and
// images as image_url, both inlined as data URLs.
type ocrRequest struct {
	Model    string `json:"model"`
	Document struct {
		Type        string `json:"type"`
		DocumentURL string `json:"document_url,omitempty"`
		ImageURL    string `json:"image_url,omitempty"`
	} `json:"document"`
}

type ocrPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

type ocrResponse struct {
	Pages []ocrPage `json:"pages"`
}

// text joins the non-blank pages in page order.
func (r *ocrResponse) text() string {
	pages := slices.Clone(r.Pages)
	slices.SortStableFunc(pages, func(a, b ocrPage) int { return a.Index - b.Index })

	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if md := strings.TrimSpace(p.Markdown); md != "" {
			parts = append(parts, md)
		}
	}
	return strings.Join(parts, "\n\n")
}

// ExtractText returns plain text documents unchanged.
func (m *MistralOCR) ExtractText(ctx context.Context, doc Document) (string, error) {
	kind, err := DetectKind(doc)
	if err != nil {
		return "", err
	}
	if kind == KindText {
		return string(doc.Data), nil
	}

	var body ocrRequest
	body.Model = m.model
	inline := "data:" + mimeType(doc, kind) + ";base64," + base64.StdEncoding.EncodeToString(doc.Data)
	if kind == KindPDF {
		body.Document.Type, body.Document.DocumentURL = "document_url", inline
	} else {
		body.Document.Type, body.Document.ImageURL = "image_url", inline
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", eris.Wrap(err, "ocr: marshal mistral request")
	}

	resp, err := resilience.Retry(ctx, "mistral ocr", m.retry, func(ctx context.Context) (*ocrResponse, error) {
		return m.send(ctx, payload)
	})
	if err != nil {
		return "", err
	}
	return resp.text(), nil
}

func (m *MistralOCR) send(ctx context.Context, payload []byte) (*ocrResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "ocr: create mistral request")
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := m.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "ocr: mistral API call")
	}
	defer res.Body.Close() //nolint:errcheck

	if err := resilience.CheckStatus("ocr: mistral", res); err != nil {
		return nil, err
	}

	var out ocrResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, eris.Wrap(err, "ocr: unmarshal mistral response")
	}
	return &out, nil
}
