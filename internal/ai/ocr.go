// Package ai provides clients for the external OCR and multimodal reasoning
// services the document pipeline depends on.
package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/reimburse-stack/reclaim/internal/config"
	"github.com/reimburse-stack/reclaim/internal/errors"
)

// OCREngine recognizes text on a rendered page image. An empty string with a
// nil error is a valid result: it means the engine saw nothing.
type OCREngine interface {
	ID() string
	Recognize(ctx context.Context, image []byte) (string, error)
}

// HTTPOCREngine calls a remote OCR service: ocr(image, engine_id) -> text.
type HTTPOCREngine struct {
	url      string
	engineID string
	client   *http.Client
}

// NewHTTPOCREngine creates an engine client from configuration.
func NewHTTPOCREngine(cfg config.OCREngineConfig) *HTTPOCREngine {
	return &HTTPOCREngine{
		url:      cfg.URL,
		engineID: cfg.EngineID,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// ID returns the engine identifier.
func (e *HTTPOCREngine) ID() string {
	return e.engineID
}

type ocrRequest struct {
	EngineID    string `json:"engine_id"`
	ImageBase64 string `json:"image_base64"`
}

type ocrResponse struct {
	Text string `json:"text"`
}

// Recognize sends the image to the OCR service and returns the recognized
// text. Transport failures surface as a service-unreachable condition.
func (e *HTTPOCREngine) Recognize(ctx context.Context, image []byte) (string, error) {
	body, err := json.Marshal(ocrRequest{
		EngineID:    e.engineID,
		ImageBase64: base64.StdEncoding.EncodeToString(image),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", errors.ServiceUnreachable("ocr", err).WithDetail("engine", e.engineID)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.ServiceUnreachable("ocr", fmt.Errorf("status %d", resp.StatusCode)).
			WithDetail("engine", e.engineID)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.ServiceUnreachable("ocr", err).WithDetail("engine", e.engineID)
	}

	var parsed ocrResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decoding OCR response: %w", err)
	}
	return parsed.Text, nil
}
