// Package tesseract binds the in-process gosseract client to ocr.Engine.
// It needs cgo and libtesseract, so it lives apart from package ocr. cmd/api links
// it unless built with -tags nogosseract.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/xavierca1/leadflow/internal/infra/ocr"
)

var _ ocr.Engine = (*Engine)(nil)

type Engine struct {
	TessdataPrefix string
	PSM            int
}

func New(tessdataPrefix string, psm int) *Engine {
	return &Engine{TessdataPrefix: tessdataPrefix, PSM: psm}
}

// Recognize runs OCR with a fresh client; gosseract clients are not safe for concurrent use.
func (e *Engine) Recognize(ctx context.Context, image []byte, lang string) (string, float32, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if e.TessdataPrefix != "" {
		client.TessdataPrefix = e.TessdataPrefix
	}
	if err := client.SetLanguage(lang); err != nil {
		return "", 0, fmt.Errorf("set language: %w", err)
	}
	if e.PSM > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(e.PSM)); err != nil {
			return "", 0, fmt.Errorf("set psm: %w", err)
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", 0, fmt.Errorf("set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("recognize: %w", err)
	}

	return strings.TrimSpace(text), meanWordConfidence(client), nil
}

// meanWordConfidence is diagnostic only; failures yield 0.
func meanWordConfidence(client *gosseract.Client) float32 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return float32(sum / float64(len(boxes)) / 100.0)
}
