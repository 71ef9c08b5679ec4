//go:build nogosseract

package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xavierca1/leadflow/internal/config"
	"github.com/xavierca1/leadflow/internal/infra/ocr"
)

func TestOCREngineWithoutGosseractUsesBinary(t *testing.T) {
	for _, engine := range []string{"cli", "gosseract"} {
		got := ocrEngine(config.OCRConfig{Engine: engine, TesseractBin: "tesseract"}, slog.Default())
		assert.IsType(t, &ocr.CLIEngine{}, got, "engine %s", engine)
	}
}
