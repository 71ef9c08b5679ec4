//go:build !nogosseract

package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xavierca1/leadflow/internal/config"
	"github.com/xavierca1/leadflow/internal/infra/ocr"
)

func TestOCREngineCLISelection(t *testing.T) {
	got := ocrEngine(config.OCRConfig{Engine: "cli", TesseractBin: "tesseract"}, slog.Default())
	assert.IsType(t, &ocr.CLIEngine{}, got)
}
