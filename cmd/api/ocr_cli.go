//go:build nogosseract

package main

import (
	"log/slog"

	"github.com/xavierca1/leadflow/internal/config"
	"github.com/xavierca1/leadflow/internal/infra/ocr"
)

// Built with -tags nogosseract: no cgo, images always go through the tesseract binary.
func ocrEngine(c config.OCRConfig, logger *slog.Logger) ocr.Engine {
	if c.Engine != "cli" {
		logger.Warn("gosseract not compiled in, falling back to the tesseract binary", "engine", c.Engine)
	}
	return ocr.NewCLIEngine(c.TesseractBin, c.TessdataPrefix, c.PSM)
}
