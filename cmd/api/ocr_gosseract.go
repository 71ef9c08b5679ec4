//go:build !nogosseract

package main

import (
	"log/slog"

	"github.com/xavierca1/leadflow/internal/config"
	"github.com/xavierca1/leadflow/internal/infra/ocr"
	"github.com/xavierca1/leadflow/internal/infra/ocr/tesseract"
)

func ocrEngine(c config.OCRConfig, logger *slog.Logger) ocr.Engine {
	if c.Engine == "cli" {
		return ocr.NewCLIEngine(c.TesseractBin, c.TessdataPrefix, c.PSM)
	}
	logger.Info("using in-process tesseract", "psm", c.PSM)
	return tesseract.New(c.TessdataPrefix, c.PSM)
}
