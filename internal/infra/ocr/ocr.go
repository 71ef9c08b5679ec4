package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"strings"
	"time"
)

const (
	MethodPDFText      = "pdf-text"
	MethodPDFPdftotext = "pdf-pdftotext"
	MethodImageOCR     = "image-ocr"
)

const (
	MediaTypePDF = "application/pdf"
)

var supportedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
}

var ErrUnsupportedMediaType = errors.New("unsupported media type")

// ExtractionError reports that a backend could not read the document.
type ExtractionError struct {
	Method string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s extraction failed: %v", e.Method, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Engine recognizes text in a raster image.
type Engine interface {
	Recognize(ctx context.Context, image []byte, lang string) (text string, confidence float32, err error)
}

type Config struct {
	Language string // single tesseract language model, default "eng"

	// Pdftotext is the poppler binary used when the PDF library returns nothing.
	// Empty disables the fallback.
	Pdftotext string
	MaxPages  int // 0 = no limit
}

type ExtractionResult struct {
	Text       string        `json:"-"`
	Pages      int           `json:"pages"`
	Method     string        `json:"method"`
	Language   string        `json:"language,omitempty"`
	Confidence float32       `json:"confidence,omitempty"`
	Duration   time.Duration `json:"duration"`
	Warnings   []string      `json:"warnings,omitempty"`
}

type Extractor struct {
	cfg    Config
	engine Engine
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, engine Engine, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	return &Extractor{cfg: cfg, engine: engine, runner: execRunner{}, logger: logger}
}

// WithRunner swaps the command runner, used by tests to stub poppler.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// NormalizeMediaType strips parameters and lower-cases the type.
func NormalizeMediaType(mediaType string) string {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mediaType))
	}
	return mt
}

func IsSupported(mediaType string) bool {
	mt := NormalizeMediaType(mediaType)
	return mt == MediaTypePDF || supportedImageTypes[mt]
}

// Extract produces a plain-text transcript of content. An empty transcript is not an error.
func (e *Extractor) Extract(ctx context.Context, mediaType string, content []byte) (ExtractionResult, error) {
	start := time.Now()
	mt := NormalizeMediaType(mediaType)

	switch {
	case mt == MediaTypePDF:
		e.logger.Debug("starting text extraction", "media_type", mt, "bytes", len(content))
		res, err := e.extractPDF(ctx, content)
		res.Duration = time.Since(start)
		return res, err
	case supportedImageTypes[mt]:
		e.logger.Debug("starting ocr", "media_type", mt, "bytes", len(content), "lang", e.cfg.Language)
		res, err := e.extractImage(ctx, content)
		res.Duration = time.Since(start)
		return res, err
	default:
		e.logger.Warn("unsupported media type", "media_type", mediaType)
		return ExtractionResult{}, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, mediaType)
	}
}
