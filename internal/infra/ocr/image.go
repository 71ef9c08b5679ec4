package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var reBoxNoise = regexp.MustCompile(`[|_]{3,}`)

func (e *Extractor) extractImage(ctx context.Context, content []byte) (ExtractionResult, error) {
	res := ExtractionResult{Method: MethodImageOCR, Language: e.cfg.Language, Pages: 1}
	if e.engine == nil {
		return res, &ExtractionError{Method: MethodImageOCR, Err: errors.New("no ocr engine configured")}
	}
	if len(content) == 0 {
		return res, &ExtractionError{Method: MethodImageOCR, Err: errors.New("empty image")}
	}

	txt, conf, err := e.engine.Recognize(ctx, content, e.cfg.Language)
	if err != nil {
		e.logger.Error("ocr failed", "error", err)
		return res, &ExtractionError{Method: MethodImageOCR, Err: err}
	}

	txt = reBoxNoise.ReplaceAllString(txt, "")
	res.Text = txt

	// blend engine confidence with how lead-like the text looks
	heur := heuristicConfidence(txt)
	if conf > 0 {
		res.Confidence = 0.7*conf + 0.3*heur
	} else {
		res.Confidence = heur
	}
	if res.Confidence > 1 {
		res.Confidence = 1
	}
	e.logger.Debug("ocr done", "chars", len(txt), "engine_confidence", conf, "confidence", res.Confidence)
	return res, nil
}

// CLIEngine shells out to the tesseract binary. Useful where cgo is unavailable.
type CLIEngine struct {
	Binary      string // default "tesseract"
	TessdataDir string
	PSM         int
	runner      Runner
}

func NewCLIEngine(binary, tessdataDir string, psm int) *CLIEngine {
	if binary == "" {
		binary = "tesseract"
	}
	return &CLIEngine{Binary: binary, TessdataDir: tessdataDir, PSM: psm, runner: execRunner{}}
}

func (c *CLIEngine) WithRunner(r Runner) *CLIEngine {
	c.runner = r
	return c
}

func (c *CLIEngine) Recognize(ctx context.Context, image []byte, lang string) (string, float32, error) {
	f, err := os.CreateTemp("", "leadflow-ocr-*")
	if err != nil {
		return "", 0, fmt.Errorf("temp image: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(image); err != nil {
		f.Close()
		return "", 0, fmt.Errorf("write temp image: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", 0, fmt.Errorf("close temp image: %w", err)
	}

	// tesseract <file> stdout -l <lang>
	args := []string{path, "stdout", "-l", lang}
	if c.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", c.PSM))
	}
	if c.TessdataDir != "" {
		args = append(args, "--tessdata-dir", c.TessdataDir)
	}

	out, errb, err := c.runner.Run(ctx, c.Binary, args...)
	if err != nil {
		msg := strings.TrimSpace(truncate(string(errb), 512))
		if msg != "" {
			return "", 0, fmt.Errorf("tesseract: %w: %s", err, msg)
		}
		return "", 0, fmt.Errorf("tesseract: %w", err)
	}
	return string(out), 0, nil
}
