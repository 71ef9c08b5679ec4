package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
)

func (e *Extractor) extractPDF(ctx context.Context, content []byte) (ExtractionResult, error) {
	res := ExtractionResult{Method: MethodPDFText}

	text, pages, warns, err := readTextLayer(content, e.cfg.MaxPages)
	res.Warnings = append(res.Warnings, warns...)
	if err == nil && strings.TrimSpace(text) != "" {
		res.Text = text
		res.Pages = pages
		return res, nil
	}

	if e.cfg.Pdftotext == "" {
		if err != nil {
			return res, &ExtractionError{Method: MethodPDFText, Err: err}
		}
		// valid PDF without a text layer
		res.Pages = pages
		return res, nil
	}

	if err != nil {
		res.Warnings = append(res.Warnings, "pdf library: "+err.Error())
		e.logger.Info("pdf library failed, trying pdftotext", "error", err)
	}

	out, ptPages, ptWarns, ptErr := e.pdftotext(ctx, content)
	res.Warnings = append(res.Warnings, ptWarns...)
	if ptErr != nil {
		if err != nil {
			return res, &ExtractionError{Method: MethodPDFPdftotext, Err: errors.Join(err, ptErr)}
		}
		// the library could read the file, it just had no text
		e.logger.Warn("pdftotext fallback failed", "error", ptErr)
		res.Pages = pages
		return res, nil
	}

	res.Method = MethodPDFPdftotext
	res.Text = out
	res.Pages = ptPages
	return res, nil
}

// readTextLayer walks the pages with ledongthuc/pdf. Pages that fail to decode are skipped.
func readTextLayer(content []byte, maxPages int) (text string, pages int, warnings []string, err error) {
	defer func() {
		// the pdf package panics on some malformed streams
		if r := recover(); r != nil {
			text, pages = "", 0
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", 0, nil, fmt.Errorf("open pdf: %w", err)
	}

	pages = reader.NumPage()
	last := pages
	if maxPages > 0 && last > maxPages {
		last = maxPages
		warnings = append(warnings, fmt.Sprintf("only the first %d of %d pages were read", maxPages, pages))
	}

	var b strings.Builder
	for i := 1; i <= last; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pt, perr := pageText(page)
		if perr != nil {
			warnings = append(warnings, fmt.Sprintf("page %d: %v", i, perr))
			continue
		}
		b.WriteString(pt)
		b.WriteString("\n")
	}
	return b.String(), pages, warnings, nil
}

// pageText rebuilds the lines of a page from its positioned glyphs. A change of
// baseline starts a new line, and a horizontal gap wider than a fraction of the
// font size becomes a space.
func pageText(page pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decode content: %v", r)
		}
	}()

	var b strings.Builder
	var prev *pdf.Text
	for _, t := range page.Content().Text {
		if t.S == "" {
			continue
		}
		if prev != nil {
			switch {
			case math.Abs(t.Y-prev.Y) > lineTolerance(prev.FontSize):
				b.WriteString("\n")
			case t.X-(prev.X+prev.W) > gapTolerance(prev.FontSize) &&
				!strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(t.S, " "):
				b.WriteString(" ")
			}
		}
		b.WriteString(t.S)
		prev = &t
	}
	return b.String(), nil
}

func lineTolerance(fontSize float64) float64 {
	if fontSize <= 0 {
		return 1
	}
	return fontSize / 4
}

func gapTolerance(fontSize float64) float64 {
	if fontSize <= 0 {
		return 2
	}
	return fontSize / 4
}

func (e *Extractor) pdftotext(ctx context.Context, content []byte) (string, int, []string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix - -   (stdin -> stdout)
	out, errb, err := e.runner.RunWithInput(ctx, content, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", "-", "-")
	if err != nil {
		var warns []string
		if len(errb) > 0 {
			warns = []string{truncate(string(errb), 512)}
		}
		return "", 0, warns, fmt.Errorf("pdftotext: %w", err)
	}
	text := string(out)
	// form feed separates pages
	pages := 1 + strings.Count(strings.TrimRight(text, "\f"), "\f")
	return text, pages, nil, nil
}
