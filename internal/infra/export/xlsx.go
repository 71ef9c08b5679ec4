package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/xavierca1/leadflow/internal/entity"
)

const SheetName = "Leads"

var headers = []string{"ID", "Name", "Email", "Phone", "Status", "Source", "Created At"}

// Service renders the lead store as an XLSX workbook.
type Service struct {
	repo   entity.LeadRepositoryInterface
	logger *slog.Logger
}

func NewService(repo entity.LeadRepositoryInterface, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// LeadsXLSX returns every lead, in store order, as workbook bytes.
func (s *Service) LeadsXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	leads, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(SheetName, 1, 1, style)
	}

	for i, l := range leads {
		row := i + 2
		values := []any{
			l.ID,
			l.Name,
			l.Email,
			l.Phone,
			string(l.Status),
			string(l.Source),
			l.CreatedAt.UTC().Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(SheetName, cell, v)
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 38)
	_ = f.SetColWidth(SheetName, "B", "C", 30)
	_ = f.SetColWidth(SheetName, "D", "D", 18)
	_ = f.SetColWidth(SheetName, "E", "F", 12)
	_ = f.SetColWidth(SheetName, "G", "G", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("leads exported", "rows", len(leads), "bytes", buf.Len(), "duration", time.Since(start))
	return buf.Bytes(), nil
}
