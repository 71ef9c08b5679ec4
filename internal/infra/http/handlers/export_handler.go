package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

type LeadExporter interface {
	LeadsXLSX(ctx context.Context) ([]byte, error)
}

type ExportHandler struct {
	exporter LeadExporter
}

func NewExportHandler(exporter LeadExporter) *ExportHandler {
	return &ExportHandler{exporter: exporter}
}

func (h *ExportHandler) Handle(w http.ResponseWriter, r *http.Request) {
	data, err := h.exporter.LeadsXLSX(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "export failed", "error", err)
		writeErrorResponse(w, http.StatusInternalServerError, "EXPORT_FAILED", "failed to export leads")
		return
	}

	filename := fmt.Sprintf("leads-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
