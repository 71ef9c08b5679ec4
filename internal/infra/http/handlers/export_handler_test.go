package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type exporterFunc func(ctx context.Context) ([]byte, error)

func (f exporterFunc) LeadsXLSX(ctx context.Context) ([]byte, error) { return f(ctx) }

func TestExportHandler(t *testing.T) {
	h := NewExportHandler(exporterFunc(func(context.Context) ([]byte, error) {
		return []byte("PK\x03\x04"), nil
	}))

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/leads/export.xlsx", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.Equal(t, "4", rec.Header().Get("Content-Length"))
}

func TestExportHandler_Failure(t *testing.T) {
	h := NewExportHandler(exporterFunc(func(context.Context) ([]byte, error) {
		return nil, errors.New("db down")
	}))

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/leads/export.xlsx", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestHealthHandler_NoOptionalDeps(t *testing.T) {
	h := NewHealthHandler(nil, nil, "csv", "gosseract", false)

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode[HealthResponse](t, rec)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "csv", resp.Dependencies["store"])
	assert.Equal(t, "not configured", resp.Dependencies["rabbitmq"])
	assert.Equal(t, "not configured", resp.Dependencies["email"])
}
