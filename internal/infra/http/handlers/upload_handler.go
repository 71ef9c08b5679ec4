package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/xavierca1/leadflow/internal/infra/http/middleware"
	"github.com/xavierca1/leadflow/internal/infra/storage"
	"github.com/xavierca1/leadflow/internal/usecase"
)

// multipart boundaries and headers on top of the file itself
const multipartOverhead = 1 << 20

type DocumentIngester interface {
	Execute(ctx context.Context, input usecase.IngestDocumentInput) (*usecase.IngestDocumentOutput, error)
}

type UploadHandler struct {
	ingest   DocumentIngester
	uploads  *storage.UploadDir
	maxBytes int64
}

func NewUploadHandler(ingest DocumentIngester, uploads *storage.UploadDir, maxBytes int64) *UploadHandler {
	if maxBytes <= 0 {
		maxBytes = usecase.DefaultMaxUploadBytes
	}
	return &UploadHandler{ingest: ingest, uploads: uploads, maxBytes: maxBytes}
}

type UploadResponse struct {
	Message string `json:"message"`
	*usecase.IngestDocumentOutput
}

func (h *UploadHandler) Handle(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, "expected a multipart/form-data upload")
		return
	}

	var (
		doc       *storage.TempDocument
		name      string
		mediaType string
	)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			h.writeReadError(w, err)
			return
		}
		if part.FormName() != "file" || part.FileName() == "" {
			part.Close()
			continue
		}

		name = filepath.Base(part.FileName())
		mediaType = part.Header.Get("Content-Type")
		if mediaType == "" || mediaType == "application/octet-stream" {
			if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
				mediaType = byExt
			}
		}

		doc, err = h.uploads.Save(part, h.maxBytes)
		part.Close()
		if err != nil {
			h.writeReadError(w, err)
			return
		}
		break
	}

	if doc == nil {
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, "no file uploaded")
		return
	}

	log := slog.With("file", name, "media_type", mediaType, "size", doc.Size)
	log.InfoContext(r.Context(), "document uploaded")

	// keep going if the client hangs up, cleanup happens inside Execute
	out, err := h.ingest.Execute(context.WithoutCancel(r.Context()), usecase.IngestDocumentInput{
		Name:      name,
		MediaType: mediaType,
		Size:      doc.Size,
		Document:  doc,
	})
	if err != nil {
		middleware.RecordDocument("", usecase.ErrorCode(err))
		writeError(w, r, err)
		return
	}

	middleware.RecordDocument(out.Method, "ok")
	middleware.RecordLeadsCreated("Document", len(out.Leads))
	middleware.RecordDuplicates(out.Duplicates)

	writeJSON(w, http.StatusOK, UploadResponse{
		Message:              fmt.Sprintf("extracted %d new leads (%d duplicates skipped)", len(out.Leads), out.Duplicates),
		IngestDocumentOutput: out,
	})
}

func (h *UploadHandler) writeReadError(w http.ResponseWriter, err error) {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		writeErrorResponse(w, http.StatusRequestEntityTooLarge, usecase.CodePayloadTooLarge,
			fmt.Sprintf("file too large, maximum size is %d MB", h.maxBytes>>20))
		return
	}
	writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, "failed to read upload")
}
