package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/http/middleware"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type LeadManager interface {
	List(ctx context.Context) ([]*entity.Lead, error)
	Get(ctx context.Context, id string) (*entity.Lead, error)
	Create(ctx context.Context, input usecase.CreateLeadInput) (*entity.Lead, error)
	Update(ctx context.Context, id string, input usecase.UpdateLeadInput) (*entity.Lead, error)
	Delete(ctx context.Context, id string) error
}

type LeadEmailer interface {
	Execute(ctx context.Context, input usecase.SendLeadEmailInput) (*entity.Lead, error)
}

type LeadHandler struct {
	leads  LeadManager
	mailer LeadEmailer
}

func NewLeadHandler(leads LeadManager, mailer LeadEmailer) *LeadHandler {
	return &LeadHandler{leads: leads, mailer: mailer}
}

type SendEmailRequest struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type SendEmailResponse struct {
	Message string       `json:"message"`
	Lead    *entity.Lead `json:"lead"`
}

func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	leads, err := h.leads.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, leads)
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	lead, err := h.leads.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateLeadInput
	if err := decodeValid(r, leadCreateSchema, &input); err != nil {
		writeInvalidBody(w, err)
		return
	}

	lead, err := h.leads.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	middleware.RecordLeadsCreated(string(lead.Source), 1)
	writeJSON(w, http.StatusCreated, lead)
}

func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input usecase.UpdateLeadInput
	if err := decodeValid(r, leadUpdateSchema, &input); err != nil {
		writeInvalidBody(w, err)
		return
	}

	lead, err := h.leads.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.leads.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "lead deleted successfully"})
}

func (h *LeadHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req SendEmailRequest
	if err := decodeValid(r, sendEmailSchema, &req); err != nil {
		writeInvalidBody(w, err)
		return
	}

	lead, err := h.mailer.Execute(r.Context(), usecase.SendLeadEmailInput{
		LeadID:  chi.URLParam(r, "id"),
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		middleware.RecordEmail("failed")
		writeError(w, r, err)
		return
	}

	middleware.RecordEmail("sent")
	writeJSON(w, http.StatusOK, SendEmailResponse{Message: "email sent successfully", Lead: lead})
}
