package usecase

import (
	"context"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/ocr"
	"github.com/xavierca1/leadflow/internal/infra/queue"
)

type TextExtractor interface {
	Extract(ctx context.Context, mediaType string, content []byte) (ocr.ExtractionResult, error)
}

// EmailService delivers an already rendered HTML message.
type EmailService interface {
	Send(to, subject, htmlBody string) error
}

type OutreachQueue interface {
	PublishOutreach(ctx context.Context, payload queue.OutreachPayload) error
}

type IngestDocumentInput struct {
	Name      string
	MediaType string
	Size      int64
	Document  entity.DocumentHandle
}

type FileInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

type CreateLeadInput struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Status string `json:"status,omitempty"`
	Source string `json:"source,omitempty"`
}

type UpdateLeadInput struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Phone  *string `json:"phone,omitempty"`
	Status *string `json:"status,omitempty"`
}

type SendLeadEmailInput struct {
	LeadID  string `json:"leadId"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

const (
	ActionSendEmail    = "send_email"
	ActionUpdateStatus = "update_status"
)

type EmailTemplate struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type WorkflowInput struct {
	LeadIDs       []string       `json:"leadIds"`
	Action        string         `json:"action"`
	EmailTemplate *EmailTemplate `json:"emailTemplate,omitempty"`
	Status        string         `json:"status,omitempty"`
}

type WorkflowResult struct {
	LeadID string `json:"leadId"`
	Email  string `json:"email,omitempty"`
	Status string `json:"status"` // sent, queued, updated, failed
	Error  string `json:"error,omitempty"`
}

type WorkflowOutput struct {
	Message        string           `json:"message"`
	Results        []WorkflowResult `json:"results"`
	ProcessedLeads int              `json:"processedLeads"`
}
