package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/mail"
	"github.com/xavierca1/leadflow/internal/infra/queue"
)

type SendLeadEmailUseCase struct {
	Repo   entity.LeadRepositoryInterface
	Mailer EmailService
	Logger *slog.Logger
}

func NewSendLeadEmailUseCase(repo entity.LeadRepositoryInterface, mailer EmailService, logger *slog.Logger) *SendLeadEmailUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SendLeadEmailUseCase{Repo: repo, Mailer: mailer, Logger: logger}
}

// Execute emails one lead and, if it was New, marks it Contacted.
func (uc *SendLeadEmailUseCase) Execute(ctx context.Context, input SendLeadEmailInput) (*entity.Lead, error) {
	var errs []ValidationError
	if strings.TrimSpace(input.Subject) == "" {
		errs = append(errs, ValidationError{"subject", "is required"})
	}
	if strings.TrimSpace(input.Message) == "" {
		errs = append(errs, ValidationError{"message", "is required"})
	}
	if len(errs) > 0 {
		return nil, validationFailure(errs)
	}

	lead, err := uc.Repo.FindByID(ctx, input.LeadID)
	if err != nil {
		return nil, mapStoreError(err, input.LeadID)
	}

	if err := uc.deliver(lead, input.Subject, input.Message); err != nil {
		return nil, err
	}

	return uc.markContacted(ctx, lead)
}

// HandleOutreach sends a message taken off the outreach queue.
func (uc *SendLeadEmailUseCase) HandleOutreach(ctx context.Context, p queue.OutreachPayload) error {
	lead, err := uc.Repo.FindByID(ctx, p.LeadID)
	if err != nil {
		return mapStoreError(err, p.LeadID)
	}
	if err := uc.deliver(lead, p.Subject, p.Message); err != nil {
		return err
	}
	_, err = uc.markContacted(ctx, lead)
	return err
}

func (uc *SendLeadEmailUseCase) deliver(lead *entity.Lead, subject, message string) error {
	if uc.Mailer == nil {
		return &TechnicalError{Code: CodeEmailNotConfigured, Message: "email service is not configured"}
	}

	body, err := mail.RenderLeadEmail(lead.Name, message)
	if err != nil {
		return &TechnicalError{Code: CodeEmailFailed, Message: "failed to render email", Err: err}
	}

	if err := uc.Mailer.Send(lead.Email, subject, body); err != nil {
		if errors.Is(err, mail.ErrNotConfigured) {
			return &TechnicalError{Code: CodeEmailNotConfigured, Message: "email service is not configured", Err: err}
		}
		uc.Logger.Error("failed to send lead email", "lead_id", lead.ID, "error", err)
		return &TechnicalError{Code: CodeEmailFailed, Message: "failed to send email", Err: err}
	}

	uc.Logger.Info("lead email sent", "lead_id", lead.ID)
	return nil
}

func (uc *SendLeadEmailUseCase) markContacted(ctx context.Context, lead *entity.Lead) (*entity.Lead, error) {
	if lead.Status != entity.StatusNew {
		return lead, nil
	}
	contacted := entity.StatusContacted
	updated, err := uc.Repo.Update(ctx, lead.ID, entity.LeadPatch{Status: &contacted})
	if err != nil {
		return nil, mapStoreError(err, lead.ID)
	}
	return updated, nil
}
