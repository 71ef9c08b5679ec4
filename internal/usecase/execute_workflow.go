package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/queue"
)

// WorkflowBatchSize bounds how many leads a workflow touches at once.
const WorkflowBatchSize = 3

type ExecuteWorkflowUseCase struct {
	Repo   entity.LeadRepositoryInterface
	Email  *SendLeadEmailUseCase
	Queue  OutreachQueue // optional, emails are sent inline without it
	Logger *slog.Logger
}

func NewExecuteWorkflowUseCase(repo entity.LeadRepositoryInterface, email *SendLeadEmailUseCase, q OutreachQueue, logger *slog.Logger) *ExecuteWorkflowUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecuteWorkflowUseCase{Repo: repo, Email: email, Queue: q, Logger: logger}
}

// Execute applies one action to each lead. A failure on one lead is reported in its
// result and does not stop the others.
func (uc *ExecuteWorkflowUseCase) Execute(ctx context.Context, input WorkflowInput) (*WorkflowOutput, error) {
	if len(input.LeadIDs) == 0 {
		return nil, newDomainError(CodeValidation, "leadIds must not be empty", nil)
	}

	var apply func(context.Context, string) WorkflowResult
	switch input.Action {
	case ActionSendEmail:
		if input.EmailTemplate == nil || strings.TrimSpace(input.EmailTemplate.Subject) == "" ||
			strings.TrimSpace(input.EmailTemplate.Message) == "" {
			return nil, newDomainError(CodeValidation, "emailTemplate with subject and message is required", nil)
		}
		tmpl := *input.EmailTemplate
		apply = func(ctx context.Context, id string) WorkflowResult { return uc.sendEmail(ctx, id, tmpl) }
	case ActionUpdateStatus:
		status := entity.StatusContacted
		if input.Status != "" {
			status = entity.LeadStatus(input.Status)
		}
		if !status.Valid() {
			return nil, newDomainError(CodeValidation, "status must be New or Contacted", nil)
		}
		apply = func(ctx context.Context, id string) WorkflowResult { return uc.updateStatus(ctx, id, status) }
	default:
		return nil, newDomainError(CodeValidation, fmt.Sprintf("unknown workflow action %q", input.Action), nil)
	}

	results := make([]WorkflowResult, len(input.LeadIDs))
	var mu sync.Mutex
	processed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(WorkflowBatchSize)
	for i, id := range input.LeadIDs {
		g.Go(func() error {
			res := apply(gctx, id)
			results[i] = res
			if res.Status != "failed" {
				mu.Lock()
				processed++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	uc.Logger.Info("workflow executed", "action", input.Action, "leads", len(input.LeadIDs), "processed", processed)

	return &WorkflowOutput{
		Message:        fmt.Sprintf("workflow %s processed %d of %d leads", input.Action, processed, len(input.LeadIDs)),
		Results:        results,
		ProcessedLeads: processed,
	}, nil
}

func (uc *ExecuteWorkflowUseCase) sendEmail(ctx context.Context, id string, tmpl EmailTemplate) WorkflowResult {
	lead, err := uc.Repo.FindByID(ctx, id)
	if err != nil {
		return failed(id, mapStoreError(err, id))
	}

	subject := personalize(tmpl.Subject, lead)
	message := personalize(tmpl.Message, lead)

	if uc.Queue != nil {
		err := uc.Queue.PublishOutreach(ctx, queue.OutreachPayload{
			LeadID:  lead.ID,
			Email:   lead.Email,
			Name:    lead.Name,
			Subject: subject,
			Message: message,
		})
		if err != nil {
			return failed(id, &TechnicalError{Code: CodeQueueFailed, Message: "failed to queue email", Err: err})
		}
		return WorkflowResult{LeadID: id, Email: lead.Email, Status: "queued"}
	}

	if _, err := uc.Email.Execute(ctx, SendLeadEmailInput{LeadID: id, Subject: subject, Message: message}); err != nil {
		res := failed(id, err)
		res.Email = lead.Email
		return res
	}
	return WorkflowResult{LeadID: id, Email: lead.Email, Status: "sent"}
}

func (uc *ExecuteWorkflowUseCase) updateStatus(ctx context.Context, id string, status entity.LeadStatus) WorkflowResult {
	lead, err := uc.Repo.Update(ctx, id, entity.LeadPatch{Status: &status})
	if err != nil {
		return failed(id, mapStoreError(err, id))
	}
	return WorkflowResult{LeadID: id, Email: lead.Email, Status: "updated"}
}

func failed(id string, err error) WorkflowResult {
	return WorkflowResult{LeadID: id, Status: "failed", Error: err.Error()}
}

// personalize fills the {{name}} placeholder.
func personalize(s string, lead *entity.Lead) string {
	return strings.ReplaceAll(s, "{{name}}", lead.Name)
}
