package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/xavierca1/leadflow/internal/entity"
)

type ManageLeadsUseCase struct {
	Repo   entity.LeadRepositoryInterface
	Logger *slog.Logger
}

func NewManageLeadsUseCase(repo entity.LeadRepositoryInterface, logger *slog.Logger) *ManageLeadsUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ManageLeadsUseCase{Repo: repo, Logger: logger}
}

func (uc *ManageLeadsUseCase) List(ctx context.Context) ([]*entity.Lead, error) {
	leads, err := uc.Repo.List(ctx)
	if err != nil {
		return nil, databaseError("failed to fetch leads", err)
	}
	return leads, nil
}

func (uc *ManageLeadsUseCase) Get(ctx context.Context, id string) (*entity.Lead, error) {
	lead, err := uc.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, id)
	}
	return lead, nil
}

func (uc *ManageLeadsUseCase) Create(ctx context.Context, input CreateLeadInput) (*entity.Lead, error) {
	if errs := ValidateCreateLeadInput(input); len(errs) > 0 {
		return nil, validationFailure(errs)
	}

	source := entity.SourceManual
	if input.Source != "" {
		source = entity.LeadSource(input.Source)
	}
	lead := entity.NewLead(input.Name, input.Email, input.Phone, source)
	if input.Status != "" {
		lead.Status = entity.LeadStatus(input.Status)
	}

	if err := uc.Repo.Insert(ctx, lead); err != nil {
		return nil, mapStoreError(err, lead.ID)
	}

	uc.Logger.Info("lead created", "lead_id", lead.ID, "source", lead.Source)
	return lead, nil
}

func (uc *ManageLeadsUseCase) Update(ctx context.Context, id string, input UpdateLeadInput) (*entity.Lead, error) {
	if errs := ValidateUpdateLeadInput(input); len(errs) > 0 {
		return nil, validationFailure(errs)
	}

	patch := entity.LeadPatch{
		Name:  input.Name,
		Email: input.Email,
		Phone: input.Phone,
	}
	if input.Status != nil {
		s := entity.LeadStatus(*input.Status)
		patch.Status = &s
	}
	if patch.IsEmpty() {
		return nil, newDomainError(CodeValidation, "no fields to update", nil)
	}

	lead, err := uc.Repo.Update(ctx, id, patch)
	if err != nil {
		return nil, mapStoreError(err, id)
	}

	uc.Logger.Info("lead updated", "lead_id", id)
	return lead, nil
}

func (uc *ManageLeadsUseCase) Delete(ctx context.Context, id string) error {
	ok, err := uc.Repo.Delete(ctx, id)
	if err != nil {
		return databaseError("failed to delete lead", err)
	}
	if !ok {
		return notFound(id)
	}

	uc.Logger.Info("lead deleted", "lead_id", id)
	return nil
}

func notFound(id string) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: "no lead found with ID: " + id,
		Err:     entity.ErrLeadNotFound,
	}
}

// mapStoreError turns repository sentinels into domain errors.
func mapStoreError(err error, id string) error {
	switch {
	case errors.Is(err, entity.ErrLeadNotFound):
		return notFound(id)
	case errors.Is(err, entity.ErrEmailAlreadyExists):
		return newDomainError(CodeDuplicateLead, "a lead with this email already exists", err)
	case errors.Is(err, entity.ErrInvalidStatusTransition), errors.Is(err, entity.ErrInvalidStatus):
		return &DomainError{
			Code:    CodeValidation,
			Message: "status can only move from New to Contacted",
			Details: map[string]string{"status": err.Error()},
			Err:     err,
		}
	default:
		return databaseError("lead store failure", err)
	}
}
