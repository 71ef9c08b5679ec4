package entity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type LeadStatus string

const (
	StatusNew       LeadStatus = "New"
	StatusContacted LeadStatus = "Contacted"
)

func (s LeadStatus) Valid() bool {
	return s == StatusNew || s == StatusContacted
}

type LeadSource string

const (
	SourceManual   LeadSource = "Manual"
	SourceDocument LeadSource = "Document"
)

func (s LeadSource) Valid() bool {
	return s == SourceManual || s == SourceDocument
}

var (
	ErrLeadNotFound            = errors.New("lead not found")
	ErrEmailAlreadyExists      = errors.New("a lead with this email already exists")
	ErrInvalidStatus           = errors.New("invalid lead status")
	ErrInvalidStatusTransition = errors.New("invalid lead status transition")
)

type Lead struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Status    LeadStatus `json:"status"`
	Source    LeadSource `json:"source"`
	CreatedAt time.Time  `json:"createdAt"`
}

// LeadPatch is a partial update. Nil fields are left untouched; there is no way to
// change ID, Source or CreatedAt after creation.
type LeadPatch struct {
	Name   *string
	Email  *string
	Phone  *string
	Status *LeadStatus
}

func (p LeadPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.Status == nil
}

type LeadRepositoryInterface interface {
	List(ctx context.Context) ([]*Lead, error)
	FindByID(ctx context.Context, id string) (*Lead, error)
	FindByEmail(ctx context.Context, normalizedEmail string) (*Lead, error)
	Insert(ctx context.Context, lead *Lead) error
	Update(ctx context.Context, id string, patch LeadPatch) (*Lead, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// NormalizeEmail returns the dedup key for an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NewLead(name, email, phone string, source LeadSource) *Lead {
	return &Lead{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		Email:     NormalizeEmail(email),
		Phone:     strings.TrimSpace(phone),
		Status:    StatusNew,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
}

func (l *Lead) Validate() error {
	if l.ID == "" {
		return errors.New("id is required")
	}
	if l.Name == "" {
		return errors.New("name is required")
	}
	if l.Email == "" || !strings.Contains(l.Email, "@") {
		return errors.New("email is required")
	}
	if !l.Status.Valid() {
		return ErrInvalidStatus
	}
	if !l.Source.Valid() {
		return errors.New("invalid lead source")
	}
	return nil
}

// Apply mutates l with the non-nil fields of p. Status only moves New -> Contacted.
func (l *Lead) Apply(p LeadPatch) error {
	if p.Status != nil {
		next := *p.Status
		if !next.Valid() {
			return ErrInvalidStatus
		}
		if next != l.Status && !(l.Status == StatusNew && next == StatusContacted) {
			return ErrInvalidStatusTransition
		}
	}

	if p.Name != nil {
		l.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		l.Email = NormalizeEmail(*p.Email)
	}
	if p.Phone != nil {
		l.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Status != nil {
		l.Status = *p.Status
	}
	return nil
}

// Clone returns a copy safe to hand out of a store.
func (l *Lead) Clone() *Lead {
	c := *l
	return &c
}
