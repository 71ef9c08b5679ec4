package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/ocr"
	"github.com/xavierca1/leadflow/internal/infra/queue"
)

// memRepo is an in-memory LeadRepositoryInterface. failInsertAfter makes the n-th
// Insert (1-based) fail with a plain error.
type memRepo struct {
	mu              sync.Mutex
	leads           map[string]*entity.Lead
	inserts         int
	deletes         int
	failInsertAfter int
	failList        error
}

func newMemRepo(seed ...*entity.Lead) *memRepo {
	r := &memRepo{leads: map[string]*entity.Lead{}}
	for _, l := range seed {
		r.leads[l.ID] = l.Clone()
	}
	return r
}

func (r *memRepo) List(ctx context.Context) ([]*entity.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failList != nil {
		return nil, r.failList
	}
	out := make([]*entity.Lead, 0, len(r.leads))
	for _, l := range r.leads {
		out = append(out, l.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepo) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	return l.Clone(), nil
}

func (r *memRepo) FindByEmail(ctx context.Context, email string) (*entity.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.leads {
		if l.Email == entity.NormalizeEmail(email) {
			return l.Clone(), nil
		}
	}
	return nil, entity.ErrLeadNotFound
}

func (r *memRepo) Insert(ctx context.Context, lead *entity.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserts++
	if r.failInsertAfter > 0 && r.inserts >= r.failInsertAfter {
		return errors.New("disk full")
	}
	for _, l := range r.leads {
		if l.Email == lead.Email {
			return entity.ErrEmailAlreadyExists
		}
	}
	r.leads[lead.ID] = lead.Clone()
	return nil
}

func (r *memRepo) Update(ctx context.Context, id string, patch entity.LeadPatch) (*entity.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	next := l.Clone()
	if err := next.Apply(patch); err != nil {
		return nil, err
	}
	for otherID, o := range r.leads {
		if otherID != id && o.Email == next.Email {
			return nil, entity.ErrEmailAlreadyExists
		}
	}
	r.leads[id] = next
	return next.Clone(), nil
}

func (r *memRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.leads[id]; !ok {
		return false, nil
	}
	r.deletes++
	delete(r.leads, id)
	return true, nil
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.leads)
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, mediaType string, content []byte) (ocr.ExtractionResult, error) {
	args := m.Called(ctx, mediaType, content)
	return args.Get(0).(ocr.ExtractionResult), args.Error(1)
}

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) Send(to, subject, htmlBody string) error {
	args := m.Called(to, subject, htmlBody)
	return args.Error(0)
}

type MockOutreachQueue struct {
	mock.Mock
}

func (m *MockOutreachQueue) PublishOutreach(ctx context.Context, payload queue.OutreachPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

// fakeDocument records how many times it was released.
type fakeDocument struct {
	content  []byte
	readErr  error
	released int
}

func (d *fakeDocument) Bytes() ([]byte, error) {
	if d.readErr != nil {
		return nil, d.readErr
	}
	return d.content, nil
}

func (d *fakeDocument) Release() error {
	d.released++
	return nil
}
