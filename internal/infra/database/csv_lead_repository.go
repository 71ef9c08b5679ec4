package database

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xavierca1/leadflow/internal/entity"
)

var csvHeader = []string{"id", "name", "email", "phone", "status", "source", "createdAt"}

// CSVLeadRepository keeps all leads in memory and rewrites the whole file after every
// mutation. Writes go to a temp file that is renamed over the existing file.
type CSVLeadRepository struct {
	path  string
	mu    sync.Mutex
	leads []*entity.Lead
}

// NewCSVLeadRepository loads path, creating it with just a header when missing.
func NewCSVLeadRepository(path string) (*CSVLeadRepository, error) {
	r := &CSVLeadRepository{path: path}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		return r, r.flush()
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	leads, err := readLeads(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	r.leads = leads
	return r, nil
}

func readLeads(rd io.Reader) ([]*entity.Lead, error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = len(csvHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	leads := make([]*entity.Lead, 0, len(records)-1)
	for i, rec := range records[1:] {
		createdAt, err := time.Parse(time.RFC3339Nano, rec[6])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad createdAt %q: %w", i+2, rec[6], err)
		}
		leads = append(leads, &entity.Lead{
			ID:        rec[0],
			Name:      rec[1],
			Email:     entity.NormalizeEmail(rec[2]),
			Phone:     rec[3],
			Status:    entity.LeadStatus(rec[4]),
			Source:    entity.LeadSource(rec[5]),
			CreatedAt: createdAt.UTC(),
		})
	}
	return leads, nil
}

func (r *CSVLeadRepository) List(ctx context.Context) ([]*entity.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*entity.Lead, 0, len(r.leads))
	for _, l := range r.leads {
		out = append(out, l.Clone())
	}
	return out, nil
}

func (r *CSVLeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.indexByID(id); i >= 0 {
		return r.leads[i].Clone(), nil
	}
	return nil, entity.ErrLeadNotFound
}

func (r *CSVLeadRepository) FindByEmail(ctx context.Context, email string) (*entity.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.indexByEmail(entity.NormalizeEmail(email)); i >= 0 {
		return r.leads[i].Clone(), nil
	}
	return nil, entity.ErrLeadNotFound
}

func (r *CSVLeadRepository) Insert(ctx context.Context, lead *entity.Lead) error {
	if err := lead.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := lead.Clone()
	stored.Email = entity.NormalizeEmail(stored.Email)
	if r.indexByEmail(stored.Email) >= 0 {
		return entity.ErrEmailAlreadyExists
	}

	r.leads = append(r.leads, stored)
	if err := r.flush(); err != nil {
		r.leads = r.leads[:len(r.leads)-1]
		return err
	}
	return nil
}

func (r *CSVLeadRepository) Update(ctx context.Context, id string, patch entity.LeadPatch) (*entity.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexByID(id)
	if i < 0 {
		return nil, entity.ErrLeadNotFound
	}

	next := r.leads[i].Clone()
	if err := next.Apply(patch); err != nil {
		return nil, err
	}
	if j := r.indexByEmail(next.Email); j >= 0 && j != i {
		return nil, entity.ErrEmailAlreadyExists
	}

	prev := r.leads[i]
	r.leads[i] = next
	if err := r.flush(); err != nil {
		r.leads[i] = prev
		return nil, err
	}
	return next.Clone(), nil
}

func (r *CSVLeadRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexByID(id)
	if i < 0 {
		return false, nil
	}

	prev := r.leads
	r.leads = append(append([]*entity.Lead{}, prev[:i]...), prev[i+1:]...)
	if err := r.flush(); err != nil {
		r.leads = prev
		return false, err
	}
	return true, nil
}

func (r *CSVLeadRepository) indexByID(id string) int {
	for i, l := range r.leads {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (r *CSVLeadRepository) indexByEmail(email string) int {
	for i, l := range r.leads {
		if l.Email == email {
			return i
		}
	}
	return -1
}

// flush must be called with mu held.
func (r *CSVLeadRepository) flush() error {
	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return err
	}
	for _, l := range r.leads {
		rec := []string{
			l.ID,
			l.Name,
			l.Email,
			l.Phone,
			string(l.Status),
			string(l.Source),
			l.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
		if err := w.Write(rec); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), r.path)
}
