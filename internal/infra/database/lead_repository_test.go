package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/leadflow/internal/entity"
)

func newSQLiteRepo(t *testing.T) *LeadRepository {
	t.Helper()
	db, err := NewDBConnection("sqlite", filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewLeadRepository(db, DialectSQLite)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func newCSVRepo(t *testing.T) *CSVLeadRepository {
	t.Helper()
	repo, err := NewCSVLeadRepository(filepath.Join(t.TempDir(), "data", "leads.csv"))
	require.NoError(t, err)
	return repo
}

func backends(t *testing.T) map[string]entity.LeadRepositoryInterface {
	return map[string]entity.LeadRepositoryInterface{
		"csv":    newCSVRepo(t),
		"sqlite": newSQLiteRepo(t),
	}
}

func TestLeadStore_InsertAndFind(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			lead := entity.NewLead("Jane Doe", "Jane@Acme.io", "+15551234567", entity.SourceDocument)
			require.NoError(t, repo.Insert(ctx, lead))

			byID, err := repo.FindByID(ctx, lead.ID)
			require.NoError(t, err)
			assert.Equal(t, "jane@acme.io", byID.Email)
			assert.Equal(t, entity.SourceDocument, byID.Source)
			assert.Equal(t, entity.StatusNew, byID.Status)
			assert.WithinDuration(t, lead.CreatedAt, byID.CreatedAt, time.Millisecond)

			byEmail, err := repo.FindByEmail(ctx, " JANE@acme.io")
			require.NoError(t, err)
			assert.Equal(t, lead.ID, byEmail.ID)

			_, err = repo.FindByEmail(ctx, "john@acme.io")
			assert.ErrorIs(t, err, entity.ErrLeadNotFound)
			_, err = repo.FindByID(ctx, "missing")
			assert.ErrorIs(t, err, entity.ErrLeadNotFound)
		})
	}
}

func TestLeadStore_DuplicateEmail(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, repo.Insert(ctx, entity.NewLead("Jane", "jane@acme.io", "", entity.SourceManual)))

			err := repo.Insert(ctx, entity.NewLead("Other Jane", "JANE@ACME.IO", "", entity.SourceDocument))
			assert.ErrorIs(t, err, entity.ErrEmailAlreadyExists)

			leads, err := repo.List(ctx)
			require.NoError(t, err)
			assert.Len(t, leads, 1)
		})
	}
}

func TestLeadStore_ListInCreationOrder(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
			for i, n := range []string{"a", "b", "c"} {
				l := entity.NewLead("Lead "+n, n+"@acme.io", "", entity.SourceManual)
				l.CreatedAt = base.Add(time.Duration(i) * time.Minute)
				require.NoError(t, repo.Insert(ctx, l))
			}

			leads, err := repo.List(ctx)
			require.NoError(t, err)
			require.Len(t, leads, 3)
			assert.Equal(t, "a@acme.io", leads[0].Email)
			assert.Equal(t, "c@acme.io", leads[2].Email)
		})
	}
}

func TestLeadStore_Update(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			jane := entity.NewLead("Jane", "jane@acme.io", "", entity.SourceManual)
			john := entity.NewLead("John", "john@acme.io", "", entity.SourceManual)
			require.NoError(t, repo.Insert(ctx, jane))
			require.NoError(t, repo.Insert(ctx, john))

			contacted := entity.StatusContacted
			phone := "555-123-4567"
			got, err := repo.Update(ctx, jane.ID, entity.LeadPatch{Status: &contacted, Phone: &phone})
			require.NoError(t, err)
			assert.Equal(t, entity.StatusContacted, got.Status)
			assert.Equal(t, phone, got.Phone)
			assert.Equal(t, jane.ID, got.ID)

			back := entity.StatusNew
			_, err = repo.Update(ctx, jane.ID, entity.LeadPatch{Status: &back})
			assert.ErrorIs(t, err, entity.ErrInvalidStatusTransition)

			taken := "JANE@acme.io"
			_, err = repo.Update(ctx, john.ID, entity.LeadPatch{Email: &taken})
			assert.ErrorIs(t, err, entity.ErrEmailAlreadyExists)

			_, err = repo.Update(ctx, "missing", entity.LeadPatch{Phone: &phone})
			assert.ErrorIs(t, err, entity.ErrLeadNotFound)

			stored, err := repo.FindByID(ctx, john.ID)
			require.NoError(t, err)
			assert.Equal(t, "john@acme.io", stored.Email)
		})
	}
}

func TestLeadStore_Delete(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			lead := entity.NewLead("Jane", "jane@acme.io", "", entity.SourceManual)
			require.NoError(t, repo.Insert(ctx, lead))

			ok, err := repo.Delete(ctx, lead.ID)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = repo.Delete(ctx, lead.ID)
			require.NoError(t, err)
			assert.False(t, ok)

			// the key is free again
			assert.NoError(t, repo.Insert(ctx, entity.NewLead("Jane", "jane@acme.io", "", entity.SourceManual)))
		})
	}
}

func TestLeadStore_ConcurrentInsertsKeepEmailsUnique(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var wg sync.WaitGroup
			errs := make([]error, 20)
			for i := range 20 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					email := fmt.Sprintf("lead%d@acme.io", i%5)
					errs[i] = repo.Insert(ctx, entity.NewLead("Lead", email, "", entity.SourceDocument))
				}()
			}
			wg.Wait()

			for _, err := range errs {
				if err != nil {
					assert.ErrorIs(t, err, entity.ErrEmailAlreadyExists)
				}
			}
			leads, err := repo.List(ctx)
			require.NoError(t, err)
			assert.Len(t, leads, 5)
		})
	}
}

func TestCSVLeadRepository_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")
	repo, err := NewCSVLeadRepository(path)
	require.NoError(t, err)

	lead := entity.NewLead("Jane, Esq.", "jane@acme.io", "+15551234567", entity.SourceDocument)
	require.NoError(t, repo.Insert(context.Background(), lead))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "id,name,email,phone,status,source,createdAt\n"))
	assert.Contains(t, string(raw), `"Jane, Esq."`)

	reopened, err := NewCSVLeadRepository(path)
	require.NoError(t, err)
	got, err := reopened.FindByID(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane, Esq.", got.Name)
	assert.True(t, lead.CreatedAt.Equal(got.CreatedAt))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestCSVLeadRepository_RejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name\n1,Jane\n"), 0o644))

	_, err := NewCSVLeadRepository(path)
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	lite := &LeadRepository{Dialect: DialectSQLite}
	pg := &LeadRepository{Dialect: DialectPostgres}
	q := `UPDATE leads SET name = $1, email = $2 WHERE id = $10`

	assert.Equal(t, `UPDATE leads SET name = ?, email = ? WHERE id = ?`, lite.rebind(q))
	assert.Equal(t, q, pg.rebind(q))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
	assert.False(t, isUniqueViolation(nil))
}

func TestDialectFor(t *testing.T) {
	d, err := DialectFor("pgx")
	require.NoError(t, err)
	assert.Equal(t, DialectPostgres, d)

	_, err = DialectFor("mysql")
	assert.Error(t, err)
}
