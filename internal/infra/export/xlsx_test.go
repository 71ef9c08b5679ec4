package export

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/xavierca1/leadflow/internal/entity"
)

type MockLeadRepository struct {
	mock.Mock
	entity.LeadRepositoryInterface
}

func (m *MockLeadRepository) List(ctx context.Context) ([]*entity.Lead, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Lead), args.Error(1)
}

func TestLeadsXLSX(t *testing.T) {
	lead := entity.NewLead("Jane Doe", "jane@acme.io", "+15551234567", entity.SourceDocument)
	lead.CreatedAt = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	repo := new(MockLeadRepository)
	repo.On("List", mock.Anything).Return([]*entity.Lead{lead}, nil)

	data, err := NewService(repo, nil).LeadsXLSX(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, []string{lead.ID, "Jane Doe", "jane@acme.io", "+15551234567", "New", "Document", "2024-05-01T09:30:00Z"}, rows[1])
}

func TestLeadsXLSX_StoreError(t *testing.T) {
	repo := new(MockLeadRepository)
	repo.On("List", mock.Anything).Return(nil, errors.New("db down"))

	_, err := NewService(repo, nil).LeadsXLSX(context.Background())
	assert.ErrorContains(t, err, "db down")
}
