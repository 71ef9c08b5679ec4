package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/ocr"
	"github.com/xavierca1/leadflow/internal/infra/ocr/ocrtest"
)

func pdfInput(doc *fakeDocument) IngestDocumentInput {
	return IngestDocumentInput{
		Name:      "contacts.pdf",
		MediaType: "application/pdf",
		Size:      int64(len(doc.content)),
		Document:  doc,
	}
}

func textResult(text string) ocr.ExtractionResult {
	return ocr.ExtractionResult{Text: text, Pages: 1, Method: ocr.MethodPDFText}
}

func TestIngestDocument_CreatesLeads(t *testing.T) {
	repo := newMemRepo()
	ext := new(MockExtractor)
	doc := &fakeDocument{content: []byte("%PDF-fake")}

	ext.On("Extract", mock.Anything, "application/pdf", doc.content).
		Return(textResult("Jane Doe\njane.doe@acme.io\n(555) 123-4567"), nil)

	uc := NewIngestDocumentUseCase(repo, ext, 0, 0, nil)
	out, err := uc.Execute(context.Background(), pdfInput(doc))

	require.NoError(t, err)
	require.Len(t, out.Leads, 1)
	assert.Equal(t, "Jane Doe", out.Leads[0].Name)
	assert.Equal(t, entity.SourceDocument, out.Leads[0].Source)
	assert.Equal(t, entity.StatusNew, out.Leads[0].Status)
	assert.Equal(t, 1, out.Candidates)
	assert.Equal(t, 0, out.Duplicates)
	assert.Equal(t, ocr.MethodPDFText, out.Method)
	assert.Equal(t, "application/pdf", out.FileInfo.Type)
	assert.Equal(t, 1, repo.count())
	assert.Equal(t, 1, doc.released)
	ext.AssertExpectations(t)
}

func TestIngestDocument_UnsupportedMediaTypeSkipsExtraction(t *testing.T) {
	repo := newMemRepo()
	ext := new(MockExtractor)
	doc := &fakeDocument{content: []byte("Jane Doe jane@acme.io")}

	uc := NewIngestDocumentUseCase(repo, ext, 0, 0, nil)
	_, err := uc.Execute(context.Background(), IngestDocumentInput{
		Name: "notes.txt", MediaType: "text/plain", Size: 21, Document: doc,
	})

	require.Error(t, err)
	assert.Equal(t, CodeUnsupportedMediaType, ErrorCode(err))
	ext.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 0, repo.inserts)
	assert.Equal(t, 1, doc.released)
}

func TestIngestDocument_EmptyTextIsNoTextFound(t *testing.T) {
	repo := newMemRepo()
	ext := new(MockExtractor)
	doc := &fakeDocument{content: []byte("png")}

	ext.On("Extract", mock.Anything, "image/png", mock.Anything).
		Return(ocr.ExtractionResult{Text: "  \n", Method: ocr.MethodImageOCR}, nil)

	uc := NewIngestDocumentUseCase(repo, ext, 0, 0, nil)
	_, err := uc.Execute(context.Background(), IngestDocumentInput{
		Name: "scan.png", MediaType: "image/png", Size: 3, Document: doc,
	})

	assert.Equal(t, CodeNoTextFound, ErrorCode(err))
	assert.Equal(t, 0, repo.inserts)
	assert.Equal(t, 1, doc.released)
}

func TestIngestDocument_DuplicateIsCaseInsensitive(t *testing.T) {
	existing := entity.NewLead("Jane Doe", "jane.doe@acme.io", "", entity.SourceManual)
	repo := newMemRepo(existing)
	ext := new(MockExtractor)
	doc := &fakeDocument{content: []byte("%PDF")}

	ext.On("Extract", mock.Anything, mock.Anything, mock.Anything).
		Return(textResult("Jane Doe\nJANE.Doe@Acme.io"), nil)

	uc := NewIngestDocumentUseCase(repo, ext, 0, 0, nil)
	out, err := uc.Execute(context.Background(), pdfInput(doc))

	require.NoError(t, err)
	assert.Empty(t, out.Leads)
	assert.Equal(t, 1, out.Duplicates)
	assert.Equal(t, 1, repo.count())
	assert.Equal(t, 0, repo.inserts)
}

func TestIngestDocument_ReingestIsIdempotent(t *testing.T) {
	repo := newMemRepo()
	ext := new(MockExtractor)
	ext.On("Extract", mock.Anything, mock.Anything, mock.Anything).
		Return(textResult("Jane Doe\njane@acme.io\nJohn Smith\njohn@acme.io"), nil)

	uc := NewIngestDocumentUseCase(repo, ext, 0, 0, nil)

	first, err := uc.Execute(context.Background(), pdfInput(&fakeDocument{content: []byte("%PDF")}))
	require.NoError(t, err)
	assert.Len(t, first.Leads, 2)

	second, err := uc.Execute(context.Background(), pdfInput(&fakeDocument{content: []byte("%PDF")}))
	require.NoError(t, err)
	assert.Empty(t, second.Leads)
	assert.Equal(t, 2, second.Duplicates)
	assert.Equal(t, 2, repo.count())
}

func TestIngestDocument_NoLeadsCarriesExcerpt(t *testing.T) {
	repo := newMemRepo()
	ext := new(MockExtractor)
	text := strings.Repeat("invoice line without contacts ", 40)
	ext.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(textResult(text), nil)

	uc := NewIngestDocumentUseCase(repo, ext, 0, 100, nil)
	_, err := uc.Execute(context.Background(), pdfInput(&fakeDocument{content: []byte("%PDF")}))

	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeNoLeadsFound, de.Code)
	assert.Equal(t, Excerpt(text, 100), de.Details["excerpt"])
	assert.Equal(t, 0, repo.inserts)
}

func TestIngestDocument_ExtractionFailure(t *testing.T) {
	repo := newMemRepo()
	ext := new(MockExtractor)
	doc := &fakeDocument{content: []byte("%PDF")}
	ext.On("Extract", mock.Anything, mock.Anything, mock.Anything).
		Return(ocr.ExtractionResult{}, &ocr.ExtractionError{Method: ocr.MethodPDFText, Err: errors.New("malformed xref")})

	uc := NewIngestDocumentUseCase(repo, ext, 0, 0, nil)
	_, err := uc.Execute(context.Background(), pdfInput(doc))

	assert.Equal(t, CodeExtractionFailed, ErrorCode(err))
	var ee *ocr.ExtractionError
	assert.ErrorAs(t, err, &ee)
	assert.Equal(t, 0, repo.inserts)
	assert.Equal(t, 1, doc.released)
}

func TestIngestDocument_SizeLimits(t *testing.T) {
	ext := new(MockExtractor)
	uc := NewIngestDocumentUseCase(newMemRepo(), ext, 8, 0, nil)

	declared := &fakeDocument{content: []byte("%PDF")}
	_, err := uc.Execute(context.Background(), IngestDocumentInput{
		Name: "big.pdf", MediaType: "application/pdf", Size: 9, Document: declared,
	})
	assert.Equal(t, CodePayloadTooLarge, ErrorCode(err))
	assert.Equal(t, 1, declared.released)

	// declared size lies, actual content is over the limit
	actual := &fakeDocument{content: []byte("%PDF-0123456789")}
	_, err = uc.Execute(context.Background(), IngestDocumentInput{
		Name: "big.pdf", MediaType: "application/pdf", Size: 1, Document: actual,
	})
	assert.Equal(t, CodePayloadTooLarge, ErrorCode(err))
	assert.Equal(t, 1, actual.released)

	ext.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestDocument_UnreadableDocument(t *testing.T) {
	doc := &fakeDocument{readErr: errors.New("temp file vanished")}
	uc := NewIngestDocumentUseCase(newMemRepo(), new(MockExtractor), 0, 0, nil)

	_, err := uc.Execute(context.Background(), pdfInput(doc))

	assert.Equal(t, CodeExtractionFailed, ErrorCode(err))
	assert.Equal(t, 1, doc.released)
}

func TestIngestDocument_StoreFailureRollsBackBatch(t *testing.T) {
	repo := newMemRepo()
	repo.failInsertAfter = 2
	ext := new(MockExtractor)
	ext.On("Extract", mock.Anything, mock.Anything, mock.Anything).
		Return(textResult("Jane Doe\njane@acme.io\nJohn Smith\njohn@acme.io"), nil)

	uc := NewIngestDocumentUseCase(repo, ext, 0, 0, nil)
	out, err := uc.Execute(context.Background(), pdfInput(&fakeDocument{content: []byte("%PDF")}))

	assert.Nil(t, out)
	assert.Equal(t, CodeDatabase, ErrorCode(err))
	assert.True(t, IsTechnicalError(err))
	assert.Equal(t, 0, repo.count())
	assert.Equal(t, 1, repo.deletes)
}

func TestIngestDocument_NormalizesMediaTypeParams(t *testing.T) {
	repo := newMemRepo()
	ext := new(MockExtractor)
	ext.On("Extract", mock.Anything, "image/JPEG; charset=binary", mock.Anything).
		Return(ocr.ExtractionResult{Text: "Jane Doe\njane@acme.io", Method: ocr.MethodImageOCR, Confidence: 0.8}, nil)

	uc := NewIngestDocumentUseCase(repo, ext, 0, 0, nil)
	out, err := uc.Execute(context.Background(), IngestDocumentInput{
		Name: "card.jpg", MediaType: "image/JPEG; charset=binary", Size: 4, Document: &fakeDocument{content: []byte("jpeg")},
	})

	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", out.FileInfo.Type)
	assert.InDelta(t, 0.8, out.Confidence, 0.001)
}

func TestIngestDocument_PDFTextLayerEndToEnd(t *testing.T) {
	repo := newMemRepo()
	doc := &fakeDocument{content: ocrtest.BuildPDF("Jane Doe", "jane.doe@example.com", "(555) 123-4567")}

	uc := NewIngestDocumentUseCase(repo, ocr.NewExtractor(ocr.Config{}, nil, nil), 0, 0, nil)
	out, err := uc.Execute(context.Background(), pdfInput(doc))

	require.NoError(t, err)
	require.Len(t, out.Leads, 1)
	assert.Equal(t, "Jane Doe", out.Leads[0].Name)
	assert.Equal(t, "jane.doe@example.com", out.Leads[0].Email)
	assert.Equal(t, "5551234567", out.Leads[0].Phone)
	assert.Equal(t, ocr.MethodPDFText, out.Method)
	assert.Equal(t, 1, doc.released)
}

func TestIngestDocument_CandidateExtractionFailures(t *testing.T) {
	tests := []struct {
		name    string
		extract func(string) ([]entity.Candidate, error)
	}{
		{
			name:    "panic",
			extract: func(string) ([]entity.Candidate, error) { panic("index out of range") },
		},
		{
			name:    "error",
			extract: func(string) ([]entity.Candidate, error) { return nil, errors.New("regex engine exhausted") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo()
			ext := new(MockExtractor)
			ext.On("Extract", mock.Anything, mock.Anything, mock.Anything).
				Return(textResult("Jane Doe\njane@acme.io"), nil)
			doc := &fakeDocument{content: []byte("%PDF")}

			uc := NewIngestDocumentUseCase(repo, ext, 0, 0, nil)
			uc.Extract = tt.extract
			out, err := uc.Execute(context.Background(), pdfInput(doc))

			assert.Nil(t, out)
			assert.Equal(t, CodeExtractionFailed, ErrorCode(err))
			assert.Equal(t, 0, repo.inserts)
			assert.Equal(t, 1, doc.released)
		})
	}
}
