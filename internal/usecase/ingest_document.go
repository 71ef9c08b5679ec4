package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/ocr"
)

const (
	DefaultMaxUploadBytes = 10 << 20
	DefaultExcerptLen     = 500
)

type IngestDocumentOutput struct {
	Leads         []*entity.Lead `json:"leads"`
	Candidates    int            `json:"candidates"`
	Duplicates    int            `json:"duplicates"`
	ExtractedText string         `json:"extractedText"`
	Method        string         `json:"method"`
	Confidence    float32        `json:"confidence,omitempty"`
	FileInfo      FileInfo       `json:"fileInfo"`
}

type IngestDocumentUseCase struct {
	Repo       entity.LeadRepositoryInterface
	Extractor  TextExtractor
	MaxBytes   int64
	ExcerptLen int
	Logger     *slog.Logger

	// Extract finds lead candidates in the document text. Defaults to ExtractCandidates.
	Extract func(string) ([]entity.Candidate, error)
}

func NewIngestDocumentUseCase(
	repo entity.LeadRepositoryInterface,
	extractor TextExtractor,
	maxBytes int64,
	excerptLen int,
	logger *slog.Logger,
) *IngestDocumentUseCase {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if excerptLen <= 0 {
		excerptLen = DefaultExcerptLen
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestDocumentUseCase{
		Repo:       repo,
		Extractor:  extractor,
		MaxBytes:   maxBytes,
		ExcerptLen: excerptLen,
		Logger:     logger,
		Extract:    ExtractCandidates,
	}
}

// Execute runs one uploaded document through extraction, dedup and persistence.
// The document handle is released on every exit path.
func (uc *IngestDocumentUseCase) Execute(ctx context.Context, input IngestDocumentInput) (*IngestDocumentOutput, error) {
	log := uc.Logger.With("file", input.Name, "media_type", input.MediaType, "size", input.Size)

	if input.Document != nil {
		defer func() {
			if err := input.Document.Release(); err != nil {
				log.Error("failed to release uploaded document", "error", err)
			}
		}()
	}

	if !ocr.IsSupported(input.MediaType) {
		return nil, newDomainError(CodeUnsupportedMediaType,
			fmt.Sprintf("unsupported file type %q, upload a PDF or an image (png, jpeg, gif, bmp, tiff)", input.MediaType), nil)
	}
	if input.Size > uc.MaxBytes {
		return nil, uc.tooLarge()
	}
	if input.Document == nil {
		return nil, newDomainError(CodeValidation, "no file uploaded", nil)
	}

	content, err := input.Document.Bytes()
	if err != nil {
		return nil, newDomainError(CodeExtractionFailed, "failed to read uploaded file", err)
	}
	if int64(len(content)) > uc.MaxBytes {
		return nil, uc.tooLarge()
	}

	res, err := uc.Extractor.Extract(ctx, input.MediaType, content)
	if err != nil {
		if errors.Is(err, ocr.ErrUnsupportedMediaType) {
			return nil, newDomainError(CodeUnsupportedMediaType, "unsupported file type", err)
		}
		log.Error("text extraction failed", "error", err)
		return nil, newDomainError(CodeExtractionFailed, "failed to extract text from the uploaded file", err)
	}
	log.Info("text extracted", "method", res.Method, "chars", len(res.Text), "pages", res.Pages, "duration", res.Duration)

	if strings.TrimSpace(res.Text) == "" {
		return nil, newDomainError(CodeNoTextFound, "no text could be extracted from the uploaded file", nil)
	}

	excerpt := Excerpt(res.Text, uc.ExcerptLen)

	extract := uc.Extract
	if extract == nil {
		extract = ExtractCandidates
	}
	cands, err := guardCandidates(extract, res.Text)
	if err != nil {
		log.Error("lead extraction failed", "error", err)
		return nil, newDomainError(CodeExtractionFailed, "failed to extract leads from the document text", err)
	}
	if len(cands) == 0 {
		return nil, &DomainError{
			Code:    CodeNoLeadsFound,
			Message: "no leads found in the document",
			Details: map[string]string{"excerpt": excerpt},
		}
	}

	created, dups, err := uc.persist(ctx, cands)
	if err != nil {
		return nil, err
	}

	log.Info("document ingested", "candidates", len(cands), "created", len(created), "duplicates", dups)

	return &IngestDocumentOutput{
		Leads:         created,
		Candidates:    len(cands),
		Duplicates:    dups,
		ExtractedText: excerpt,
		Method:        res.Method,
		Confidence:    res.Confidence,
		FileInfo: FileInfo{
			Name: input.Name,
			Type: ocr.NormalizeMediaType(input.MediaType),
			Size: int64(len(content)),
		},
	}, nil
}

// persist inserts every non-duplicate candidate. A store failure undoes this batch's inserts.
func (uc *IngestDocumentUseCase) persist(ctx context.Context, cands []entity.Candidate) ([]*entity.Lead, int, error) {
	created := make([]*entity.Lead, 0, len(cands))
	dups := 0

	txn := NewTransaction()
	for _, c := range cands {
		lead := entity.NewLead(c.Name, c.Email, c.Phone, entity.SourceDocument)
		inserted := false

		txn.AddStep("insert_lead "+lead.Email,
			func(ctx context.Context) error {
				_, err := uc.Repo.FindByEmail(ctx, lead.Email)
				if err == nil {
					dups++
					return nil
				}
				if !errors.Is(err, entity.ErrLeadNotFound) {
					return err
				}

				err = uc.Repo.Insert(ctx, lead)
				if errors.Is(err, entity.ErrEmailAlreadyExists) {
					// same key earlier in this batch, or a concurrent upload
					dups++
					return nil
				}
				if err != nil {
					return err
				}
				inserted = true
				created = append(created, lead)
				return nil
			},
			func(ctx context.Context) error {
				if !inserted {
					return nil
				}
				_, err := uc.Repo.Delete(ctx, lead.ID)
				return err
			},
		)
	}

	if err := txn.Execute(ctx); err != nil {
		return nil, 0, databaseError("failed to store extracted leads", err)
	}
	return created, dups, nil
}

func (uc *IngestDocumentUseCase) tooLarge() error {
	return newDomainError(CodePayloadTooLarge,
		fmt.Sprintf("file too large, maximum size is %d MB", uc.MaxBytes>>20), nil)
}

// Excerpt returns the first n runes of text, marked with "..." when cut.
func Excerpt(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + "..."
}
