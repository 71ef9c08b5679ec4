package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/leadflow/internal/config"
	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/database"
	"github.com/xavierca1/leadflow/internal/infra/export"
	"github.com/xavierca1/leadflow/internal/infra/http/handlers"
	"github.com/xavierca1/leadflow/internal/infra/mail"
	"github.com/xavierca1/leadflow/internal/infra/ocr"
	"github.com/xavierca1/leadflow/internal/infra/queue"
	"github.com/xavierca1/leadflow/internal/infra/storage"
	"github.com/xavierca1/leadflow/internal/infra/worker"
	"github.com/xavierca1/leadflow/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Store
	repo, db, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open lead store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	// 2. Adapters
	uploads, err := storage.NewUploadDir(cfg.Upload.Dir)
	if err != nil {
		logger.Error("failed to prepare upload dir", "error", err)
		os.Exit(1)
	}

	extractor := ocr.NewExtractor(ocrConfig(cfg.OCR), ocrEngine(cfg.OCR, logger), logger)

	var mailer usecase.EmailService
	if cfg.MailConfigured() {
		mailer = mail.NewEmailSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Pass, cfg.Mail.From)
	} else {
		logger.Warn("smtp not configured, lead emails are disabled")
	}

	// 3. Use cases
	manageUC := usecase.NewManageLeadsUseCase(repo, logger)
	emailUC := usecase.NewSendLeadEmailUseCase(repo, mailer, logger)
	ingestUC := usecase.NewIngestDocumentUseCase(repo, extractor, cfg.Upload.MaxBytes, cfg.Upload.ExcerptLen, logger)

	var (
		outreach usecase.OutreachQueue
		amqpConn *amqp091.Connection
	)
	if cfg.Queue.RabbitMQURL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.Queue.RabbitMQURL)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		amqpConn = rabbitMQ.Conn
		outreach = queue.NewProducer(rabbitMQ.Ch)

		// worker gets its own channel so a consumer error does not close the publisher's
		consumeCh, err := rabbitMQ.Conn.Channel()
		if err != nil {
			logger.Error("failed to open consumer channel", "error", err)
			os.Exit(1)
		}
		w := queue.NewWorker(consumeCh, emailUC, logger)
		go func() {
			if err := w.Start(ctx, queue.QueueName); err != nil {
				logger.Error("outreach worker stopped", "error", err)
			}
		}()
	}

	workflowUC := usecase.NewExecuteWorkflowUseCase(repo, emailUC, outreach, logger)

	// 4. Background jobs
	janitor := worker.NewUploadJanitor(uploads.Path, cfg.Janitor.MaxAge, cfg.Janitor.Interval, logger)
	go janitor.Start(ctx)

	// 5. Handlers
	router := newRouter(routes{
		health:   handlers.NewHealthHandler(db, amqpConn, cfg.Store.Backend, cfg.OCR.Engine, mailer != nil),
		leads:    handlers.NewLeadHandler(manageUC, emailUC),
		upload:   handlers.NewUploadHandler(ingestUC, uploads, cfg.Upload.MaxBytes),
		workflow: handlers.NewWorkflowHandler(workflowUC),
		export:   handlers.NewExportHandler(export.NewService(repo, logger)),
		limiter:  handlers.NewRateLimiter(cfg.Server.RateLimitPerMinute),
	}, cfg.Server.CORSAllowedOrigins)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	logger.Info("leadflow api listening", "addr", cfg.Server.Addr, "store", cfg.Store.Backend, "ocr", cfg.OCR.Engine)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(c config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// openStore returns the configured repository. db is nil for the csv backend.
func openStore(ctx context.Context, cfg *config.Config) (entity.LeadRepositoryInterface, *sql.DB, error) {
	if cfg.Store.Backend == "csv" {
		repo, err := database.NewCSVLeadRepository(cfg.Store.CSVFile)
		return repo, nil, err
	}

	driver := cfg.DBDriver()
	dialect, err := database.DialectFor(driver)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.NewDBConnection(driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	repo := database.NewLeadRepository(db, dialect)
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repo, db, nil
}

func ocrConfig(c config.OCRConfig) ocr.Config {
	oc := ocr.Config{Language: c.Language}
	if c.PdftotextFallback {
		oc.Pdftotext = c.PdftotextBin
	}
	return oc
}

