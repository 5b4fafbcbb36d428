package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"FeedDigest/internal/config"
	"FeedDigest/internal/digest"
	"FeedDigest/internal/infrastructure/feed"
	"FeedDigest/internal/infrastructure/llm"
	"FeedDigest/internal/infrastructure/mail"
	"FeedDigest/internal/infrastructure/storage"
	"FeedDigest/internal/logging"
	"FeedDigest/internal/retry"
	"FeedDigest/internal/usecase"
)

// Application wires configs to adapters and use cases. Adapters that need
// credentials are built by the command that uses them.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	repo   *storage.Repository
}

// New opens the configured store.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging)
	}
	if err := cfg.ValidateStorage(); err != nil {
		return nil, err
	}

	repo, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	baseLogger.Debug("storage opened", "driver", cfg.Database.Driver)

	return &Application{cfg: cfg, logger: baseLogger, repo: repo}, nil
}

// Close releases the store.
func (a *Application) Close() error {
	return a.repo.Close()
}

// Migrate creates missing tables.
func (a *Application) Migrate(ctx context.Context) error {
	return a.repo.Migrate(ctx)
}

// Collect runs one fetch, summarize and store pass over the configured feeds.
func (a *Application) Collect(ctx context.Context) (usecase.CollectReport, error) {
	if err := a.cfg.ValidateCollect(); err != nil {
		return usecase.CollectReport{}, err
	}
	if err := a.repo.Migrate(ctx); err != nil {
		return usecase.CollectReport{}, err
	}

	fetcher := feed.NewFetcher(feed.Options{
		MaxArticles:      a.cfg.Collector.MaxArticlesPerFeed,
		MinContentLength: a.cfg.Collector.MinContentLength,
		UserAgent:        a.cfg.Collector.UserAgent,
		HostInterval:     a.cfg.Collector.HostInterval,
		Client:           &http.Client{Timeout: a.cfg.Collector.RequestTimeout},
		Policy:           retry.DownloadPolicy(),
	}, a.logger.With("component", "fetcher"))

	summarizer, err := llm.NewSummarizer(a.cfg.LLM, a.logger.With("component", "summarizer"))
	if err != nil {
		return usecase.CollectReport{}, err
	}

	collector := usecase.NewCollector(usecase.CollectorDeps{
		Source:     fetcher,
		Summarizer: summarizer,
		Repository: a.repo,
		Feeds:      a.cfg.FeedURLs(),
		Logger:     a.logger.With("component", "collector"),
	})
	return collector.Run(ctx)
}

// Send mails the digest of the last days calendar days.
func (a *Application) Send(ctx context.Context, days int) (usecase.DeliveryReport, error) {
	if err := a.cfg.ValidateSend(); err != nil {
		return usecase.DeliveryReport{}, err
	}
	if err := a.repo.Migrate(ctx); err != nil {
		return usecase.DeliveryReport{}, err
	}

	renderer, err := digest.NewRenderer()
	if err != nil {
		return usecase.DeliveryReport{}, err
	}

	deliverer := usecase.NewDeliverer(usecase.DelivererDeps{
		Repository:      a.repo,
		Renderer:        renderer,
		Notifier:        mail.New(a.cfg.Email, a.logger.With("component", "mail")),
		Recipient:       a.cfg.Email.Recipient,
		SubjectTemplate: a.cfg.Email.SubjectTemplate,
		DateLayout:      a.cfg.Email.DateLayout,
		Location:        a.cfg.Digest.Location(),
		Logger:          a.logger.With("component", "deliverer"),
	})
	return deliverer.Run(ctx, days)
}

// Admin returns the maintenance use case bound to the store.
func (a *Application) Admin() *usecase.Admin {
	return usecase.NewAdmin(a.repo, a.logger.With("component", "admin"))
}
