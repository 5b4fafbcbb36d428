package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"FeedDigest/internal/domain"
	"FeedDigest/internal/ports"
)

// CollectorDeps wires the driven adapters into the collection run.
type CollectorDeps struct {
	Source     ports.ArticleSource
	Summarizer ports.Summarizer
	Repository ports.SummaryRepository
	Feeds      []string
	Logger     *slog.Logger
}

// Collector fetches feeds, summarizes unseen articles and stores them.
type Collector struct {
	source     ports.ArticleSource
	summarizer ports.Summarizer
	repository ports.SummaryRepository
	feeds      []string
	logger     *slog.Logger
}

// CollectReport counts what happened to each fetched article.
type CollectReport struct {
	RunID           string
	Fetched         int
	SkippedExisting int
	SummarizeFailed int
	Stored          int
	Duplicates      int
	Failed          int
}

// NewCollector constructs the collection use case.
func NewCollector(deps CollectorDeps) *Collector {
	return &Collector{
		source:     deps.Source,
		summarizer: deps.Summarizer,
		repository: deps.Repository,
		feeds:      deps.Feeds,
		logger:     deps.Logger,
	}
}

// Run processes every configured feed once. Articles whose URL is already
// stored never reach the summarizer. Only a failing existence check aborts the run.
func (c *Collector) Run(ctx context.Context) (CollectReport, error) {
	report := CollectReport{RunID: uuid.NewString()}
	log := c.logger.With("run_id", report.RunID)
	log.Info("collection started", "feeds", len(c.feeds))

	articles := c.source.Collect(ctx, c.feeds)
	report.Fetched = len(articles)
	log.Info("feeds processed", "articles", report.Fetched)

	for _, article := range articles {
		alog := log.With("url", article.URL)

		exists, err := c.repository.Exists(ctx, article.URL)
		if err != nil {
			return report, fmt.Errorf("check article %s: %w", article.URL, err)
		}
		if exists {
			alog.Info("article already stored, skipping")
			report.SkippedExisting++
			continue
		}

		summary, err := c.summarizer.Summarize(ctx, article)
		if err != nil {
			alog.Error("summarize article", "error", err)
			report.SummarizeFailed++
			continue
		}
		if summary == nil {
			report.SummarizeFailed++
			continue
		}

		record, err := c.repository.Save(ctx, *summary)
		switch {
		case errors.Is(err, domain.ErrDuplicate):
			alog.Warn("article stored concurrently, rolled back")
			report.Duplicates++
		case err != nil:
			alog.Error("store summary", "error", err)
			report.Failed++
		default:
			alog.Info("summary stored", "id", record.ID)
			report.Stored++
		}
	}

	log.Info("collection finished",
		"fetched", report.Fetched,
		"stored", report.Stored,
		"skipped_existing", report.SkippedExisting,
		"summarize_failed", report.SummarizeFailed,
		"duplicates", report.Duplicates,
		"failed", report.Failed,
	)
	return report, nil
}
