package ports

import (
	"context"
	"time"

	"FeedDigest/internal/domain"
)

// ArticleSource pulls cleaned articles from the configured feeds.
type ArticleSource interface {
	Collect(ctx context.Context, feedURLs []string) []domain.Article
}

// Summarizer turns one article into a storable summary.
// A nil summary with a nil error means "skip this article".
type Summarizer interface {
	Summarize(ctx context.Context, article domain.Article) (*domain.Summary, error)
}

// SummaryRepository persists summaries for deduplication and delivery.
type SummaryRepository interface {
	Exists(ctx context.Context, url string) (bool, error)
	Save(ctx context.Context, summary domain.Summary) (domain.SummaryRecord, error)
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.SummaryRecord, error)
}

// AdminRepository backs the maintenance commands.
type AdminRepository interface {
	Stats(ctx context.Context) (domain.StorageStats, error)
	CountCreatedSince(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteCreatedSince(ctx context.Context, cutoff time.Time) (int64, error)
	Reset(ctx context.Context) error
}

// DigestRenderer produces the HTML body of a digest.
type DigestRenderer interface {
	Render(records []domain.SummaryRecord, day time.Time) (string, error)
}

// Notifier delivers a rendered digest; false means it was not sent.
type Notifier interface {
	Send(ctx context.Context, to, subject, html string) bool
}
