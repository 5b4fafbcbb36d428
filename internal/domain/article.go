package domain

import (
	"errors"
	"time"
)

var (
	// ErrDuplicate reports that a summary for the same source URL already exists.
	ErrDuplicate = errors.New("summary for this url already exists")
	// ErrNotConfirmed is returned by destructive admin operations the operator declined.
	ErrNotConfirmed = errors.New("operation not confirmed")
)

// Article is a cleaned feed entry ready for summarization. It is never persisted as is.
type Article struct {
	URL        string
	SourceName string
	Content    string
}

// SummaryRecord is the persisted model summary of one article, unique by SourceURL.
type SummaryRecord struct {
	ID          int64
	SourceURL   string
	SummaryText string
	SourceName  string
	ModelUsed   string
	CreatedAt   time.Time
}

// OriginalContentRecord keeps the full cleaned text owned by a SummaryRecord.
type OriginalContentRecord struct {
	ID          int64
	SummaryID   int64
	ContentText string
}

// Summary is what the summarizer hands to the repository: a record draft and its source text.
type Summary struct {
	Record  SummaryRecord
	Content string
}

// NewSummary builds the storable pair for an article.
func NewSummary(article Article, text, model string) Summary {
	return Summary{
		Record: SummaryRecord{
			SourceURL:   article.URL,
			SummaryText: text,
			SourceName:  article.SourceName,
			ModelUsed:   model,
		},
		Content: article.Content,
	}
}

// StorageStats summarises what the store currently holds.
type StorageStats struct {
	Tables          []string
	Summaries       int64
	OriginalContent int64
}
