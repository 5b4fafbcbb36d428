package feed

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"

	"FeedDigest/internal/domain"
	"FeedDigest/internal/ports"
	"FeedDigest/internal/retry"
)

const unknownSource = "Unknown source"

// Options tunes one Fetcher.
type Options struct {
	MaxArticles      int
	MinContentLength int
	UserAgent        string
	HostInterval     time.Duration
	Client           *http.Client
	Policy           retry.Policy
}

// Fetcher reads feeds, downloads their entries and keeps the ones with enough text.
type Fetcher struct {
	parser      *gofeed.Parser
	downloader  *Downloader
	maxArticles int
	minLength   int
	logger      *slog.Logger
}

var _ ports.ArticleSource = (*Fetcher)(nil)

// NewFetcher builds a fetcher; the same HTTP client serves feeds and pages.
func NewFetcher(opts Options, logger *slog.Logger) *Fetcher {
	parser := gofeed.NewParser()
	parser.Client = opts.Client
	parser.UserAgent = opts.UserAgent

	return &Fetcher{
		parser:      parser,
		downloader:  NewDownloader(opts.Client, opts.UserAgent, opts.Policy, opts.HostInterval, logger),
		maxArticles: opts.MaxArticles,
		minLength:   opts.MinContentLength,
		logger:      logger,
	}
}

// Collect processes every feed in order and concatenates what they yield.
func (f *Fetcher) Collect(ctx context.Context, feedURLs []string) []domain.Article {
	var all []domain.Article
	for _, feedURL := range feedURLs {
		all = append(all, f.FetchFeed(ctx, feedURL, f.maxArticles)...)
	}
	f.logger.Info("all feeds processed", "feeds", len(feedURLs), "articles", len(all))
	return all
}

// FetchFeed returns the valid articles among the first maxArticles entries of a feed.
// A non-positive maxArticles takes every entry; configuration never passes one.
// Nothing is propagated: broken feeds and entries are logged and skipped.
func (f *Fetcher) FetchFeed(ctx context.Context, feedURL string, maxArticles int) []domain.Article {
	log := f.logger.With("feed", feedURL)
	log.Info("processing feed")

	parsed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		log.Error("cannot parse feed", "error", err)
		return nil
	}

	sourceName := strings.TrimSpace(parsed.Title)
	if sourceName == "" {
		sourceName = unknownSource
	}
	log.Info("feed parsed", "source", sourceName, "entries", len(parsed.Items))

	items := parsed.Items
	if maxArticles > 0 && len(items) > maxArticles {
		items = items[:maxArticles]
	}

	var articles []domain.Article
	for _, item := range items {
		if item == nil || strings.TrimSpace(item.Link) == "" {
			log.Warn("entry without link skipped")
			continue
		}
		article, ok := f.processEntry(ctx, strings.TrimSpace(item.Link), sourceName, log)
		if ok {
			articles = append(articles, article)
		}
	}

	log.Info("feed done", "articles", len(articles))
	return articles
}

func (f *Fetcher) processEntry(ctx context.Context, link, sourceName string, log *slog.Logger) (domain.Article, bool) {
	log = log.With("url", link)

	page, err := f.downloader.Download(ctx, link)
	if err != nil {
		log.Error("download failed", "error", err)
		return domain.Article{}, false
	}
	if strings.TrimSpace(page) == "" {
		log.Warn("downloaded page is empty")
		return domain.Article{}, false
	}

	pageURL, _ := url.Parse(link)
	text, err := ExtractText(page, pageURL)
	if err != nil {
		if !errors.Is(err, ErrNoContent) {
			log.Error("extraction failed", "error", err)
		} else {
			log.Warn("no readable text in page")
		}
		return domain.Article{}, false
	}

	length := utf8.RuneCountInString(text)
	if length < f.minLength {
		log.Warn("content too short, skipped", "chars", length, "min", f.minLength)
		return domain.Article{}, false
	}

	log.Info("content accepted", "chars", length)
	return domain.Article{URL: link, SourceName: sourceName, Content: text}, true
}
