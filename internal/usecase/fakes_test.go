package usecase

import (
	"context"
	"sync"
	"time"

	"FeedDigest/internal/domain"
)

type fakeSource struct {
	articles []domain.Article
	feeds    []string
}

func (f *fakeSource) Collect(_ context.Context, feedURLs []string) []domain.Article {
	f.feeds = feedURLs
	return f.articles
}

type fakeSummarizer struct {
	mu     sync.Mutex
	calls  []string
	skip   map[string]bool
	errFor map[string]error
}

func (f *fakeSummarizer) Summarize(_ context.Context, article domain.Article) (*domain.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, article.URL)
	if err := f.errFor[article.URL]; err != nil {
		return nil, err
	}
	if f.skip[article.URL] {
		return nil, nil
	}
	s := domain.NewSummary(article, "summary of "+article.URL, "fake-model")
	return &s, nil
}

// memoryRepository keeps records in insertion order and enforces URL uniqueness.
type memoryRepository struct {
	records     []domain.SummaryRecord
	contents    map[int64]string
	existsErr   error
	saveErr     map[string]error
	raceOnSave  map[string]bool
	listFrom    time.Time
	listTo      time.Time
	resetCalled bool
	deleted     time.Time
}

func newMemoryRepository(records ...domain.SummaryRecord) *memoryRepository {
	return &memoryRepository{records: records, contents: map[int64]string{}}
}

func (m *memoryRepository) Exists(_ context.Context, url string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	for _, r := range m.records {
		if r.SourceURL == url {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepository) Save(_ context.Context, s domain.Summary) (domain.SummaryRecord, error) {
	if err := m.saveErr[s.Record.SourceURL]; err != nil {
		return domain.SummaryRecord{}, err
	}
	if m.raceOnSave[s.Record.SourceURL] {
		return domain.SummaryRecord{}, domain.ErrDuplicate
	}
	for _, r := range m.records {
		if r.SourceURL == s.Record.SourceURL {
			return domain.SummaryRecord{}, domain.ErrDuplicate
		}
	}
	rec := s.Record
	rec.ID = int64(len(m.records) + 1)
	m.records = append(m.records, rec)
	m.contents[rec.ID] = s.Content
	return rec, nil
}

func (m *memoryRepository) ListCreatedBetween(_ context.Context, from, to time.Time) ([]domain.SummaryRecord, error) {
	m.listFrom, m.listTo = from, to
	var out []domain.SummaryRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		r := m.records[i]
		if r.CreatedAt.Before(from) || (!to.IsZero() && !r.CreatedAt.Before(to)) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memoryRepository) Stats(context.Context) (domain.StorageStats, error) {
	return domain.StorageStats{
		Tables:          []string{"original_contents", "summaries"},
		Summaries:       int64(len(m.records)),
		OriginalContent: int64(len(m.contents)),
	}, nil
}

func (m *memoryRepository) CountCreatedSince(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for _, r := range m.records {
		if !r.CreatedAt.Before(cutoff) {
			n++
		}
	}
	return n, nil
}

func (m *memoryRepository) DeleteCreatedSince(_ context.Context, cutoff time.Time) (int64, error) {
	m.deleted = cutoff
	kept := m.records[:0]
	var n int64
	for _, r := range m.records {
		if !r.CreatedAt.Before(cutoff) {
			delete(m.contents, r.ID)
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	return n, nil
}

func (m *memoryRepository) Reset(context.Context) error {
	m.resetCalled = true
	m.records = nil
	m.contents = map[int64]string{}
	return nil
}

type fakeRenderer struct {
	got []domain.SummaryRecord
	day time.Time
	err error
}

func (f *fakeRenderer) Render(records []domain.SummaryRecord, day time.Time) (string, error) {
	f.got, f.day = records, day
	if f.err != nil {
		return "", f.err
	}
	return "<html>digest</html>", nil
}

type sentMail struct {
	to, subject, html string
}

type fakeNotifier struct {
	sent []sentMail
	fail bool
}

func (f *fakeNotifier) Send(_ context.Context, to, subject, html string) bool {
	if f.fail {
		return false
	}
	f.sent = append(f.sent, sentMail{to, subject, html})
	return true
}

type scriptedConfirmer struct {
	answer  bool
	err     error
	prompts []string
}

func (s *scriptedConfirmer) Confirm(prompt, expected string) (bool, error) {
	s.prompts = append(s.prompts, prompt+"|"+expected)
	return s.answer, s.err
}
