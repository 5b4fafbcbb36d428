// Package digest renders stored summaries into the HTML body of the daily email.
package digest

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/samber/lo"

	"FeedDigest/internal/domain"
	"FeedDigest/internal/ports"
	"FeedDigest/internal/sanitize"
)

//go:embed digest.html.tmpl
var digestTemplate string

const (
	defaultTitle      = "Daily Briefing"
	defaultFooter     = "Collected and summarized by FeedDigest"
	defaultDateLayout = "January 2, 2006"
)

// Renderer turns a day's summaries into a single-line HTML document.
type Renderer struct {
	tmpl       *template.Template
	title      string
	footer     string
	dateLayout string
}

var _ ports.DigestRenderer = (*Renderer)(nil)

// Option customises a Renderer.
type Option func(*Renderer)

// WithTitle sets the heading and the document title.
func WithTitle(title string) Option {
	return func(r *Renderer) { r.title = title }
}

// WithDateLayout sets the Go time layout of the date under the heading.
func WithDateLayout(layout string) Option {
	return func(r *Renderer) { r.dateLayout = layout }
}

type page struct {
	Title  string
	Date   string
	Footer string
	Groups []group
}

type group struct {
	Source string
	Items  []item
}

type item struct {
	Summary string
	URL     string
	Last    bool
}

// NewRenderer parses the embedded template.
func NewRenderer(opts ...Option) (*Renderer, error) {
	tmpl, err := template.New("digest").Parse(digestTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse digest template: %w", err)
	}

	r := &Renderer{
		tmpl:       tmpl,
		title:      defaultTitle,
		footer:     defaultFooter,
		dateLayout: defaultDateLayout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Render groups records by source in the order sources first appear and
// returns the document collapsed onto one line.
func (r *Renderer) Render(records []domain.SummaryRecord, day time.Time) (string, error) {
	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, page{
		Title:  r.title,
		Date:   day.Format(r.dateLayout),
		Footer: r.footer,
		Groups: groupBySource(records),
	})
	if err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return collapse(buf.String()), nil
}

func groupBySource(records []domain.SummaryRecord) []group {
	sources := lo.Uniq(lo.Map(records, func(rec domain.SummaryRecord, _ int) string {
		return rec.SourceName
	}))
	bySource := lo.GroupBy(records, func(rec domain.SummaryRecord) string {
		return rec.SourceName
	})

	return lo.Map(sources, func(source string, _ int) group {
		recs := bySource[source]
		return group{
			Source: source,
			Items: lo.Map(recs, func(rec domain.SummaryRecord, i int) item {
				return item{
					Summary: sanitize.Summary(rec.SummaryText),
					URL:     rec.SourceURL,
					Last:    i == len(recs)-1,
				}
			}),
		}
	})
}

// collapse joins the lines of s after trimming their indentation.
func collapse(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "")
}
