package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"FeedDigest/internal/ports"
)

// DelivererDeps wires storage, rendering and transport for the send run.
type DelivererDeps struct {
	Repository      ports.SummaryRepository
	Renderer        ports.DigestRenderer
	Notifier        ports.Notifier
	Recipient       string
	SubjectTemplate string
	DateLayout      string
	Location        *time.Location
	Now             func() time.Time
	Logger          *slog.Logger
}

// Deliverer mails the summaries stored in the current window.
type Deliverer struct {
	repository      ports.SummaryRepository
	renderer        ports.DigestRenderer
	notifier        ports.Notifier
	recipient       string
	subjectTemplate string
	dateLayout      string
	location        *time.Location
	now             func() time.Time
	logger          *slog.Logger
}

// DeliveryReport tells how many summaries were found and whether mail went out.
type DeliveryReport struct {
	From    time.Time
	Records int
	Subject string
	Sent    bool
}

// NewDeliverer constructs the send use case.
func NewDeliverer(deps DelivererDeps) *Deliverer {
	d := &Deliverer{
		repository:      deps.Repository,
		renderer:        deps.Renderer,
		notifier:        deps.Notifier,
		recipient:       deps.Recipient,
		subjectTemplate: deps.SubjectTemplate,
		dateLayout:      deps.DateLayout,
		location:        deps.Location,
		now:             deps.Now,
		logger:          deps.Logger,
	}
	if d.location == nil {
		d.location = time.UTC
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.dateLayout == "" {
		d.dateLayout = time.DateOnly
	}
	return d
}

// Run sends one digest covering the last days calendar days, today included.
// Nothing is sent when the window holds no summaries.
func (d *Deliverer) Run(ctx context.Context, days int) (DeliveryReport, error) {
	if d.recipient == "" {
		return DeliveryReport{}, errors.New("digest recipient is not configured")
	}
	if days < 1 {
		return DeliveryReport{}, fmt.Errorf("days must be at least 1, got %d", days)
	}

	now := d.now().In(d.location)
	from := startOfDay(now).AddDate(0, 0, -(days - 1))
	report := DeliveryReport{From: from}

	records, err := d.repository.ListCreatedBetween(ctx, from, time.Time{})
	if err != nil {
		return report, fmt.Errorf("load summaries: %w", err)
	}
	report.Records = len(records)

	if len(records) == 0 {
		d.logger.Info("no summaries in window, nothing to send", "from", from)
		return report, nil
	}
	d.logger.Info("rendering digest", "records", len(records), "from", from)

	html, err := d.renderer.Render(records, now)
	if err != nil {
		return report, fmt.Errorf("render digest: %w", err)
	}

	report.Subject = strings.ReplaceAll(d.subjectTemplate, "{date}", now.Format(d.dateLayout))
	report.Sent = d.notifier.Send(ctx, d.recipient, report.Subject, html)
	if !report.Sent {
		d.logger.Error("digest was not delivered", "recipient", d.recipient)
	}
	return report, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, t.Location())
}
