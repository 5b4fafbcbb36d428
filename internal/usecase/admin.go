package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"FeedDigest/internal/domain"
	"FeedDigest/internal/ports"
)

// ResetPhrase must be typed back to confirm a full reset.
const ResetPhrase = "RESET ALL DATA"

// Confirmer asks the operator to type expected before a destructive step.
type Confirmer interface {
	Confirm(prompt, expected string) (bool, error)
}

// AutoConfirm approves every prompt; used for --yes.
type AutoConfirm struct{}

func (AutoConfirm) Confirm(string, string) (bool, error) { return true, nil }

// Admin implements the database maintenance commands.
type Admin struct {
	repository ports.AdminRepository
	now        func() time.Time
	logger     *slog.Logger
}

// CleanReport describes a clean run.
type CleanReport struct {
	Cutoff  time.Time
	Matched int64
	Deleted int64
}

// NewAdmin constructs the maintenance use case.
func NewAdmin(repository ports.AdminRepository, logger *slog.Logger) *Admin {
	return &Admin{repository: repository, now: time.Now, logger: logger}
}

// Status reports the tables present and their record counts.
func (a *Admin) Status(ctx context.Context) (domain.StorageStats, error) {
	stats, err := a.repository.Stats(ctx)
	if err != nil {
		return domain.StorageStats{}, fmt.Errorf("storage stats: %w", err)
	}
	return stats, nil
}

// Clean deletes the summaries created in the last days days, with their content.
func (a *Admin) Clean(ctx context.Context, days int, confirm Confirmer) (CleanReport, error) {
	if days < 0 {
		return CleanReport{}, fmt.Errorf("days must be a non-negative integer, got %d", days)
	}

	report := CleanReport{Cutoff: a.now().UTC().Add(-time.Duration(days) * 24 * time.Hour)}
	log := a.logger.With("cutoff", report.Cutoff.Format(time.DateTime))

	matched, err := a.repository.CountCreatedSince(ctx, report.Cutoff)
	if err != nil {
		return report, fmt.Errorf("count records: %w", err)
	}
	report.Matched = matched
	if matched == 0 {
		log.Info("no records to clean")
		return report, nil
	}

	log.Warn("records will be deleted with their original content", "count", matched)
	ok, err := confirm.Confirm(fmt.Sprintf("Delete %d records created since %s UTC? (yes/no): ", matched, report.Cutoff.Format(time.DateTime)), "yes")
	if err != nil {
		return report, fmt.Errorf("read confirmation: %w", err)
	}
	if !ok {
		log.Info("clean cancelled")
		return report, domain.ErrNotConfirmed
	}

	deleted, err := a.repository.DeleteCreatedSince(ctx, report.Cutoff)
	if err != nil {
		return report, fmt.Errorf("delete records: %w", err)
	}
	report.Deleted = deleted
	log.Info("records deleted", "count", deleted)
	return report, nil
}

// Reset drops and recreates every table once the operator types ResetPhrase.
func (a *Admin) Reset(ctx context.Context, confirm Confirmer) error {
	a.logger.Warn("reset deletes all stored data")
	ok, err := confirm.Confirm(fmt.Sprintf("Type '%s' to continue: ", ResetPhrase), ResetPhrase)
	if err != nil {
		return fmt.Errorf("read confirmation: %w", err)
	}
	if !ok {
		a.logger.Info("reset cancelled")
		return domain.ErrNotConfirmed
	}

	if err := a.repository.Reset(ctx); err != nil {
		return fmt.Errorf("reset storage: %w", err)
	}
	a.logger.Info("storage reset")
	return nil
}
