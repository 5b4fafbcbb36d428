package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/lo"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"FeedDigest/internal/config"
	"FeedDigest/internal/domain"
	"FeedDigest/internal/ports"
)

//go:embed schema/*.sql
var schemaFS embed.FS

const (
	summariesTable = "summaries"
	contentsTable  = "original_contents"
)

var summaryColumns = []string{"id", "source_url", "summary_text", "source_name", "model_used", "created_at"}

// Repository persists summaries and their original content in Postgres or SQLite.
type Repository struct {
	db      *sqlx.DB
	dialect string
	sb      sq.StatementBuilderType
	now     func() time.Time
}

var (
	_ ports.SummaryRepository = (*Repository)(nil)
	_ ports.AdminRepository   = (*Repository)(nil)
)

type summaryRow struct {
	ID          int64          `db:"id"`
	SourceURL   string         `db:"source_url"`
	SummaryText string         `db:"summary_text"`
	SourceName  sql.NullString `db:"source_name"`
	ModelUsed   sql.NullString `db:"model_used"`
	CreatedAt   time.Time      `db:"created_at"`
}

type contentRow struct {
	ID          int64  `db:"id"`
	SummaryID   int64  `db:"summary_id"`
	ContentText string `db:"content_text"`
}

// Open connects to the configured database. SQLite gets a single connection
// with foreign keys enabled so cascades work and ":memory:" stays one database.
func Open(ctx context.Context, driver, dsn string) (*Repository, error) {
	switch driver {
	case config.DriverPostgres, config.DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if driver == config.DriverSQLite {
		db.SetMaxOpenConns(1)
		for _, pragma := range []string{"PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("%s: %w", pragma, err)
			}
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return New(db, driver), nil
}

// New wraps an existing connection pool.
func New(db *sqlx.DB, driver string) *Repository {
	var placeholder sq.PlaceholderFormat = sq.Question
	if driver == config.DriverPostgres {
		placeholder = sq.Dollar
	}
	return &Repository{
		db:      db,
		dialect: driver,
		sb:      sq.StatementBuilder.PlaceholderFormat(placeholder),
		now:     time.Now,
	}
}

// Close releases the connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Migrate creates the tables when they do not exist yet.
func (r *Repository) Migrate(ctx context.Context) error {
	schema, err := schemaFS.ReadFile("schema/" + r.dialect + ".sql")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, string(schema)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Exists reports whether a summary for url is already stored.
func (r *Repository) Exists(ctx context.Context, url string) (bool, error) {
	query, args, err := r.sb.Select("1").From(summariesTable).Where(sq.Eq{"source_url": url}).Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	if err := r.db.GetContext(ctx, &one, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query exists: %w", err)
	}
	return true, nil
}

// Save stores the summary and its original content in one transaction.
// A summary for the same URL already present yields domain.ErrDuplicate and nothing is written.
func (r *Repository) Save(ctx context.Context, summary domain.Summary) (domain.SummaryRecord, error) {
	record := summary.Record
	record.CreatedAt = r.now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.SummaryRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := r.sb.Insert(summariesTable).
		Columns("source_url", "summary_text", "source_name", "model_used", "created_at").
		Values(record.SourceURL, record.SummaryText, record.SourceName, record.ModelUsed, record.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return domain.SummaryRecord{}, fmt.Errorf("build insert summary: %w", err)
	}
	if err := tx.QueryRowxContext(ctx, query, args...).Scan(&record.ID); err != nil {
		if isUniqueViolation(err) {
			return domain.SummaryRecord{}, fmt.Errorf("insert summary %s: %w", record.SourceURL, domain.ErrDuplicate)
		}
		return domain.SummaryRecord{}, fmt.Errorf("insert summary: %w", err)
	}

	query, args, err = r.sb.Insert(contentsTable).
		Columns("summary_id", "content_text").
		Values(record.ID, summary.Content).
		ToSql()
	if err != nil {
		return domain.SummaryRecord{}, fmt.Errorf("build insert content: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return domain.SummaryRecord{}, fmt.Errorf("insert content: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return domain.SummaryRecord{}, fmt.Errorf("commit summary %s: %w", record.SourceURL, domain.ErrDuplicate)
		}
		return domain.SummaryRecord{}, fmt.Errorf("commit: %w", err)
	}
	return record, nil
}

// ListCreatedBetween returns summaries with from <= created_at < to, newest first.
// A zero to leaves the range open ended.
func (r *Repository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.SummaryRecord, error) {
	builder := r.sb.Select(summaryColumns...).From(summariesTable).
		Where(sq.GtOrEq{"created_at": from.UTC()}).
		OrderBy("created_at DESC", "id DESC")
	if !to.IsZero() {
		builder = builder.Where(sq.Lt{"created_at": to.UTC()})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build range query: %w", err)
	}

	var rows []summaryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query range: %w", err)
	}

	return lo.Map(rows, func(row summaryRow, _ int) domain.SummaryRecord {
		return domain.SummaryRecord{
			ID:          row.ID,
			SourceURL:   row.SourceURL,
			SummaryText: row.SummaryText,
			SourceName:  row.SourceName.String,
			ModelUsed:   row.ModelUsed.String,
			CreatedAt:   row.CreatedAt.UTC(),
		}
	}), nil
}

// OriginalContent loads the text stored alongside a summary.
func (r *Repository) OriginalContent(ctx context.Context, summaryID int64) (domain.OriginalContentRecord, error) {
	query, args, err := r.sb.Select("id", "summary_id", "content_text").From(contentsTable).
		Where(sq.Eq{"summary_id": summaryID}).ToSql()
	if err != nil {
		return domain.OriginalContentRecord{}, fmt.Errorf("build content query: %w", err)
	}

	var row contentRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return domain.OriginalContentRecord{}, fmt.Errorf("query content: %w", err)
	}
	return domain.OriginalContentRecord(row), nil
}

// CountCreatedSince counts summaries created at or after cutoff.
func (r *Repository) CountCreatedSince(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := r.sb.Select("COUNT(*)").From(summariesTable).
		Where(sq.GtOrEq{"created_at": cutoff.UTC()}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var n int64
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count summaries: %w", err)
	}
	return n, nil
}

// DeleteCreatedSince removes summaries created at or after cutoff; their content follows by cascade.
func (r *Repository) DeleteCreatedSince(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := r.sb.Delete(summariesTable).Where(sq.GtOrEq{"created_at": cutoff.UTC()}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete summaries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Stats lists the tables present and the row count of both pipeline tables.
func (r *Repository) Stats(ctx context.Context) (domain.StorageStats, error) {
	listQuery := `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	if r.dialect == config.DriverPostgres {
		listQuery = `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() ORDER BY table_name`
	}

	var stats domain.StorageStats
	if err := r.db.SelectContext(ctx, &stats.Tables, listQuery); err != nil {
		return domain.StorageStats{}, fmt.Errorf("list tables: %w", err)
	}

	counts := map[string]*int64{summariesTable: &stats.Summaries, contentsTable: &stats.OriginalContent}
	for table, dst := range counts {
		if !lo.Contains(stats.Tables, table) {
			continue
		}
		query, args, err := r.sb.Select("COUNT(*)").From(table).ToSql()
		if err != nil {
			return domain.StorageStats{}, fmt.Errorf("build count %s: %w", table, err)
		}
		if err := r.db.GetContext(ctx, dst, query, args...); err != nil {
			return domain.StorageStats{}, fmt.Errorf("count %s: %w", table, err)
		}
	}
	return stats, nil
}

// Reset drops both tables and recreates them empty.
func (r *Repository) Reset(ctx context.Context) error {
	for _, table := range []string{contentsTable, summariesTable} {
		if _, err := r.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return r.Migrate(ctx)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE")
		}
	}
	return false
}
