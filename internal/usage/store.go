package usage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/pheonix/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "pheonix.db"

// dayLayout formats the day column.
const dayLayout = "2006-01-02"

// timeLayout is fixed width so that stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrReportNotFound is returned when no saved report has the requested ID.
var ErrReportNotFound = errors.New("report not found")

// Store is the SQLite usage and history database.
type Store struct {
	db     *sql.DB
	dbPath string
	limits map[string]int
	now    func() time.Time
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool

	// Limits maps provider names to a daily call limit. Zero or absent
	// means unlimited.
	Limits map[string]int
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the store in dir.
func Open(dir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
		limits: make(map[string]int, len(opts.Limits)),
		now:    time.Now,
	}
	for name, n := range opts.Limits {
		if n > 0 {
			s.limits[name] = n
		}
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS provider_calls (
		day TEXT NOT NULL,
		provider TEXT NOT NULL,
		calls INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (day, provider)
	);

	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		input TEXT NOT NULL,
		started_at TEXT NOT NULL,
		failures INTEGER NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_started ON reports(started_at);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

func (s *Store) today() string {
	return s.now().UTC().Format(dayLayout)
}

// Take records one call to provider for today and reports whether it is
// within the provider's daily limit. A refused call is not counted.
func (s *Store) Take(ctx context.Context, provider string) (bool, error) {
	day := s.today()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var calls int
	err = tx.QueryRowContext(ctx,
		`SELECT calls FROM provider_calls WHERE day = ? AND provider = ?`, day, provider,
	).Scan(&calls)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to read usage: %w", err)
	}

	if limit, ok := s.limits[provider]; ok && calls >= limit {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO provider_calls (day, provider, calls) VALUES (?, ?, 1)
	ON CONFLICT(day, provider) DO UPDATE SET calls = calls + 1
	`, day, provider)
	if err != nil {
		return false, fmt.Errorf("failed to record usage: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit usage: %w", err)
	}
	return true, nil
}

// Counter is the usage of one provider on one day.
type Counter struct {
	Provider string `json:"provider"`
	Calls    int    `json:"calls"`

	// Limit is the daily limit, zero when unlimited.
	Limit int `json:"limit,omitempty"`
}

// Remaining returns the calls left today, or -1 when unlimited.
func (c Counter) Remaining() int {
	if c.Limit == 0 {
		return -1
	}
	return max(c.Limit-c.Calls, 0)
}

// Today returns the counters for the current day.
func (s *Store) Today(ctx context.Context) ([]Counter, error) {
	return s.Day(ctx, s.now())
}

// Day returns the counters for the UTC day containing t, sorted by
// provider name. Providers with a limit but no calls are included.
func (s *Store) Day(ctx context.Context, t time.Time) ([]Counter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT provider, calls FROM provider_calls WHERE day = ?`, t.UTC().Format(dayLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query usage: %w", err)
	}
	defer rows.Close()

	byName := make(map[string]*Counter)
	for rows.Next() {
		var c Counter
		if err := rows.Scan(&c.Provider, &c.Calls); err != nil {
			return nil, fmt.Errorf("failed to scan usage: %w", err)
		}
		c.Limit = s.limits[c.Provider]
		byName[c.Provider] = &c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for name, limit := range s.limits {
		if _, ok := byName[name]; !ok {
			byName[name] = &Counter{Provider: name, Limit: limit}
		}
	}

	counters := make([]Counter, 0, len(byName))
	for _, c := range byName {
		counters = append(counters, *c)
	}
	sort.Slice(counters, func(i, j int) bool {
		return counters[i].Provider < counters[j].Provider
	})
	return counters, nil
}

// SaveReport stores a report for later retrieval.
func (s *Store) SaveReport(ctx context.Context, report *model.AggregateReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT OR REPLACE INTO reports (id, kind, input, started_at, failures, report_json)
	VALUES (?, ?, ?, ?, ?, ?)
	`,
		report.ID,
		string(report.Kind),
		report.Input,
		report.StartedAt.UTC().Format(timeLayout),
		len(report.Failures()),
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// ReportSummary describes a saved report without its results.
type ReportSummary struct {
	ID        string     `json:"id"`
	Kind      model.Kind `json:"kind"`
	Input     string     `json:"input"`
	StartedAt time.Time  `json:"started_at"`
	Failures  int        `json:"failures"`
}

// RecentReports returns up to limit saved reports, newest first.
func (s *Store) RecentReports(ctx context.Context, limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, kind, input, started_at, failures FROM reports
	ORDER BY started_at DESC
	LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var out []ReportSummary
	for rows.Next() {
		var (
			sum     ReportSummary
			kind    string
			started string
		)
		if err := rows.Scan(&sum.ID, &kind, &sum.Input, &started, &sum.Failures); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		sum.Kind = model.Kind(kind)
		sum.StartedAt = parseTimestamp(started)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Report returns the saved report with the given ID.
func (s *Store) Report(ctx context.Context, id string) (*model.AggregateReport, error) {
	var reportJSON string
	err := s.db.QueryRowContext(ctx, `SELECT report_json FROM reports WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report model.AggregateReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

var timestampFormats = []string{
	timeLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
}

// parseTimestamp parses the timestamp formats SQLite may return.
// Unparseable values yield the zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
