package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/webaudit/webaudit/internal/model"
)

// AuditDB provides SQLite-based storage for crawl data and audit reports.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: We use a single database file per installation rather
// than separate files per site. This simplifies history queries across
// sites and backup/restore operations.
type AuditDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures AuditDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates an AuditDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*AuditDB, error) {
	dbPath := filepath.Join(dbDir, "webaudit.db")

	// Check if we should create the database or require it to exist
	if !opts.CreateIfNotExists {
		// Check if database file exists
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		// Ensure directory exists
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Build connection string
	// We use modernc.org/sqlite which uses a different connection string format.
	// When CreateIfNotExists is false, we use mode=rw to prevent creating new files.
	// When CreateIfNotExists is true, we use mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	// SQLite doesn't benefit from multiple connections for writes,
	// but multiple readers can improve performance
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	adb := &AuditDB{
		db:     db,
		dbPath: dbPath,
	}

	// Enable WAL mode if requested
	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Create tables
	if err := adb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return adb, nil
}

// Close closes the database connection.
func (adb *AuditDB) Close() error {
	return adb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (adb *AuditDB) createTables() error {
	schema := `
	-- Page records store individual page fetches
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		site TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		status_code INTEGER,
		content_type TEXT,
		title TEXT,
		snapshot TEXT,
		raw_hash TEXT,
		headers TEXT,
		UNIQUE(url, site)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
	CREATE INDEX IF NOT EXISTS idx_pages_site ON pages(site);
	CREATE INDEX IF NOT EXISTS idx_pages_timestamp ON pages(timestamp);

	-- Audit reports store complete audit results as JSON
	CREATE TABLE IF NOT EXISTS audit_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		report_json TEXT NOT NULL,
		score_summary TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_reports_site ON audit_reports(site);
	CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON audit_reports(timestamp);
	`

	_, err := adb.db.ExecContext(context.Background(), schema)
	return err
}

// PageRecord represents a stored page fetch.
type PageRecord struct {
	ID          int64
	URL         string
	Site        string
	Timestamp   time.Time
	StatusCode  int
	ContentType string
	Title       string
	Snapshot    string
	RawHash     string
	Headers     map[string][]string
}

// InsertPageRecord inserts or updates a page record.
// Uses UPSERT to handle duplicates (same URL + site).
func (adb *AuditDB) InsertPageRecord(ctx context.Context, record *PageRecord) (int64, error) {
	// Serialize headers to JSON
	headersJSON, err := json.Marshal(record.Headers)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize headers: %w", err)
	}

	query := `
	INSERT INTO pages (url, site, status_code, content_type, title, snapshot, raw_hash, headers)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(url, site) DO UPDATE SET
		status_code = excluded.status_code,
		content_type = excluded.content_type,
		title = excluded.title,
		snapshot = excluded.snapshot,
		raw_hash = excluded.raw_hash,
		headers = excluded.headers,
		timestamp = CURRENT_TIMESTAMP
	`

	result, err := adb.db.ExecContext(ctx, query,
		record.URL,
		record.Site,
		record.StatusCode,
		record.ContentType,
		record.Title,
		record.Snapshot,
		record.RawHash,
		string(headersJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert page record: %w", err)
	}

	return result.LastInsertId()
}

// GetPageRecord retrieves a page record by URL and site.
func (adb *AuditDB) GetPageRecord(ctx context.Context, url, site string) (*PageRecord, error) {
	query := `
	SELECT id, url, site, timestamp, status_code, content_type, title, snapshot, raw_hash, headers
	FROM pages
	WHERE url = ? AND site = ?
	`

	var record PageRecord
	var headersJSON string
	var timestamp string

	err := adb.db.QueryRowContext(ctx, query, url, site).Scan(
		&record.ID,
		&record.URL,
		&record.Site,
		&timestamp,
		&record.StatusCode,
		&record.ContentType,
		&record.Title,
		&record.Snapshot,
		&record.RawHash,
		&headersJSON,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page record: %w", err)
	}

	// Parse timestamp (SQLite may return different formats depending on version/configuration)
	record.Timestamp = parseTimestamp(timestamp)

	// Parse headers
	if headersJSON != "" {
		if err := json.Unmarshal([]byte(headersJSON), &record.Headers); err != nil {
			return nil, fmt.Errorf("failed to parse headers: %w", err)
		}
	}

	return &record, nil
}

// HasRecentCrawl checks if a URL was crawled within the specified duration.
func (adb *AuditDB) HasRecentCrawl(ctx context.Context, url string, duration time.Duration) (bool, error) {
	query := `
	SELECT COUNT(*) FROM pages
	WHERE url = ? AND timestamp > datetime('now', ?)
	`

	// SQLite datetime modifier format
	modifier := fmt.Sprintf("-%d seconds", int(duration.Seconds()))

	var count int
	err := adb.db.QueryRowContext(ctx, query, url, modifier).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check recent crawl: %w", err)
	}

	return count > 0, nil
}

// SaveAuditReport saves a complete audit report as JSON.
func (adb *AuditDB) SaveAuditReport(ctx context.Context, report *model.SiteAuditReport) error {
	// Serialize report to JSON
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	// Create score summary: the overall score plus finding counts by severity
	summary := make(map[string]int)
	if score, ok := report.OverallScore(); ok {
		summary["overall_score"] = score
	}
	for severity, count := range report.FindingCounts() {
		summary[severity] = count
	}
	summaryJSON, _ := json.Marshal(summary) //nolint:errcheck,errchkjson // summary is a simple map; Marshal won't fail

	query := `
	INSERT INTO audit_reports (site, report_json, score_summary)
	VALUES (?, ?, ?)
	`

	_, err = adb.db.ExecContext(ctx, query,
		report.TargetURL,
		string(reportJSON),
		string(summaryJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save audit report: %w", err)
	}

	return nil
}

// GetLatestAuditReport retrieves the most recent audit report for a site.
func (adb *AuditDB) GetLatestAuditReport(ctx context.Context, site string) (*model.SiteAuditReport, error) {
	query := `
	SELECT report_json FROM audit_reports
	WHERE site = ?
	ORDER BY timestamp DESC
	LIMIT 1
	`

	var reportJSON string
	err := adb.db.QueryRowContext(ctx, query, site).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit report: %w", err)
	}

	var report model.SiteAuditReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// ListAuditedSites returns a list of all audited sites.
func (adb *AuditDB) ListAuditedSites(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT site FROM audit_reports
	ORDER BY site
	`

	rows, err := adb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}

	return sites, rows.Err()
}

// GetAuditHistory retrieves all audit reports for a site.
func (adb *AuditDB) GetAuditHistory(ctx context.Context, site string) ([]*model.SiteAuditReport, error) {
	query := `
	SELECT report_json FROM audit_reports
	WHERE site = ?
	ORDER BY timestamp DESC
	`

	rows, err := adb.db.QueryContext(ctx, query, site)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit history: %w", err)
	}
	defer rows.Close()

	var reports []*model.SiteAuditReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report model.SiteAuditReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // Skip malformed reports
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// AuditReportMetadata contains summary information about an audit report.
// This is used for displaying audit history without loading the full report.
type AuditReportMetadata struct {
	// ID is the unique identifier of the audit report in the database.
	ID int64

	// Site is the audited site URL.
	Site string

	// Timestamp is when the audit was performed.
	Timestamp time.Time

	// ScoreSummary contains the overall score and finding counts by severity.
	ScoreSummary map[string]int
}

// GetAuditHistoryWithMetadata retrieves audit report metadata for a site.
// This is more efficient than GetAuditHistory when only metadata is needed.
func (adb *AuditDB) GetAuditHistoryWithMetadata(ctx context.Context, site string) ([]AuditReportMetadata, error) {
	query := `
	SELECT id, site, timestamp, score_summary
	FROM audit_reports
	WHERE site = ?
	ORDER BY timestamp DESC
	`

	rows, err := adb.db.QueryContext(ctx, query, site)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit history: %w", err)
	}
	defer rows.Close()

	var results []AuditReportMetadata
	for rows.Next() {
		var meta AuditReportMetadata
		var timestamp string
		var summaryJSON sql.NullString

		if err := rows.Scan(&meta.ID, &meta.Site, &timestamp, &summaryJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		// Parse timestamp
		meta.Timestamp = parseTimestamp(timestamp)

		// Parse score summary
		if summaryJSON.Valid && summaryJSON.String != "" {
			if err := json.Unmarshal([]byte(summaryJSON.String), &meta.ScoreSummary); err != nil {
				meta.ScoreSummary = make(map[string]int)
			}
		} else {
			meta.ScoreSummary = make(map[string]int)
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetAuditReportByID retrieves an audit report by its database ID.
func (adb *AuditDB) GetAuditReportByID(ctx context.Context, id int64) (*model.SiteAuditReport, error) {
	query := `
	SELECT report_json FROM audit_reports
	WHERE id = ?
	`

	var reportJSON string
	err := adb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit report: %w", err)
	}

	var report model.SiteAuditReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	// Return zero time if no format matches
	// This is a fallback to avoid breaking functionality for edge cases
	return time.Time{}
}
