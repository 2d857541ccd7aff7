package sys

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

// --- Connection & Lifecycle ---

var DB *sql.DB

// catalogRefreshKeep bounds the refresh history table.
const catalogRefreshKeep = 500

func InitDatabase(ctx context.Context, dataSourceName string) error {
	// Explicitly reference sqlite3 driver to avoid blank identifier
	_ = sqlite3.SQLiteDriver{}

	var err error
	DB, err = sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return err
	}

	DB.SetMaxOpenConns(5)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA cache_size=-2000;",
	}

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, p := range pragmas {
		if _, err := DB.ExecContext(initCtx, p); err != nil {
			return fmt.Errorf(MsgDatabasePragmaError, p, err)
		}
	}

	tx, err := DB.BeginTx(initCtx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tableQueries := []string{
		`CREATE TABLE IF NOT EXISTS bot_config (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS catalog_refreshes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			package_count INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT ''
		)`,
	}

	for _, q := range tableQueries {
		if _, err := tx.ExecContext(initCtx, q); err != nil {
			return fmt.Errorf(MsgDatabaseTableError, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	LogDatabase(MsgDatabaseInitSuccess)
	return nil
}

func CloseDatabase() {
	if DB != nil {
		DB.Close()
	}
}

// --- Bot Persistence ---

// BotConfig helpers are used by the loader for mode tracking and state.
func GetBotConfig(ctx context.Context, key string) (string, error) {
	if DB == nil {
		return "", nil
	}
	var value string
	err := DB.QueryRowContext(ctx, "SELECT value FROM bot_config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func SetBotConfig(ctx context.Context, key, value string) error {
	if DB == nil {
		return nil
	}
	_, err := DB.ExecContext(ctx, `
		INSERT INTO bot_config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

// --- Catalog Refresh History ---

// CatalogRefresh is one row of the refresh audit trail. The catalog itself is never stored.
type CatalogRefresh struct {
	ID           int64
	Trigger      string
	StartedAt    time.Time
	Duration     time.Duration
	PackageCount int
	Error        string
}

func (r *CatalogRefresh) Failed() bool {
	return r.Error != ""
}

func RecordCatalogRefresh(ctx context.Context, r *CatalogRefresh) error {
	if DB == nil {
		return nil
	}
	res, err := DB.ExecContext(ctx, `
		INSERT INTO catalog_refreshes (source, started_at, duration_ms, package_count, error)
		VALUES (?, ?, ?, ?, ?)
	`, r.Trigger, r.StartedAt.UTC(), r.Duration.Milliseconds(), r.PackageCount, r.Error)
	if err != nil {
		return err
	}
	r.ID, _ = res.LastInsertId()

	_, err = DB.ExecContext(ctx, `
		DELETE FROM catalog_refreshes
		WHERE id NOT IN (SELECT id FROM catalog_refreshes ORDER BY id DESC LIMIT ?)
	`, catalogRefreshKeep)
	return err
}

// GetLastCatalogRefresh returns nil when no refresh has been recorded.
func GetLastCatalogRefresh(ctx context.Context) (*CatalogRefresh, error) {
	if DB == nil {
		return nil, nil
	}
	var (
		r          CatalogRefresh
		durationMs int64
	)
	err := DB.QueryRowContext(ctx, `
		SELECT id, source, started_at, duration_ms, package_count, error
		FROM catalog_refreshes ORDER BY id DESC LIMIT 1
	`).Scan(&r.ID, &r.Trigger, &r.StartedAt, &durationMs, &r.PackageCount, &r.Error)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.Duration = time.Duration(durationMs) * time.Millisecond
	return &r, nil
}

func GetCatalogRefreshCount(ctx context.Context) (int, error) {
	if DB == nil {
		return 0, nil
	}
	var count int
	err := DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM catalog_refreshes").Scan(&count)
	return count, err
}
