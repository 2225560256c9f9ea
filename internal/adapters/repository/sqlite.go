package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/sentiscan/internal/domain/model"
	"github.com/okian/sentiscan/pkg/logger"
)

// SQLiteStore keeps snapshots and summaries in one SQLite database.
// Inserts use ON CONFLICT DO NOTHING so the first writer wins.
type SQLiteStore struct {
	db  *sql.DB
	log logger.Logger
}

// NewSQLiteStore opens (and migrates) the database at path.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection, so ":memory:" databases are shared across calls.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, log: o.log}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		app_id TEXT NOT NULL,
		date TEXT NOT NULL,
		fetched_at TEXT NOT NULL,
		review_count INTEGER NOT NULL,
		reviews TEXT NOT NULL,
		PRIMARY KEY (app_id, date)
	);

	CREATE TABLE IF NOT EXISTS summaries (
		fingerprint TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSnapshot(ctx context.Context, appID, date string) (model.Snapshot, error) {
	var fetchedAt, reviews string
	err := s.db.QueryRowContext(ctx,
		`SELECT fetched_at, reviews FROM snapshots WHERE app_id = ? AND date = ?`,
		appID, date).Scan(&fetchedAt, &reviews)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("query snapshot: %w", err)
	}

	snap := model.Snapshot{AppID: appID, Date: date}
	if snap.FetchedAt, err = time.Parse(time.RFC3339Nano, fetchedAt); err != nil {
		return model.Snapshot{}, fmt.Errorf("%w: snapshot %s/%s fetched_at: %v", ErrCorrupt, appID, date, err)
	}
	if err := json.Unmarshal([]byte(reviews), &snap.Reviews); err != nil {
		return model.Snapshot{}, fmt.Errorf("%w: snapshot %s/%s reviews: %v", ErrCorrupt, appID, date, err)
	}
	return snap, nil
}

func (s *SQLiteStore) PutSnapshot(ctx context.Context, snap model.Snapshot) (bool, error) {
	if err := validKey(snap.AppID, snap.Date); err != nil {
		return false, err
	}
	rec := toRecord(snap)
	reviews, err := json.Marshal(rec.Reviews)
	if err != nil {
		return false, fmt.Errorf("encode reviews: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (app_id, date, fetched_at, review_count, reviews)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(app_id, date) DO NOTHING
	`, rec.AppID, rec.Date, rec.FetchedAt.UTC().Format(time.RFC3339Nano), rec.ReviewCount, string(reviews))
	if err != nil {
		return false, fmt.Errorf("insert snapshot: %w", err)
	}
	ok, err := inserted(res)
	if ok {
		s.log.Debug(ctx, "snapshot persisted", logger.String("app_id", rec.AppID), logger.String("date", rec.Date))
	}
	return ok, err
}

func (s *SQLiteStore) ListSnapshots(ctx context.Context, appID string) ([]model.SnapshotKey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT app_id, date FROM snapshots
		WHERE ? = '' OR app_id = ?
		ORDER BY app_id, date
	`, appID, appID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var keys []model.SnapshotKey
	for rows.Next() {
		var k model.SnapshotKey
		if err := rows.Scan(&k.AppID, &k.Date); err != nil {
			return nil, fmt.Errorf("scan snapshot key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLiteStore) DeleteSnapshots(ctx context.Context, appID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE ? = '' OR app_id = ?`, appID, appID)
	if err != nil {
		return 0, fmt.Errorf("delete snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *SQLiteStore) GetSummary(ctx context.Context, fingerprint string) (model.Summary, error) {
	sum := model.Summary{Fingerprint: fingerprint}
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT text, created_at FROM summaries WHERE fingerprint = ?`, fingerprint).
		Scan(&sum.Text, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Summary{}, ErrNotFound
	}
	if err != nil {
		return model.Summary{}, fmt.Errorf("query summary: %w", err)
	}
	if sum.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return model.Summary{}, fmt.Errorf("%w: summary %s created_at: %v", ErrCorrupt, fingerprint, err)
	}
	return sum, nil
}

func (s *SQLiteStore) PutSummary(ctx context.Context, sum model.Summary) (bool, error) {
	if err := validFingerprint(sum.Fingerprint); err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO summaries (fingerprint, text, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`, sum.Fingerprint, sum.Text, sum.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return false, fmt.Errorf("insert summary: %w", err)
	}
	return inserted(res)
}

func (s *SQLiteStore) DeleteSummaries(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM summaries`)
	if err != nil {
		return 0, fmt.Errorf("delete summaries: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func inserted(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
