// Package repository persists snapshots and summaries.
package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/sentiscan/internal/domain/model"
)

// Backend names accepted by New.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// SnapshotStore holds one immutable snapshot per (app, date).
type SnapshotStore interface {
	// GetSnapshot returns ErrNotFound when nothing is stored for the key.
	GetSnapshot(ctx context.Context, appID, date string) (model.Snapshot, error)
	// PutSnapshot stores s unless the key already exists. Returns true when
	// s was written, false when an earlier snapshot was kept.
	PutSnapshot(ctx context.Context, s model.Snapshot) (bool, error)
	// ListSnapshots returns stored keys for appID, or for every app when
	// appID is empty, ordered by app then date.
	ListSnapshots(ctx context.Context, appID string) ([]model.SnapshotKey, error)
	// DeleteSnapshots removes stored snapshots for appID, or all of them
	// when appID is empty, and returns how many were removed.
	DeleteSnapshots(ctx context.Context, appID string) (int, error)
}

// SummaryStore holds one immutable summary per fingerprint.
type SummaryStore interface {
	// GetSummary returns ErrNotFound on a miss.
	GetSummary(ctx context.Context, fingerprint string) (model.Summary, error)
	// PutSummary stores s unless the fingerprint already exists.
	PutSummary(ctx context.Context, s model.Summary) (bool, error)
	// DeleteSummaries removes every stored summary.
	DeleteSummaries(ctx context.Context) (int, error)
}

// Store is the full persistence surface.
type Store interface {
	SnapshotStore
	SummaryStore
	Close() error
}

// New opens the backend named by backend under dataDir.
func New(ctx context.Context, backend, dataDir string, opts ...Option) (Store, error) {
	switch strings.ToLower(backend) {
	case BackendFile, "":
		return NewFileStore(dataDir, opts...)
	case BackendSQLite:
		return NewSQLiteStore(ctx, filepath.Join(dataDir, "sentiscan.db"), opts...)
	case BackendMemory:
		return NewMemoryStore(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// snapshotRecord is the persisted layout of a snapshot.
type snapshotRecord struct {
	AppID       string         `json:"app_id"`
	Date        string         `json:"date"`
	FetchedAt   time.Time      `json:"fetched_at"`
	ReviewCount int            `json:"review_count"`
	Reviews     []model.Review `json:"reviews"`
}

func toRecord(s model.Snapshot) snapshotRecord {
	reviews := s.Reviews
	if reviews == nil {
		reviews = []model.Review{}
	}
	return snapshotRecord{
		AppID:       s.AppID,
		Date:        s.Date,
		FetchedAt:   s.FetchedAt,
		ReviewCount: len(reviews),
		Reviews:     reviews,
	}
}

func (r snapshotRecord) snapshot() model.Snapshot {
	return model.Snapshot{AppID: r.AppID, Date: r.Date, FetchedAt: r.FetchedAt, Reviews: r.Reviews}
}

// validKey rejects components that could escape the data directory.
func validKey(parts ...string) error {
	for _, p := range parts {
		if p == "" || p == "." || p == ".." || strings.ContainsAny(p, `/\`) || strings.Contains(p, "..") {
			return fmt.Errorf("%w: %q", ErrInvalidKey, p)
		}
	}
	return nil
}
