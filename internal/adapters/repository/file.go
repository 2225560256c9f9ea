package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/renameio/v2"

	"github.com/okian/sentiscan/internal/domain/model"
	"github.com/okian/sentiscan/pkg/logger"
)

const (
	snapshotsDir = "snapshots"
	summariesDir = "summaries"
	jsonExt      = ".json"
	dirPerm      = 0o755
	filePerm     = 0o644
)

// FileStore keeps one JSON artifact per snapshot and per summary:
//
//	{root}/snapshots/{app}/{date}.json
//	{root}/summaries/{fp[:2]}/{fp}.json
//
// Files are written to a temp file and renamed into place, so readers never
// see a partial artifact.
type FileStore struct {
	root string
	mu   sync.Mutex // serializes the exists-then-write step of Put*
	log  logger.Logger
}

// NewFileStore creates the directory layout under root.
func NewFileStore(root string, opts ...Option) (*FileStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	for _, dir := range []string{snapshotsDir, summariesDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), dirPerm); err != nil {
			return nil, fmt.Errorf("create %s dir: %w", dir, err)
		}
	}
	return &FileStore{root: root, log: o.log}, nil
}

func (f *FileStore) snapshotPath(appID, date string) string {
	return filepath.Join(f.root, snapshotsDir, appID, date+jsonExt)
}

func (f *FileStore) summaryPath(fp string) string {
	return filepath.Join(f.root, summariesDir, fp[:2], fp+jsonExt)
}

func (f *FileStore) GetSnapshot(ctx context.Context, appID, date string) (model.Snapshot, error) {
	if err := validKey(appID, date); err != nil {
		return model.Snapshot{}, err
	}
	var rec snapshotRecord
	if err := readJSON(f.snapshotPath(appID, date), &rec); err != nil {
		return model.Snapshot{}, err
	}
	return rec.snapshot(), nil
}

func (f *FileStore) PutSnapshot(ctx context.Context, s model.Snapshot) (bool, error) {
	if err := validKey(s.AppID, s.Date); err != nil {
		return false, err
	}
	written, err := f.writeOnce(f.snapshotPath(s.AppID, s.Date), toRecord(s))
	if err == nil && written {
		f.log.Debug(ctx, "snapshot persisted", logger.String("app_id", s.AppID), logger.String("date", s.Date))
	}
	return written, err
}

func (f *FileStore) ListSnapshots(_ context.Context, appID string) ([]model.SnapshotKey, error) {
	base := filepath.Join(f.root, snapshotsDir)
	apps := []string{appID}
	if appID == "" {
		entries, err := os.ReadDir(base)
		if err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		apps = apps[:0]
		for _, e := range entries {
			if e.IsDir() {
				apps = append(apps, e.Name())
			}
		}
	} else if err := validKey(appID); err != nil {
		return nil, err
	}

	var keys []model.SnapshotKey
	for _, app := range apps {
		entries, err := os.ReadDir(filepath.Join(base, app))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("list snapshots for %s: %w", app, err)
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasSuffix(name, jsonExt) {
				continue
			}
			keys = append(keys, model.SnapshotKey{AppID: app, Date: strings.TrimSuffix(name, jsonExt)})
		}
	}
	sortKeys(keys)
	return keys, nil
}

func (f *FileStore) DeleteSnapshots(ctx context.Context, appID string) (int, error) {
	keys, err := f.ListSnapshots(ctx, appID)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	target := filepath.Join(f.root, snapshotsDir)
	if appID != "" {
		target = filepath.Join(target, appID)
	}
	if err := os.RemoveAll(target); err != nil {
		return 0, fmt.Errorf("delete snapshots: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(f.root, snapshotsDir), dirPerm); err != nil {
		return 0, fmt.Errorf("recreate snapshots dir: %w", err)
	}
	return len(keys), nil
}

func (f *FileStore) GetSummary(_ context.Context, fingerprint string) (model.Summary, error) {
	if err := validFingerprint(fingerprint); err != nil {
		return model.Summary{}, err
	}
	var s model.Summary
	if err := readJSON(f.summaryPath(fingerprint), &s); err != nil {
		return model.Summary{}, err
	}
	return s, nil
}

func (f *FileStore) PutSummary(_ context.Context, s model.Summary) (bool, error) {
	if err := validFingerprint(s.Fingerprint); err != nil {
		return false, err
	}
	return f.writeOnce(f.summaryPath(s.Fingerprint), s)
}

func (f *FileStore) DeleteSummaries(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	base := filepath.Join(f.root, summariesDir)
	n := 0
	err := filepath.WalkDir(base, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), jsonExt) {
			n++
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("count summaries: %w", err)
	}
	if err := os.RemoveAll(base); err != nil {
		return 0, fmt.Errorf("delete summaries: %w", err)
	}
	if err := os.MkdirAll(base, dirPerm); err != nil {
		return 0, fmt.Errorf("recreate summaries dir: %w", err)
	}
	return n, nil
}

// Close is a no-op.
func (f *FileStore) Close() error { return nil }

// writeOnce atomically writes v to path unless path already exists.
func (f *FileStore) writeOnce(path string, v any) (bool, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return false, fmt.Errorf("create dir for %s: %w", filepath.Base(path), err)
	}
	if err := renameio.WriteFile(path, data, filePerm); err != nil {
		return false, fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, filepath.Base(path), err)
	}
	return nil
}

func validFingerprint(fp string) error {
	if len(fp) < 2 {
		return fmt.Errorf("%w: fingerprint %q", ErrInvalidKey, fp)
	}
	return validKey(fp)
}
