package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/sentiscan/internal/domain/model"
)

// MemoryStore keeps everything in process memory. Used by tests and by the
// "memory" backend.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[model.SnapshotKey]model.Snapshot
	summaries map[string]model.Summary
	opts      options
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{
		snapshots: make(map[model.SnapshotKey]model.Snapshot),
		summaries: make(map[string]model.Summary),
		opts:      o,
	}
}

func (m *MemoryStore) GetSnapshot(_ context.Context, appID, date string) (model.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.snapshots[model.SnapshotKey{AppID: appID, Date: date}]
	if !ok {
		return model.Snapshot{}, ErrNotFound
	}
	return cloneSnapshot(s), nil
}

func (m *MemoryStore) PutSnapshot(_ context.Context, s model.Snapshot) (bool, error) {
	if err := validKey(s.AppID, s.Date); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snapshots[s.Key()]; ok {
		return false, nil
	}
	m.snapshots[s.Key()] = cloneSnapshot(s)
	return true, nil
}

func (m *MemoryStore) ListSnapshots(_ context.Context, appID string) ([]model.SnapshotKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]model.SnapshotKey, 0, len(m.snapshots))
	for k := range m.snapshots {
		if appID == "" || k.AppID == appID {
			keys = append(keys, k)
		}
	}
	sortKeys(keys)
	return keys, nil
}

func (m *MemoryStore) DeleteSnapshots(_ context.Context, appID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.snapshots {
		if appID == "" || k.AppID == appID {
			delete(m.snapshots, k)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) GetSummary(_ context.Context, fingerprint string) (model.Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.summaries[fingerprint]
	if !ok {
		return model.Summary{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) PutSummary(_ context.Context, s model.Summary) (bool, error) {
	if err := validKey(s.Fingerprint); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.summaries[s.Fingerprint]; ok {
		return false, nil
	}
	m.summaries[s.Fingerprint] = s
	return true, nil
}

func (m *MemoryStore) DeleteSummaries(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.summaries)
	m.summaries = make(map[string]model.Summary)
	return n, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

func cloneSnapshot(s model.Snapshot) model.Snapshot {
	s.Reviews = append([]model.Review(nil), s.Reviews...)
	return s
}

func sortKeys(keys []model.SnapshotKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].AppID != keys[j].AppID {
			return keys[i].AppID < keys[j].AppID
		}
		return keys[i].Date < keys[j].Date
	})
}
