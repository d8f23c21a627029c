package historyrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/surgecast/internal/domain/history"
)

// MemoryRepository is an in-memory history store used for tests/dev.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]history.Record
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[uuid.UUID]history.Record)}
}

// Insert stores rec, replacing any record with the same ID.
func (r *MemoryRepository) Insert(_ context.Context, rec history.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.Recommendations = append([]string(nil), rec.Recommendations...)
	r.records[rec.ID] = rec
	return nil
}

// Get fetches a record by ID.
func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (history.Record, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	return rec, ok, nil
}

// List returns one page of matching records, newest first, and the total match count.
func (r *MemoryRepository) List(_ context.Context, filter history.Filter) ([]history.Record, int, error) {
	r.mu.RLock()
	matched := make([]history.Record, 0, len(r.records))
	for _, rec := range r.records {
		if filter.Matches(rec) {
			matched = append(matched, rec)
		}
	}
	r.mu.RUnlock()

	sortNewestFirst(matched)
	total := len(matched)
	start := filter.Offset()
	if start < 0 || start >= total || filter.Limit <= 0 {
		return []history.Record{}, total, nil
	}
	end := start + filter.Limit
	if end > total || end < start {
		end = total
	}
	return matched[start:end], total, nil
}

// Since returns every record at or after since, newest first.
func (r *MemoryRepository) Since(_ context.Context, since time.Time) ([]history.Record, error) {
	r.mu.RLock()
	out := make([]history.Record, 0, len(r.records))
	for _, rec := range r.records {
		if !rec.Timestamp.Before(since) {
			out = append(out, rec)
		}
	}
	r.mu.RUnlock()
	sortNewestFirst(out)
	return out, nil
}

// Delete removes a record.
func (r *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return history.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func sortNewestFirst(records []history.Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].ID.String() < records[j].ID.String()
		}
		return records[i].Timestamp.After(records[j].Timestamp)
	})
}

var _ history.Repository = (*MemoryRepository)(nil)
