// Package store persists generated series (JSON envelope, SQLite) and serves
// them to readers through an in-memory repository.
package store

import (
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"

	"agri-price-backend/internal/model"
)

// ErrNotFound is returned when no record exists for a date.
var ErrNotFound = errors.New("record not found")

// Repository is the read side used by the API.
type Repository interface {
	All() []model.DayRecord
	Count() int
	// Latest returns up to n records, newest first.
	Latest(n int) []model.DayRecord
	// Page returns records newest first, 1-based page.
	Page(page, limit int) []model.DayRecord
	ByDate(date string) (model.DayRecord, error)
	// Range returns records with start <= date <= end, ascending.
	Range(start, end string) []model.DayRecord
}

// MemoryRepository holds one series sorted by date.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []model.DayRecord
	byDate  map[string]int
}

func NewMemoryRepository(records []model.DayRecord) *MemoryRepository {
	r := &MemoryRepository{}
	r.Replace(records)
	return r
}

// Replace swaps the whole series; later duplicates of a date win.
func (r *MemoryRepository) Replace(records []model.DayRecord) {
	idx := make(map[string]int, len(records))
	sorted := make([]model.DayRecord, 0, len(records))
	for _, rec := range records {
		if i, ok := idx[rec.Date]; ok {
			sorted[i] = rec
			continue
		}
		idx[rec.Date] = len(sorted)
		sorted = append(sorted, rec)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })
	for i, rec := range sorted {
		idx[rec.Date] = i
	}

	r.mu.Lock()
	r.records = sorted
	r.byDate = idx
	r.mu.Unlock()
}

func (r *MemoryRepository) All() []model.DayRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.records)
}

func (r *MemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func (r *MemoryRepository) Latest(n int) []model.DayRecord {
	return r.Page(1, n)
}

func (r *MemoryRepository) Page(page, limit int) []model.DayRecord {
	if page < 1 || limit <= 0 {
		return []model.DayRecord{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	skip := (page - 1) * limit
	total := len(r.records)
	if skip >= total {
		return []model.DayRecord{}
	}
	out := make([]model.DayRecord, 0, min(limit, total-skip))
	for i := total - 1 - skip; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.records[i])
	}
	return out
}

func (r *MemoryRepository) ByDate(date string) (model.DayRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byDate[strings.TrimSpace(date)]
	if !ok {
		return model.DayRecord{}, ErrNotFound
	}
	return r.records[i], nil
}

func (r *MemoryRepository) Range(start, end string) []model.DayRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lo := sort.Search(len(r.records), func(i int) bool { return r.records[i].Date >= start })
	hi := sort.Search(len(r.records), func(i int) bool { return r.records[i].Date > end })
	if lo >= hi {
		return []model.DayRecord{}
	}
	return slices.Clone(r.records[lo:hi])
}
