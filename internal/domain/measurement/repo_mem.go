package measurement

import (
	"context"
	"sort"
	"sync"
)

// memRepository is an in-memory Repository used by tests and the demo seeder
// in database-less setups.
type memRepository struct {
	mu      sync.RWMutex
	records []*Record
}

func NewMemRepository() Repository {
	return &memRepository{}
}

func (r *memRepository) Append(ctx context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *rec
	r.records = append(r.records, &clone)
	return nil
}

func (r *memRepository) Query(ctx context.Context, f Filter) ([]*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Record
	for _, rec := range r.records {
		if rec.TimestampUTC.Before(f.Since) {
			continue
		}
		if f.PatientID != "" && rec.PatientID != f.PatientID {
			continue
		}
		if f.Metric != "" && rec.Metric != f.Metric {
			continue
		}
		matched = append(matched, rec)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].TimestampUTC.Before(matched[j].TimestampUTC)
	})
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[len(matched)-f.Limit:]
	}
	return matched, nil
}

func (r *memRepository) DistinctPatientIDs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var ids []string
	for _, rec := range r.records {
		if !seen[rec.PatientID] {
			seen[rec.PatientID] = true
			ids = append(ids, rec.PatientID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
