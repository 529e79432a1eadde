package measurement

import "context"

// Repository is the append-only measurement store. Query returns records with
// TimestampUTC >= filter.Since, ordered timestamp-ascending; when more rows
// match than the limit allows, the most recent ones are kept (the window is
// trimmed from its oldest edge, not its newest).
type Repository interface {
	Append(ctx context.Context, r *Record) error
	Query(ctx context.Context, f Filter) ([]*Record, error)
	DistinctPatientIDs(ctx context.Context) ([]string, error)
}
