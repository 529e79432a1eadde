package measurement

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository returns a Repository backed by Postgres.
func NewPgRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) Append(ctx context.Context, rec *Record) error {
	valueJSON, err := json.Marshal(rec.Value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	var rawJSON []byte
	if rec.Raw != nil {
		rawJSON, err = json.Marshal(rec.Raw)
		if err != nil {
			return fmt.Errorf("marshal raw payload: %w", err)
		}
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO measurements
			(id, patient_id, metric, value, unit, timestamp_utc, device_name, source, raw)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.PatientID, rec.Metric, valueJSON, rec.Unit,
		rec.TimestampUTC, rec.DeviceName, rec.Source, rawJSON,
	)
	if err != nil {
		return fmt.Errorf("insert measurement: %w", err)
	}
	return nil
}

func (r *pgRepository) Query(ctx context.Context, f Filter) ([]*Record, error) {
	var (
		conds = []string{"timestamp_utc >= $1"}
		args  = []interface{}{f.Since}
	)
	if f.PatientID != "" {
		args = append(args, f.PatientID)
		conds = append(conds, fmt.Sprintf("patient_id = $%d", len(args)))
	}
	if f.Metric != "" {
		args = append(args, f.Metric)
		conds = append(conds, fmt.Sprintf("metric = $%d", len(args)))
	}
	args = append(args, f.Limit)

	// Most recent rows win when the window holds more than the limit; the
	// page is then reversed so callers always see ascending time.
	query := fmt.Sprintf(`
		SELECT id, patient_id, metric, value, unit, timestamp_utc, device_name, source, created_at
		FROM measurements
		WHERE %s
		ORDER BY timestamp_utc DESC, id DESC
		LIMIT $%d`,
		strings.Join(conds, " AND "), len(args),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query measurements: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	reverse(records)
	return records, nil
}

func (r *pgRepository) DistinctPatientIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT patient_id FROM measurements ORDER BY patient_id`)
	if err != nil {
		return nil, fmt.Errorf("query patient ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan patient id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanRecords(rows pgx.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		var (
			rec       Record
			valueJSON []byte
			ts        time.Time
		)
		if err := rows.Scan(&rec.ID, &rec.PatientID, &rec.Metric, &valueJSON,
			&rec.Unit, &ts, &rec.DeviceName, &rec.Source, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}
		if err := json.Unmarshal(valueJSON, &rec.Value); err != nil {
			return nil, fmt.Errorf("decode measurement value: %w", err)
		}
		rec.TimestampUTC = ts.UTC()
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func reverse(records []*Record) {
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
}
