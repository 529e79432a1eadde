package gateway

import (
	"context"
	"errors"
	"fmt"
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

func (r *pgRepository) Upsert(ctx context.Context, b *Binding) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO gateway_bindings (gateway_norm, gateway_raw, patient_id, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (gateway_norm) DO UPDATE SET
			gateway_raw = EXCLUDED.gateway_raw,
			patient_id = EXCLUDED.patient_id,
			updated_at = EXCLUDED.updated_at`,
		b.GatewayNorm, b.GatewayRaw, b.PatientID, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert gateway binding: %w", err)
	}
	return nil
}

func (r *pgRepository) Get(ctx context.Context, gatewayNorm string) (*Binding, error) {
	var b Binding
	err := r.pool.QueryRow(ctx, `
		SELECT gateway_norm, gateway_raw, patient_id, updated_at
		FROM gateway_bindings
		WHERE gateway_norm = $1`,
		gatewayNorm,
	).Scan(&b.GatewayNorm, &b.GatewayRaw, &b.PatientID, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get gateway binding: %w", err)
	}
	b.UpdatedAt = b.UpdatedAt.UTC()
	return &b, nil
}

func (r *pgRepository) List(ctx context.Context) ([]*Binding, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT gateway_norm, gateway_raw, patient_id, updated_at
		FROM gateway_bindings
		ORDER BY gateway_norm`)
	if err != nil {
		return nil, fmt.Errorf("list gateway bindings: %w", err)
	}
	defer rows.Close()

	var bindings []*Binding
	for rows.Next() {
		var (
			b  Binding
			ts time.Time
		)
		if err := rows.Scan(&b.GatewayNorm, &b.GatewayRaw, &b.PatientID, &ts); err != nil {
			return nil, fmt.Errorf("scan gateway binding: %w", err)
		}
		b.UpdatedAt = ts.UTC()
		bindings = append(bindings, &b)
	}
	return bindings, rows.Err()
}
