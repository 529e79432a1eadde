package patient

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

func (r *pgRepository) Ensure(ctx context.Context, p *Patient) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patients (id, name, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`,
		p.ID, p.Name, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("ensure patient: %w", err)
	}
	return nil
}

func (r *pgRepository) Upsert(ctx context.Context, p *Patient) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patients (id, name, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		p.ID, p.Name, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert patient: %w", err)
	}
	return nil
}

func (r *pgRepository) Get(ctx context.Context, id string) (*Patient, error) {
	var (
		p  Patient
		ts time.Time
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM patients WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &ts)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	p.CreatedAt = ts.UTC()
	return &p, nil
}

func (r *pgRepository) List(ctx context.Context) ([]*Patient, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at FROM patients ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		var (
			p  Patient
			ts time.Time
		)
		if err := rows.Scan(&p.ID, &p.Name, &ts); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		p.CreatedAt = ts.UTC()
		patients = append(patients, &p)
	}
	return patients, rows.Err()
}
