package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HashBody computes the idempotency key for a delivery: the SHA-256 of the
// raw body bytes. Hashing bytes rather than parsed JSON means only
// byte-identical retries are suppressed.
func HashBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// DeliveryRepo is the idempotency guard's backing set of seen body hashes.
// MarkIfNew must guarantee at most one caller wins for a given hash even
// under concurrent deliveries.
type DeliveryRepo interface {
	Seen(ctx context.Context, hash string) (bool, error)
	MarkIfNew(ctx context.Context, hash string) (bool, error)
}

type pgDeliveryRepo struct {
	pool *pgxpool.Pool
}

// NewPgDeliveryRepo returns a DeliveryRepo backed by Postgres. The hash
// column's primary key makes the insert race-safe.
func NewPgDeliveryRepo(pool *pgxpool.Pool) DeliveryRepo {
	return &pgDeliveryRepo{pool: pool}
}

func (r *pgDeliveryRepo) Seen(ctx context.Context, hash string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM webhook_deliveries WHERE body_sha256 = $1)`, hash,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check delivery hash: %w", err)
	}
	return exists, nil
}

func (r *pgDeliveryRepo) MarkIfNew(ctx context.Context, hash string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO webhook_deliveries (body_sha256, received_at)
		VALUES ($1, $2)
		ON CONFLICT (body_sha256) DO NOTHING`,
		hash, time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("mark delivery hash: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

type memDeliveryRepo struct {
	mu   sync.Mutex
	seen map[string]bool
}

func NewMemDeliveryRepo() DeliveryRepo {
	return &memDeliveryRepo{seen: make(map[string]bool)}
}

func (r *memDeliveryRepo) Seen(ctx context.Context, hash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen[hash], nil
}

func (r *memDeliveryRepo) MarkIfNew(ctx context.Context, hash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[hash] {
		return false, nil
	}
	r.seen[hash] = true
	return true, nil
}
