package patient

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no patient exists for an id.
var ErrNotFound = errors.New("patient not found")

// Repository is the patient directory. Ensure inserts a row only when the id
// is new; Upsert also refreshes the name of an existing row.
type Repository interface {
	Ensure(ctx context.Context, p *Patient) error
	Upsert(ctx context.Context, p *Patient) error
	Get(ctx context.Context, id string) (*Patient, error)
	List(ctx context.Context) ([]*Patient, error)
}
