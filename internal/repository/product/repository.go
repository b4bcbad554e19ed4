package product

import (
	"context"

	"lavibaby-storefront/internal/domain"
)

// Filter narrows a catalogue listing. Zero values match everything.
type Filter struct {
	Category string
}

type Repository interface {
	List(ctx context.Context, f Filter) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
}
