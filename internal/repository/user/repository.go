package user

import (
	"context"

	"lavibaby-storefront/internal/domain"
)

// Repository stores registered storefront users. Admins are not stored here.
type Repository interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
