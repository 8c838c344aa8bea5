package account

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByEmailRole(ctx context.Context, email, role string) (*Account, error)
	GetByAuthID(ctx context.Context, authID string) (*Account, error)
	ListByEmail(ctx context.Context, email string) ([]*Account, error)
	Update(ctx context.Context, a *Account) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Account, int, error)
}
