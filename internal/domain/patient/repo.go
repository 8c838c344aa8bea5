package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	// GetByIdentifier looks up an active patient by document number.
	GetByIdentifier(ctx context.Context, identifier string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
}

type UnregisteredRepository interface {
	Create(ctx context.Context, u *UnregisteredPatient) error
	GetByID(ctx context.Context, id uuid.UUID) (*UnregisteredPatient, error)
	GetByIdentifier(ctx context.Context, identifier string) (*UnregisteredPatient, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type FamilyGroupRepository interface {
	Create(ctx context.Context, g *FamilyGroup) error
	GetByID(ctx context.Context, id uuid.UUID) (*FamilyGroup, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
