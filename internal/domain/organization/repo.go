package organization

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, o *Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	Update(ctx context.Context, o *Organization) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Organization, int, error)
}

type InvitationRepository interface {
	Create(ctx context.Context, i *Invitation) error
	GetByToken(ctx context.Context, token string) (*Invitation, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*Invitation, error)
	MarkAccepted(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}
