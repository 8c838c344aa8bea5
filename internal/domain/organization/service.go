package organization

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const maxSpecialistSeats = 50

type Service struct {
	orgs    Repository
	invites InvitationRepository
}

func NewService(orgs Repository, invites InvitationRepository) *Service {
	return &Service{orgs: orgs, invites: invites}
}

func (s *Service) CreateOrganization(ctx context.Context, o *Organization) error {
	if o.Name == "" {
		return fmt.Errorf("name is required")
	}
	if o.SpecialistSeats < 0 {
		o.SpecialistSeats = 0
	}
	if o.SpecialistSeats > maxSpecialistSeats {
		o.SpecialistSeats = maxSpecialistSeats
	}
	o.Active = true
	return s.orgs.Create(ctx, o)
}

func (s *Service) GetOrganization(ctx context.Context, id uuid.UUID) (*Organization, error) {
	return s.orgs.GetByID(ctx, id)
}

func (s *Service) UpdateOrganization(ctx context.Context, o *Organization) error {
	if o.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.orgs.Update(ctx, o)
}

func (s *Service) DeleteOrganization(ctx context.Context, id uuid.UUID) error {
	return s.orgs.Delete(ctx, id)
}

func (s *Service) ListOrganizations(ctx context.Context, limit, offset int) ([]*Organization, int, error) {
	return s.orgs.List(ctx, limit, offset)
}

// CreateInvitation stores a new single-use invitation for an organization.
func (s *Service) CreateInvitation(ctx context.Context, i *Invitation) error {
	if i.OrganizationID == uuid.Nil {
		return fmt.Errorf("organization_id is required")
	}
	if i.Role == "" {
		return fmt.Errorf("role is required")
	}
	if i.Token == "" {
		i.Token = uuid.New().String()
	}
	if i.ExpiresAt.IsZero() {
		i.ExpiresAt = time.Now().Add(InviteTTL)
	}
	return s.invites.Create(ctx, i)
}

func (s *Service) ListInvitations(ctx context.Context, orgID uuid.UUID) ([]*Invitation, error) {
	return s.invites.ListByOrganization(ctx, orgID)
}

// AcceptInvitation redeems a token, rejecting unknown, expired, or already
// accepted invitations.
func (s *Service) AcceptInvitation(ctx context.Context, token string) (*Invitation, error) {
	inv, err := s.invites.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv.AcceptedAt != nil {
		return nil, fmt.Errorf("invitation already accepted")
	}
	if inv.Expired(time.Now()) {
		return nil, fmt.Errorf("invitation expired")
	}
	if err := s.invites.MarkAccepted(ctx, inv.ID); err != nil {
		return nil, err
	}
	return inv, nil
}
