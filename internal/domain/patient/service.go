package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	patients     Repository
	unregistered UnregisteredRepository
	groups       FamilyGroupRepository
}

func NewService(patients Repository, unregistered UnregisteredRepository, groups FamilyGroupRepository) *Service {
	return &Service{patients: patients, unregistered: unregistered, groups: groups}
}

// CreatePatient validates and stores a new patient record. The identifier
// must not already belong to an active patient.
func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.Identifier == "" {
		return fmt.Errorf("identifier is required")
	}
	if p.FirstName == "" && p.LastName == "" {
		return fmt.Errorf("name is required")
	}
	existing, err := s.patients.GetByIdentifier(ctx, p.Identifier)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if existing != nil {
		return fmt.Errorf("identifier %s already registered", p.Identifier)
	}
	p.Active = true
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetByIdentifier(ctx context.Context, identifier string) (*Patient, error) {
	return s.patients.GetByIdentifier(ctx, identifier)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p.FirstName == "" && p.LastName == "" {
		return fmt.Errorf("name is required")
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.patients.Delete(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

// CreateUnregistered stores a shadow record for a patient a clinician treats
// before that patient has an account. The identifier may not collide with an
// active patient or another shadow record.
func (s *Service) CreateUnregistered(ctx context.Context, u *UnregisteredPatient) error {
	if u.Identifier == "" {
		return fmt.Errorf("identifier is required")
	}
	if active, err := s.patients.GetByIdentifier(ctx, u.Identifier); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	} else if active != nil {
		return fmt.Errorf("identifier %s belongs to a registered patient", u.Identifier)
	}
	if shadow, err := s.unregistered.GetByIdentifier(ctx, u.Identifier); err != nil && !errors.Is(err, ErrUnregisteredNotFound) {
		return err
	} else if shadow != nil {
		return fmt.Errorf("identifier %s already has an unregistered record", u.Identifier)
	}
	return s.unregistered.Create(ctx, u)
}

func (s *Service) GetUnregistered(ctx context.Context, id uuid.UUID) (*UnregisteredPatient, error) {
	return s.unregistered.GetByID(ctx, id)
}

func (s *Service) CreateFamilyGroup(ctx context.Context, g *FamilyGroup) error {
	if g.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.groups.Create(ctx, g)
}
