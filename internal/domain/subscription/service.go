package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Open starts a subscription in trial. Exactly one of orgID or patientID must
// be set.
func (s *Service) Open(ctx context.Context, plan string, orgID, patientID *uuid.UUID, seats int) (*Subscription, error) {
	if !ValidPlan(plan) {
		return nil, fmt.Errorf("unknown plan %q", plan)
	}
	if (orgID == nil) == (patientID == nil) {
		return nil, fmt.Errorf("exactly one of organization_id or patient_id must be set")
	}
	if seats < 0 {
		seats = 0
	}
	trialEnd := time.Now().Add(TrialPeriod)
	sub := &Subscription{
		OrganizationID: orgID,
		PatientID:      patientID,
		Plan:           plan,
		Status:         StatusTrial,
		Seats:          seats,
		TrialEndsAt:    &trialEnd,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sub.Status == StatusCanceled {
		return nil
	}
	now := time.Now()
	sub.Status = StatusCanceled
	sub.CanceledAt = &now
	return s.repo.Update(ctx, sub)
}
