package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Plan codes. An organization registration opens an ORGANIZACION plan; a
// solo patient or clinician-family signup opens an INDIVIDUAL or FAMILIAR one.
const (
	PlanIndividual   = "INDIVIDUAL"
	PlanFamiliar     = "FAMILIAR"
	PlanOrganizacion = "ORGANIZACION"
)

const (
	StatusTrial    = "TRIAL"
	StatusActive   = "ACTIVE"
	StatusCanceled = "CANCELED"
)

var validPlans = map[string]bool{
	PlanIndividual:   true,
	PlanFamiliar:     true,
	PlanOrganizacion: true,
}

// ValidPlan reports whether the plan code is known.
func ValidPlan(plan string) bool {
	return validPlans[plan]
}

// TrialPeriod is how long a fresh subscription runs before payment is due.
const TrialPeriod = 30 * 24 * time.Hour

// Subscription maps to the subscription table. Exactly one of OrganizationID
// or PatientID is set, depending on who the plan covers.
type Subscription struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	OrganizationID *uuid.UUID `db:"organization_id" json:"organization_id,omitempty"`
	PatientID      *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	Plan           string     `db:"plan" json:"plan"`
	Status         string     `db:"status" json:"status"`
	Seats          int        `db:"seats" json:"seats"`
	TrialEndsAt    *time.Time `db:"trial_ends_at" json:"trial_ends_at,omitempty"`
	CanceledAt     *time.Time `db:"canceled_at" json:"canceled_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Trialing reports whether the subscription is still inside its trial window.
func (s *Subscription) Trialing(now time.Time) bool {
	return s.Status == StatusTrial && s.TrialEndsAt != nil && now.Before(*s.TrialEndsAt)
}
