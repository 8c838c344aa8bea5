package organization

import (
	"time"

	"github.com/google/uuid"
)

// Organization maps to the organization table. A practice registered by an
// administrator or clinician; owns staff accounts and invitations.
type Organization struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	TaxID           *string   `db:"tax_id" json:"tax_id,omitempty"`
	Phone           *string   `db:"phone" json:"phone,omitempty"`
	Email           *string   `db:"email" json:"email,omitempty"`
	AddressLine1    *string   `db:"address_line1" json:"address_line1,omitempty"`
	City            *string   `db:"city" json:"city,omitempty"`
	State           *string   `db:"state" json:"state,omitempty"`
	Country         *string   `db:"country" json:"country,omitempty"`
	SpecialistSeats int       `db:"specialist_seats" json:"specialist_seats"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// InviteTTL is how long a specialist invitation stays redeemable.
const InviteTTL = 14 * 24 * time.Hour

// Invitation maps to the invitation table. Single-use token inviting a
// specialist to join an organization.
type Invitation struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	OrganizationID uuid.UUID  `db:"organization_id" json:"organization_id"`
	Email          *string    `db:"email" json:"email,omitempty"`
	Role           string     `db:"role" json:"role"`
	Token          string     `db:"token" json:"token"`
	ExpiresAt      time.Time  `db:"expires_at" json:"expires_at"`
	AcceptedAt     *time.Time `db:"accepted_at" json:"accepted_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// Expired reports whether the invitation is past its redemption window.
func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// NewInvitation builds an unsaved invitation for the given organization with a
// fresh token and the standard expiry window.
func NewInvitation(orgID uuid.UUID, role string, now time.Time) *Invitation {
	return &Invitation{
		OrganizationID: orgID,
		Role:           role,
		Token:          uuid.New().String(),
		ExpiresAt:      now.Add(InviteTTL),
	}
}
