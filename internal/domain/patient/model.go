package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table. Identifier is the national document
// number (cedula) and is unique among active patients.
type Patient struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	Identifier            string     `db:"identifier" json:"identifier"`
	FirstName             string     `db:"first_name" json:"first_name"`
	LastName              string     `db:"last_name" json:"last_name"`
	BirthDate             *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Sex                   *string    `db:"sex" json:"sex,omitempty"`
	Phone                 *string    `db:"phone" json:"phone,omitempty"`
	Email                 *string    `db:"email" json:"email,omitempty"`
	OrganizationID        *uuid.UUID `db:"organization_id" json:"organization_id,omitempty"`
	FamilyGroupID         *uuid.UUID `db:"family_group_id" json:"family_group_id,omitempty"`
	UnregisteredPatientID *uuid.UUID `db:"unregistered_patient_id" json:"unregistered_patient_id,omitempty"`
	Active                bool       `db:"active" json:"active"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName returns the patient's display name.
func (p *Patient) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// UnregisteredPatient maps to the unregistered_patient table. A shadow record
// a clinician created ahead of the patient signing up; holds the clinical
// history until the real patient claims it by identifier.
type UnregisteredPatient struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Identifier     string     `db:"identifier" json:"identifier"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	BirthDate      *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Phone          *string    `db:"phone" json:"phone,omitempty"`
	OrganizationID *uuid.UUID `db:"organization_id" json:"organization_id,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// FamilyGroup maps to the family_group table. Groups a clinician-family
// account with the patients it manages.
type FamilyGroup struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	OwnerAccountID *uuid.UUID `db:"owner_account_id" json:"owner_account_id,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}
