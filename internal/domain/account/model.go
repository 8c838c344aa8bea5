package account

import (
	"time"

	"github.com/google/uuid"
)

// Role codes accepted by the platform. PACIENTE is the patient login; the
// remaining roles belong to practice staff.
const (
	RolePaciente      = "PACIENTE"
	RoleMedico        = "MEDICO"
	RoleAdministrador = "ADMINISTRADOR"
	RoleSecretaria    = "SECRETARIA"
)

var validRoles = map[string]bool{
	RolePaciente:      true,
	RoleMedico:        true,
	RoleAdministrador: true,
	RoleSecretaria:    true,
}

// ValidRole reports whether the given role code is known.
func ValidRole(role string) bool {
	return validRoles[role]
}

// compatiblePairs declares which role pairs may share an email address. The
// relation is symmetric and a role is never compatible with itself: the same
// person can be both a clinician and a patient, but never hold two staff
// logins or two identical logins under one email.
var compatiblePairs = map[[2]string]bool{
	{RoleMedico, RolePaciente}:        true,
	{RoleAdministrador, RolePaciente}: true,
	{RoleSecretaria, RolePaciente}:    true,
}

// CompatibleRoles reports whether two roles may coexist under the same email.
func CompatibleRoles(a, b string) bool {
	if a == b {
		return false
	}
	return compatiblePairs[[2]string{a, b}] || compatiblePairs[[2]string{b, a}]
}

// Account maps to the account table. An account is one (email, role) login.
// AuthID points at the external identity provider record when the account has
// one; PasswordHash is the local bcrypt fallback used when provisioning the
// external identity failed or was skipped.
type Account struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Email          string     `db:"email" json:"email"`
	Role           string     `db:"role" json:"role"`
	DisplayName    string     `db:"display_name" json:"display_name"`
	AuthID         *string    `db:"auth_id" json:"auth_id,omitempty"`
	PasswordHash   *string    `db:"password_hash" json:"-"`
	OrganizationID *uuid.UUID `db:"organization_id" json:"organization_id,omitempty"`
	PatientID      *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	Active         bool       `db:"active" json:"active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
