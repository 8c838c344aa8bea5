package registration

import (
	"strings"

	"github.com/saludplus/saludplus/internal/domain/account"
	"github.com/saludplus/saludplus/internal/domain/subscription"
)

const (
	minPasswordLen     = 8
	maxNameLen         = 120
	maxSpecialistCount = 50
)

// Validate checks a raw request and returns the typed intent, or a
// ValidationError listing every bad field.
func Validate(req *Request) (*Intent, error) {
	var fields []FieldError
	add := func(field, msg string) {
		fields = append(fields, FieldError{Field: field, Message: msg})
	}

	email := strings.TrimSpace(strings.ToLower(req.Account.Email))
	if email == "" {
		add("account.email", "email is required")
	} else if !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		add("account.email", "email is not valid")
	}

	if req.Account.Password == "" {
		add("account.password", "password is required")
	} else if len(req.Account.Password) < minPasswordLen {
		add("account.password", "password must be at least 8 characters")
	}

	name := strings.TrimSpace(req.Account.DisplayName)
	if name == "" {
		add("account.displayName", "display name is required")
	} else if len(name) > maxNameLen {
		add("account.displayName", "display name is too long")
	}

	role := strings.ToUpper(strings.TrimSpace(req.Account.Role))
	if role == "" {
		add("account.role", "role is required")
	} else if !account.ValidRole(role) {
		add("account.role", "unknown role")
	}

	org := req.Organization
	if org != nil {
		if strings.TrimSpace(org.Name) == "" {
			add("organization.name", "organization name is required")
		} else if len(org.Name) > maxNameLen {
			add("organization.name", "organization name is too long")
		}
		// Seat counts are clamped, not rejected.
		if org.SpecialistCount < 0 {
			org.SpecialistCount = 0
		}
		if org.SpecialistCount > maxSpecialistCount {
			org.SpecialistCount = maxSpecialistCount
		}
	}

	pat := req.Patient
	if pat != nil {
		if strings.TrimSpace(pat.Identifier) == "" {
			add("patient.identifier", "identifier is required")
		}
		if strings.TrimSpace(pat.FirstName) == "" && strings.TrimSpace(pat.LastName) == "" {
			add("patient.firstName", "patient name is required")
		}
	}

	if req.Plan != nil && !subscription.ValidPlan(strings.ToUpper(*req.Plan)) {
		add("plan", "unknown plan")
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	intent := &Intent{
		Email:                  email,
		Password:               req.Account.Password,
		DisplayName:            name,
		Role:                   role,
		Organization:           org,
		Patient:                pat,
		SelectedOrganizationID: req.SelectedOrganizationID,
	}
	if req.Plan != nil {
		plan := strings.ToUpper(*req.Plan)
		intent.Plan = &plan
	}
	return intent, nil
}
