// Package registration orchestrates account signup: identity resolution,
// provisioning against the external auth provider, the ordered creation of
// organization/patient/account/subscription/invitation records with manual
// compensation, and the migration of clinical history from shadow records.
package registration

import (
	"github.com/google/uuid"

	"github.com/saludplus/saludplus/internal/domain/account"
	"github.com/saludplus/saludplus/internal/domain/organization"
	"github.com/saludplus/saludplus/internal/domain/patient"
	"github.com/saludplus/saludplus/internal/platform/authx"
)

// Request is the raw POST /register payload.
type Request struct {
	Account                AccountPayload       `json:"account"`
	Organization           *OrganizationPayload `json:"organization,omitempty"`
	Patient                *PatientPayload      `json:"patient,omitempty"`
	Plan                   *string              `json:"plan,omitempty"`
	SelectedOrganizationID *uuid.UUID           `json:"selectedOrganizationId,omitempty"`
}

type AccountPayload struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

type OrganizationPayload struct {
	Name            string  `json:"name"`
	TaxID           *string `json:"taxId,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	City            *string `json:"city,omitempty"`
	SpecialistCount int     `json:"specialistCount"`
}

type PatientPayload struct {
	Identifier string  `json:"identifier"`
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Phone      *string `json:"phone,omitempty"`
	Sex        *string `json:"sex,omitempty"`
}

// Intent is the validated form of a Request. Only an Intent reaches the
// orchestrator; a Request that fails validation never causes side effects.
type Intent struct {
	Email                  string
	Password               string
	DisplayName            string
	Role                   string
	Organization           *OrganizationPayload
	Patient                *PatientPayload
	Plan                   *string
	SelectedOrganizationID *uuid.UUID
}

// ResolvedIdentity is the identity-resolution verdict for an email + role.
type ResolvedIdentity struct {
	// ReuseAuthID is set when a compatible account under the same email
	// already carries a provider identity.
	ReuseAuthID *string
	// ExistingRoles are the roles already registered under the email.
	ExistingRoles []string
}

// UniquenessResult is the patient-identifier check verdict.
type UniquenessResult struct {
	// LinkedUnregisteredID is set when the identifier matches a shadow
	// record; the patient insert links it and history migration follows.
	LinkedUnregisteredID *uuid.UUID
}

// ProvisionResult records the outcome of the external identity step.
type ProvisionResult struct {
	Identity *authx.Identity
	// Created is true only when this request made the identity; a reused
	// identity is never deleted by compensation.
	Created bool
}

// Response is the envelope returned on success.
type Response struct {
	OK                        bool          `json:"ok"`
	Data                      *ResponseData `json:"data"`
	EmailVerificationRequired bool          `json:"emailVerificationRequired"`
	HasLinkedHistory          bool          `json:"hasLinkedHistory"`
	Message                   string        `json:"message"`
	OrganizationID            *uuid.UUID    `json:"organizationId"`
	UserID                    uuid.UUID     `json:"userId"`
}

type ResponseData struct {
	User           *account.Account           `json:"user"`
	Organization   *organization.Organization `json:"organization"`
	Patient        *patient.Patient           `json:"patient"`
	SubscriptionID *uuid.UUID                 `json:"subscriptionId"`
	Invites        []*organization.Invitation `json:"invites"`
	AuthUser       *authx.Identity            `json:"supabaseUser"`
}

// ErrorResponse is the envelope returned on any failure.
type ErrorResponse struct {
	OK      bool         `json:"ok"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}
