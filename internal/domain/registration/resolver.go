package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/saludplus/saludplus/internal/domain/account"
	"github.com/saludplus/saludplus/internal/domain/patient"
)

// IdentityResolver decides whether a new role may join the accounts already
// registered under an email, and whether an existing provider identity should
// be reused. The check is read-only and not transactionally isolated from the
// later writes; the datastore's unique constraints are the backstop for
// concurrent registrations of the same email.
type IdentityResolver struct {
	accounts account.Repository
}

func NewIdentityResolver(accounts account.Repository) *IdentityResolver {
	return &IdentityResolver{accounts: accounts}
}

func (r *IdentityResolver) Resolve(ctx context.Context, email, role string) (*ResolvedIdentity, error) {
	existing, err := r.accounts.ListByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list accounts by email: %w", err)
	}
	if len(existing) == 0 {
		return &ResolvedIdentity{}, nil
	}

	resolved := &ResolvedIdentity{}
	for _, a := range existing {
		resolved.ExistingRoles = append(resolved.ExistingRoles, a.Role)
		if !account.CompatibleRoles(a.Role, role) {
			return nil, &ConflictError{
				Message: fmt.Sprintf("email %s is already registered with role %s",
					email, strings.Join(resolved.ExistingRoles, ", ")),
			}
		}
		if resolved.ReuseAuthID == nil && a.AuthID != nil {
			resolved.ReuseAuthID = a.AuthID
		}
	}
	return resolved, nil
}

// UniquenessGuard checks a patient identifier against both the registered
// patient table and the shadow table. A shadow match is a linking signal, not
// a conflict.
type UniquenessGuard struct {
	patients     patient.Repository
	unregistered patient.UnregisteredRepository
	accounts     account.Repository
}

func NewUniquenessGuard(patients patient.Repository, unregistered patient.UnregisteredRepository, accounts account.Repository) *UniquenessGuard {
	return &UniquenessGuard{patients: patients, unregistered: unregistered, accounts: accounts}
}

func (g *UniquenessGuard) Check(ctx context.Context, identifier, role string) (*UniquenessResult, error) {
	existing, err := g.patients.GetByIdentifier(ctx, identifier)
	if err != nil && !errors.Is(err, patient.ErrNotFound) {
		return nil, fmt.Errorf("lookup patient by identifier: %w", err)
	}
	if existing != nil {
		owner, err := g.accountForPatient(ctx, existing)
		if err != nil {
			return nil, err
		}
		// A staff-created profile with no login does not block registration.
		if owner != nil && !account.CompatibleRoles(owner.Role, role) {
			return nil, &ConflictError{
				Message: fmt.Sprintf("identifier %s is already registered with role %s",
					identifier, owner.Role),
			}
		}
		return &UniquenessResult{}, nil
	}

	shadow, err := g.unregistered.GetByIdentifier(ctx, identifier)
	if err != nil && !errors.Is(err, patient.ErrUnregisteredNotFound) {
		return nil, fmt.Errorf("lookup unregistered patient: %w", err)
	}
	if shadow != nil {
		id := shadow.ID
		return &UniquenessResult{LinkedUnregisteredID: &id}, nil
	}
	return &UniquenessResult{}, nil
}

func (g *UniquenessGuard) accountForPatient(ctx context.Context, p *patient.Patient) (*account.Account, error) {
	if p.Email == nil {
		return nil, nil
	}
	accounts, err := g.accounts.ListByEmail(ctx, *p.Email)
	if err != nil {
		return nil, fmt.Errorf("list accounts for patient: %w", err)
	}
	for _, a := range accounts {
		if a.PatientID != nil && *a.PatientID == p.ID {
			return a, nil
		}
	}
	return nil, nil
}
