package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/saludplus/saludplus/internal/domain/account"
	"github.com/saludplus/saludplus/internal/domain/organization"
	"github.com/saludplus/saludplus/internal/domain/patient"
	"github.com/saludplus/saludplus/internal/domain/subscription"
	"github.com/saludplus/saludplus/internal/platform/notification"
)

// Service wires the registration workflow end to end. There is no datastore
// transaction across the created records; ordering plus compensation is the
// consistency mechanism.
type Service struct {
	accounts     account.Repository
	orgs         organization.Repository
	invites      organization.InvitationRepository
	patients     patient.Repository
	unregistered patient.UnregisteredRepository
	groups       patient.FamilyGroupRepository
	subs         subscription.Repository

	resolver    *IdentityResolver
	guard       *UniquenessGuard
	provisioner *AuthProvisioner
	migrator    *HistoryMigrator
	notifier    *notification.Dispatcher
	log         zerolog.Logger
}

type ServiceDeps struct {
	Accounts     account.Repository
	Orgs         organization.Repository
	Invites      organization.InvitationRepository
	Patients     patient.Repository
	Unregistered patient.UnregisteredRepository
	Groups       patient.FamilyGroupRepository
	Subs         subscription.Repository
	Provisioner  *AuthProvisioner
	Migrator     *HistoryMigrator
	Notifier     *notification.Dispatcher
	Log          zerolog.Logger
}

func NewService(d ServiceDeps) *Service {
	return &Service{
		accounts:     d.Accounts,
		orgs:         d.Orgs,
		invites:      d.Invites,
		patients:     d.Patients,
		unregistered: d.Unregistered,
		groups:       d.Groups,
		subs:         d.Subs,
		resolver:     NewIdentityResolver(d.Accounts),
		guard:        NewUniquenessGuard(d.Patients, d.Unregistered, d.Accounts),
		provisioner:  d.Provisioner,
		migrator:     d.Migrator,
		notifier:     d.Notifier,
		log:          d.Log,
	}
}

// Register runs the whole workflow for one request. Errors are one of
// ValidationError, ConflictError, or StepError; anything else is an
// infrastructure failure before any record was written.
func (s *Service) Register(ctx context.Context, req *Request) (*Response, error) {
	intent, err := Validate(req)
	if err != nil {
		return nil, err
	}

	resolved, err := s.resolver.Resolve(ctx, intent.Email, intent.Role)
	if err != nil {
		return nil, err
	}

	uniq := &UniquenessResult{}
	if intent.Role == account.RolePaciente && intent.Patient != nil {
		uniq, err = s.guard.Check(ctx, intent.Patient.Identifier, intent.Role)
		if err != nil {
			return nil, err
		}
	}

	prov := s.provisioner.Provision(ctx, intent.Email, intent.Password, intent.DisplayName, resolved.ReuseAuthID)

	saga := NewSaga(s.log)
	if prov.Created {
		// Recorded first so a rollback deletes the identity after every
		// datastore record is gone.
		saga.Push("identity", func(ctx context.Context) error {
			return s.provisioner.Discard(ctx, prov)
		})
	}

	var (
		createdOrg     *organization.Organization
		createdPatient *patient.Patient
		createdGroup   *patient.FamilyGroup
		acct           *account.Account
		subID          *uuid.UUID
		createdInvites []*organization.Invitation
	)

	steps := []Step{
		{
			Name:  "organization",
			Fatal: true,
			Run: func(ctx context.Context) error {
				if intent.Organization == nil {
					return nil
				}
				o := &organization.Organization{
					Name:            intent.Organization.Name,
					TaxID:           intent.Organization.TaxID,
					Phone:           intent.Organization.Phone,
					City:            intent.Organization.City,
					SpecialistSeats: intent.Organization.SpecialistCount,
					Active:          true,
				}
				if err := s.orgs.Create(ctx, o); err != nil {
					return err
				}
				createdOrg = o
				return nil
			},
			Compensate: func(ctx context.Context) error {
				if createdOrg == nil {
					return nil
				}
				return s.orgs.Delete(ctx, createdOrg.ID)
			},
		},
		{
			Name:  "patient",
			Fatal: true,
			Run: func(ctx context.Context) error {
				if intent.Patient == nil {
					return nil
				}
				p := &patient.Patient{
					Identifier:            intent.Patient.Identifier,
					FirstName:             intent.Patient.FirstName,
					LastName:              intent.Patient.LastName,
					Phone:                 intent.Patient.Phone,
					Sex:                   intent.Patient.Sex,
					Email:                 &intent.Email,
					OrganizationID:        s.referralOrg(intent, createdOrg),
					UnregisteredPatientID: uniq.LinkedUnregisteredID,
					Active:                true,
				}
				if err := s.patients.Create(ctx, p); err != nil {
					return err
				}
				createdPatient = p
				return nil
			},
			Compensate: func(ctx context.Context) error {
				if createdPatient == nil {
					return nil
				}
				return s.patients.Delete(ctx, createdPatient.ID)
			},
		},
		{
			Name: "family-group",
			Run: func(ctx context.Context) error {
				if createdPatient == nil || intent.Plan == nil || *intent.Plan != subscription.PlanFamiliar {
					return nil
				}
				g := &patient.FamilyGroup{Name: createdPatient.FullName()}
				if err := s.groups.Create(ctx, g); err != nil {
					return err
				}
				createdGroup = g
				createdPatient.FamilyGroupID = &g.ID
				return s.patients.Update(ctx, createdPatient)
			},
			Compensate: func(ctx context.Context) error {
				if createdGroup == nil {
					return nil
				}
				return s.groups.Delete(ctx, createdGroup.ID)
			},
		},
		{
			Name:  "account",
			Fatal: true,
			Run: func(ctx context.Context) error {
				a, err := s.buildAccount(ctx, intent, resolved, prov, createdOrg, createdPatient, saga)
				if err != nil {
					return err
				}
				acct = a
				return nil
			},
		},
		{
			Name: "subscription",
			Run: func(ctx context.Context) error {
				if intent.Plan == nil {
					return nil
				}
				sub := &subscription.Subscription{
					Plan:   *intent.Plan,
					Status: subscription.StatusTrial,
				}
				trialEnd := time.Now().Add(subscription.TrialPeriod)
				sub.TrialEndsAt = &trialEnd
				if createdOrg != nil {
					id := createdOrg.ID
					sub.OrganizationID = &id
					sub.Seats = createdOrg.SpecialistSeats
				} else if createdPatient != nil {
					id := createdPatient.ID
					sub.PatientID = &id
				} else if acct != nil {
					// Staff signup without org or patient payload gets no
					// subscription owner; skip rather than insert a dangling row.
					return nil
				}
				if err := s.subs.Create(ctx, sub); err != nil {
					return err
				}
				id := sub.ID
				subID = &id
				return nil
			},
			Compensate: func(ctx context.Context) error {
				if subID == nil {
					return nil
				}
				return s.subs.Delete(ctx, *subID)
			},
		},
		{
			Name: "invitations",
			Run: func(ctx context.Context) error {
				if createdOrg == nil || intent.Organization == nil || intent.Organization.SpecialistCount == 0 {
					return nil
				}
				now := time.Now()
				for i := 0; i < intent.Organization.SpecialistCount; i++ {
					inv := organization.NewInvitation(createdOrg.ID, account.RoleMedico, now)
					if err := s.invites.Create(ctx, inv); err != nil {
						return fmt.Errorf("invitation %d of %d: %w", i+1, intent.Organization.SpecialistCount, err)
					}
					createdInvites = append(createdInvites, inv)
				}
				return nil
			},
			Compensate: func(ctx context.Context) error {
				var firstErr error
				for _, inv := range createdInvites {
					if err := s.invites.Delete(ctx, inv.ID); err != nil && firstErr == nil {
						firstErr = err
					}
				}
				return firstErr
			},
		},
	}

	if err := saga.Execute(ctx, steps); err != nil {
		return nil, err
	}

	// The account step is the one record every registration must produce.
	if acct == nil || acct.ID == uuid.Nil {
		saga.Compensate(ctx)
		return nil, &StepError{Step: "account", Err: errors.New("account record missing after sequence")}
	}

	hasLinkedHistory := false
	if uniq.LinkedUnregisteredID != nil && createdPatient != nil {
		s.migrator.Migrate(ctx, *uniq.LinkedUnregisteredID, createdPatient.ID)
		hasLinkedHistory = true
	}

	s.notify(ctx, intent, prov)

	message := "Registro exitoso."
	if prov.Created {
		message = "Registro exitoso. Revise su correo para verificar su cuenta."
	}
	if hasLinkedHistory {
		message += " Se vinculó su historial clínico previo."
	}

	resp := &Response{
		OK: true,
		Data: &ResponseData{
			User:           acct,
			Organization:   createdOrg,
			Patient:        createdPatient,
			SubscriptionID: subID,
			Invites:        createdInvites,
			AuthUser:       prov.Identity,
		},
		EmailVerificationRequired: prov.Created,
		HasLinkedHistory:          hasLinkedHistory,
		Message:                   message,
		OrganizationID:            acct.OrganizationID,
		UserID:                    acct.ID,
	}
	return resp, nil
}

// referralOrg picks the organization a new patient belongs to: an explicit
// referral wins over the organization created in this same request.
func (s *Service) referralOrg(intent *Intent, createdOrg *organization.Organization) *uuid.UUID {
	if intent.SelectedOrganizationID != nil {
		return intent.SelectedOrganizationID
	}
	if createdOrg != nil {
		id := createdOrg.ID
		return &id
	}
	return nil
}

// buildAccount inserts the account row, or adopts an existing (email, role)
// row left behind by an earlier partial registration. Adopted rows are not
// added to the compensation ledger.
func (s *Service) buildAccount(ctx context.Context, intent *Intent, resolved *ResolvedIdentity, prov *ProvisionResult, createdOrg *organization.Organization, createdPatient *patient.Patient, saga *Saga) (*account.Account, error) {
	authID, err := s.resolveAuthID(ctx, intent.Email, prov)
	if err != nil {
		return nil, err
	}

	var orgID *uuid.UUID
	if intent.SelectedOrganizationID != nil {
		orgID = intent.SelectedOrganizationID
	} else if createdOrg != nil {
		id := createdOrg.ID
		orgID = &id
	}
	var patientID *uuid.UUID
	if createdPatient != nil {
		id := createdPatient.ID
		patientID = &id
	}

	existing, err := s.accounts.GetByEmailRole(ctx, intent.Email, intent.Role)
	if err != nil && !errors.Is(err, account.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		if existing.AuthID == nil && authID != nil {
			existing.AuthID = authID
			if err := s.accounts.Update(ctx, existing); err != nil {
				return nil, err
			}
		}
		return existing, nil
	}

	a := &account.Account{
		Email:          intent.Email,
		Role:           intent.Role,
		DisplayName:    intent.DisplayName,
		AuthID:         authID,
		OrganizationID: orgID,
		PatientID:      patientID,
		Active:         true,
	}
	if authID == nil {
		hash, err := account.HashPassword(intent.Password)
		if err != nil {
			return nil, err
		}
		a.PasswordHash = &hash
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, err
	}
	saga.Push("account", func(ctx context.Context) error {
		return s.accounts.Delete(ctx, a.ID)
	})
	return a, nil
}

// resolveAuthID attaches the provider identity unless an account under a
// different email already holds it; all accounts of one email share the same
// identity, but an identity never spans emails.
func (s *Service) resolveAuthID(ctx context.Context, email string, prov *ProvisionResult) (*string, error) {
	if prov.Identity == nil {
		return nil, nil
	}
	holder, err := s.accounts.GetByAuthID(ctx, prov.Identity.ID)
	if err != nil && !errors.Is(err, account.ErrNotFound) {
		return nil, err
	}
	if holder != nil && holder.Email != email {
		s.log.Warn().Str("auth_id", prov.Identity.ID).Str("email", email).
			Msg("identity already held by another email, falling back to local password")
		return nil, nil
	}
	id := prov.Identity.ID
	return &id, nil
}

// notify sends the single post-registration notice. The verification email
// (with the provider link) goes out on the provisioning path, so a new
// identity gets nothing extra here.
func (s *Service) notify(ctx context.Context, intent *Intent, prov *ProvisionResult) {
	if prov.Created {
		return
	}
	err := s.notifier.SendTemplate(ctx, intent.Email, notification.TemplateWelcome, map[string]string{
		"name": intent.DisplayName,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("email", intent.Email).Msg("welcome notification failed")
	}
}
