package registration

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/saludplus/saludplus/internal/domain/account"
	"github.com/saludplus/saludplus/internal/domain/organization"
	"github.com/saludplus/saludplus/internal/domain/patient"
	"github.com/saludplus/saludplus/internal/domain/subscription"
	"github.com/saludplus/saludplus/internal/platform/authx"
	"github.com/saludplus/saludplus/internal/platform/notification"
)

// --- fakes -----------------------------------------------------------------

type fakeAccountRepo struct {
	accounts   map[uuid.UUID]*account.Account
	failCreate error
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[uuid.UUID]*account.Account)}
}

func (f *fakeAccountRepo) Create(_ context.Context, a *account.Account) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	f.accounts[a.ID] = a
	return nil
}

func (f *fakeAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*account.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return a, nil
}

func (f *fakeAccountRepo) GetByEmailRole(_ context.Context, email, role string) (*account.Account, error) {
	for _, a := range f.accounts {
		if a.Email == email && a.Role == role {
			return a, nil
		}
	}
	return nil, account.ErrNotFound
}

func (f *fakeAccountRepo) GetByAuthID(_ context.Context, authID string) (*account.Account, error) {
	for _, a := range f.accounts {
		if a.AuthID != nil && *a.AuthID == authID {
			return a, nil
		}
	}
	return nil, account.ErrNotFound
}

func (f *fakeAccountRepo) ListByEmail(_ context.Context, email string) ([]*account.Account, error) {
	var out []*account.Account
	for _, a := range f.accounts {
		if a.Email == email {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAccountRepo) Update(_ context.Context, a *account.Account) error {
	if _, ok := f.accounts[a.ID]; !ok {
		return account.ErrNotFound
	}
	f.accounts[a.ID] = a
	return nil
}

func (f *fakeAccountRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.accounts, id)
	return nil
}

func (f *fakeAccountRepo) List(_ context.Context, limit, offset int) ([]*account.Account, int, error) {
	var out []*account.Account
	for _, a := range f.accounts {
		out = append(out, a)
	}
	return out, len(out), nil
}

type fakeOrgRepo struct {
	orgs       map[uuid.UUID]*organization.Organization
	failCreate error
}

func newFakeOrgRepo() *fakeOrgRepo {
	return &fakeOrgRepo{orgs: make(map[uuid.UUID]*organization.Organization)}
}

func (f *fakeOrgRepo) Create(_ context.Context, o *organization.Organization) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	f.orgs[o.ID] = o
	return nil
}

func (f *fakeOrgRepo) GetByID(_ context.Context, id uuid.UUID) (*organization.Organization, error) {
	o, ok := f.orgs[id]
	if !ok {
		return nil, organization.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrgRepo) Update(_ context.Context, o *organization.Organization) error {
	f.orgs[o.ID] = o
	return nil
}

func (f *fakeOrgRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.orgs, id)
	return nil
}

func (f *fakeOrgRepo) List(_ context.Context, limit, offset int) ([]*organization.Organization, int, error) {
	var out []*organization.Organization
	for _, o := range f.orgs {
		out = append(out, o)
	}
	return out, len(out), nil
}

type fakeInviteRepo struct {
	invites    map[uuid.UUID]*organization.Invitation
	failCreate error
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{invites: make(map[uuid.UUID]*organization.Invitation)}
}

func (f *fakeInviteRepo) Create(_ context.Context, i *organization.Invitation) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	f.invites[i.ID] = i
	return nil
}

func (f *fakeInviteRepo) GetByToken(_ context.Context, token string) (*organization.Invitation, error) {
	for _, i := range f.invites {
		if i.Token == token {
			return i, nil
		}
	}
	return nil, organization.ErrInvitationNotFound
}

func (f *fakeInviteRepo) ListByOrganization(_ context.Context, orgID uuid.UUID) ([]*organization.Invitation, error) {
	var out []*organization.Invitation
	for _, i := range f.invites {
		if i.OrganizationID == orgID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (f *fakeInviteRepo) MarkAccepted(_ context.Context, id uuid.UUID) error {
	i, ok := f.invites[id]
	if !ok {
		return organization.ErrInvitationNotFound
	}
	now := time.Now()
	i.AcceptedAt = &now
	return nil
}

func (f *fakeInviteRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.invites, id)
	return nil
}

type fakePatientRepo struct {
	patients   map[uuid.UUID]*patient.Patient
	failCreate error
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{patients: make(map[uuid.UUID]*patient.Patient)}
}

func (f *fakePatientRepo) Create(_ context.Context, p *patient.Patient) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.patients[p.ID] = p
	return nil
}

func (f *fakePatientRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, patient.ErrNotFound
	}
	return p, nil
}

func (f *fakePatientRepo) GetByIdentifier(_ context.Context, identifier string) (*patient.Patient, error) {
	for _, p := range f.patients {
		if p.Identifier == identifier && p.Active {
			return p, nil
		}
	}
	return nil, patient.ErrNotFound
}

func (f *fakePatientRepo) Update(_ context.Context, p *patient.Patient) error {
	f.patients[p.ID] = p
	return nil
}

func (f *fakePatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.patients, id)
	return nil
}

func (f *fakePatientRepo) List(_ context.Context, limit, offset int) ([]*patient.Patient, int, error) {
	var out []*patient.Patient
	for _, p := range f.patients {
		out = append(out, p)
	}
	return out, len(out), nil
}

type fakeUnregisteredRepo struct {
	records map[uuid.UUID]*patient.UnregisteredPatient
}

func newFakeUnregisteredRepo() *fakeUnregisteredRepo {
	return &fakeUnregisteredRepo{records: make(map[uuid.UUID]*patient.UnregisteredPatient)}
}

func (f *fakeUnregisteredRepo) Create(_ context.Context, u *patient.UnregisteredPatient) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.records[u.ID] = u
	return nil
}

func (f *fakeUnregisteredRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.UnregisteredPatient, error) {
	u, ok := f.records[id]
	if !ok {
		return nil, patient.ErrUnregisteredNotFound
	}
	return u, nil
}

func (f *fakeUnregisteredRepo) GetByIdentifier(_ context.Context, identifier string) (*patient.UnregisteredPatient, error) {
	for _, u := range f.records {
		if u.Identifier == identifier {
			return u, nil
		}
	}
	return nil, patient.ErrUnregisteredNotFound
}

func (f *fakeUnregisteredRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.records, id)
	return nil
}

type fakeGroupRepo struct {
	groups     map[uuid.UUID]*patient.FamilyGroup
	failCreate error
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{groups: make(map[uuid.UUID]*patient.FamilyGroup)}
}

func (f *fakeGroupRepo) Create(_ context.Context, g *patient.FamilyGroup) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	f.groups[g.ID] = g
	return nil
}

func (f *fakeGroupRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.FamilyGroup, error) {
	g, ok := f.groups[id]
	if !ok {
		return nil, patient.ErrFamilyGroupNotFound
	}
	return g, nil
}

func (f *fakeGroupRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.groups, id)
	return nil
}

type fakeSubRepo struct {
	subs       map[uuid.UUID]*subscription.Subscription
	failCreate error
}

func newFakeSubRepo() *fakeSubRepo {
	return &fakeSubRepo{subs: make(map[uuid.UUID]*subscription.Subscription)}
}

func (f *fakeSubRepo) Create(_ context.Context, s *subscription.Subscription) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	f.subs[s.ID] = s
	return nil
}

func (f *fakeSubRepo) GetByID(_ context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	s, ok := f.subs[id]
	if !ok {
		return nil, subscription.ErrNotFound
	}
	return s, nil
}

func (f *fakeSubRepo) GetByOrganization(_ context.Context, orgID uuid.UUID) (*subscription.Subscription, error) {
	for _, s := range f.subs {
		if s.OrganizationID != nil && *s.OrganizationID == orgID {
			return s, nil
		}
	}
	return nil, subscription.ErrNotFound
}

func (f *fakeSubRepo) GetByPatient(_ context.Context, patientID uuid.UUID) (*subscription.Subscription, error) {
	for _, s := range f.subs {
		if s.PatientID != nil && *s.PatientID == patientID {
			return s, nil
		}
	}
	return nil, subscription.ErrNotFound
}

func (f *fakeSubRepo) Update(_ context.Context, s *subscription.Subscription) error {
	f.subs[s.ID] = s
	return nil
}

func (f *fakeSubRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.subs, id)
	return nil
}

type fakeProvider struct {
	mu         sync.Mutex
	created    []string
	deleted    []string
	failCreate error
}

func (f *fakeProvider) CreateIdentity(_ context.Context, email, _ string, _ map[string]string) (*authx.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return nil, f.failCreate
	}
	id := uuid.New().String()
	f.created = append(f.created, id)
	return &authx.Identity{ID: id, Email: email}, nil
}

func (f *fakeProvider) GenerateVerificationLink(_ context.Context, email, _ string) (string, error) {
	return "https://auth.example.com/verify?email=" + email, nil
}

func (f *fakeProvider) DeleteIdentity(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeProvider) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.deleted))
	copy(out, f.deleted)
	return out
}

// --- harness ---------------------------------------------------------------

type fixture struct {
	svc          *Service
	accounts     *fakeAccountRepo
	orgs         *fakeOrgRepo
	invites      *fakeInviteRepo
	patients     *fakePatientRepo
	unregistered *fakeUnregisteredRepo
	groups       *fakeGroupRepo
	subs         *fakeSubRepo
	provider     *fakeProvider
	history      []*fakeHistoryRow
	sender       *notification.MockEmailSender
}

func newFixture() *fixture {
	f := &fixture{
		accounts:     newFakeAccountRepo(),
		orgs:         newFakeOrgRepo(),
		invites:      newFakeInviteRepo(),
		patients:     newFakePatientRepo(),
		unregistered: newFakeUnregisteredRepo(),
		groups:       newFakeGroupRepo(),
		subs:         newFakeSubRepo(),
		provider:     &fakeProvider{},
		sender:       &notification.MockEmailSender{},
	}
	log := zerolog.Nop()
	notifier := notification.NewDispatcher(f.sender, notification.NewTemplateEngine())
	provisioner := NewAuthProvisioner(f.provider, notifier, log)
	migrator := NewHistoryMigrator(log, fakeStore("consultation", nil))

	f.svc = NewService(ServiceDeps{
		Accounts:     f.accounts,
		Orgs:         f.orgs,
		Invites:      f.invites,
		Patients:     f.patients,
		Unregistered: f.unregistered,
		Groups:       f.groups,
		Subs:         f.subs,
		Provisioner:  provisioner,
		Migrator:     migrator,
		Notifier:     notifier,
		Log:          log,
	})
	return f
}

// withHistory rebuilds the migrator over the given shadow rows.
func (f *fixture) withHistory(rows []*fakeHistoryRow) {
	f.history = rows
	f.svc.migrator = NewHistoryMigrator(zerolog.Nop(), fakeStore("consultation", rows))
}

func patientRequest(email, identifier string) *Request {
	return &Request{
		Account: AccountPayload{
			Email:       email,
			Password:    "supersecret",
			DisplayName: "Maria Gomez",
			Role:        "PACIENTE",
		},
		Patient: &PatientPayload{
			Identifier: identifier,
			FirstName:  "Maria",
			LastName:   "Gomez",
		},
	}
}

func adminRequest(email string, specialists int) *Request {
	return &Request{
		Account: AccountPayload{
			Email:       email,
			Password:    "supersecret",
			DisplayName: "Dra. Perez",
			Role:        "ADMINISTRADOR",
		},
		Organization: &OrganizationPayload{
			Name:            "Clinica San Rafael",
			SpecialistCount: specialists,
		},
	}
}

// --- tests -----------------------------------------------------------------

func TestRegister_LinksUnregisteredHistory(t *testing.T) {
	f := newFixture()

	shadow := &patient.UnregisteredPatient{Identifier: "V123", FirstName: "Maria"}
	if err := f.unregistered.Create(context.Background(), shadow); err != nil {
		t.Fatalf("seed shadow record: %v", err)
	}
	f.withHistory([]*fakeHistoryRow{
		{unregisteredID: shadow.ID},
		{unregisteredID: shadow.ID},
	})

	resp, err := f.svc.Register(context.Background(), patientRequest("a@x.com", "V123"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !resp.HasLinkedHistory {
		t.Error("expected hasLinkedHistory true")
	}
	newPatient := resp.Data.Patient
	if newPatient == nil {
		t.Fatal("expected patient in response")
	}
	if newPatient.UnregisteredPatientID == nil || *newPatient.UnregisteredPatientID != shadow.ID {
		t.Error("expected patient back-reference to shadow record")
	}
	for _, row := range f.history {
		if row.patientID == nil || *row.patientID != newPatient.ID {
			t.Error("expected consultation rows re-pointed to new patient")
		}
	}
	if _, err := f.unregistered.GetByID(context.Background(), shadow.ID); err != nil {
		t.Error("shadow record must never be deleted")
	}
}

func TestRegister_DuplicateRoleConflicts(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.Register(context.Background(), patientRequest("a@x.com", "V1")); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	_, err := f.svc.Register(context.Background(), patientRequest("a@x.com", "V2"))
	var cErr *ConflictError
	if !errors.As(err, &cErr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if want := "PACIENTE"; !strings.Contains(cErr.Message, want) {
		t.Errorf("expected conflict message to list existing role %s, got %q", want, cErr.Message)
	}
}

func TestRegister_CompatibleRoleReusesIdentity(t *testing.T) {
	f := newFixture()

	doctor := &Request{
		Account: AccountPayload{
			Email:       "doc@x.com",
			Password:    "supersecret",
			DisplayName: "Dr. Perez",
			Role:        "MEDICO",
		},
	}
	first, err := f.svc.Register(context.Background(), doctor)
	if err != nil {
		t.Fatalf("first Register: %v", err)
	}
	firstAuthID := first.Data.User.AuthID
	if firstAuthID == nil {
		t.Fatal("expected first account to carry a provider identity")
	}

	second, err := f.svc.Register(context.Background(), patientRequest("doc@x.com", "V9"))
	if err != nil {
		t.Fatalf("second Register: %v", err)
	}
	if second.Data.User.AuthID == nil || *second.Data.User.AuthID != *firstAuthID {
		t.Error("expected both accounts to share the same identity id")
	}
	if second.EmailVerificationRequired {
		t.Error("reused identity must not require a fresh verification")
	}
	if len(f.provider.created) != 1 {
		t.Errorf("expected exactly one identity created, got %d", len(f.provider.created))
	}
}

func TestRegister_SpecialistInvitations(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.Register(context.Background(), adminRequest("admin@x.com", 3))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(resp.Data.Invites) != 3 {
		t.Fatalf("expected 3 invitations, got %d", len(resp.Data.Invites))
	}

	tokens := make(map[string]bool)
	for _, inv := range resp.Data.Invites {
		if inv.Token == "" || tokens[inv.Token] {
			t.Errorf("expected unique non-empty tokens, got %q", inv.Token)
		}
		tokens[inv.Token] = true
		if inv.Role != account.RoleMedico {
			t.Errorf("expected role %s, got %s", account.RoleMedico, inv.Role)
		}
		ttl := time.Until(inv.ExpiresAt)
		if ttl < 13*24*time.Hour || ttl > 15*24*time.Hour {
			t.Errorf("expected ~14-day expiry, got %v", ttl)
		}
	}
	if len(f.invites.invites) != 3 {
		t.Errorf("expected 3 stored invitations, got %d", len(f.invites.invites))
	}
}

func TestRegister_OrganizationFailureLeavesNothing(t *testing.T) {
	f := newFixture()
	f.orgs.failCreate = errors.New("insert rejected")

	_, err := f.svc.Register(context.Background(), adminRequest("admin@x.com", 2))
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Step != "organization" {
		t.Fatalf("expected StepError for organization, got %v", err)
	}

	if len(f.patients.patients) != 0 || len(f.accounts.accounts) != 0 ||
		len(f.subs.subs) != 0 || len(f.invites.invites) != 0 {
		t.Error("expected no records left after organization failure")
	}
	if len(f.provider.created) != 1 || len(f.provider.deletedIDs()) != 1 {
		t.Error("expected the newly created identity to be deleted")
	}
}

func TestRegister_AccountFailureCompensatesEverything(t *testing.T) {
	f := newFixture()
	f.accounts.failCreate = errors.New("insert rejected")

	req := patientRequest("a@x.com", "V55")
	req.Organization = &OrganizationPayload{Name: "Clinica Norte"}
	req.Account.Role = "PACIENTE"

	_, err := f.svc.Register(context.Background(), req)
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Step != "account" {
		t.Fatalf("expected StepError for account, got %v", err)
	}

	if len(f.orgs.orgs) != 0 {
		t.Error("expected organization deleted by compensation")
	}
	if len(f.patients.patients) != 0 {
		t.Error("expected patient deleted by compensation")
	}
	if len(f.provider.created) != 1 {
		t.Fatalf("expected one identity created, got %d", len(f.provider.created))
	}
	deleted := f.provider.deletedIDs()
	if len(deleted) != 1 || deleted[0] != f.provider.created[0] {
		t.Error("expected the new identity deleted by compensation")
	}
}

func TestRegister_ProviderOutageFallsBackToLocalPassword(t *testing.T) {
	f := newFixture()
	f.provider.failCreate = errors.New("provider down")

	resp, err := f.svc.Register(context.Background(), patientRequest("a@x.com", "V7"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	user := resp.Data.User
	if user.AuthID != nil {
		t.Error("expected no provider identity")
	}
	if user.PasswordHash == nil || *user.PasswordHash == "" {
		t.Error("expected local password hash fallback")
	}
	if !account.CheckPassword(*user.PasswordHash, "supersecret") {
		t.Error("expected hash to verify against the submitted password")
	}
	if resp.EmailVerificationRequired {
		t.Error("no identity means no verification email")
	}
	if resp.Data.AuthUser != nil {
		t.Error("expected supabaseUser to be null")
	}
}

func TestRegister_IncompatibleIdentifierConflicts(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.Register(context.Background(), patientRequest("a@x.com", "V123")); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	_, err := f.svc.Register(context.Background(), patientRequest("b@x.com", "V123"))
	var cErr *ConflictError
	if !errors.As(err, &cErr) {
		t.Fatalf("expected ConflictError for same-identifier patient role, got %v", err)
	}
}

func TestRegister_StaffProfileWithoutLoginDoesNotBlock(t *testing.T) {
	f := newFixture()

	// A staff-created patient profile with no account attached.
	orphan := &patient.Patient{Identifier: "V123", FirstName: "Maria", Active: true}
	if err := f.patients.Create(context.Background(), orphan); err != nil {
		t.Fatalf("seed patient: %v", err)
	}

	if _, err := f.svc.Register(context.Background(), patientRequest("a@x.com", "V123")); err != nil {
		t.Errorf("expected registration to proceed past loginless profile, got %v", err)
	}
}

func TestRegister_FamilyPlanCreatesGroup(t *testing.T) {
	f := newFixture()

	req := patientRequest("fam@x.com", "V88")
	plan := "FAMILIAR"
	req.Plan = &plan

	resp, err := f.svc.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(f.groups.groups) != 1 {
		t.Fatalf("expected 1 family group, got %d", len(f.groups.groups))
	}
	if resp.Data.Patient.FamilyGroupID == nil {
		t.Error("expected patient linked to family group")
	}
	if resp.Data.SubscriptionID == nil {
		t.Error("expected subscription created for plan")
	}
}

func TestRegister_FamilyGroupFailureIsNonFatal(t *testing.T) {
	f := newFixture()
	f.groups.failCreate = errors.New("insert rejected")

	req := patientRequest("fam@x.com", "V88")
	plan := "FAMILIAR"
	req.Plan = &plan

	resp, err := f.svc.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("expected registration to survive family-group failure, got %v", err)
	}
	if !resp.OK {
		t.Error("expected ok response")
	}
	if resp.Data.Patient.FamilyGroupID != nil {
		t.Error("expected no family group link after failure")
	}
}

func TestRegister_SubscriptionFailureIsNonFatal(t *testing.T) {
	f := newFixture()
	f.subs.failCreate = errors.New("insert rejected")

	req := adminRequest("admin@x.com", 0)
	plan := "ORGANIZACION"
	req.Plan = &plan

	resp, err := f.svc.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("expected registration to survive subscription failure, got %v", err)
	}
	if resp.Data.SubscriptionID != nil {
		t.Error("expected subscriptionId null after failure")
	}
	if len(f.accounts.accounts) != 1 {
		t.Error("expected account still created")
	}
}

func TestRegister_InvitationFailureIsNonFatal(t *testing.T) {
	f := newFixture()
	f.invites.failCreate = errors.New("insert rejected")

	resp, err := f.svc.Register(context.Background(), adminRequest("admin@x.com", 3))
	if err != nil {
		t.Fatalf("expected registration to survive invitation failure, got %v", err)
	}
	if len(resp.Data.Invites) != 0 {
		t.Errorf("expected no invites in response, got %d", len(resp.Data.Invites))
	}
}

func TestRegister_ReferralOrganizationWins(t *testing.T) {
	f := newFixture()

	referral := &organization.Organization{Name: "Clinica Referida", Active: true}
	if err := f.orgs.Create(context.Background(), referral); err != nil {
		t.Fatalf("seed organization: %v", err)
	}

	req := patientRequest("a@x.com", "V3")
	id := referral.ID
	req.SelectedOrganizationID = &id

	resp, err := f.svc.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.OrganizationID == nil || *resp.OrganizationID != referral.ID {
		t.Error("expected account attached to the referral organization")
	}
	if resp.Data.Patient.OrganizationID == nil || *resp.Data.Patient.OrganizationID != referral.ID {
		t.Error("expected patient attached to the referral organization")
	}
}

func TestRegister_AdoptsExistingEmailRoleAccount(t *testing.T) {
	f := newFixture()

	// A row left behind by an earlier partial registration, identity never
	// assigned.
	stale := &account.Account{
		Email:       "doc@x.com",
		Role:        account.RoleMedico,
		DisplayName: "Dr. Perez",
		Active:      true,
	}
	if err := f.accounts.Create(context.Background(), stale); err != nil {
		t.Fatalf("seed account: %v", err)
	}

	intent := &Intent{Email: "doc@x.com", Password: "supersecret", DisplayName: "Dr. Perez", Role: account.RoleMedico}
	prov := &ProvisionResult{Identity: &authx.Identity{ID: "auth-1", Email: "doc@x.com"}, Created: true}

	got, err := f.svc.buildAccount(context.Background(), intent, &ResolvedIdentity{}, prov, nil, nil, NewSaga(zerolog.Nop()))
	if err != nil {
		t.Fatalf("buildAccount: %v", err)
	}
	if got.ID != stale.ID {
		t.Error("expected the existing row to be adopted, not a new insert")
	}
	if got.AuthID == nil || *got.AuthID != "auth-1" {
		t.Error("expected adopted row to be back-filled with the identity id")
	}
	if len(f.accounts.accounts) != 1 {
		t.Errorf("expected no duplicate row, got %d", len(f.accounts.accounts))
	}
}

func TestRegister_WelcomeNoticeWhenIdentityReused(t *testing.T) {
	f := newFixture()

	seed := &Request{
		Account: AccountPayload{Email: "doc@x.com", Password: "supersecret", DisplayName: "Dr. Perez", Role: "MEDICO"},
	}
	if _, err := f.svc.Register(context.Background(), seed); err != nil {
		t.Fatalf("seed Register: %v", err)
	}

	if _, err := f.svc.Register(context.Background(), patientRequest("doc@x.com", "V2")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	welcome := 0
	for _, call := range f.sender.Calls() {
		if call.To == "doc@x.com" && strings.Contains(call.Subject, "Bienvenido") {
			welcome++
		}
	}
	if welcome != 1 {
		t.Errorf("expected exactly one welcome email for the reused identity, got %d", welcome)
	}
}

