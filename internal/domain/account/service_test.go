package account

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

type mockRepo struct {
	data map[uuid.UUID]*Account
}

func newMockRepo() *mockRepo {
	return &mockRepo{data: make(map[uuid.UUID]*Account)}
}

func (m *mockRepo) Create(_ context.Context, a *Account) error {
	a.ID = uuid.New()
	m.data[a.ID] = a
	return nil
}
func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Account, error) {
	if a, ok := m.data[id]; ok {
		return a, nil
	}
	return nil, ErrNotFound
}
func (m *mockRepo) GetByEmailRole(_ context.Context, email, role string) (*Account, error) {
	for _, a := range m.data {
		if a.Email == email && a.Role == role {
			return a, nil
		}
	}
	return nil, ErrNotFound
}
func (m *mockRepo) GetByAuthID(_ context.Context, authID string) (*Account, error) {
	for _, a := range m.data {
		if a.AuthID != nil && *a.AuthID == authID {
			return a, nil
		}
	}
	return nil, ErrNotFound
}
func (m *mockRepo) ListByEmail(_ context.Context, email string) ([]*Account, error) {
	var out []*Account
	for _, a := range m.data {
		if a.Email == email {
			out = append(out, a)
		}
	}
	return out, nil
}
func (m *mockRepo) Update(_ context.Context, a *Account) error {
	if _, ok := m.data[a.ID]; !ok {
		return ErrNotFound
	}
	m.data[a.ID] = a
	return nil
}
func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.data, id)
	return nil
}
func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Account, int, error) {
	var out []*Account
	for _, a := range m.data {
		out = append(out, a)
	}
	return out, len(out), nil
}

func TestService_CreateAccount(t *testing.T) {
	svc := NewService(newMockRepo())
	a := &Account{Email: "doc@x.com", Role: RoleMedico, DisplayName: "Dr. Perez"}
	if err := svc.CreateAccount(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
	if !a.Active {
		t.Error("expected account to be active")
	}
}

func TestService_CreateAccount_MissingEmail(t *testing.T) {
	svc := NewService(newMockRepo())
	if err := svc.CreateAccount(context.Background(), &Account{Role: RoleMedico}); err == nil {
		t.Error("expected error for missing email")
	}
}

func TestService_CreateAccount_InvalidRole(t *testing.T) {
	svc := NewService(newMockRepo())
	if err := svc.CreateAccount(context.Background(), &Account{Email: "a@x.com", Role: "BOGUS"}); err == nil {
		t.Error("expected error for invalid role")
	}
}

func TestService_ListAccountsByEmail(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	svc.CreateAccount(context.Background(), &Account{Email: "a@x.com", Role: RoleMedico})
	svc.CreateAccount(context.Background(), &Account{Email: "a@x.com", Role: RolePaciente})
	svc.CreateAccount(context.Background(), &Account{Email: "b@x.com", Role: RolePaciente})

	accounts, err := svc.ListAccountsByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 2 {
		t.Errorf("expected 2 accounts, got %d", len(accounts))
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3creto!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !CheckPassword(hash, "s3creto!") {
		t.Error("expected password to match its hash")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("expected mismatch for wrong password")
	}
}
