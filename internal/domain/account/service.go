package account

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	accounts Repository
}

func NewService(accounts Repository) *Service {
	return &Service{accounts: accounts}
}

func (s *Service) CreateAccount(ctx context.Context, a *Account) error {
	if a.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !ValidRole(a.Role) {
		return fmt.Errorf("invalid role: %s", a.Role)
	}
	a.Active = true
	return s.accounts.Create(ctx, a)
}

func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.accounts.GetByID(ctx, id)
}

func (s *Service) GetAccountByEmailRole(ctx context.Context, email, role string) (*Account, error) {
	return s.accounts.GetByEmailRole(ctx, email, role)
}

func (s *Service) ListAccountsByEmail(ctx context.Context, email string) ([]*Account, error) {
	return s.accounts.ListByEmail(ctx, email)
}

func (s *Service) UpdateAccount(ctx context.Context, a *Account) error {
	if a.Role != "" && !ValidRole(a.Role) {
		return fmt.Errorf("invalid role: %s", a.Role)
	}
	return s.accounts.Update(ctx, a)
}

func (s *Service) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	return s.accounts.Delete(ctx, id)
}

func (s *Service) ListAccounts(ctx context.Context, limit, offset int) ([]*Account, int, error) {
	return s.accounts.List(ctx, limit, offset)
}

// HashPassword produces the local bcrypt hash stored when an account has no
// external identity.
func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword compares a plaintext password against a stored bcrypt hash.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
