package registration

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/saludplus/saludplus/internal/platform/authx"
	"github.com/saludplus/saludplus/internal/platform/notification"
)

// AuthProvisioner creates or reuses external identities. Provider outages are
// tolerated: registration continues without an identity and the account keeps
// a locally hashed password instead.
type AuthProvisioner struct {
	provider authx.Provider
	notifier *notification.Dispatcher
	log      zerolog.Logger
}

func NewAuthProvisioner(provider authx.Provider, notifier *notification.Dispatcher, log zerolog.Logger) *AuthProvisioner {
	return &AuthProvisioner{provider: provider, notifier: notifier, log: log}
}

// Provision returns the identity to attach to the new account. When reuseID
// is set the existing identity is adopted unchanged.
func (p *AuthProvisioner) Provision(ctx context.Context, email, password, displayName string, reuseID *string) *ProvisionResult {
	if reuseID != nil {
		return &ProvisionResult{
			Identity: &authx.Identity{ID: *reuseID, Email: email},
			Created:  false,
		}
	}
	if p.provider == nil {
		return &ProvisionResult{}
	}

	identity, err := p.provider.CreateIdentity(ctx, email, password, map[string]string{
		"display_name": displayName,
	})
	if err != nil {
		p.log.Warn().Err(err).Str("email", email).
			Msg("identity provider unavailable, falling back to local password")
		return &ProvisionResult{}
	}

	// Verification link generation and delivery run off the request path;
	// a failure there never aborts registration.
	go p.sendVerification(email, password)

	return &ProvisionResult{Identity: identity, Created: true}
}

func (p *AuthProvisioner) sendVerification(email, password string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	link, err := p.provider.GenerateVerificationLink(ctx, email, password)
	if err != nil {
		p.log.Warn().Err(err).Str("email", email).Msg("verification link generation failed")
		return
	}
	err = p.notifier.SendTemplate(ctx, email, notification.TemplateVerificationPending, map[string]string{
		"verification_link": link,
	})
	if err != nil {
		p.log.Warn().Err(err).Str("email", email).Msg("verification email dispatch failed")
	}
}

// Discard deletes an identity this request created. Reused identities are
// never deleted.
func (p *AuthProvisioner) Discard(ctx context.Context, res *ProvisionResult) error {
	if res == nil || !res.Created || res.Identity == nil {
		return nil
	}
	return p.provider.DeleteIdentity(ctx, res.Identity.ID)
}
