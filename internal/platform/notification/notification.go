// Package notification provides templated outbound email with an in-memory
// delivery log. Delivery is fire-and-forget from the caller's point of view:
// registration never fails because an email did not go out.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Template IDs used by the registration workflow.
const (
	TemplateVerificationPending = "verification-pending"
	TemplateWelcome             = "welcome"
	TemplateSpecialistInvite    = "specialist-invite"
)

// Notification represents a single outbound message.
type Notification struct {
	ID           string            `json:"id"`
	Recipient    string            `json:"recipient"`
	Subject      string            `json:"subject"`
	Body         string            `json:"body"`
	TemplateID   string            `json:"template_id,omitempty"`
	TemplateData map[string]string `json:"template_data,omitempty"`
	Status       string            `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// EmailSender is the interface for the actual delivery channel.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// LogSender writes outbound mail to the log instead of delivering it. Used in
// development and as the default when no SMTP relay is configured.
type LogSender struct {
	Logger zerolog.Logger
}

func (s *LogSender) SendEmail(_ context.Context, to, subject, _ string) error {
	s.Logger.Info().Str("to", to).Str("subject", subject).Msg("email (log sender)")
	return nil
}

// Template defines a reusable notification template.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      TemplateVerificationPending,
			Name:    "Verification Pending",
			Subject: "Confirma tu cuenta en SaludPlus",
			Body:    "Hola {{name}}, confirma tu correo para activar tu cuenta: {{verification_link}}",
		},
		{
			ID:      TemplateWelcome,
			Name:    "Welcome",
			Subject: "Bienvenido a SaludPlus",
			Body:    "Hola {{name}}, tu cuenta ha sido creada. Ya puedes iniciar sesión en {{app_url}}.",
		},
		{
			ID:      TemplateSpecialistInvite,
			Name:    "Specialist Invitation",
			Subject: "Invitación a unirte a {{organization}}",
			Body:    "Has sido invitado a unirte a {{organization}} en SaludPlus. Acepta la invitación: {{invite_link}}",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using the
// supplied data map. Keys present in the template but absent from data are left
// as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject, body = t.Subject, t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// Dispatcher renders templates, sends them through the configured channel, and
// keeps an in-memory record of every attempt.
type Dispatcher struct {
	sender    EmailSender
	templates *TemplateEngine
	mu        sync.RWMutex
	sent      map[string]*Notification
}

func NewDispatcher(sender EmailSender, tpl *TemplateEngine) *Dispatcher {
	return &Dispatcher{
		sender:    sender,
		templates: tpl,
		sent:      make(map[string]*Notification),
	}
}

// SendTemplate renders a template and dispatches the resulting notification.
func (d *Dispatcher) SendTemplate(ctx context.Context, recipient, templateID string, data map[string]string) error {
	subject, body, err := d.templates.Render(templateID, data)
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	n := &Notification{
		ID:           uuid.New().String(),
		Recipient:    recipient,
		Subject:      subject,
		Body:         body,
		TemplateID:   templateID,
		TemplateData: data,
		Status:       "pending",
		CreatedAt:    time.Now().UTC(),
	}

	sendErr := d.sender.SendEmail(ctx, recipient, subject, body)
	if sendErr != nil {
		n.Status = "failed"
		n.Error = sendErr.Error()
	} else {
		n.Status = "sent"
		sentAt := time.Now().UTC()
		n.SentAt = &sentAt
	}

	d.mu.Lock()
	d.sent[n.ID] = n
	d.mu.Unlock()

	return sendErr
}

// ListByRecipient returns recorded notifications for a recipient, up to limit.
func (d *Dispatcher) ListByRecipient(recipient string, limit int) []*Notification {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var result []*Notification
	for _, n := range d.sent {
		if n.Recipient == recipient {
			result = append(result, n)
			if len(result) >= limit {
				break
			}
		}
	}
	return result
}

// Stats returns counts of notifications grouped by status.
func (d *Dispatcher) Stats() map[string]int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	stats := make(map[string]int)
	for _, n := range d.sent {
		stats[n.Status]++
	}
	return stats
}

// MockEmailSender is a test double for EmailSender.
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
	FailError  string
}

// EmailCall records a single call to SendEmail.
type EmailCall struct {
	To      string
	Subject string
	Body    string
}

// SendEmail records the call and optionally returns an error.
func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded email calls.
func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}
