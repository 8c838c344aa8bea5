package registration

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func postRegister(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/register", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("Register handler: %v", err)
	}
	return rec
}

func newTestHandler(f *fixture) *Handler {
	return NewHandler(f.svc, zerolog.Nop(), false)
}

func TestHandler_Success(t *testing.T) {
	f := newFixture()
	h := newTestHandler(f)

	body := `{"account":{"email":"a@x.com","password":"supersecret","displayName":"Maria","role":"PACIENTE"},
		"patient":{"identifier":"V1","firstName":"Maria","lastName":"Gomez"}}`
	rec := postRegister(t, h, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["ok"] != true {
		t.Error("expected ok true")
	}
	data, _ := resp["data"].(map[string]interface{})
	if data == nil {
		t.Fatal("expected data object")
	}
	for _, key := range []string{"user", "organization", "patient", "subscriptionId", "invites", "supabaseUser"} {
		if _, present := data[key]; !present {
			t.Errorf("expected data.%s key in envelope", key)
		}
	}
	for _, key := range []string{"emailVerificationRequired", "hasLinkedHistory", "message", "organizationId", "userId"} {
		if _, present := resp[key]; !present {
			t.Errorf("expected %s key in envelope", key)
		}
	}
}

func TestHandler_ValidationFailure(t *testing.T) {
	f := newFixture()
	h := newTestHandler(f)

	rec := postRegister(t, h, `{"account":{"email":"","password":"x","role":"PACIENTE"}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.OK {
		t.Error("expected ok false")
	}
	if len(resp.Errors) == 0 {
		t.Error("expected field errors in response")
	}
}

func TestHandler_Conflict(t *testing.T) {
	f := newFixture()
	h := newTestHandler(f)

	body := `{"account":{"email":"a@x.com","password":"supersecret","displayName":"Maria","role":"PACIENTE"}}`
	if rec := postRegister(t, h, body); rec.Code != http.StatusOK {
		t.Fatalf("first call: expected 200, got %d", rec.Code)
	}
	rec := postRegister(t, h, body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(resp.Message, "PACIENTE") {
		t.Errorf("expected message listing existing role, got %q", resp.Message)
	}
}

func TestHandler_StepFailure(t *testing.T) {
	f := newFixture()
	f.accounts.failCreate = errors.New("insert rejected")
	h := newTestHandler(f)

	body := `{"account":{"email":"a@x.com","password":"supersecret","displayName":"Maria","role":"PACIENTE"}}`
	rec := postRegister(t, h, body)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestHandler_ProductionHidesErrorDetail(t *testing.T) {
	f := newFixture()
	f.accounts.failCreate = errors.New("insert rejected: secret table detail")
	h := NewHandler(f.svc, zerolog.Nop(), true)

	body := `{"account":{"email":"a@x.com","password":"supersecret","displayName":"Maria","role":"PACIENTE"}}`
	rec := postRegister(t, h, body)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret table detail") {
		t.Error("production responses must not leak internal error detail")
	}
}

func TestHandler_MalformedBody(t *testing.T) {
	f := newFixture()
	h := newTestHandler(f)

	rec := postRegister(t, h, `{"account":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
