package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/lumenad-public/HogwartsForSlack/internal/points/domain"
)

type fakeCommander struct {
	lastInput domain.CommandInput
	response  domain.Response
}

func (f *fakeCommander) HandleCommand(_ context.Context, input domain.CommandInput) domain.Response {
	f.lastInput = input
	return f.response
}

func newTestHandler(t *testing.T, commands commander, admins []string) (*Handler, []byte, func(string, []byte) *http.Request) {
	t.Helper()

	secret := []byte("test-signing-secret")
	now := time.Unix(1700000000, 0)
	verifier, err := NewVerifier(secret, func() time.Time { return now })
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}

	newRequest := func(signature string, body []byte) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/points", strings.NewReader(string(body)))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.Header.Set(headerTimestamp, strconv.FormatInt(now.Unix(), 10))
		r.Header.Set(headerSignature, signature)
		return r
	}
	return NewHandler(verifier, commands, admins), secret, newRequest
}

func signedTimestamp() string {
	return strconv.FormatInt(time.Unix(1700000000, 0).Unix(), 10)
}

func TestHandlerServesSignedCommand(t *testing.T) {
	t.Parallel()

	commands := &fakeCommander{response: domain.Response{
		Text:        "_Harry Potter_ has 50 points for house Gryffindor",
		Attachments: []domain.Attachment{{Text: "extra"}},
	}}
	handler, secret, newRequest := newTestHandler(t, commands, nil)

	body := []byte(url.Values{
		"user_name": {"harry"},
		"text":      {"@harry"},
	}.Encode())
	recorder := httptest.NewRecorder()
	handler.Routes().ServeHTTP(recorder, newRequest(signBody(secret, signedTimestamp(), body), body))

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	if got := recorder.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", got)
	}

	var payload slashResponse
	if err := json.NewDecoder(recorder.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.ResponseType != "in_channel" {
		t.Fatalf("response_type = %q, want in_channel", payload.ResponseType)
	}
	if payload.Text != commands.response.Text {
		t.Fatalf("text = %q, want %q", payload.Text, commands.response.Text)
	}
	if len(payload.Attachments) != 1 || payload.Attachments[0].Text != "extra" {
		t.Fatalf("attachments = %+v", payload.Attachments)
	}

	if commands.lastInput.Requester != "harry" {
		t.Fatalf("Requester = %q, want harry", commands.lastInput.Requester)
	}
	if commands.lastInput.Text != "@harry" {
		t.Fatalf("Text = %q, want @harry", commands.lastInput.Text)
	}
	if commands.lastInput.Privileged {
		t.Fatal("Privileged = true for non-admin requester")
	}
}

func TestHandlerMarksAdminsPrivileged(t *testing.T) {
	t.Parallel()

	commands := &fakeCommander{}
	handler, secret, newRequest := newTestHandler(t, commands, []string{"@Dumbledore"})

	body := []byte(url.Values{
		"user_name": {"dumbledore"},
		"text":      {"@harry 10000"},
	}.Encode())
	recorder := httptest.NewRecorder()
	handler.Routes().ServeHTTP(recorder, newRequest(signBody(secret, signedTimestamp(), body), body))

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	if !commands.lastInput.Privileged {
		t.Fatal("Privileged = false, want true for configured admin")
	}
}

func TestHandlerRejectsBadSignatureWith200(t *testing.T) {
	t.Parallel()

	commands := &fakeCommander{}
	handler, _, newRequest := newTestHandler(t, commands, nil)

	body := []byte("user_name=harry&text=%40hermione+100")
	recorder := httptest.NewRecorder()
	handler.Routes().ServeHTTP(recorder, newRequest("v0=0000", body))

	// Slack renders the body of a 200 to the user; errors never 4xx here.
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	var payload slashResponse
	if err := json.NewDecoder(recorder.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Text != "Message verification failed" {
		t.Fatalf("text = %q, want verification failure notice", payload.Text)
	}
	if commands.lastInput.Requester != "" {
		t.Fatal("command handler ran despite failed verification")
	}
}

func TestHandlerRejectsNonPost(t *testing.T) {
	t.Parallel()

	handler, _, _ := newTestHandler(t, &fakeCommander{}, nil)

	recorder := httptest.NewRecorder()
	handler.Routes().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/points", nil))

	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", recorder.Code)
	}
	if got := recorder.Header().Get("Allow"); got != http.MethodPost {
		t.Fatalf("Allow = %q, want POST", got)
	}
}

func TestHandlerHealthEndpoint(t *testing.T) {
	t.Parallel()

	handler, _, _ := newTestHandler(t, &fakeCommander{}, nil)

	recorder := httptest.NewRecorder()
	handler.Routes().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/up", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	if recorder.Body.String() != "OK" {
		t.Fatalf("body = %q, want OK", recorder.Body.String())
	}
}
