// Package app serves the inbound Slack slash-command webhook for the point
// ledger: request-signature verification, payload decoding and the JSON
// response envelope.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/lumenad-public/HogwartsForSlack/internal/points/domain"
	"github.com/lumenad-public/HogwartsForSlack/internal/points/storage/sqlite"
)

const (
	headerTimestamp = "X-Slack-Request-Timestamp"
	headerSignature = "X-Slack-Signature"

	maxBodyBytes = 1 << 20

	shutdownTimeout = 5 * time.Second
)

// Config holds webhook server configuration.
type Config struct {
	// Addr is the listen address.
	Addr string
	// DBPath locates the members SQLite database.
	DBPath string
	// SigningKey is the shared Slack signing secret.
	SigningKey string
	// Admins lists privileged requester identities.
	Admins []string
}

// commander is the command-interpreter seam consumed by the handler.
type commander interface {
	HandleCommand(ctx context.Context, input domain.CommandInput) domain.Response
}

// Handler serves the slash-command webhook routes.
type Handler struct {
	verifier  *Verifier
	commands  commander
	admins    map[string]struct{}
	logPrefix string
}

// NewHandler constructs the webhook handler.
func NewHandler(verifier *Verifier, commands commander, admins []string) *Handler {
	adminSet := make(map[string]struct{}, len(admins))
	for _, admin := range admins {
		if name := domain.NormalizeName(admin); name != "" {
			adminSet[name] = struct{}{}
		}
	}
	return &Handler{
		verifier:  verifier,
		commands:  commands,
		admins:    adminSet,
		logPrefix: "points",
	}
}

// Routes builds the webhook mux: POST /points plus an /up health endpoint.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("/points", h.handleCommand)
	return mux
}

type slashAttachment struct {
	Text string `json:"text"`
}

type slashResponse struct {
	ResponseType string            `json:"response_type"`
	Text         string            `json:"text"`
	Attachments  []slashAttachment `json:"attachments,omitempty"`
}

func (h *Handler) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requestID := uuid.NewString()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		log.Printf("%s: request %s: read body: %v", h.logPrefix, requestID, err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if err := h.verifier.Verify(r.Header.Get(headerTimestamp), r.Header.Get(headerSignature), body); err != nil {
		log.Printf("%s: request %s: verification failed: %v", h.logPrefix, requestID, err)
		writeSlashResponse(w, domain.Response{Text: "Message verification failed"})
		return
	}

	params, err := url.ParseQuery(string(body))
	if err != nil {
		log.Printf("%s: request %s: parse payload: %v", h.logPrefix, requestID, err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	requester := params.Get("user_name")
	_, privileged := h.admins[domain.NormalizeName(requester)]
	log.Printf("%s: request %s: user=%q privileged=%t", h.logPrefix, requestID, requester, privileged)

	response := h.commands.HandleCommand(r.Context(), domain.CommandInput{
		Requester:  requester,
		Privileged: privileged,
		Text:       params.Get("text"),
	})
	writeSlashResponse(w, response)
}

func writeSlashResponse(w http.ResponseWriter, response domain.Response) {
	payload := slashResponse{
		ResponseType: "in_channel",
		Text:         response.Text,
	}
	for _, attachment := range response.Attachments {
		payload.Attachments = append(payload.Attachments, slashAttachment{Text: attachment.Text})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("points: write response: %v", err)
	}
}

// Run opens the member store and serves the webhook until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	verifier, err := NewVerifier([]byte(cfg.SigningKey), nil)
	if err != nil {
		return fmt.Errorf("configure verifier: %w", err)
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open member store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("points: close member store: %v", err)
		}
	}()

	handler := NewHandler(verifier, domain.NewService(store), cfg.Admins)
	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: handler.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("points: listening on %s", cfg.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown webhook server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve webhook: %w", err)
	}
}
