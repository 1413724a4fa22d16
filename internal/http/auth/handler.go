package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/MrJamesThe3rd/tripwise/internal/auth"
	"github.com/MrJamesThe3rd/tripwise/internal/http/respond"
	"github.com/MrJamesThe3rd/tripwise/internal/metrics"
)

// Suspender is told when the session ends so in-memory wizard state is
// dropped.
type Suspender interface {
	Suspend()
}

type Handler struct {
	svc     *auth.Service
	tokens  *auth.TokenIssuer
	wizard  Suspender
	metrics *metrics.Metrics
}

func NewHandler(svc *auth.Service, tokens *auth.TokenIssuer, wizard Suspender, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, tokens: tokens, wizard: wizard, metrics: m}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

type loginResponse struct {
	Token string     `json:"token"`
	User  *auth.User `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.svc.Login(r.Context(), req.Identifier, req.Password, req.RememberMe)
	h.metrics.ObserveLogin(err == nil)

	if err != nil {
		respond.Error(w, err)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context()); err != nil {
		respond.Error(w, err)
		return
	}

	h.wizard.Suspend()

	w.WriteHeader(http.StatusNoContent)
}

// RequireToken rejects requests without a valid bearer token for the
// current session.
func RequireToken(tokens *auth.TokenIssuer, svc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				respond.Error(w, err)
				return
			}

			user, ok, err := svc.CurrentUser(r.Context())
			if err != nil {
				respond.Error(w, err)
				return
			}

			if !ok || user.SessionID != claims.SessionID {
				slog.Warn("token does not match active session", "username", claims.Username)
				respond.Error(w, auth.ErrInvalidToken)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
