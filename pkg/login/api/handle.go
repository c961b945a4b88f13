package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/learnhub/sessionguard/pkg/client"
	"github.com/learnhub/sessionguard/pkg/deviceguard"
	sgerrors "github.com/learnhub/sessionguard/pkg/errors"
	"github.com/learnhub/sessionguard/pkg/login"
	"github.com/learnhub/sessionguard/pkg/sessions"
	"github.com/learnhub/sessionguard/pkg/tokengenerator"
)

// Handle handles login and logout requests
type Handle struct {
	loginService   *login.Service
	sessionService *sessions.Service
	guard          *deviceguard.Service
	tokenGenerator tokengenerator.TokenGenerator
	tokenExpiry    time.Duration
	exemptRoles    map[string]bool
}

// NewHandle creates a new login handle
func NewHandle(loginService *login.Service, sessionService *sessions.Service, guard *deviceguard.Service, tokenGenerator tokengenerator.TokenGenerator, tokenExpiry time.Duration, exemptRoles []string) *Handle {
	exempt := make(map[string]bool, len(exemptRoles))
	for _, role := range exemptRoles {
		exempt[role] = true
	}
	return &Handle{
		loginService:   loginService,
		sessionService: sessionService,
		guard:          guard,
		tokenGenerator: tokenGenerator,
		tokenExpiry:    tokenExpiry,
		exemptRoles:    exempt,
	}
}

// LoginRequest is the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned on successful login
type LoginResponse struct {
	AccessToken string                  `json:"access_token"`
	ExpiresAt   time.Time               `json:"expires_at"`
	Session     sessions.SessionSummary `json:"session"`
}

// MessageResponse is a generic message response
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the error body returned on failures
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Login handles POST /login. Credentials are verified first, then the device
// protection policy runs; only when both pass is the token returned.
func (h *Handle) Login(w http.ResponseWriter, r *http.Request) {
	var data LoginRequest
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		renderError(w, r, sgerrors.New(sgerrors.ErrCodeInvalidInput, "unable to parse request body"))
		return
	}
	if data.Username == "" || data.Password == "" {
		renderError(w, r, sgerrors.New(sgerrors.ErrCodeInvalidInput, "username and password are required"))
		return
	}

	account, err := h.loginService.Login(r.Context(), data.Username, data.Password)
	if err != nil {
		renderError(w, r, err)
		return
	}

	tokenStr, jti, expiresAt, err := h.tokenGenerator.GenerateToken(account.ID.String(), h.tokenExpiry, account.Username, account.Roles)
	if err != nil {
		slog.Error("Failed to generate token", "accountID", account.ID, "err", err)
		renderError(w, r, sgerrors.Internal("failed to issue token"))
		return
	}

	exempt := false
	for _, role := range account.Roles {
		if h.exemptRoles[role] {
			exempt = true
			break
		}
	}

	session, err := h.guard.EnforceLoginFromRequest(r.Context(), account.ID, jti, exempt, r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    tokenStr,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	render.Status(r, http.StatusOK)
	render.JSON(w, r, LoginResponse{
		AccessToken: tokenStr,
		ExpiresAt:   expiresAt,
		Session:     session.Summary(),
	})
}

// Logout handles POST /logout. Logout is idempotent: a token whose session is
// already revoked or was never recorded still gets a success response.
func (h *Handle) Logout(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.GetAuthUser(r)
	if !ok {
		renderError(w, r, sgerrors.Unauthorized("authentication required"))
		return
	}

	if err := h.sessionService.Deactivate(r.Context(), authUser.Token, authUser.AccountID); err != nil {
		slog.Error("Failed to deactivate session", "accountID", authUser.AccountID, "err", err)
		renderError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	render.Status(r, http.StatusOK)
	render.JSON(w, r, MessageResponse{Message: "Logged out successfully"})
}

// RegisterPublicRoutes registers the routes that need no authentication
func (h *Handle) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
}

// RegisterAuthRoutes registers the routes that require a verified token.
// Logout must not sit behind the active-session check, otherwise a revoked
// session could never be logged out cleanly.
func (h *Handle) RegisterAuthRoutes(r chi.Router) {
	r.Post("/auth/logout", h.Logout)
}

func renderError(w http.ResponseWriter, r *http.Request, err error) {
	var se *sgerrors.Error
	if errors.As(err, &se) {
		render.Status(r, se.HTTPStatusCode())
		render.JSON(w, r, ErrorResponse{
			Code:    string(se.Code),
			Message: se.Message,
			Details: se.Details,
		})
		return
	}

	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, ErrorResponse{
		Code:    string(sgerrors.ErrCodeInternal),
		Message: "internal error",
	})
}
