package deviceguard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/learnhub/sessionguard/pkg/client"
	sgerrors "github.com/learnhub/sessionguard/pkg/errors"
	"github.com/learnhub/sessionguard/pkg/sessions"
)

type contextKey struct {
	name string
}

func (k *contextKey) String() string {
	return "sessionguard context value " + k.name
}

// SessionIDKey locates the validated session ID in the request context
var SessionIDKey = &contextKey{"SessionID"}

// GetSessionID returns the validated session ID placed in the context by
// RequireActiveSession. Requests from exempt accounts carry no session ID.
func GetSessionID(r *http.Request) (uuid.UUID, bool) {
	id, ok := r.Context().Value(SessionIDKey).(uuid.UUID)
	return id, ok
}

// RequireActiveSession rejects requests whose credential token no longer
// maps to an active session. Must run after client.AuthUserMiddleware.
// A token that verifies cryptographically but whose session was revoked
// (superseded by a newer login or logged out) gets a 401 with code
// SESSION_REVOKED, which tells clients to drop the token and re-authenticate.
// Exempt accounts bypass the check entirely.
func RequireActiveSession(svc *sessions.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := client.GetAuthUser(r)
			if !ok {
				renderError(w, sgerrors.Unauthorized("authentication required"))
				return
			}

			if user.DevicePolicyExempt {
				next.ServeHTTP(w, r)
				return
			}

			session, err := svc.Validate(r.Context(), user.Token, user.AccountID)
			if err != nil {
				renderError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), SessionIDKey, session.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func renderError(w http.ResponseWriter, err error) {
	body := errorBody{Code: string(sgerrors.ErrCodeInternal), Message: "internal error"}
	status := http.StatusInternalServerError

	var se *sgerrors.Error
	if errors.As(err, &se) {
		body.Code = string(se.Code)
		body.Message = se.Message
		status = se.HTTPStatusCode()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
