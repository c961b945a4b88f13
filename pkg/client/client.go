package client

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// AuthUser is the authenticated identity extracted from a verified token
type AuthUser struct {
	AccountID uuid.UUID `json:"account_id"`
	Username  string    `json:"username,omitempty"`
	Roles     []string  `json:"roles,omitempty"`

	// Token is the credential token (JWT ID) the request presented; active
	// sessions are keyed by it
	Token string `json:"-"`

	// DevicePolicyExempt is resolved once at the authentication boundary so
	// downstream policy code never re-derives it from role strings
	DevicePolicyExempt bool `json:"-"`
}

func (u AuthUser) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("accountID", u.AccountID.String()),
		slog.String("username", u.Username),
	)
}

// HasRole reports whether the user carries the given role
func (u *AuthUser) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// contextKey is a value for use with context.WithValue. It's used as a
// pointer so it fits in an interface{} without allocation.
type contextKey struct {
	name string
}

func (k *contextKey) String() string {
	return "sessionguard context value " + k.name
}

var (
	// AuthUserKey locates the AuthUser in the request context
	AuthUserKey = &contextKey{"AuthUser"}
)

// GetAuthUser returns the authenticated user from the request context
func GetAuthUser(r *http.Request) (*AuthUser, bool) {
	user, ok := r.Context().Value(AuthUserKey).(*AuthUser)
	return user, ok
}
