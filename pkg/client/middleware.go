package client

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
)

// AuthUserMiddleware extracts the AuthUser from verified JWT claims and
// stores it in the request context. Must be used after jwtauth.Verifier and
// jwtauth.Authenticator. The device-policy exemption is resolved here, once,
// against the configured exempt roles.
func AuthUserMiddleware(exemptRoles []string) func(http.Handler) http.Handler {
	exempt := make(map[string]bool, len(exemptRoles))
	for _, role := range exemptRoles {
		exempt[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				http.Error(w, "missing or invalid token", http.StatusUnauthorized)
				return
			}

			sub, _ := claims["sub"].(string)
			accountID, err := uuid.Parse(sub)
			if err != nil {
				slog.Error("Token subject is not a valid account ID", "sub", sub, "err", err)
				http.Error(w, "invalid token subject", http.StatusUnauthorized)
				return
			}

			jti, _ := claims["jti"].(string)
			if jti == "" {
				http.Error(w, "token missing ID", http.StatusUnauthorized)
				return
			}

			authUser := &AuthUser{
				AccountID: accountID,
				Token:     jti,
			}
			if username, ok := claims["username"].(string); ok {
				authUser.Username = username
			}
			// JSON-decoded tokens carry roles as []interface{}, tokens built
			// in-process carry []string
			switch rawRoles := claims["roles"].(type) {
			case []string:
				for _, role := range rawRoles {
					authUser.Roles = append(authUser.Roles, role)
					if exempt[role] {
						authUser.DevicePolicyExempt = true
					}
				}
			case []interface{}:
				for _, raw := range rawRoles {
					if role, ok := raw.(string); ok {
						authUser.Roles = append(authUser.Roles, role)
						if exempt[role] {
							authUser.DevicePolicyExempt = true
						}
					}
				}
			}

			ctx := context.WithValue(r.Context(), AuthUserKey, authUser)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
