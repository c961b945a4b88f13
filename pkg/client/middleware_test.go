package client

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestWithClaims(t *testing.T, claims map[string]interface{}) *http.Request {
	t.Helper()
	tokenAuth := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := tokenAuth.Encode(claims)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	return r.WithContext(jwtauth.NewContext(r.Context(), token, nil))
}

func TestAuthUserMiddleware(t *testing.T) {
	accountID := uuid.New()

	var captured *AuthUser
	handler := AuthUserMiddleware([]string{"admin"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = GetAuthUser(r)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithClaims(t, map[string]interface{}{
		"sub":      accountID.String(),
		"jti":      "jti-1",
		"username": "alice",
		"roles":    []string{"student"},
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, accountID, captured.AccountID)
	assert.Equal(t, "jti-1", captured.Token)
	assert.Equal(t, "alice", captured.Username)
	assert.True(t, captured.HasRole("student"))
	assert.False(t, captured.DevicePolicyExempt)
}

func TestAuthUserMiddleware_ExemptRole(t *testing.T) {
	var captured *AuthUser
	handler := AuthUserMiddleware([]string{"admin", "instructor"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = GetAuthUser(r)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithClaims(t, map[string]interface{}{
		"sub":   uuid.New().String(),
		"jti":   "jti-1",
		"roles": []string{"instructor"},
	}))

	require.NotNil(t, captured)
	assert.True(t, captured.DevicePolicyExempt)
}

func TestAuthUserMiddleware_RolesClaimShapes(t *testing.T) {
	// Tokens verified off the wire decode roles as []interface{}, tokens
	// encoded in-process keep []string. Both must resolve the exemption.
	shapes := map[string]interface{}{
		"strings":    []string{"admin"},
		"interfaces": []interface{}{"admin"},
	}

	for name, roles := range shapes {
		t.Run(name, func(t *testing.T) {
			var captured *AuthUser
			handler := AuthUserMiddleware([]string{"admin"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured, _ = GetAuthUser(r)
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, requestWithClaims(t, map[string]interface{}{
				"sub":   uuid.New().String(),
				"jti":   "jti-1",
				"roles": roles,
			}))

			require.NotNil(t, captured)
			assert.Equal(t, []string{"admin"}, captured.Roles)
			assert.True(t, captured.DevicePolicyExempt)
		})
	}
}

func TestAuthUserMiddleware_RejectsBadClaims(t *testing.T) {
	handler := AuthUserMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	// Subject is not a UUID
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithClaims(t, map[string]interface{}{
		"sub": "not-a-uuid",
		"jti": "jti-1",
	}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Missing token ID
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithClaims(t, map[string]interface{}{
		"sub": uuid.New().String(),
	}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// No verified token in context at all
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
