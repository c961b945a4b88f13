package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"

	"github.com/learnhub/sessionguard/pkg/client"
	deviceapi "github.com/learnhub/sessionguard/pkg/device/api"
	"github.com/learnhub/sessionguard/pkg/deviceguard"
	loginapi "github.com/learnhub/sessionguard/pkg/login/api"
	"github.com/learnhub/sessionguard/pkg/ratelimit"
	"github.com/learnhub/sessionguard/pkg/sessions"
	sessionsapi "github.com/learnhub/sessionguard/pkg/sessions/api"
)

// Config holds the dependencies and handlers needed to set up routes
type Config struct {
	LoginHandle   *loginapi.Handle
	SessionHandle *sessionsapi.Handler
	DeviceHandle  *deviceapi.Handler

	// SessionService backs the active-session check on protected routes
	SessionService *sessions.Service

	// JwtAuth verifies bearer tokens on authenticated routes
	JwtAuth *jwtauth.JWTAuth

	// ExemptRoles bypass the device protection policy
	ExemptRoles []string

	// LoginLimiter throttles the login endpoint per client IP; nil disables it
	LoginLimiter *ratelimit.RateLimiter
}

// New builds the full HTTP router: a public login endpoint, an authenticated
// group for logout, and a session-guarded group for everything else
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			if cfg.LoginLimiter != nil {
				r.Use(ratelimit.PerIP(cfg.LoginLimiter))
			}
			cfg.LoginHandle.RegisterPublicRoutes(r)
		})

		// Authenticated routes: token must verify but the session is not
		// checked. Logout lives here so a revoked session can still log out.
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(cfg.JwtAuth))
			r.Use(jwtauth.Authenticator(cfg.JwtAuth))
			r.Use(client.AuthUserMiddleware(cfg.ExemptRoles))

			cfg.LoginHandle.RegisterAuthRoutes(r)

			// Session-guarded routes: the token must map to an active session
			r.Group(func(r chi.Router) {
				r.Use(deviceguard.RequireActiveSession(cfg.SessionService))

				r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
					authUser, _ := client.GetAuthUser(r)
					render.JSON(w, r, authUser)
				})

				sessionRouter := chi.NewRouter()
				cfg.SessionHandle.RegisterRoutes(sessionRouter)
				r.Mount("/me/sessions", sessionRouter)

				deviceRouter := chi.NewRouter()
				cfg.DeviceHandle.RegisterRoutes(deviceRouter)
				r.Mount("/me/devices", deviceRouter)
			})
		})
	})

	return r
}
