package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/jwtauth/v5"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/learnhub/sessionguard/pkg/config"
	"github.com/learnhub/sessionguard/pkg/device"
	deviceapi "github.com/learnhub/sessionguard/pkg/device/api"
	"github.com/learnhub/sessionguard/pkg/deviceguard"
	"github.com/learnhub/sessionguard/pkg/login"
	loginapi "github.com/learnhub/sessionguard/pkg/login/api"
	"github.com/learnhub/sessionguard/pkg/router"
	"github.com/learnhub/sessionguard/pkg/sessions"
	sessionsapi "github.com/learnhub/sessionguard/pkg/sessions/api"
	"github.com/learnhub/sessionguard/pkg/tokengenerator"
)

type Config struct {
	ServerConfig           config.ServerConfig
	JwtConfig              config.JwtConfig
	DeviceProtectionConfig config.DeviceProtectionConfig
}

// Demo server backed entirely by in-memory stores. Seeds a student and an
// admin account so the policy can be exercised with curl right away.
func main() {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("Failed to read config", "err", err)
		os.Exit(1)
	}

	cooldown, err := cfg.DeviceProtectionConfig.ParseSwitchCooldown()
	if err != nil {
		slog.Error("Invalid device switch cooldown", "value", cfg.DeviceProtectionConfig.SwitchCooldown, "err", err)
		os.Exit(1)
	}
	tokenExpiry, err := cfg.JwtConfig.ParseAccessTokenExpiry()
	if err != nil {
		slog.Error("Invalid access token expiry", "value", cfg.JwtConfig.AccessTokenExpiry, "err", err)
		os.Exit(1)
	}
	exemptRoles := cfg.DeviceProtectionConfig.ExemptRoleList()

	accountRepo := login.NewInMemAccountRepository()
	loginService := login.NewService(accountRepo)
	seedAccounts(loginService)

	sessionRepo := sessions.NewInMemRepository()
	deviceRepo := device.NewInMemRepository()
	sessionService := sessions.NewService(sessionRepo)
	guard := deviceguard.NewService(sessionRepo, deviceRepo, deviceguard.Config{
		MaxDevicesPerMonth: cfg.DeviceProtectionConfig.MaxDevicesPerMonth,
		SwitchCooldown:     cooldown,
	})

	tokenGen := tokengenerator.NewJwtTokenGenerator(cfg.JwtConfig.Secret, cfg.JwtConfig.Issuer, cfg.JwtConfig.Audience)
	loginHandle := loginapi.NewHandle(loginService, sessionService, guard, tokenGen, tokenExpiry, exemptRoles)

	mux := router.New(router.Config{
		LoginHandle:    loginHandle,
		SessionHandle:  sessionsapi.NewHandler(sessionService),
		DeviceHandle:   deviceapi.NewHandler(deviceRepo),
		SessionService: sessionService,
		JwtAuth:        jwtauth.New("HS256", []byte(cfg.JwtConfig.Secret), nil),
		ExemptRoles:    exemptRoles,
	})

	slog.Info("Starting in-memory demo server",
		"addr", cfg.ServerConfig.Addr(),
		"maxDevicesPerMonth", cfg.DeviceProtectionConfig.MaxDevicesPerMonth,
		"switchCooldown", cooldown,
		"exemptRoles", exemptRoles)
	if err := http.ListenAndServe(cfg.ServerConfig.Addr(), mux); err != nil {
		slog.Error("Server stopped", "err", err)
		os.Exit(1)
	}
}

func seedAccounts(loginService *login.Service) {
	ctx := context.Background()
	seeds := []struct {
		username string
		password string
		roles    []string
	}{
		{"student", "pwd", []string{"student"}},
		{"teacher", "pwd", []string{"instructor"}},
		{"admin", "pwd", []string{"admin"}},
	}
	for _, seed := range seeds {
		account, err := loginService.Register(ctx, seed.username, seed.password, seed.roles)
		if err != nil {
			slog.Error("Failed to seed account", "username", seed.username, "err", err)
			continue
		}
		slog.Info("Seeded account", "username", seed.username, "accountID", account.ID)
	}
}
