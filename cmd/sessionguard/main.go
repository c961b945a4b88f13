package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/learnhub/sessionguard/pkg/config"
	"github.com/learnhub/sessionguard/pkg/device"
	deviceapi "github.com/learnhub/sessionguard/pkg/device/api"
	"github.com/learnhub/sessionguard/pkg/deviceguard"
	"github.com/learnhub/sessionguard/pkg/login"
	loginapi "github.com/learnhub/sessionguard/pkg/login/api"
	"github.com/learnhub/sessionguard/pkg/ratelimit"
	"github.com/learnhub/sessionguard/pkg/router"
	"github.com/learnhub/sessionguard/pkg/sessions"
	sessionsapi "github.com/learnhub/sessionguard/pkg/sessions/api"
	"github.com/learnhub/sessionguard/pkg/tokengenerator"
)

type Config struct {
	ServerConfig           config.ServerConfig
	DbConfig               config.DbConfig
	JwtConfig              config.JwtConfig
	DeviceProtectionConfig config.DeviceProtectionConfig
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

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

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DbConfig.ToDatabaseURL())
	if err != nil {
		slog.Error("Failed to create database pool", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("Failed to connect to database", "host", cfg.DbConfig.Host, "database", cfg.DbConfig.Database, "err", err)
		os.Exit(1)
	}

	accountRepo := login.NewPostgresAccountRepository(pool)
	loginService := login.NewService(accountRepo)

	sessionRepo := sessions.NewPostgresRepository(pool)
	deviceRepo := device.NewPostgresRepository(pool)
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
		LoginLimiter:   ratelimit.NewLoginLimiter(),
	})

	server := &http.Server{
		Addr:    cfg.ServerConfig.Addr(),
		Handler: mux,
	}

	go func() {
		slog.Info("Starting server",
			"addr", cfg.ServerConfig.Addr(),
			"maxDevicesPerMonth", cfg.DeviceProtectionConfig.MaxDevicesPerMonth,
			"switchCooldown", cooldown,
			"exemptRoles", exemptRoles)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server stopped", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Forced shutdown", "err", err)
	}
}
