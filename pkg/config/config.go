package config

import (
	"fmt"
	"time"

	"github.com/learnhub/sessionguard/pkg/tokengenerator"
)

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `env:"SERVER_HOST" env-default:"localhost"`
	Port uint16 `env:"SERVER_PORT" env-default:"4000"`
}

// Addr returns the host:port address to listen on
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DbConfig contains PostgreSQL connection settings
type DbConfig struct {
	Host     string `env:"SG_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"SG_PG_PORT" env-default:"5432"`
	Database string `env:"SG_PG_DATABASE" env-default:"sessionguard_db"`
	User     string `env:"SG_PG_USER" env-default:"sessionguard"`
	Password string `env:"SG_PG_PASSWORD" env-default:"pwd"`
	Schema   string `env:"SG_PG_SCHEMA" env-default:"public"`
}

// ToDatabaseURL builds a pgx-compatible connection URL
func (d DbConfig) ToDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s,public",
		d.User, d.Password, d.Host, d.Port, d.Database, d.Schema)
}

// JwtConfig contains token signing settings
type JwtConfig struct {
	Secret            string `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	Issuer            string `env:"JWT_ISSUER" env-default:"sessionguard"`
	Audience          string `env:"JWT_AUDIENCE" env-default:"sessionguard"`
	AccessTokenExpiry string `env:"ACCESS_TOKEN_EXPIRY" env-default:"PT8H"`
}

// ParseAccessTokenExpiry parses the AccessTokenExpiry field as a
// time.Duration. Supports ISO 8601 format (e.g., "PT8H") and Go duration
// format (e.g., "8h"). An unset field falls back to the generator default,
// which covers configs built directly in code rather than through cleanenv.
func (j JwtConfig) ParseAccessTokenExpiry() (time.Duration, error) {
	if j.AccessTokenExpiry == "" {
		return tokengenerator.DefaultAccessTokenExpiry, nil
	}
	return parseISO8601OrGoDuration(j.AccessTokenExpiry)
}
