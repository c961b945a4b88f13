package config

import (
	"strings"
	"time"

	"github.com/sosodev/duration"
)

// DeviceProtectionConfig contains device-bound session control settings.
// Durations accept ISO 8601 format (e.g., "PT4H") or Go duration format (e.g., "4h").
type DeviceProtectionConfig struct {
	// MaxDevicesPerMonth is the number of distinct devices an account may log
	// in from within a trailing calendar month
	MaxDevicesPerMonth int `env:"DEVICE_MAX_PER_MONTH" env-default:"2"`

	// SwitchCooldown is the minimum elapsed time between logins from two
	// different devices (ISO 8601 format, e.g., "PT4H")
	SwitchCooldown string `env:"DEVICE_SWITCH_COOLDOWN" env-default:"PT4H"`

	// ExemptRoles is a comma-separated list of roles that bypass device policy
	ExemptRoles string `env:"DEVICE_POLICY_EXEMPT_ROLES" env-default:"admin,instructor"`
}

// DefaultDeviceProtectionConfig returns a DeviceProtectionConfig with sensible defaults
func DefaultDeviceProtectionConfig() DeviceProtectionConfig {
	return DeviceProtectionConfig{
		MaxDevicesPerMonth: 2,
		SwitchCooldown:     "PT4H",
		ExemptRoles:        "admin,instructor",
	}
}

// ParseSwitchCooldown parses the SwitchCooldown field as a time.Duration.
// Supports ISO 8601 duration format (e.g., "PT4H") and Go duration format (e.g., "4h").
func (c DeviceProtectionConfig) ParseSwitchCooldown() (time.Duration, error) {
	return parseISO8601OrGoDuration(c.SwitchCooldown)
}

// ExemptRoleList splits the ExemptRoles field into individual role names
func (c DeviceProtectionConfig) ExemptRoleList() []string {
	if c.ExemptRoles == "" {
		return nil
	}
	parts := strings.Split(c.ExemptRoles, ",")
	roles := make([]string, 0, len(parts))
	for _, p := range parts {
		if role := strings.TrimSpace(p); role != "" {
			roles = append(roles, role)
		}
	}
	return roles
}

// parseISO8601OrGoDuration tries to parse as ISO 8601 first, then as Go duration
func parseISO8601OrGoDuration(s string) (time.Duration, error) {
	isoDuration, err := duration.Parse(s)
	if err == nil {
		return isoDuration.ToTimeDuration(), nil
	}

	return time.ParseDuration(s)
}
