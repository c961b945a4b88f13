package device

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// FingerprintHeader is the optional client-supplied fingerprint header
const FingerprintHeader = "X-Device-Fingerprint"

// Fingerprint creates a deterministic device identifier from the user agent
// and an optional client-supplied fingerprint token. The identifier is a
// SHA-256 hash of "userAgent|clientFingerprint" rendered as lowercase hex.
// Missing components degrade to empty strings rather than failing, so the
// function is total and pure: identical inputs always yield identical output.
func Fingerprint(userAgent, clientFingerprint string) string {
	combined := userAgent + "|" + clientFingerprint

	hash := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(hash[:])
}

// RequestFingerprint extracts the fingerprint inputs from an HTTP request
// and generates the device identifier in one step
func RequestFingerprint(r *http.Request) string {
	return Fingerprint(r.UserAgent(), r.Header.Get(FingerprintHeader))
}

// DeviceInfo describes the observable characteristics of the device a
// request originated from
type DeviceInfo struct {
	BrowserName    string `json:"browser_name,omitempty"`
	BrowserVersion string `json:"browser_version,omitempty"`
	OSName         string `json:"os_name,omitempty"`
	OSVersion      string `json:"os_version,omitempty"`
	UserAgent      string `json:"user_agent,omitempty"`
	IPAddress      string `json:"ip_address,omitempty"`
}

// DeviceInfoFromRequest derives browser, OS, and network details from an
// HTTP request
func DeviceInfoFromRequest(r *http.Request) DeviceInfo {
	ua := r.UserAgent()
	browser, browserVersion := detectBrowser(ua)
	os, osVersion := detectOS(ua)

	return DeviceInfo{
		BrowserName:    browser,
		BrowserVersion: browserVersion,
		OSName:         os,
		OSVersion:      osVersion,
		UserAgent:      ua,
		IPAddress:      clientIP(r),
	}
}

// detectBrowser identifies the browser family and version from a user agent
// string. Order matters: Chrome-based browsers embed "Chrome/" and Safari
// embeds "Version/", so the more specific markers are checked first.
func detectBrowser(userAgent string) (name, version string) {
	switch {
	case strings.Contains(userAgent, "Edg/"):
		return "Edge", versionAfter(userAgent, "Edg/")
	case strings.Contains(userAgent, "OPR/"):
		return "Opera", versionAfter(userAgent, "OPR/")
	case strings.Contains(userAgent, "Firefox/"):
		return "Firefox", versionAfter(userAgent, "Firefox/")
	case strings.Contains(userAgent, "Chrome/"):
		return "Chrome", versionAfter(userAgent, "Chrome/")
	case strings.Contains(userAgent, "Safari/") && strings.Contains(userAgent, "Version/"):
		return "Safari", versionAfter(userAgent, "Version/")
	case userAgent == "":
		return "", ""
	default:
		return "Unknown", ""
	}
}

// detectOS identifies the operating system family and version from a user
// agent string
func detectOS(userAgent string) (name, version string) {
	switch {
	case strings.Contains(userAgent, "Windows NT "):
		return "Windows", versionAfter(userAgent, "Windows NT ")
	case strings.Contains(userAgent, "iPhone OS "):
		return "iOS", strings.ReplaceAll(versionAfter(userAgent, "iPhone OS "), "_", ".")
	case strings.Contains(userAgent, "Mac OS X "):
		return "macOS", strings.ReplaceAll(versionAfter(userAgent, "Mac OS X "), "_", ".")
	case strings.Contains(userAgent, "Android "):
		return "Android", versionAfter(userAgent, "Android ")
	case strings.Contains(userAgent, "Linux"):
		return "Linux", ""
	case userAgent == "":
		return "", ""
	default:
		return "Unknown", ""
	}
}

// versionAfter returns the version token immediately following the marker,
// trimmed at the first space, semicolon, or closing parenthesis
func versionAfter(userAgent, marker string) string {
	idx := strings.Index(userAgent, marker)
	if idx < 0 {
		return ""
	}
	rest := userAgent[idx+len(marker):]
	end := strings.IndexAny(rest, " ;)")
	if end >= 0 {
		rest = rest[:end]
	}
	return rest
}

// clientIP resolves the originating IP address, preferring proxy headers
// over the raw remote address
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// First entry is the originating client
		if idx := strings.Index(forwarded, ","); idx >= 0 {
			return strings.TrimSpace(forwarded[:idx])
		}
		return strings.TrimSpace(forwarded)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
