// Package errors provides structured error handling for sessionguard.
//
// Errors carry a stable machine-readable code, a human-readable message,
// optional details, and a wrapped cause. Codes map to HTTP status codes so
// API handlers can render policy rejections consistently:
//
//	err := errors.New(errors.ErrCodeMaxDevicesReached, "device limit reached")
//	status := err.HTTPStatusCode() // 403
//
// Device protection rejections use three dedicated codes:
//   - MAX_DEVICES_REACHED (403): monthly unique-device cap hit
//   - DEVICE_SWITCH_COOLDOWN (429): device switch attempted too soon
//   - SESSION_REVOKED (401): session superseded by a later login
//
// Store-access failures are wrapped with ErrCodeInternal and propagate to the
// generic request error pipeline untouched.
package errors
