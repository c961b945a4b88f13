// Package device provides device fingerprinting and the per-account device
// log for sessionguard.
//
// A fingerprint is a deterministic SHA-256 digest of the request's user
// agent and an optional client-supplied X-Device-Fingerprint header. Because
// the digest is a pure function of its inputs, the same browser/device
// combination produces the same identifier across logins, which is what
// allows "known device" detection.
//
// The device log is an append/update ledger keyed by (account, fingerprint).
// Every successful login upserts exactly one entry:
//
//	entry, err := repo.RecordLogin(ctx, device.RecordLoginParams{
//		AccountID:   accountID,
//		Fingerprint: device.RequestFingerprint(r),
//		DeviceInfo:  device.DeviceInfoFromRequest(r),
//		At:          time.Now().UTC(),
//	})
//
// The upsert is a single atomic store operation so the login counter never
// loses increments under concurrent logins from the same device.
//
// Entries are never deleted by this subsystem. The Blocked flag is written
// by external moderation tooling and only read here.
package device
