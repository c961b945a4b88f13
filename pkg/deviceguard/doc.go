// Package deviceguard enforces the device-bound session policy.
//
// Every successful credential check runs through three layers before a
// session is issued: a cap on distinct devices per trailing calendar month,
// a cooldown between logins from different devices, and revocation of all
// prior sessions so at most one stays active per account. Accounts holding
// an exempt role skip all three layers.
//
// RequireActiveSession is the companion request middleware: it turns a
// cryptographically valid token whose session was revoked into a 401 with
// code SESSION_REVOKED.
package deviceguard
