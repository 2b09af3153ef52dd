package auth

// Revoked reports whether a credential issued at issuedAt (Unix seconds) has
// been invalidated by the owning user's lastRevokeTime. A tie counts as
// revoked: clock resolution is one second, and a revocation must never
// resurrect a credential issued in the same instant.
func Revoked(issuedAt, lastRevokeTime int64) bool {
	return issuedAt <= lastRevokeTime
}
