package ports

import "github.com/workspacemanager/auth-service/internal/core/domain"

// TokenClaims are the application claims embedded next to the subject.
type TokenClaims struct {
	Role domain.Role
}

// TokenService issues and verifies signed, time-bounded bearer tokens.
type TokenService interface {
	Issue(subject string, claims TokenClaims) (string, error)
	// ExtractSubject verifies structure and signature, ignoring expiry.
	ExtractSubject(token string) (string, error)
	// Validate reports whether the token is authentic, unexpired and issued
	// for exactly expectedSubject.
	Validate(token, expectedSubject string) bool
}

// PasswordHasher hashes and verifies plaintext passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) error
}
