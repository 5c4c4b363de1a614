package ports

import "context"

// AuthService registers users, authenticates them and verifies their tokens.
type AuthService interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (string, error)
	VerifyToken(token string) (string, error)
}

// TokenManager issues and verifies signed session tokens bound to a subject.
type TokenManager interface {
	Issue(subject string) (string, error)
	Verify(token string) (string, error)
}
