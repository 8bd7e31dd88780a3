package ports

import (
	"time"

	"github.com/google/uuid"
)

// AuthService proves who signs a state-changing request.
type AuthService interface {
	IssueToken(identity uuid.UUID, ttl time.Duration) (string, error)
	// Verify returns the identity the token was issued for.
	Verify(token string) (uuid.UUID, error)
}
