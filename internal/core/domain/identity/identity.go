package identity

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims represents the JWT claims gatekeeper consumes. Tokens are issued
// by the platform's auth service; gatekeeper only verifies the signature
// and reads the subject.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`

	jwt.RegisteredClaims
}

// Identity is the resolved caller of a request. Requests without a
// verifiable token resolve to the anonymous identity rather than failing,
// so public routes stay reachable while still being rate limited.
type Identity struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Anonymous bool      `json:"anonymous"`
}

// Anonymous returns the identity assigned to unauthenticated requests.
func Anonymous() *Identity {
	return &Identity{Anonymous: true}
}

// FromClaims builds the identity a verified token resolves to.
func FromClaims(claims *Claims) *Identity {
	return &Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
	}
}

// Subject returns the user ID string key functions scope counters to,
// empty for anonymous callers.
func (i *Identity) Subject() string {
	if i == nil || i.Anonymous {
		return ""
	}
	return i.UserID.String()
}
