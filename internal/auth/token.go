package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrInvalidToken is returned for malformed, forged or expired tokens.
var ErrInvalidToken = errors.New("invalid session token")

// Claims represents the JWT claims of a session token.
// The user id travels in the standard "sub" claim.
type Claims struct {
	jwt.RegisteredClaims
}

// Issuer mints and verifies HS256-signed session tokens.
type Issuer struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

// NewIssuer creates an Issuer whose tokens stay valid for ttl.
func NewIssuer(signingKey []byte, ttl time.Duration) *Issuer {
	return &Issuer{
		signingKey: signingKey,
		ttl:        ttl,
		now:        time.Now,
	}
}

// TTL is the validity window fixed at issuance.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue returns a signed token for the user.
func (i *Issuer) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("in internal/auth/token.go/Issue(): empty user id")
	}

	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.signingKey)
	if err != nil {
		return "", fmt.Errorf("in internal/auth/token.go/Issue(): error while `token.SignedString()` calling: %w", err)
	}

	return token, nil
}

// Verify returns the user id of a valid token. Every failure is reported as ErrInvalidToken.
func (i *Issuer) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrInvalidToken
	}

	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return i.signingKey, nil
		},
	)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	// v4 treats a missing exp as valid; session tokens must always expire.
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(i.now()) {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
