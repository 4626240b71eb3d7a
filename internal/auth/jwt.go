package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenIssuer is stamped into every access token and required on parse.
const tokenIssuer = "smartroom"

var ErrInvalidToken = errors.New("invalid access token")

// Claims carries the SmartRoom identity of a logged-in user.
// UserID mirrors the registered subject and is filled in on parse.
type Claims struct {
	UserID     string `json:"-"`
	PersonalID string `json:"pid"`
	jwt.RegisteredClaims
}

// JWTManager signs and verifies HS256 access tokens.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL is how long an issued token stays valid.
func (m *JWTManager) TTL() time.Duration {
	return m.ttl
}

// GenerateAccessToken issues a token whose subject is the user id and which also
// carries the personal id shown on the login form.
func (m *JWTManager) GenerateAccessToken(userID, personalID string) (string, error) {
	issuedAt := m.now().UTC()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		PersonalID: personalID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(m.ttl)),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ParseAndValidate checks signature, expiry and issuer. Every failure wraps ErrInvalidToken.
func (m *JWTManager) ParseAndValidate(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	claims.UserID = claims.Subject
	return claims, nil
}
