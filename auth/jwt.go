package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"qrForgeAPI/internal/user"
)

var (
	ErrTokenExpired     = errors.New("token expired")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrTokenMalformed   = errors.New("token malformed")
)

// Claims binds a user identifier and role to the token. The identifier-role
// pair is encoded literally, trusting the issuer; verification does not
// re-check revocation or the stored role.
type Claims struct {
	jwt.RegisteredClaims
	UserID string    `json:"uid"`
	Role   user.Role `json:"role"`
}

type TokenService struct {
	secret     []byte
	sessionTTL time.Duration
	resetTTL   time.Duration
}

func NewTokenService(secret string, sessionTTL, resetTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		resetTTL:   resetTTL,
	}
}

// Issue signs a session token for the given user, expiring after the
// configured session TTL (7 days by default).
func (s *TokenService) Issue(userID string, role user.Role) (string, error) {
	return s.sign(userID, role, s.sessionTTL)
}

// IssueResetToken signs a long-lived secondary token (30 days by default).
func (s *TokenService) IssueResetToken(userID string, role user.Role) (string, error) {
	return s.sign(userID, role, s.resetTTL)
}

func (s *TokenService) sign(userID string, role user.Role, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		UserID: userID,
		Role:   role,
	})

	return token.SignedString(s.secret)
}

// Verify parses and validates a token, distinguishing expiry, a bad
// signature, and everything else malformed.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignatureInvalid
		default:
			return nil, ErrTokenMalformed
		}
	}

	if !token.Valid {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
