package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/gradebook-service/internal/domain"
	"github.com/spec-kit/gradebook-service/pkg/util"
)

// Identity is the decoded, verified form of a session token. It is built
// once at the transport boundary and read-only afterwards.
type Identity struct {
	UserID string
	Role   domain.Role
}

// ErrTokenExpired marks a well-formed token past its expiry.
var ErrTokenExpired = errors.New("token expired")

// ErrTokenInvalid marks a token with a bad signature or format.
var ErrTokenInvalid = errors.New("invalid token")

// TokenManager handles issuing and validating JWT session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a new manager. An empty secret is tolerated here so
// callers can surface the misconfiguration as a ConfigError; main fails fast
// on it before serving.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 240
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute}
}

// Configured reports whether a signing secret is present.
func (tm *TokenManager) Configured() bool {
	return len(tm.secret) > 0
}

// TTL returns the configured token lifetime.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Claims describes the JWT payload. Field names match the tokens issued by
// the deployed system so existing clients keep working.
type Claims struct {
	UserID string      `json:"user_id"`
	RoleID domain.Role `json:"role_id"`
	jwt.RegisteredClaims
}

// Issue signs a new token for the subject. Claims are never mutated after
// issuance; every login produces a fresh token.
func (tm *TokenManager) Issue(userID string, role domain.Role) (string, time.Time, error) {
	if !tm.Configured() {
		return "", time.Time{}, util.NewConfigError("signing secret is not configured")
	}

	expiresAt := time.Now().Add(tm.ttl)
	claims := &Claims{
		UserID: userID,
		RoleID: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Parse validates a token and returns the identity it encodes. Expired
// tokens are reported as ErrTokenExpired, anything else as ErrTokenInvalid.
func (tm *TokenManager) Parse(tokenStr string) (Identity, error) {
	if !tm.Configured() {
		return Identity{}, util.NewConfigError("signing secret is not configured")
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Identity{}, ErrTokenInvalid
	}
	if claims.UserID == "" || !claims.RoleID.Valid() {
		return Identity{}, ErrTokenInvalid
	}
	return Identity{UserID: claims.UserID, Role: claims.RoleID}, nil
}

// RemainingLifetime returns how long a parsed token stays valid, used to cap
// session cache TTLs. Zero when the claims carry no expiry.
func (tm *TokenManager) RemainingLifetime(tokenStr string) time.Duration {
	parser := jwt.NewParser()
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return 0
	}
	if claims.ExpiresAt == nil {
		return 0
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining < 0 {
		return 0
	}
	return remaining
}
