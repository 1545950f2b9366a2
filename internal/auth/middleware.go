package auth

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/gradebook-service/internal/domain"
	"github.com/spec-kit/gradebook-service/pkg/util"
)

const identityKey = "auth_identity"

// IdentityCache is the optional token -> identity fast path consulted by the
// middleware. Implementations live in internal/session. A hit short-circuits
// identity resolution but never overrides the decoded token's role.
type IdentityCache interface {
	Put(ctx context.Context, token string, identity Identity, ttl time.Duration)
	Get(ctx context.Context, token string) (Identity, bool)
	Drop(ctx context.Context, token string)
}

// Middleware validates bearer tokens and gates routes on roles.
type Middleware struct {
	tokens     *TokenManager
	cache      IdentityCache
	cookieName string
	logger     *zap.Logger
}

// NewMiddleware constructs middleware. cache may be nil.
func NewMiddleware(tokens *TokenManager, cache IdentityCache, cookieName string, logger *zap.Logger) *Middleware {
	return &Middleware{tokens: tokens, cache: cache, cookieName: cookieName, logger: logger}
}

// TokenFromHeader extracts the bearer token from an Authorization header
// value, tolerating any casing of the "Bearer " prefix. Empty when absent.
func TokenFromHeader(header string) string {
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func (m *Middleware) tokenFromRequest(c *fiber.Ctx) string {
	if token := TokenFromHeader(c.Get(fiber.HeaderAuthorization)); token != "" {
		return token
	}
	if m.cookieName != "" {
		if token := c.Cookies(m.cookieName); token != "" {
			return token
		}
	}
	return ""
}

// Require returns a handler that admits only verified identities whose role
// is in the allowed set. An empty set means any authenticated caller passes.
// The resolved identity is attached to the request context before Next.
func (m *Middleware) Require(roles ...domain.Role) fiber.Handler {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		token := m.tokenFromRequest(c)
		if token == "" {
			return util.NewUnauthorized("missing authorization token")
		}

		if !m.tokens.Configured() {
			m.logger.Error("signing secret is not configured")
			return util.NewConfigError("server configuration error")
		}

		ctx := c.UserContext()
		identity, err := m.tokens.Parse(token)
		if err != nil {
			// A dead token must not linger in the session cache.
			if m.cache != nil {
				m.cache.Drop(ctx, token)
			}
			return util.NewUnauthorized("invalid or expired token")
		}

		resolved := identity
		if m.cache != nil {
			if cached, ok := m.cache.Get(ctx, token); ok {
				resolved = cached
				// Decoded claims stay authoritative for the role.
				resolved.Role = identity.Role
			} else {
				m.cache.Put(ctx, token, identity, m.tokens.RemainingLifetime(token))
			}
		}

		if len(allowed) > 0 {
			if _, ok := allowed[identity.Role]; !ok {
				return util.NewForbidden("insufficient permissions")
			}
		}

		c.Locals(identityKey, resolved)
		return c.Next()
	}
}

// IdentityFromContext retrieves the identity attached by Require.
func IdentityFromContext(c *fiber.Ctx) (Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return Identity{}, false
	}
	identity, ok := val.(Identity)
	return identity, ok
}
