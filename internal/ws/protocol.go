package ws

import (
	"strings"

	"github.com/spec-kit/gradebook-service/internal/auth"
)

// Frame is the server-to-client envelope on the direct notification protocol.
type Frame struct {
	Type    string      `json:"type"`
	Message string      `json:"message,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// BearerFromValue strips an optional case-insensitive "Bearer " prefix from a
// credential value.
func BearerFromValue(value string) string {
	if token := auth.TokenFromHeader(value); token != "" {
		return token
	}
	return strings.TrimSpace(value)
}

// TokenFromParams scans a handshake parameter object for a credential under
// a case-insensitive token / authorization key. Both socket protocols accept
// the same key spellings. A token key wins over an authorization key when a
// client sends both.
func TokenFromParams(params map[string]interface{}) string {
	for _, want := range []string{"token", "authorization"} {
		for key, value := range params {
			if !strings.EqualFold(key, want) {
				continue
			}
			if s, ok := value.(string); ok && s != "" {
				if token := BearerFromValue(s); token != "" {
					return token
				}
			}
		}
	}
	return ""
}
