package ws

import (
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"

	"github.com/spec-kit/gradebook-service/internal/auth"
	"github.com/spec-kit/gradebook-service/internal/config"
	"github.com/spec-kit/gradebook-service/internal/domain"
	"github.com/spec-kit/gradebook-service/internal/events"
	"github.com/spec-kit/gradebook-service/internal/observability"
	"github.com/spec-kit/gradebook-service/pkg/util"
)

// Handler owns both persistent-connection protocols. Each protocol performs
// its own authentication handshake before a connection is admitted to the
// registry or the event bus.
type Handler struct {
	tokens   *auth.TokenManager
	registry *Registry
	bus      *events.Bus
	logger   *zap.Logger
	metrics  *observability.Metrics
	cfg      config.SocketConfig
}

// NewHandler constructs the socket handler.
func NewHandler(tokens *auth.TokenManager, registry *Registry, bus *events.Bus, logger *zap.Logger, metrics *observability.Metrics, cfg config.SocketConfig) *Handler {
	return &Handler{tokens: tokens, registry: registry, bus: bus, logger: logger, metrics: metrics, cfg: cfg}
}

// authenticateFrame validates the first frame of the direct protocol: a JSON
// object carrying a bearer token, belonging to a student.
func (h *Handler) authenticateFrame(raw []byte) (auth.Identity, error) {
	var params map[string]interface{}
	if err := json.Unmarshal(raw, &params); err != nil {
		return auth.Identity{}, util.NewMalformedMessage("malformed authentication message")
	}
	token := TokenFromParams(params)
	if token == "" {
		return auth.Identity{}, util.NewUnauthorized("missing authorization token")
	}
	identity, err := h.tokens.Parse(token)
	if err != nil {
		return auth.Identity{}, util.NewUnauthorized("invalid or expired token")
	}
	if identity.Role != domain.RoleStudent {
		return auth.Identity{}, util.NewForbidden("student role required")
	}
	return identity, nil
}

// refuse sends a structured error frame on the raw connection and closes it.
// Used only during handshakes, before the single-writer wrapper exists.
func refuse(wsConn *websocket.Conn, message string) {
	_ = wsConn.WriteJSON(Frame{Type: "error", Message: message})
	_ = wsConn.Close()
}

// HandleNotifications runs the direct notification protocol: the client's
// first text frame must be a JSON object carrying its bearer token; on
// success the connection is registered under the token's subject and receives
// gradeAdded frames until either side closes.
func (h *Handler) HandleNotifications(wsConn *websocket.Conn) {
	_, raw, err := wsConn.ReadMessage()
	if err != nil {
		_ = wsConn.Close()
		return
	}

	identity, err := h.authenticateFrame(raw)
	if err != nil {
		refuse(wsConn, util.ToDomainError(err).Message)
		return
	}

	conn := NewConn(wsConn, h.cfg.SendBufferSize, h.cfg.WriteTimeout())
	defer conn.Close()

	h.registry.Register(identity.UserID, conn)
	defer h.registry.Unregister(identity.UserID, conn)

	h.metrics.RecordSocketConnect("notifications")
	h.logger.Info("notification socket registered", zap.String("user_id", identity.UserID))

	if err := conn.WriteJSON(Frame{Type: "ok", Payload: map[string]string{"subjectId": identity.UserID}}); err != nil {
		return
	}

	// Server-push only from here on; reads just detect peer close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.logger.Info("notification socket closed", zap.String("user_id", identity.UserID))
}
