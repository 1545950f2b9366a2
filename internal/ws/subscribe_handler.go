package ws

import (
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"

	"github.com/spec-kit/gradebook-service/internal/auth"
	"github.com/spec-kit/gradebook-service/internal/domain"
	"github.com/spec-kit/gradebook-service/internal/events"
)

// Message types of the subscription protocol, following the
// graphql-transport-ws framing the query layer speaks.
const (
	msgConnectionInit  = "connection_init"
	msgConnectionAck   = "connection_ack"
	msgConnectionError = "connection_error"
	msgSubscribe       = "subscribe"
	msgNext            = "next"
	msgError           = "error"
	msgComplete        = "complete"
	msgPing            = "ping"
	msgPong            = "pong"
)

type subMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outMessage struct {
	ID      string      `json:"id,omitempty"`
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type subscribePayload struct {
	StudentID string `json:"studentId"`
}

// HandleSubscriptions runs the subscription protocol. The connection_init
// message must carry a valid bearer token in its connection parameters or
// the handshake is refused before any subscription is accepted. Subscriptions
// are scoped to exactly one student id: students their own, teachers and
// admins any one student requested at subscribe time.
func (h *Handler) HandleSubscriptions(wsConn *websocket.Conn) {
	identity, ok := h.subscriptionHandshake(wsConn)
	if !ok {
		return
	}

	conn := NewConn(wsConn, h.cfg.SendBufferSize, h.cfg.WriteTimeout())
	defer conn.Close()

	h.metrics.RecordSocketConnect("subscriptions")
	h.logger.Info("subscription socket opened",
		zap.String("user_id", identity.UserID),
		zap.Stringer("role", identity.Role))

	active := make(map[string]*events.Subscription)
	defer func() {
		// Closing the socket tears every bus subscription down so no
		// further publish targets a dead reader.
		for _, sub := range active {
			h.bus.Unsubscribe(sub)
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg subMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			_ = conn.WriteJSON(outMessage{Type: msgError, Payload: map[string]string{"message": "malformed message"}})
			continue
		}

		switch msg.Type {
		case msgSubscribe:
			h.handleSubscribe(conn, identity, msg, active)
		case msgComplete:
			if sub, ok := active[msg.ID]; ok {
				h.bus.Unsubscribe(sub)
				delete(active, msg.ID)
			}
		case msgPing:
			_ = conn.WriteJSON(outMessage{Type: msgPong})
		}
	}
}

func (h *Handler) subscriptionHandshake(wsConn *websocket.Conn) (identity auth.Identity, ok bool) {
	_, raw, err := wsConn.ReadMessage()
	if err != nil {
		_ = wsConn.Close()
		return identity, false
	}

	var msg subMessage
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != msgConnectionInit {
		refuseSubscription(wsConn, "expected connection_init")
		return identity, false
	}

	var params map[string]interface{}
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &params); err != nil {
			refuseSubscription(wsConn, "malformed connection parameters")
			return identity, false
		}
	}

	token := TokenFromParams(params)
	if token == "" {
		refuseSubscription(wsConn, "missing authorization token")
		return identity, false
	}

	parsed, err := h.tokens.Parse(token)
	if err != nil {
		refuseSubscription(wsConn, "invalid or expired token")
		return identity, false
	}

	if err := wsConn.WriteJSON(outMessage{Type: msgConnectionAck}); err != nil {
		_ = wsConn.Close()
		return identity, false
	}
	return parsed, true
}

func (h *Handler) handleSubscribe(conn *Conn, identity auth.Identity, msg subMessage, active map[string]*events.Subscription) {
	writeErr := func(message string) {
		_ = conn.WriteJSON(outMessage{ID: msg.ID, Type: msgError, Payload: map[string]string{"message": message}})
	}

	if msg.ID == "" {
		writeErr("subscription id required")
		return
	}
	if _, exists := active[msg.ID]; exists {
		writeErr("subscription id already in use")
		return
	}

	var payload subscribePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.StudentID == "" {
		writeErr("studentId required")
		return
	}

	if !canSubscribe(identity, payload.StudentID) {
		writeErr("you can only subscribe to your own grades")
		return
	}

	sub := h.bus.Subscribe(events.GradeTopic(payload.StudentID))
	active[msg.ID] = sub
	go h.forward(conn, msg.ID, payload.StudentID, sub)
}

// canSubscribe reports whether the identity may watch the given student's
// grades. Students may only watch their own; teachers and admins get the one
// student they asked for, never an unfiltered stream.
func canSubscribe(identity auth.Identity, studentID string) bool {
	if identity.Role == domain.RoleStudent {
		return identity.UserID == studentID
	}
	return true
}

// forward relays bus events for one subscription onto the socket. The target
// check repeats the topic scoping so a misrouted event can never cross
// student boundaries.
func (h *Handler) forward(conn *Conn, id, studentID string, sub *events.Subscription) {
	for event := range sub.Events() {
		if event.StudentID != studentID {
			continue
		}
		payload := map[string]interface{}{"gradeAdded": event.Payload}
		if err := conn.WriteJSON(outMessage{ID: id, Type: msgNext, Payload: payload}); err != nil {
			return
		}
		h.metrics.RecordDelivery("subscriptions")
	}
}

func refuseSubscription(wsConn *websocket.Conn, message string) {
	_ = wsConn.WriteJSON(outMessage{Type: msgConnectionError, Payload: map[string]string{"message": message}})
	_ = wsConn.Close()
}
