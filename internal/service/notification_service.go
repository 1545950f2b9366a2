package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/gradebook-service/internal/domain"
	"github.com/spec-kit/gradebook-service/internal/events"
	"github.com/spec-kit/gradebook-service/internal/observability"
	"github.com/spec-kit/gradebook-service/internal/ws"
	"github.com/spec-kit/gradebook-service/pkg/util"
)

// NotificationService fans grade events out to live subscribers through two
// sinks: the student's direct notification socket, and the per-student topic
// on the event bus feeding the subscription protocol. The two paths are
// independent best-effort streams with no cross-path ordering.
type NotificationService struct {
	registry *ws.Registry
	bus      *events.Bus
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewNotificationService creates the service.
func NewNotificationService(registry *ws.Registry, bus *events.Bus, logger *zap.Logger, metrics *observability.Metrics) *NotificationService {
	return &NotificationService{registry: registry, bus: bus, logger: logger, metrics: metrics}
}

// PublishGradeAdded notifies the target student that a grade was recorded.
// It fails only on a missing target; absent or dead subscribers are skipped,
// never surfaced to the publisher.
func (n *NotificationService) PublishGradeAdded(studentID string, grade domain.Grade) error {
	if studentID == "" {
		return util.NewValidationError("studentId is required", nil)
	}

	n.deliverDirect(studentID, grade)

	// Bus publish is unconditional: it is a broadcast with zero-or-more
	// readers, so nobody listening is not an error.
	n.bus.Publish(events.GradeTopic(studentID), events.Event{
		Type:      events.EventGradeAdded,
		StudentID: studentID,
		Payload:   grade,
		Timestamp: time.Now(),
	})
	return nil
}

func (n *NotificationService) deliverDirect(studentID string, grade domain.Grade) {
	session, ok := n.registry.Lookup(studentID)
	if !ok {
		return
	}
	if !session.Open() {
		// Stale entry: the transport died without unregistering. Heal the
		// registry and treat the delivery as skipped.
		n.registry.Unregister(studentID, session)
		n.logger.Debug("removed stale notification socket", zap.String("student_id", studentID))
		return
	}
	if err := session.WriteJSON(ws.Frame{Type: string(events.EventGradeAdded), Payload: grade}); err != nil {
		n.registry.Unregister(studentID, session)
		_ = session.Close()
		n.logger.Warn("direct delivery failed", zap.String("student_id", studentID), zap.Error(err))
		return
	}
	n.metrics.RecordDelivery("direct")
}
