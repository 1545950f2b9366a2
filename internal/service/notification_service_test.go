package service_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/gradebook-service/internal/domain"
	"github.com/spec-kit/gradebook-service/internal/events"
	"github.com/spec-kit/gradebook-service/internal/observability"
	"github.com/spec-kit/gradebook-service/internal/service"
	"github.com/spec-kit/gradebook-service/internal/ws"
)

type stubConn struct {
	mu     sync.Mutex
	frames []ws.Frame
	open   bool
	closed bool
}

func newStubConn() *stubConn {
	return &stubConn{open: true}
}

func (s *stubConn) WriteJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ws.ErrConnectionClosed
	}
	frame, ok := v.(ws.Frame)
	if !ok {
		return fmt.Errorf("unexpected frame type %T", v)
	}
	s.frames = append(s.frames, frame)
	return nil
}

func (s *stubConn) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *stubConn) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	s.closed = true
	return nil
}

func (s *stubConn) received() []ws.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ws.Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

func newHub() (*service.NotificationService, *ws.Registry, *events.Bus) {
	registry := ws.NewRegistry()
	bus := events.NewBus()
	hub := service.NewNotificationService(registry, bus, zap.NewNop(), observability.NewMetrics())
	return hub, registry, bus
}

func grade(id int64, studentID string) domain.Grade {
	return domain.Grade{ID: id, StudentID: studentID, SubjectID: 7, Value: 5.5, Date: "2026-03-01"}
}

func TestPublishDeliversToDirectConnection(t *testing.T) {
	hub, registry, _ := newHub()
	conn := newStubConn()
	registry.Register("student-1", conn)

	require.NoError(t, hub.PublishGradeAdded("student-1", grade(1, "student-1")))

	frames := conn.received()
	require.Len(t, frames, 1)
	require.Equal(t, "gradeAdded", frames[0].Type)
	require.Equal(t, grade(1, "student-1"), frames[0].Payload)
}

func TestPublishIsolationAcrossStudents(t *testing.T) {
	hub, registry, bus := newHub()

	conns := map[string]*stubConn{}
	subs := map[string]*events.Subscription{}
	for _, id := range []string{"student-a", "student-b", "student-c"} {
		conn := newStubConn()
		registry.Register(id, conn)
		conns[id] = conn
		subs[id] = bus.Subscribe(events.GradeTopic(id))
	}

	// Interleaved publishes across all three students.
	require.NoError(t, hub.PublishGradeAdded("student-a", grade(1, "student-a")))
	require.NoError(t, hub.PublishGradeAdded("student-b", grade(2, "student-b")))
	require.NoError(t, hub.PublishGradeAdded("student-a", grade(3, "student-a")))
	require.NoError(t, hub.PublishGradeAdded("student-c", grade(4, "student-c")))
	require.NoError(t, hub.PublishGradeAdded("student-b", grade(5, "student-b")))

	wantCounts := map[string]int{"student-a": 2, "student-b": 2, "student-c": 1}
	for id, want := range wantCounts {
		frames := conns[id].received()
		require.Len(t, frames, want, "direct frames for %s", id)
		for _, frame := range frames {
			require.Equal(t, id, frame.Payload.(domain.Grade).StudentID,
				"no event may cross student boundaries")
		}

		got := 0
	drain:
		for {
			select {
			case event := <-subs[id].Events():
				require.Equal(t, id, event.StudentID)
				got++
			case <-time.After(50 * time.Millisecond):
				break drain
			}
		}
		require.Equal(t, want, got, "bus events for %s", id)
	}
}

func TestPublishDirectOrderPreserved(t *testing.T) {
	hub, registry, _ := newHub()
	conn := newStubConn()
	registry.Register("student-1", conn)

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, hub.PublishGradeAdded("student-1", grade(i, "student-1")))
	}

	frames := conn.received()
	require.Len(t, frames, 5)
	for i, frame := range frames {
		require.Equal(t, int64(i+1), frame.Payload.(domain.Grade).ID)
	}
}

func TestPublishReplacedConnectionGetsEvents(t *testing.T) {
	hub, registry, _ := newHub()
	first := newStubConn()
	second := newStubConn()

	registry.Register("student-1", first)
	registry.Register("student-1", second)

	require.NoError(t, hub.PublishGradeAdded("student-1", grade(1, "student-1")))

	require.Len(t, second.received(), 1, "replacement connection receives events")
	require.Empty(t, first.received(), "replaced connection receives nothing")
}

func TestPublishSelfHealsStaleConnection(t *testing.T) {
	hub, registry, _ := newHub()
	conn := newStubConn()
	registry.Register("student-1", conn)
	_ = conn.Close() // transport died without unregistering

	require.NoError(t, hub.PublishGradeAdded("student-1", grade(1, "student-1")))

	require.Zero(t, registry.Len(), "stale entry must be removed")
	require.Empty(t, conn.received())
}

func TestPublishWithNoSubscribers(t *testing.T) {
	hub, _, _ := newHub()
	require.NoError(t, hub.PublishGradeAdded("student-1", grade(1, "student-1")))
}

func TestPublishRequiresStudentID(t *testing.T) {
	hub, _, _ := newHub()
	require.Error(t, hub.PublishGradeAdded("", grade(1, "")))
}

func TestPublishAlwaysFeedsBus(t *testing.T) {
	hub, _, bus := newHub()
	sub := bus.Subscribe(events.GradeTopic("student-1"))

	// No direct connection registered; the bus sink still fires.
	require.NoError(t, hub.PublishGradeAdded("student-1", grade(1, "student-1")))

	select {
	case event := <-sub.Events():
		require.Equal(t, "student-1", event.StudentID)
		require.Equal(t, events.EventGradeAdded, event.Type)
	case <-time.After(time.Second):
		t.Fatal("bus sink did not deliver")
	}
}
