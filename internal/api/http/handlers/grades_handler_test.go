package handlers_test

import (
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/gradebook-service/internal/domain"
	"github.com/spec-kit/gradebook-service/internal/ws"
)

type recordingSession struct {
	mu     sync.Mutex
	frames []ws.Frame
}

func (r *recordingSession) WriteJSON(v interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, v.(ws.Frame))
	return nil
}

func (r *recordingSession) Open() bool { return true }

func (r *recordingSession) Close() error { return nil }

func (r *recordingSession) received() []ws.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ws.Frame, len(r.frames))
	copy(out, r.frames)
	return out
}

func TestGradeNotifyReachesOnlyTargetStudent(t *testing.T) {
	env := newTestEnv(t)

	target := &recordingSession{}
	bystander := &recordingSession{}
	env.registry.Register("student-s", target)
	env.registry.Register("student-t", bystander)

	teacherToken, _, err := env.tokens.Issue("teacher-1", domain.RoleTeacher)
	require.NoError(t, err)

	resp := env.request(t, http.MethodPost, "/grades/notify", teacherToken, map[string]any{
		"studentId":  "student-s",
		"gradeId":    42,
		"subjectId":  2,
		"gradeValue": 6.0,
		"gradeDate":  "2026-03-01",
		"comments":   "well done",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	frames := target.received()
	require.Len(t, frames, 1, "target student receives exactly one frame")
	require.Equal(t, "gradeAdded", frames[0].Type)
	grade := frames[0].Payload.(domain.Grade)
	require.Equal(t, int64(42), grade.ID)
	require.Equal(t, "student-s", grade.StudentID)

	require.Empty(t, bystander.received(), "other students receive nothing")
}

func TestGradeNotifyRejectsMissingStudent(t *testing.T) {
	env := newTestEnv(t)

	teacherToken, _, err := env.tokens.Issue("teacher-1", domain.RoleTeacher)
	require.NoError(t, err)

	resp := env.request(t, http.MethodPost, "/grades/notify", teacherToken, map[string]any{
		"gradeId":    1,
		"subjectId":  2,
		"gradeValue": 4.0,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
