package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventGradeAdded EventType = "gradeAdded"
)

// Event represents a domain event emitted toward live subscribers. Events are
// immutable after publication and never persisted.
type Event struct {
	Type      EventType   `json:"type"`
	StudentID string      `json:"student_id"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// GradeTopic names the per-student broadcast channel. Scoping the topic to
// one student is the first isolation layer; subscribers filter again per
// message.
func GradeTopic(studentID string) string {
	return string(EventGradeAdded) + ":" + studentID
}
