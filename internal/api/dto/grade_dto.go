package dto

import "github.com/spec-kit/gradebook-service/internal/domain"

// GradeNotifyRequest is the payload the grading resolvers post after
// recording a grade, triggering the fan-out.
type GradeNotifyRequest struct {
	StudentID string  `json:"studentId"`
	GradeID   int64   `json:"gradeId"`
	SubjectID int64   `json:"subjectId"`
	Value     float64 `json:"gradeValue"`
	Date      string  `json:"gradeDate"`
	Comments  string  `json:"comments,omitempty"`
}

// ToGrade maps the request to the notification payload.
func (r GradeNotifyRequest) ToGrade() domain.Grade {
	return domain.Grade{
		ID:        r.GradeID,
		StudentID: r.StudentID,
		SubjectID: r.SubjectID,
		Value:     r.Value,
		Date:      r.Date,
		Comments:  r.Comments,
	}
}
