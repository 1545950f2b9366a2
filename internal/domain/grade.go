package domain

// Grade is the payload pushed to a student when a teacher records a grade.
// It is produced by the grading resolvers and never persisted here.
type Grade struct {
	ID        int64   `json:"id"`
	StudentID string  `json:"studentId"`
	SubjectID int64   `json:"subjectId"`
	Value     float64 `json:"gradeValue"`
	Date      string  `json:"gradeDate"`
	Comments  string  `json:"comments,omitempty"`
}
