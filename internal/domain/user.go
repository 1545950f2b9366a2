package domain

import "time"

// User is the domain model for gradebook accounts (admins, teachers, students).
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	RoleID       Role
	Student      *StudentProfile
	Teacher      *TeacherProfile
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StudentProfile carries the student-specific registration fields.
type StudentProfile struct {
	ClassID     *int64
	DateOfBirth *time.Time
}

// TeacherProfile carries the teacher-specific registration fields.
type TeacherProfile struct {
	Specialization *string
	HireDate       *time.Time
}
