package dto

import (
	"time"

	"github.com/spec-kit/gradebook-service/internal/domain"
)

// StudentProfileRequest carries optional student registration fields.
type StudentProfileRequest struct {
	ClassID     *int64  `json:"classId,omitempty"`
	DateOfBirth *string `json:"dateOfBirth,omitempty"`
}

// TeacherProfileRequest carries optional teacher registration fields.
type TeacherProfileRequest struct {
	Specialization *string `json:"specialization,omitempty"`
	HireDate       *string `json:"hireDate,omitempty"`
}

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Username  string                 `json:"username"`
	Email     string                 `json:"email"`
	Password  string                 `json:"password"`
	FirstName string                 `json:"firstName"`
	LastName  string                 `json:"lastName"`
	RoleID    int                    `json:"roleId"`
	Student   *StudentProfileRequest `json:"student,omitempty"`
	Teacher   *TeacherProfileRequest `json:"teacher,omitempty"`
}

// LoginRequest payload for login; username or email identifies the account.
type LoginRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// UserResponse is the sanitized account representation. It never carries the
// password digest.
type UserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	RoleID    int    `json:"roleId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// LoginResponse bundles the session token with the sanitized user.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// SanitizeUser maps a domain user to its public representation.
func SanitizeUser(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		RoleID:    int(user.RoleID),
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}
