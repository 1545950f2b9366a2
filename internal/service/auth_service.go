package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/gradebook-service/internal/auth"
	"github.com/spec-kit/gradebook-service/internal/domain"
	"github.com/spec-kit/gradebook-service/internal/repository"
	"github.com/spec-kit/gradebook-service/pkg/util"
)

// RegisterInput carries the fields accepted by the register endpoint.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	RoleID    domain.Role
	Student   *domain.StudentProfile
	Teacher   *domain.TeacherProfile
}

// LoginInput identifies the account by username or email.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users    repository.UserRepository
	tokenMgr *auth.TokenManager
}

// NewAuthService builds the service.
func NewAuthService(users repository.UserRepository, tokenMgr *auth.TokenManager) *AuthService {
	return &AuthService{users: users, tokenMgr: tokenMgr}
}

// Register creates a student or teacher account. Admin accounts are
// provisioned out of band, never through this flow.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if input.Username == "" || input.Email == "" || input.Password == "" ||
		input.FirstName == "" || input.LastName == "" || input.RoleID == 0 {
		return nil, util.NewValidationError("missing required fields for registration", nil)
	}
	if input.RoleID != domain.RoleStudent && input.RoleID != domain.RoleTeacher {
		return nil, util.NewValidationError("only student or teacher roles can be registered", nil)
	}

	digest, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: digest,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		RoleID:       input.RoleID,
		Student:      input.Student,
		Teacher:      input.Teacher,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, util.NewConflict("username or email already exists", nil)
		}
		return nil, err
	}
	return user, nil
}

// Login authenticates by username or email and issues a fresh session token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.User, string, time.Time, error) {
	if input.Password == "" {
		return nil, "", time.Time{}, util.NewValidationError("password is required to login", nil)
	}
	if input.Username == "" && input.Email == "" {
		return nil, "", time.Time{}, util.NewValidationError("provide a username or email to login", nil)
	}

	var (
		user *domain.User
		err  error
	)
	if input.Username != "" {
		user, err = s.users.GetByUsername(ctx, input.Username)
	} else {
		user, err = s.users.GetByEmail(ctx, input.Email)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", time.Time{}, util.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}

	if !auth.VerifyPassword(user.PasswordHash, input.Password) {
		return nil, "", time.Time{}, util.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokenMgr.Issue(user.ID, user.RoleID)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, expiresAt, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
