package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gradebook-service/internal/api/dto"
	"github.com/spec-kit/gradebook-service/internal/domain"
	"github.com/spec-kit/gradebook-service/internal/service"
	"github.com/spec-kit/gradebook-service/pkg/util"
)

// AuthHandler exposes the register and login endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register. The route is gated to ADMIN.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	input := service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		RoleID:    domain.Role(req.RoleID),
	}
	if req.Student != nil {
		input.Student = studentProfile(req.Student)
	}
	if req.Teacher != nil {
		input.Teacher = teacherProfile(req.Teacher)
	}

	user, err := h.auth.Register(c.UserContext(), input)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{"user": dto.SanitizeUser(user)},
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	user, token, expiresAt, err := h.auth.Login(c.UserContext(), service.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.LoginResponse{
			Token:     token,
			ExpiresAt: expiresAt,
			User:      dto.SanitizeUser(user),
		},
	})
}

func studentProfile(req *dto.StudentProfileRequest) *domain.StudentProfile {
	profile := &domain.StudentProfile{ClassID: req.ClassID}
	if req.DateOfBirth != nil {
		if parsed, err := time.Parse("2006-01-02", *req.DateOfBirth); err == nil {
			profile.DateOfBirth = &parsed
		}
	}
	return profile
}

func teacherProfile(req *dto.TeacherProfileRequest) *domain.TeacherProfile {
	profile := &domain.TeacherProfile{Specialization: req.Specialization}
	if req.HireDate != nil {
		if parsed, err := time.Parse("2006-01-02", *req.HireDate); err == nil {
			profile.HireDate = &parsed
		}
	}
	return profile
}
