package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gradebook-service/internal/api/dto"
	"github.com/spec-kit/gradebook-service/internal/service"
	"github.com/spec-kit/gradebook-service/pkg/util"
)

// GradesHandler receives grade-recorded callbacks from the grading resolvers
// and hands them to the notification fan-out. Grade persistence happens in
// the resolver layer, not here.
type GradesHandler struct {
	notifications *service.NotificationService
}

// NewGradesHandler constructs handler.
func NewGradesHandler(notifications *service.NotificationService) *GradesHandler {
	return &GradesHandler{notifications: notifications}
}

// Notify handles POST /grades/notify. The route is gated to TEACHER and ADMIN.
func (h *GradesHandler) Notify(c *fiber.Ctx) error {
	var req dto.GradeNotifyRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	if err := h.notifications.PublishGradeAdded(req.StudentID, req.ToGrade()); err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"data": fiber.Map{"published": true},
	})
}
