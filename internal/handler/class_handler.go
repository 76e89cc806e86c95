package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/rollcall-api/internal/dto"
	"github.com/noah-isme/rollcall-api/internal/service"
	"github.com/noah-isme/rollcall-api/internal/utils"
)

// ClassHandler manages classes and rosters.
type ClassHandler struct {
	service service.ClassService
	logger  zerolog.Logger
}

// NewClassHandler constructs a class handler.
func NewClassHandler(service service.ClassService, logger zerolog.Logger) *ClassHandler {
	return &ClassHandler{
		service: service,
		logger:  logger.With().Str("component", "class_handler").Logger(),
	}
}

// Register wires class routes. Every route needs a session; per-class rights
// are checked by the service.
func (h *ClassHandler) Register(router fiber.Router, guards Guards) {
	router.Post("/class/create", chain(guards.Session, guards.Faculty, h.create)...)
	router.Get("/class", chain(guards.Session, h.list)...)
	router.Post("/class/add", chain(guards.Session, guards.Faculty, h.addStudents)...)
	router.Get("/class/:id/student", chain(guards.Session, h.roster)...)
	router.Delete("/class/:id/student/:studentId", chain(guards.Session, guards.Faculty, h.removeStudent)...)
	router.Delete("/class/:id", chain(guards.Session, guards.Faculty, h.delete)...)
	router.Get("/student/class", chain(guards.Session, guards.Student, h.list)...)
}

func (h *ClassHandler) create(c *fiber.Ctx) error {
	var req dto.ClassCreateRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	class, err := h.service.Create(c.UserContext(), principalFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "class created", class)
}

func (h *ClassHandler) list(c *fiber.Ctx) error {
	classes, err := h.service.List(c.UserContext(), principalFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "classes retrieved", classes)
}

func (h *ClassHandler) delete(c *fiber.Ctx) error {
	classID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	if err := h.service.Delete(c.UserContext(), principalFromContext(c), classID); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "class deleted", fiber.Map{"classId": classID})
}

func (h *ClassHandler) addStudents(c *fiber.Ctx) error {
	var req dto.ClassAddStudentsRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	result, err := h.service.AddStudents(c.UserContext(), principalFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "students added", result)
}

func (h *ClassHandler) removeStudent(c *fiber.Ctx) error {
	classID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	studentID, err := parseIDParam(c, "studentId")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	if err := h.service.RemoveStudent(c.UserContext(), principalFromContext(c), classID, studentID); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "student removed", fiber.Map{"classId": classID, "studentId": studentID})
}

func (h *ClassHandler) roster(c *fiber.Ctx) error {
	classID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	roster, err := h.service.Roster(c.UserContext(), principalFromContext(c), classID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "class members retrieved", roster)
}
