package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/rollcall-api/internal/dto"
	"github.com/noah-isme/rollcall-api/internal/service"
	"github.com/noah-isme/rollcall-api/internal/utils"
)

// AttendanceHandler records and reports roll calls.
type AttendanceHandler struct {
	service service.AttendanceService
	logger  zerolog.Logger
}

// NewAttendanceHandler constructs an attendance handler.
func NewAttendanceHandler(service service.AttendanceService, logger zerolog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service: service,
		logger:  logger.With().Str("component", "attendance_handler").Logger(),
	}
}

// Register wires attendance routes under the class resource.
func (h *AttendanceHandler) Register(router fiber.Router, guards Guards) {
	router.Post("/class/attendance", chain(guards.Session, h.record)...)
	router.Get("/class/:id/attendance/summary", chain(guards.Session, h.summary)...)
	router.Get("/class/:id/attendance/date/:date", chain(guards.Session, h.byDate)...)
	router.Get("/class/:id/attendance", chain(guards.Session, h.list)...)
	router.Get("/student/attendance", chain(guards.Session, guards.Student, h.forStudent)...)
}

func (h *AttendanceHandler) record(c *fiber.Ctx) error {
	var req dto.AttendanceRecordRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	result, err := h.service.Record(c.UserContext(), principalFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "attendance recorded", result)
}

func (h *AttendanceHandler) list(c *fiber.Ctx) error {
	classID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	result, err := h.service.List(c.UserContext(), principalFromContext(c), classID, c.Query("from"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "attendance retrieved", result)
}

func (h *AttendanceHandler) summary(c *fiber.Ctx) error {
	classID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	result, err := h.service.Summary(c.UserContext(), principalFromContext(c), classID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "attendance summary retrieved", result)
}

func (h *AttendanceHandler) byDate(c *fiber.Ctx) error {
	classID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	result, err := h.service.ByDate(c.UserContext(), principalFromContext(c), classID, c.Params("date"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "attendance retrieved", result)
}

func (h *AttendanceHandler) forStudent(c *fiber.Ctx) error {
	result, err := h.service.ForStudent(c.UserContext(), principalFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "attendance retrieved", result)
}
