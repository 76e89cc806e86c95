package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/rollcall-api/internal/dto"
	"github.com/noah-isme/rollcall-api/internal/service"
	"github.com/noah-isme/rollcall-api/internal/utils"
)

// MarkHandler manages internal assessment marks.
type MarkHandler struct {
	service service.MarkService
	logger  zerolog.Logger
}

// NewMarkHandler constructs a mark handler.
func NewMarkHandler(service service.MarkService, logger zerolog.Logger) *MarkHandler {
	return &MarkHandler{
		service: service,
		logger:  logger.With().Str("component", "mark_handler").Logger(),
	}
}

// Register wires mark routes. All of them are faculty only.
func (h *MarkHandler) Register(router fiber.Router, guards Guards) {
	router.Post("/mark", chain(guards.Session, guards.Faculty, h.upsert)...)
	router.Put("/mark", chain(guards.Session, guards.Faculty, h.update)...)
	router.Get("/mark/:classId", chain(guards.Session, guards.Faculty, h.list)...)
	router.Delete("/mark/:markId", chain(guards.Session, guards.Faculty, h.delete)...)
}

func (h *MarkHandler) upsert(c *fiber.Ctx) error {
	var req dto.MarkCreateRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	result, err := h.service.Upsert(c.UserContext(), principalFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "marks saved", result)
}

func (h *MarkHandler) list(c *fiber.Ctx) error {
	classID, err := parseIDParam(c, "classId")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	result, err := h.service.List(c.UserContext(), principalFromContext(c), classID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "marks retrieved", result)
}

func (h *MarkHandler) update(c *fiber.Ctx) error {
	var req dto.MarkUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	result, err := h.service.Update(c.UserContext(), principalFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "mark updated", result)
}

func (h *MarkHandler) delete(c *fiber.Ctx) error {
	markID, err := parseIDParam(c, "markId")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	result, err := h.service.Delete(c.UserContext(), principalFromContext(c), markID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "mark deleted", result)
}
