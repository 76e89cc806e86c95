package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/rollcall-api/internal/dto"
	"github.com/noah-isme/rollcall-api/internal/service"
	"github.com/noah-isme/rollcall-api/internal/utils"
)

// ActivityHandler exposes the caller's audit trail.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs an activity handler.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register wires activity routes.
func (h *ActivityHandler) Register(router fiber.Router, guards Guards) {
	router.Get("/activity", chain(guards.Session, guards.Faculty, h.list)...)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	pageSize, err := parseQueryInt(c, "pageSize")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if pageSize == 0 || pageSize > 100 {
		pageSize = 20
	}

	req := dto.ActivityListRequest{
		Page:       page,
		PageSize:   pageSize,
		Action:     strings.TrimSpace(c.Query("action")),
		EntityType: strings.TrimSpace(c.Query("entityType")),
	}

	result, err := h.service.List(c.UserContext(), principalFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.OK(c, result.Items, "activity retrieved", result.Pagination)
}
