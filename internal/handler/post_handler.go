package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/rollcall-api/internal/dto"
	"github.com/noah-isme/rollcall-api/internal/service"
	"github.com/noah-isme/rollcall-api/internal/utils"
)

// PostHandler serves coursework posts.
type PostHandler struct {
	service service.PostService
	logger  zerolog.Logger
}

// NewPostHandler constructs a post handler.
func NewPostHandler(service service.PostService, logger zerolog.Logger) *PostHandler {
	return &PostHandler{
		service: service,
		logger:  logger.With().Str("component", "post_handler").Logger(),
	}
}

// Register wires post routes.
func (h *PostHandler) Register(router fiber.Router, guards Guards) {
	router.Post("/post", chain(guards.Session, guards.Faculty, h.create)...)
	router.Get("/post", chain(guards.Session, guards.Faculty, h.list)...)
	router.Put("/post", chain(guards.Session, guards.Faculty, h.update)...)
	router.Delete("/post/:postId", chain(guards.Session, guards.Faculty, h.delete)...)
	router.Post("/post/:postId/document", chain(guards.Session, guards.Faculty, h.attachDocument)...)
	router.Get("/student/post", chain(guards.Session, guards.Student, h.listForStudent)...)
}

func (h *PostHandler) create(c *fiber.Ctx) error {
	var req dto.PostCreateRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	result, err := h.service.Create(c.UserContext(), principalFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "post created", result)
}

func (h *PostHandler) list(c *fiber.Ctx) error {
	req, err := postListRequest(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	result, err := h.service.List(c.UserContext(), principalFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "posts retrieved", result)
}

func (h *PostHandler) listForStudent(c *fiber.Ctx) error {
	req, err := postListRequest(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	result, err := h.service.ListForStudent(c.UserContext(), principalFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "posts retrieved", result)
}

func (h *PostHandler) update(c *fiber.Ctx) error {
	var req dto.PostUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	result, err := h.service.Update(c.UserContext(), principalFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "post updated", result)
}

func (h *PostHandler) delete(c *fiber.Ctx) error {
	postID, err := parseIDParam(c, "postId")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	if err := h.service.Delete(c.UserContext(), principalFromContext(c), postID); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "post deleted", fiber.Map{"postId": postID})
}

func (h *PostHandler) attachDocument(c *fiber.Ctx) error {
	postID, err := parseIDParam(c, "postId")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, msgValidationFailed, fiber.Map{"file": "is required"})
	}

	result, err := h.service.AttachDocument(c.UserContext(), principalFromContext(c), postID, file)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "document uploaded", result)
}

func postListRequest(c *fiber.Ctx) (dto.PostListRequest, error) {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return dto.PostListRequest{}, err
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return dto.PostListRequest{}, err
	}
	return dto.PostListRequest{Limit: limit, Offset: offset}, nil
}
