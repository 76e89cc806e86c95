package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/rollcall-api/internal/dto"
	"github.com/noah-isme/rollcall-api/internal/middleware"
	"github.com/noah-isme/rollcall-api/internal/service"
	"github.com/noah-isme/rollcall-api/internal/utils"
)

// AuthHandler exposes sign-up, sign-in and password endpoints for faculty and
// students.
type AuthHandler struct {
	service      service.AuthService
	secureCookie bool
	logger       zerolog.Logger
}

// NewAuthHandler constructs the auth handler.
func NewAuthHandler(service service.AuthService, secureCookie bool, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service:      service,
		secureCookie: secureCookie,
		logger:       logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register wires the account routes.
func (h *AuthHandler) Register(router fiber.Router, guards Guards) {
	router.Post("/faculty/auth/signup", h.facultySignup)
	router.Post("/faculty/auth/signin", chain(guards.Signin, h.facultySignin)...)
	router.Put("/faculty/auth/password", chain(guards.Session, guards.Faculty, h.facultyPassword)...)
	router.Post("/faculty/student", chain(guards.Session, guards.Faculty, h.createStudents)...)

	router.Post("/student/auth/signin", chain(guards.Signin, h.studentSignin)...)
	router.Put("/student/auth/password", chain(guards.Signin, h.studentPassword)...)

	router.Post("/auth/signout", h.signout)
}

func (h *AuthHandler) facultySignup(c *fiber.Ctx) error {
	var req dto.FacultySignupRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	faculty, err := h.service.FacultySignup(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "faculty registered", faculty)
}

func (h *AuthHandler) facultySignin(c *fiber.Ctx) error {
	var req dto.FacultySigninRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	session, err := h.service.FacultySignin(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	middleware.SetSessionCookie(c, session.JWT, session.ExpiresAt, h.secureCookie)
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "signed in", session)
}

func (h *AuthHandler) facultyPassword(c *fiber.Ctx) error {
	var req dto.PasswordChangeRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	if err := h.service.FacultyChangePassword(c.UserContext(), principalFromContext(c), req); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "password updated", nil)
}

func (h *AuthHandler) createStudents(c *fiber.Ctx) error {
	var req dto.StudentCreateRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	result, err := h.service.CreateStudents(c.UserContext(), principalFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "students created", result)
}

func (h *AuthHandler) studentSignin(c *fiber.Ctx) error {
	var req dto.StudentSigninRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	session, err := h.service.StudentSignin(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	middleware.SetSessionCookie(c, session.JWT, session.ExpiresAt, h.secureCookie)
	return utils.SendSuccess(c, "signed in", session)
}

func (h *AuthHandler) studentPassword(c *fiber.Ctx) error {
	var req dto.StudentPasswordChangeRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	session, err := h.service.StudentChangePassword(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	middleware.SetSessionCookie(c, session.JWT, session.ExpiresAt, h.secureCookie)
	return utils.SendSuccess(c, "password updated", session)
}

func (h *AuthHandler) signout(c *fiber.Ctx) error {
	middleware.ClearSessionCookie(c, h.secureCookie)
	return utils.SendSuccess(c, "signed out", nil)
}
