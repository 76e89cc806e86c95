package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/rollcall-api/internal/auth"
	"github.com/noah-isme/rollcall-api/internal/dto"
	"github.com/noah-isme/rollcall-api/internal/models"
	"github.com/noah-isme/rollcall-api/internal/repository"
)

// AuthConfig holds account policy settings.
type AuthConfig struct {
	EmailDomain            string
	StudentDefaultPassword string
}

// AuthService manages faculty and student accounts and their sessions.
type AuthService interface {
	FacultySignup(ctx context.Context, req dto.FacultySignupRequest) (dto.FacultyResponse, error)
	FacultySignin(ctx context.Context, req dto.FacultySigninRequest) (dto.SessionResponse, error)
	FacultyChangePassword(ctx context.Context, principal auth.Principal, req dto.PasswordChangeRequest) error
	CreateStudents(ctx context.Context, principal auth.Principal, req dto.StudentCreateRequest) (dto.StudentCreateResponse, error)
	StudentSignin(ctx context.Context, req dto.StudentSigninRequest) (dto.SessionResponse, error)
	StudentChangePassword(ctx context.Context, req dto.StudentPasswordChangeRequest) (dto.SessionResponse, error)
}

type authService struct {
	faculty   repository.FacultyRepository
	students  repository.StudentRepository
	hasher    auth.PasswordHasher
	tokens    *auth.TokenManager
	cfg       AuthConfig
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAuthService constructs the account service.
func NewAuthService(
	faculty repository.FacultyRepository,
	students repository.StudentRepository,
	hasher auth.PasswordHasher,
	tokens *auth.TokenManager,
	cfg AuthConfig,
	validate *validator.Validate,
	logger zerolog.Logger,
) AuthService {
	cfg.EmailDomain = strings.ToLower(strings.TrimSpace(cfg.EmailDomain))
	return &authService{
		faculty:   faculty,
		students:  students,
		hasher:    hasher,
		tokens:    tokens,
		cfg:       cfg,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *authService) FacultySignup(ctx context.Context, req dto.FacultySignupRequest) (dto.FacultyResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return dto.FacultyResponse{}, err
	}
	if s.cfg.EmailDomain != "" && !strings.HasSuffix(req.Email, "@"+s.cfg.EmailDomain) {
		return dto.FacultyResponse{}, newValidationError("email", fmt.Sprintf("should be registered to '%s'", s.cfg.EmailDomain))
	}

	if _, err := s.faculty.GetByEmail(ctx, req.Email); err == nil {
		return dto.FacultyResponse{}, ErrEmailTaken
	} else if !repository.IsNotFound(err) {
		return dto.FacultyResponse{}, err
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return dto.FacultyResponse{}, err
	}

	faculty := models.Faculty{Email: req.Email, Name: req.Username, PasswordHash: digest}
	if err := s.faculty.Create(ctx, &faculty); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.FacultyResponse{}, ErrEmailTaken
		}
		return dto.FacultyResponse{}, err
	}

	s.logger.Info().Uint("faculty_id", faculty.ID).Msg("faculty registered")
	return dto.NewFacultyResponse(faculty), nil
}

func (s *authService) FacultySignin(ctx context.Context, req dto.FacultySigninRequest) (dto.SessionResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return dto.SessionResponse{}, err
	}

	faculty, err := s.faculty.GetByEmail(ctx, req.Email)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.SessionResponse{}, ErrFacultyNotFound
		}
		return dto.SessionResponse{}, err
	}

	if err := s.checkPassword(faculty.PasswordHash, req.Password); err != nil {
		return dto.SessionResponse{}, err
	}

	return s.issue(auth.Principal{ID: faculty.ID, Username: faculty.Name, Role: auth.RoleFaculty}, nil)
}

func (s *authService) FacultyChangePassword(ctx context.Context, principal auth.Principal, req dto.PasswordChangeRequest) error {
	if err := auth.RequireFaculty(principal); err != nil {
		return err
	}
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	faculty, err := s.faculty.GetByID(ctx, principal.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrFacultyNotFound
		}
		return err
	}

	if err := s.checkPassword(faculty.PasswordHash, req.CurrentPassword); err != nil {
		return err
	}

	digest, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	return s.faculty.UpdatePassword(ctx, faculty.ID, digest)
}

// CreateStudents registers the students with the default password. Register
// numbers that already exist, or repeat within the request, are skipped.
func (s *authService) CreateStudents(ctx context.Context, principal auth.Principal, req dto.StudentCreateRequest) (dto.StudentCreateResponse, error) {
	if err := auth.RequireFaculty(principal); err != nil {
		return dto.StudentCreateResponse{}, err
	}
	for i := range req.Students {
		req.Students[i].RegisterNumber = strings.TrimSpace(req.Students[i].RegisterNumber)
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.StudentCreateResponse{}, err
	}

	digest, err := s.hasher.Hash(s.cfg.StudentDefaultPassword)
	if err != nil {
		return dto.StudentCreateResponse{}, err
	}

	candidates := make([]models.Student, 0, len(req.Students))
	for _, item := range req.Students {
		candidates = append(candidates, models.Student{
			RegisterNumber:     item.RegisterNumber,
			PasswordHash:       digest,
			IsIncharge:         item.IsIncharge,
			MustChangePassword: true,
		})
	}

	created, err := s.students.CreateMany(ctx, candidates)
	if err != nil {
		return dto.StudentCreateResponse{}, err
	}

	createdNumbers := make(map[string]struct{}, len(created))
	for _, student := range created {
		createdNumbers[student.RegisterNumber] = struct{}{}
	}
	skipped := make([]string, 0)
	for _, item := range req.Students {
		if _, ok := createdNumbers[item.RegisterNumber]; !ok {
			skipped = append(skipped, item.RegisterNumber)
		}
	}

	s.logger.Info().
		Uint("faculty_id", principal.ID).
		Int("created", len(created)).
		Int("skipped", len(skipped)).
		Msg("students created")

	return dto.StudentCreateResponse{
		Created: dto.NewStudentResponses(created),
		Skipped: skipped,
	}, nil
}

func (s *authService) StudentSignin(ctx context.Context, req dto.StudentSigninRequest) (dto.SessionResponse, error) {
	req.RegisterNumber = strings.TrimSpace(req.RegisterNumber)
	if err := s.validator.Struct(req); err != nil {
		return dto.SessionResponse{}, err
	}

	student, err := s.students.GetByRegisterNumber(ctx, req.RegisterNumber)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.SessionResponse{}, ErrStudentNotFound
		}
		return dto.SessionResponse{}, err
	}

	if student.MustChangePassword {
		return dto.SessionResponse{}, ErrPasswordChangeRequired
	}
	if err := s.checkPassword(student.PasswordHash, req.Password); err != nil {
		return dto.SessionResponse{}, err
	}

	return s.issueStudent(student)
}

func (s *authService) StudentChangePassword(ctx context.Context, req dto.StudentPasswordChangeRequest) (dto.SessionResponse, error) {
	req.RegisterNumber = strings.TrimSpace(req.RegisterNumber)
	if err := s.validator.Struct(req); err != nil {
		return dto.SessionResponse{}, err
	}

	student, err := s.students.GetByRegisterNumber(ctx, req.RegisterNumber)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.SessionResponse{}, ErrStudentNotFound
		}
		return dto.SessionResponse{}, err
	}

	if err := s.checkPassword(student.PasswordHash, req.CurrentPassword); err != nil {
		return dto.SessionResponse{}, err
	}

	digest, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return dto.SessionResponse{}, err
	}
	if err := s.students.UpdatePassword(ctx, student.ID, digest, false); err != nil {
		return dto.SessionResponse{}, err
	}

	return s.issueStudent(student)
}

func (s *authService) checkPassword(digest, password string) error {
	ok, err := s.hasher.Compare(digest, password)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *authService) issueStudent(student models.Student) (dto.SessionResponse, error) {
	isIncharge := student.IsIncharge
	principal := auth.Principal{
		ID:       student.ID,
		Username: student.RegisterNumber,
		Role:     auth.StudentRole(student.IsIncharge),
	}
	return s.issue(principal, &isIncharge)
}

func (s *authService) issue(principal auth.Principal, isIncharge *bool) (dto.SessionResponse, error) {
	session, err := s.tokens.Issue(principal)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	return dto.SessionResponse{
		JWT:        session.Token,
		ID:         principal.ID,
		Username:   principal.Username,
		Role:       string(principal.Role),
		IsIncharge: isIncharge,
		ExpiresAt:  session.ExpiresAt,
	}, nil
}
