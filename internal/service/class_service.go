package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/rollcall-api/internal/auth"
	"github.com/noah-isme/rollcall-api/internal/dto"
	"github.com/noah-isme/rollcall-api/internal/models"
	"github.com/noah-isme/rollcall-api/internal/repository"
)

// ClassService manages classes and their rosters.
type ClassService interface {
	Create(ctx context.Context, principal auth.Principal, req dto.ClassCreateRequest) (dto.ClassResponse, error)
	List(ctx context.Context, principal auth.Principal) (dto.ClassListResponse, error)
	Delete(ctx context.Context, principal auth.Principal, classID uint) error
	AddStudents(ctx context.Context, principal auth.Principal, req dto.ClassAddStudentsRequest) (dto.ClassAddStudentsResponse, error)
	RemoveStudent(ctx context.Context, principal auth.Principal, classID, studentID uint) error
	Roster(ctx context.Context, principal auth.Principal, classID uint) (dto.ClassRosterResponse, error)
}

type classService struct {
	classes    repository.ClassRepository
	students   repository.StudentRepository
	authorizer *auth.Authorizer
	cache      *AttendanceCache
	activity   ActivityRecorder
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewClassService constructs the class service.
func NewClassService(
	classes repository.ClassRepository,
	students repository.StudentRepository,
	authorizer *auth.Authorizer,
	cache *AttendanceCache,
	activity ActivityRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) ClassService {
	return &classService{
		classes:    classes,
		students:   students,
		authorizer: authorizer,
		cache:      cache,
		activity:   activity,
		validator:  validate,
		logger:     logger.With().Str("component", "class_service").Logger(),
	}
}

func (s *classService) Create(ctx context.Context, principal auth.Principal, req dto.ClassCreateRequest) (dto.ClassResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return dto.ClassResponse{}, err
	}
	if err := auth.AuthorizeClassCreation(principal, req.InchargeID); err != nil {
		return dto.ClassResponse{}, err
	}

	class := models.Class{Name: req.Name, InchargeID: req.InchargeID}
	if err := s.classes.Create(ctx, &class); err != nil {
		return dto.ClassResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      principal,
		Action:     ActionClassCreate,
		EntityType: "class",
		EntityID:   uintPtr(class.ID),
		Metadata:   map[string]interface{}{"name": class.Name},
	})

	return dto.NewClassResponse(class), nil
}

// List returns the classes a faculty member owns, or the classes a student
// belongs to.
func (s *classService) List(ctx context.Context, principal auth.Principal) (dto.ClassListResponse, error) {
	if !principal.Valid() {
		return dto.ClassListResponse{}, auth.ErrUnauthorized
	}

	var (
		classes []models.Class
		err     error
	)
	if principal.IsFaculty() {
		classes, err = s.classes.ListByIncharge(ctx, principal.ID)
	} else {
		classes, err = s.classes.ListByStudent(ctx, principal.ID)
	}
	if err != nil {
		return dto.ClassListResponse{}, err
	}

	return dto.ClassListResponse{Classes: dto.NewClassResponses(classes)}, nil
}

func (s *classService) Delete(ctx context.Context, principal auth.Principal, classID uint) error {
	if err := s.authorizer.AuthorizeClass(ctx, principal, classID, auth.ActionManage); err != nil {
		return err
	}

	if err := s.classes.Delete(ctx, classID); err != nil {
		if repository.IsNotFound(err) {
			return ErrClassNotFound
		}
		return err
	}
	s.cache.Invalidate(ctx, classID)

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      principal,
		Action:     ActionClassDelete,
		EntityType: "class",
		EntityID:   uintPtr(classID),
	})
	return nil
}

// AddStudents enrols students by register number. Unknown register numbers
// and students already on the roster are reported as skipped.
func (s *classService) AddStudents(ctx context.Context, principal auth.Principal, req dto.ClassAddStudentsRequest) (dto.ClassAddStudentsResponse, error) {
	numbers := normalizeRegisterNumbers(req.RegisterNumbers)
	req.RegisterNumbers = numbers
	if err := s.validator.Struct(req); err != nil {
		return dto.ClassAddStudentsResponse{}, err
	}
	if err := s.authorizer.AuthorizeClass(ctx, principal, req.ClassID, auth.ActionManage); err != nil {
		return dto.ClassAddStudentsResponse{}, err
	}

	students, err := s.students.ListByRegisterNumbers(ctx, numbers)
	if err != nil {
		return dto.ClassAddStudentsResponse{}, err
	}

	byID := make(map[uint]models.Student, len(students))
	ids := make([]uint, 0, len(students))
	for _, student := range students {
		byID[student.ID] = student
		ids = append(ids, student.ID)
	}

	members, err := s.classes.AddMembers(ctx, req.ClassID, ids)
	if err != nil {
		return dto.ClassAddStudentsResponse{}, err
	}

	added := make([]dto.ClassMemberResponse, 0, len(members))
	addedNumbers := make(map[string]struct{}, len(members))
	for _, member := range members {
		student := byID[member.StudentID]
		addedNumbers[student.RegisterNumber] = struct{}{}
		added = append(added, dto.ClassMemberResponse{
			ID:        member.ID,
			ClassID:   member.ClassID,
			StudentID: member.StudentID,
			Student:   dto.NewStudentResponse(student),
		})
	}

	skipped := make([]string, 0)
	for _, number := range numbers {
		if _, ok := addedNumbers[number]; !ok {
			skipped = append(skipped, number)
		}
	}

	if len(added) > 0 {
		s.cache.Invalidate(ctx, req.ClassID)
		recordActivity(ctx, s.activity, s.logger, ActivityEntry{
			Actor:      principal,
			Action:     ActionMemberAdd,
			EntityType: "class",
			EntityID:   uintPtr(req.ClassID),
			Metadata:   map[string]interface{}{"added": len(added), "skipped": len(skipped)},
		})
	}

	return dto.ClassAddStudentsResponse{ClassID: req.ClassID, Added: added, Skipped: skipped}, nil
}

func (s *classService) RemoveStudent(ctx context.Context, principal auth.Principal, classID, studentID uint) error {
	if err := s.authorizer.AuthorizeClass(ctx, principal, classID, auth.ActionManage); err != nil {
		return err
	}

	if err := s.classes.RemoveMember(ctx, classID, studentID); err != nil {
		if repository.IsNotFound(err) {
			return ErrMemberNotFound
		}
		return err
	}
	s.cache.Invalidate(ctx, classID)

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      principal,
		Action:     ActionMemberRemove,
		EntityType: "class",
		EntityID:   uintPtr(classID),
		Metadata:   map[string]interface{}{"studentId": studentID},
	})
	return nil
}

func (s *classService) Roster(ctx context.Context, principal auth.Principal, classID uint) (dto.ClassRosterResponse, error) {
	if err := s.authorizer.AuthorizeClass(ctx, principal, classID, auth.ActionView); err != nil {
		return dto.ClassRosterResponse{}, err
	}

	class, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.ClassRosterResponse{}, ErrClassNotFound
		}
		return dto.ClassRosterResponse{}, err
	}

	students, err := s.classes.Roster(ctx, classID)
	if err != nil {
		return dto.ClassRosterResponse{}, err
	}

	return dto.ClassRosterResponse{
		ClassID:      class.ID,
		InchargeID:   class.InchargeID,
		ClassMembers: dto.NewStudentResponses(students),
	}, nil
}

func normalizeRegisterNumbers(numbers []string) []string {
	seen := make(map[string]struct{}, len(numbers))
	normalized := make([]string, 0, len(numbers))
	for _, number := range numbers {
		trimmed := strings.TrimSpace(number)
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		normalized = append(normalized, trimmed)
	}
	return normalized
}
