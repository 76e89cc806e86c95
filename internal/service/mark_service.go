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

// MarkService manages internal assessment marks. Every operation is limited
// to the faculty member owning the class.
type MarkService interface {
	Upsert(ctx context.Context, principal auth.Principal, req dto.MarkCreateRequest) (dto.MarkBatchResponse, error)
	List(ctx context.Context, principal auth.Principal, classID uint) (dto.MarkListResponse, error)
	Update(ctx context.Context, principal auth.Principal, req dto.MarkUpdateRequest) (dto.MarkResponse, error)
	Delete(ctx context.Context, principal auth.Principal, markID uint) (dto.MarkResponse, error)
}

type markService struct {
	marks      repository.MarkRepository
	authorizer *auth.Authorizer
	activity   ActivityRecorder
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewMarkService constructs the mark service.
func NewMarkService(marks repository.MarkRepository, authorizer *auth.Authorizer, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) MarkService {
	return &markService{
		marks:      marks,
		authorizer: authorizer,
		activity:   activity,
		validator:  validate,
		logger:     logger.With().Str("component", "mark_service").Logger(),
	}
}

// Upsert writes a batch of marks. A repeated register number and exam for the
// class replaces the earlier score; within one batch the last entry wins.
func (s *markService) Upsert(ctx context.Context, principal auth.Principal, req dto.MarkCreateRequest) (dto.MarkBatchResponse, error) {
	for i := range req.Marks {
		req.Marks[i].RegisterNumber = strings.TrimSpace(req.Marks[i].RegisterNumber)
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.MarkBatchResponse{}, err
	}
	if err := s.authorizer.AuthorizeClass(ctx, principal, req.ClassID, auth.ActionManage); err != nil {
		return dto.MarkBatchResponse{}, err
	}

	exam := models.ParseExam(req.Exam)
	position := make(map[string]int, len(req.Marks))
	batch := make([]models.Mark, 0, len(req.Marks))
	for _, entry := range req.Marks {
		mark := models.Mark{
			ClassID:        req.ClassID,
			RegisterNumber: entry.RegisterNumber,
			Exam:           exam,
			Mark:           entry.Mark,
		}
		if idx, ok := position[entry.RegisterNumber]; ok {
			batch[idx] = mark
			continue
		}
		position[entry.RegisterNumber] = len(batch)
		batch = append(batch, mark)
	}

	stored, err := s.marks.Upsert(ctx, batch)
	if err != nil {
		return dto.MarkBatchResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      principal,
		Action:     ActionMarkUpsert,
		EntityType: "class",
		EntityID:   uintPtr(req.ClassID),
		Metadata:   map[string]interface{}{"exam": string(exam), "count": len(stored)},
	})

	return dto.MarkBatchResponse{Count: len(stored), Marks: dto.NewMarkResponses(stored)}, nil
}

func (s *markService) List(ctx context.Context, principal auth.Principal, classID uint) (dto.MarkListResponse, error) {
	if err := s.authorizer.AuthorizeClass(ctx, principal, classID, auth.ActionManage); err != nil {
		return dto.MarkListResponse{}, err
	}

	marks, err := s.marks.ListByClass(ctx, classID, nil)
	if err != nil {
		return dto.MarkListResponse{}, err
	}
	return dto.MarkListResponse{Marks: dto.NewMarkResponses(marks)}, nil
}

func (s *markService) Update(ctx context.Context, principal auth.Principal, req dto.MarkUpdateRequest) (dto.MarkResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.MarkResponse{}, err
	}

	mark, err := s.authorizedMark(ctx, principal, req.MarkID)
	if err != nil {
		return dto.MarkResponse{}, err
	}

	updated, err := s.marks.UpdateMark(ctx, mark.ID, req.Mark)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.MarkResponse{}, ErrMarkNotFound
		}
		return dto.MarkResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      principal,
		Action:     ActionMarkUpdate,
		EntityType: "mark",
		EntityID:   uintPtr(mark.ID),
		Metadata:   map[string]interface{}{"from": mark.Mark, "to": updated.Mark},
	})
	return dto.NewMarkResponse(updated), nil
}

func (s *markService) Delete(ctx context.Context, principal auth.Principal, markID uint) (dto.MarkResponse, error) {
	mark, err := s.authorizedMark(ctx, principal, markID)
	if err != nil {
		return dto.MarkResponse{}, err
	}

	if err := s.marks.Delete(ctx, mark.ID); err != nil {
		if repository.IsNotFound(err) {
			return dto.MarkResponse{}, ErrMarkNotFound
		}
		return dto.MarkResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      principal,
		Action:     ActionMarkDelete,
		EntityType: "mark",
		EntityID:   uintPtr(mark.ID),
		Metadata:   map[string]interface{}{"registerNumber": mark.RegisterNumber, "exam": string(mark.Exam)},
	})
	return dto.NewMarkResponse(mark), nil
}

// authorizedMark loads the mark and checks the caller owns its class. A mark
// whose class is gone is reported as missing.
func (s *markService) authorizedMark(ctx context.Context, principal auth.Principal, markID uint) (models.Mark, error) {
	if err := auth.RequireFaculty(principal); err != nil {
		return models.Mark{}, err
	}

	mark, err := s.marks.GetByID(ctx, markID)
	if err != nil {
		if repository.IsNotFound(err) {
			return models.Mark{}, ErrMarkNotFound
		}
		return models.Mark{}, err
	}

	if err := s.authorizer.AuthorizeClass(ctx, principal, mark.ClassID, auth.ActionManage); err != nil {
		if err == ErrClassNotFound {
			return models.Mark{}, ErrMarkNotFound
		}
		return models.Mark{}, err
	}
	return mark, nil
}
