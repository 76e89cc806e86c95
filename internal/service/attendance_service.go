package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/rollcall-api/internal/attendance"
	"github.com/noah-isme/rollcall-api/internal/auth"
	"github.com/noah-isme/rollcall-api/internal/dto"
	"github.com/noah-isme/rollcall-api/internal/models"
	"github.com/noah-isme/rollcall-api/internal/observability"
	"github.com/noah-isme/rollcall-api/internal/repository"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	dto.DateLayout,
}

// AttendanceService records roll calls and rebuilds attendance from them.
type AttendanceService interface {
	Record(ctx context.Context, principal auth.Principal, req dto.AttendanceRecordRequest) (dto.AttendanceRecordResponse, error)
	List(ctx context.Context, principal auth.Principal, classID uint, from string) (dto.AttendanceListResponse, error)
	Summary(ctx context.Context, principal auth.Principal, classID uint) (dto.AttendanceSummaryResponse, error)
	ByDate(ctx context.Context, principal auth.Principal, classID uint, date string) (dto.AttendanceDateResponse, error)
	ForStudent(ctx context.Context, principal auth.Principal) (dto.StudentAttendanceResponse, error)
}

type attendanceService struct {
	records    repository.AttendanceRepository
	classes    repository.ClassRepository
	authorizer *auth.Authorizer
	cache      *AttendanceCache
	events     EventPublisher
	activity   ActivityRecorder
	validator  *validator.Validate
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewAttendanceService constructs the attendance service. events and activity may be nil.
func NewAttendanceService(
	records repository.AttendanceRepository,
	classes repository.ClassRepository,
	authorizer *auth.Authorizer,
	cache *AttendanceCache,
	events EventPublisher,
	activity ActivityRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) AttendanceService {
	return &attendanceService{
		records:    records,
		classes:    classes,
		authorizer: authorizer,
		cache:      cache,
		events:     events,
		activity:   activity,
		validator:  validate,
		logger:     logger.With().Str("component", "attendance_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/rollcall-api/internal/service/attendance"),
		now:        time.Now,
	}
}

// Record stores a roll call. The submitted ids are read with the caller's
// polarity, filtered against the roster inside the write transaction and
// re-encoded with whichever polarity lists fewer students.
func (s *attendanceService) Record(ctx context.Context, principal auth.Principal, req dto.AttendanceRecordRequest) (dto.AttendanceRecordResponse, error) {
	ctx, span := s.tracer.Start(ctx, "attendance.record", trace.WithAttributes(
		attribute.Int("attendance.class_id", int(req.ClassID)),
		attribute.Int("attendance.submitted", len(req.StudentIDs)),
		attribute.Bool("attendance.submitted_present", req.IsPresent),
	))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.AttendanceRecordResponse{}, err
	}
	day, err := parseAttendanceDate(req.Date)
	if err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.AttendanceRecordResponse{}, err
	}

	if err := s.authorizer.AuthorizeClass(ctx, principal, req.ClassID, auth.ActionRecordAttendance); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "not authorized")
		return dto.AttendanceRecordResponse{}, err
	}

	mode, err := s.records.Record(ctx, req.ClassID, day, func(roster []uint) attendance.Encoding {
		present := attendance.PresentFromSubmission(req.StudentIDs, req.IsPresent, roster)
		return attendance.Encode(present, roster)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.AttendanceRecordResponse{}, err
	}

	label := models.PolarityLabel(mode.IsPresent)
	count := len(mode.Attendance)
	span.SetAttributes(
		attribute.Int("attendance.mode_id", int(mode.ID)),
		attribute.String("attendance.mode", label),
		attribute.Int("attendance.rows", count),
	)
	observability.AttendanceSessions().WithLabelValues(label).Inc()
	observability.AttendanceRows().WithLabelValues(label).Add(float64(count))

	s.cache.Invalidate(ctx, req.ClassID)

	response := dto.AttendanceRecordResponse{
		AttendanceModeID: mode.ID,
		Mode:             label,
		Count:            count,
		Date:             day.Format(dto.DateLayout),
	}

	if s.events != nil {
		event := AttendanceRecordedEvent{
			AttendanceModeID: mode.ID,
			ClassID:          req.ClassID,
			Date:             response.Date,
			Mode:             label,
			Count:            count,
			RecordedBy:       principal.ID,
			RecordedRole:     string(principal.Role),
			RecordedAt:       s.now().UTC(),
		}
		if err := s.events.PublishAttendanceRecorded(ctx, event); err != nil {
			s.logger.Warn().Err(err).Uint("attendance_mode_id", mode.ID).Msg("failed to publish attendance event")
		}
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      principal,
		Action:     ActionAttendanceRecord,
		EntityType: "attendance",
		EntityID:   uintPtr(mode.ID),
		Metadata: map[string]interface{}{
			"classId": req.ClassID,
			"date":    response.Date,
			"mode":    label,
			"count":   count,
		},
	})

	span.SetStatus(codes.Ok, "recorded")
	return response, nil
}

func (s *attendanceService) List(ctx context.Context, principal auth.Principal, classID uint, from string) (dto.AttendanceListResponse, error) {
	var filter repository.AttendanceFilter
	if strings.TrimSpace(from) != "" {
		day, err := parseAttendanceDate(from)
		if err != nil {
			return dto.AttendanceListResponse{}, newValidationError("from", "must be an ISO-8601 date or datetime")
		}
		filter.From = &day
	}

	if err := s.authorizer.AuthorizeClass(ctx, principal, classID, auth.ActionView); err != nil {
		return dto.AttendanceListResponse{}, err
	}

	modes, err := s.records.ListByClass(ctx, classID, filter)
	if err != nil {
		return dto.AttendanceListResponse{}, err
	}
	return dto.AttendanceListResponse{Classes: modes}, nil
}

// Summary returns every roster student's attendance, served from the cache
// when possible.
func (s *attendanceService) Summary(ctx context.Context, principal auth.Principal, classID uint) (dto.AttendanceSummaryResponse, error) {
	if err := s.authorizer.AuthorizeClass(ctx, principal, classID, auth.ActionView); err != nil {
		return dto.AttendanceSummaryResponse{}, err
	}

	if cached, ok := s.cache.Get(ctx, classID); ok {
		return cached, nil
	}

	roster, err := s.classes.Roster(ctx, classID)
	if err != nil {
		return dto.AttendanceSummaryResponse{}, err
	}
	modes, err := s.records.ListByClass(ctx, classID, repository.AttendanceFilter{})
	if err != nil {
		return dto.AttendanceSummaryResponse{}, err
	}

	summaries := attendance.Summarize(toSessions(modes), studentIDs(roster))
	students := make([]dto.AttendanceStudentSummary, 0, len(summaries))
	for i, summary := range summaries {
		students = append(students, dto.AttendanceStudentSummary{
			StudentID:      summary.StudentID,
			RegisterNumber: roster[i].RegisterNumber,
			Present:        summary.Present,
			Total:          summary.Total,
			Percentage:     summary.Percentage,
			Status:         string(summary.Status),
		})
	}

	response := dto.AttendanceSummaryResponse{
		ClassID:       classID,
		TotalSessions: len(modes),
		Students:      students,
	}
	s.cache.Set(ctx, classID, response)
	return response, nil
}

func (s *attendanceService) ByDate(ctx context.Context, principal auth.Principal, classID uint, date string) (dto.AttendanceDateResponse, error) {
	day, err := parseAttendanceDate(date)
	if err != nil {
		return dto.AttendanceDateResponse{}, err
	}

	if err := s.authorizer.AuthorizeClass(ctx, principal, classID, auth.ActionView); err != nil {
		return dto.AttendanceDateResponse{}, err
	}

	roster, err := s.classes.Roster(ctx, classID)
	if err != nil {
		return dto.AttendanceDateResponse{}, err
	}
	next := day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	modes, err := s.records.ListByClass(ctx, classID, repository.AttendanceFilter{From: &day, To: &next})
	if err != nil {
		return dto.AttendanceDateResponse{}, err
	}

	byID := make(map[uint]models.Student, len(roster))
	for _, student := range roster {
		byID[student.ID] = student
	}

	calls := attendance.RollCallsOn(toSessions(modes), studentIDs(roster), day)
	sessions := make([]dto.AttendanceRollCallResponse, 0, len(calls))
	for _, call := range calls {
		students := make([]dto.AttendanceRollCallStudent, 0, len(call.Entries))
		for _, entry := range call.Entries {
			student := byID[entry.StudentID]
			students = append(students, dto.AttendanceRollCallStudent{
				ID:             student.ID,
				RegisterNumber: student.RegisterNumber,
				IsIncharge:     student.IsIncharge,
				IsPresent:      entry.Present,
			})
		}
		sessions = append(sessions, dto.AttendanceRollCallResponse{
			AttendanceModeID: call.SessionID,
			Present:          call.PresentCount,
			Absent:           call.AbsentCount,
			Students:         students,
		})
	}

	return dto.AttendanceDateResponse{Date: day.Format(dto.DateLayout), Sessions: sessions}, nil
}

// ForStudent rebuilds the caller's own attendance in every class they belong to.
func (s *attendanceService) ForStudent(ctx context.Context, principal auth.Principal) (dto.StudentAttendanceResponse, error) {
	if !principal.Valid() {
		return dto.StudentAttendanceResponse{}, auth.ErrUnauthorized
	}
	if !principal.IsStudent() {
		return dto.StudentAttendanceResponse{}, auth.ErrForbidden
	}

	classes, err := s.classes.ListByStudent(ctx, principal.ID)
	if err != nil {
		return dto.StudentAttendanceResponse{}, err
	}

	classIDs := make([]uint, 0, len(classes))
	for _, class := range classes {
		classIDs = append(classIDs, class.ID)
	}
	modes, err := s.records.ListByClasses(ctx, classIDs)
	if err != nil {
		return dto.StudentAttendanceResponse{}, err
	}

	byClass := make(map[uint][]models.AttendanceMode, len(classes))
	for _, mode := range modes {
		byClass[mode.ClassID] = append(byClass[mode.ClassID], mode)
	}

	self := []uint{principal.ID}
	result := make([]dto.StudentClassAttendance, 0, len(classes))
	for _, class := range classes {
		sessions := toSessions(byClass[class.ID])
		own := make([]dto.StudentSessionResponse, 0, len(sessions))
		for _, session := range sessions {
			own = append(own, dto.StudentSessionResponse{
				AttendanceModeID: session.ID,
				Date:             session.Date,
				IsPresent:        session.Present(principal.ID),
			})
		}

		summary := attendance.Summarize(sessions, self)[0]
		result = append(result, dto.StudentClassAttendance{
			ClassID:    class.ID,
			ClassName:  class.Name,
			Sessions:   own,
			Present:    summary.Present,
			Total:      summary.Total,
			Percentage: summary.Percentage,
			Status:     string(summary.Status),
		})
	}

	return dto.StudentAttendanceResponse{StudentID: principal.ID, Classes: result}, nil
}

// parseAttendanceDate accepts an ISO-8601 date or datetime and returns its
// UTC calendar day.
func parseAttendanceDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return attendance.TruncateDay(parsed), nil
		}
	}
	return time.Time{}, newValidationError("date", "must be an ISO-8601 date or datetime")
}

func toSessions(modes []models.AttendanceMode) []attendance.Session {
	sessions := make([]attendance.Session, 0, len(modes))
	for _, mode := range modes {
		sessions = append(sessions, attendance.Session{
			ID:         mode.ID,
			Date:       mode.Date,
			IsPresent:  mode.IsPresent,
			StudentIDs: mode.StudentIDs(),
		})
	}
	return sessions
}

func studentIDs(students []models.Student) []uint {
	ids := make([]uint, 0, len(students))
	for _, student := range students {
		ids = append(ids, student.ID)
	}
	return ids
}
