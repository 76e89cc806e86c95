package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/rollcall-api/internal/auth"
	"github.com/noah-isme/rollcall-api/internal/dto"
	"github.com/noah-isme/rollcall-api/internal/models"
	"github.com/noah-isme/rollcall-api/internal/repository"
	"github.com/noah-isme/rollcall-api/internal/utils"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type stubActivityRecorder struct {
	entries []ActivityEntry
}

func (s *stubActivityRecorder) Record(_ context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	s.entries = append(s.entries, entry)
	return dto.ActivityResponse{Action: entry.Action, EntityType: entry.EntityType, EntityID: entry.EntityID}, nil
}

func (s *stubActivityRecorder) actions() []string {
	actions := make([]string, 0, len(s.entries))
	for _, entry := range s.entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

type testEnv struct {
	db         *gorm.DB
	faculty    repository.FacultyRepository
	students   repository.StudentRepository
	classes    repository.ClassRepository
	records    repository.AttendanceRepository
	posts      repository.PostRepository
	marks      repository.MarkRepository
	authorizer *auth.Authorizer
	validate   *validator.Validate
	activity   *stubActivityRecorder
}

func setupServiceEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))

	classes := repository.NewClassRepository(db)
	return &testEnv{
		db:         db,
		faculty:    repository.NewFacultyRepository(db),
		students:   repository.NewStudentRepository(db),
		classes:    classes,
		records:    repository.NewAttendanceRepository(db),
		posts:      repository.NewPostRepository(db),
		marks:      repository.NewMarkRepository(db),
		authorizer: auth.NewAuthorizer(NewClassDirectory(classes)),
		validate:   utils.NewValidator(),
		activity:   &stubActivityRecorder{},
	}
}

func (e *testEnv) seedFaculty(t *testing.T, email string) auth.Principal {
	t.Helper()

	faculty := models.Faculty{Email: email, Name: "Faculty", PasswordHash: "hash"}
	require.NoError(t, e.db.Create(&faculty).Error)
	return auth.Principal{ID: faculty.ID, Username: faculty.Name, Role: auth.RoleFaculty}
}

func (e *testEnv) seedStudent(t *testing.T, registerNumber string, isIncharge bool) models.Student {
	t.Helper()

	student := models.Student{RegisterNumber: registerNumber, PasswordHash: "hash", IsIncharge: isIncharge}
	require.NoError(t, e.db.Create(&student).Error)
	return student
}

func (e *testEnv) seedClass(t *testing.T, owner auth.Principal, members ...models.Student) models.Class {
	t.Helper()

	class := models.Class{Name: "CSE-A", InchargeID: owner.ID}
	require.NoError(t, e.db.Create(&class).Error)
	for _, student := range members {
		require.NoError(t, e.db.Create(&models.ClassMember{ClassID: class.ID, StudentID: student.ID}).Error)
	}
	return class
}

func studentPrincipal(student models.Student) auth.Principal {
	return auth.Principal{ID: student.ID, Username: student.RegisterNumber, Role: auth.StudentRole(student.IsIncharge)}
}
