package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/rollcall-api/internal/attendance"
	"github.com/noah-isme/rollcall-api/internal/models"
)

// AttendanceFilter narrows roll call listings to a date window. Both bounds
// are inclusive.
type AttendanceFilter struct {
	From *time.Time
	To   *time.Time
}

// EncodeFunc chooses the stored polarity for a roster read inside the write
// transaction.
type EncodeFunc func(roster []uint) attendance.Encoding

// AttendanceRepository persists roll calls.
type AttendanceRepository interface {
	Record(ctx context.Context, classID uint, date time.Time, encode EncodeFunc) (models.AttendanceMode, error)
	ListByClass(ctx context.Context, classID uint, filter AttendanceFilter) ([]models.AttendanceMode, error)
	ListByClasses(ctx context.Context, classIDs []uint) ([]models.AttendanceMode, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository constructs an attendance repository.
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

// Record reads the current roster, encodes the roll call against it and
// stores the mode with its rows in a single transaction. Nothing is written
// when any step fails.
func (r *attendanceRepository) Record(ctx context.Context, classID uint, date time.Time, encode EncodeFunc) (models.AttendanceMode, error) {
	var mode models.AttendanceMode

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var roster []uint
		if err := tx.Model(&models.ClassMember{}).
			Where("class_id = ?", classID).
			Order("student_id ASC").
			Pluck("student_id", &roster).Error; err != nil {
			return err
		}

		encoded := encode(roster)
		mode = models.AttendanceMode{
			ClassID:   classID,
			Date:      date,
			IsPresent: encoded.IsPresent,
		}
		if err := tx.Omit("Attendance").Create(&mode).Error; err != nil {
			return err
		}

		if len(encoded.StudentIDs) == 0 {
			mode.Attendance = []models.Attendance{}
			return nil
		}

		rows := make([]models.Attendance, 0, len(encoded.StudentIDs))
		for _, studentID := range encoded.StudentIDs {
			rows = append(rows, models.Attendance{AttendanceModeID: mode.ID, StudentID: studentID})
		}
		if err := tx.Omit("Student").Create(&rows).Error; err != nil {
			return err
		}
		mode.Attendance = rows
		return nil
	})
	if err != nil {
		return models.AttendanceMode{}, err
	}

	return mode, nil
}

func (r *attendanceRepository) ListByClass(ctx context.Context, classID uint, filter AttendanceFilter) ([]models.AttendanceMode, error) {
	query := r.db.WithContext(ctx).
		Preload("Attendance", func(db *gorm.DB) *gorm.DB {
			return db.Order("student_id ASC")
		}).
		Preload("Attendance.Student").
		Where("class_id = ?", classID)

	if filter.From != nil {
		query = query.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("date <= ?", *filter.To)
	}

	var modes []models.AttendanceMode
	if err := query.Order("date ASC").Order("id ASC").Find(&modes).Error; err != nil {
		return nil, err
	}
	return modes, nil
}

func (r *attendanceRepository) ListByClasses(ctx context.Context, classIDs []uint) ([]models.AttendanceMode, error) {
	modes := make([]models.AttendanceMode, 0)
	if len(classIDs) == 0 {
		return modes, nil
	}

	err := r.db.WithContext(ctx).
		Preload("Attendance").
		Where("class_id IN ?", classIDs).
		Order("date ASC").
		Order("id ASC").
		Find(&modes).Error
	if err != nil {
		return nil, err
	}
	return modes, nil
}
