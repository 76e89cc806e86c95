package models

import "time"

// AttendanceMode is a single roll call for a class on a UTC calendar day.
// IsPresent is the polarity flag: when true the attached rows list the
// students who were present, otherwise they list the absentees.
type AttendanceMode struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	ClassID    uint         `gorm:"not null;index:idx_attendance_class_date" json:"classId"`
	Date       time.Time    `gorm:"not null;index:idx_attendance_class_date" json:"date"`
	IsPresent  bool         `gorm:"not null" json:"isPresent"`
	Attendance []Attendance `json:"Attendance"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// Attendance flags one student within a roll call according to its polarity.
type Attendance struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	AttendanceModeID uint    `gorm:"not null;index" json:"attendanceModeId"`
	StudentID        uint    `gorm:"not null;index" json:"studentId"`
	Student          Student `json:"student"`
}

// StudentIDs lists the ids of the flagged students.
func (m AttendanceMode) StudentIDs() []uint {
	ids := make([]uint, 0, len(m.Attendance))
	for _, row := range m.Attendance {
		ids = append(ids, row.StudentID)
	}
	return ids
}

// PolarityLabel returns "Present" or "Absent" for the stored polarity.
func PolarityLabel(isPresent bool) string {
	if isPresent {
		return "Present"
	}
	return "Absent"
}
