package dto

import (
	"time"

	"github.com/noah-isme/rollcall-api/internal/models"
)

// DateLayout is the calendar date format used in attendance payloads.
const DateLayout = "2006-01-02"

// AttendanceRecordRequest submits a roll call. When IsPresent is true the
// student ids are the present students, otherwise they are the absentees.
type AttendanceRecordRequest struct {
	ClassID    uint   `json:"classId" validate:"required"`
	Date       string `json:"date" validate:"required"`
	IsPresent  bool   `json:"isPresent"`
	StudentIDs []uint `json:"studentId" validate:"omitempty,dive,required"`
}

// AttendanceRecordResponse describes the stored roll call.
type AttendanceRecordResponse struct {
	AttendanceModeID uint   `json:"attendanceModeId"`
	Mode             string `json:"mode"`
	Count            int    `json:"count"`
	Date             string `json:"date"`
}

// AttendanceListResponse returns the raw roll calls of a class.
type AttendanceListResponse struct {
	Classes []models.AttendanceMode `json:"classes"`
}

// AttendanceStudentSummary is one student's attendance in a class.
type AttendanceStudentSummary struct {
	StudentID      uint    `json:"studentId"`
	RegisterNumber string  `json:"registerNumber"`
	Present        int     `json:"present"`
	Total          int     `json:"total"`
	Percentage     float64 `json:"percentage"`
	Status         string  `json:"status"`
}

// AttendanceSummaryResponse aggregates attendance for a class roster.
type AttendanceSummaryResponse struct {
	ClassID       uint                       `json:"classId"`
	TotalSessions int                        `json:"totalSessions"`
	Students      []AttendanceStudentSummary `json:"students"`
	CacheHit      bool                       `json:"cacheHit"`
}

// AttendanceRollCallStudent is one roster entry of a roll call.
type AttendanceRollCallStudent struct {
	ID             uint   `json:"id"`
	RegisterNumber string `json:"registerNumber"`
	IsIncharge     bool   `json:"isIncharge"`
	IsPresent      bool   `json:"isPresent"`
}

// AttendanceRollCallResponse is a reconstructed roll call.
type AttendanceRollCallResponse struct {
	AttendanceModeID uint                        `json:"attendanceModeId"`
	Present          int                         `json:"present"`
	Absent           int                         `json:"absent"`
	Students         []AttendanceRollCallStudent `json:"students"`
}

// AttendanceDateResponse lists the roll calls taken on one day.
type AttendanceDateResponse struct {
	Date     string                       `json:"date"`
	Sessions []AttendanceRollCallResponse `json:"sessions"`
}

// StudentSessionResponse is a student's presence in one roll call.
type StudentSessionResponse struct {
	AttendanceModeID uint      `json:"attendanceModeId"`
	Date             time.Time `json:"date"`
	IsPresent        bool      `json:"isPresent"`
}

// StudentClassAttendance is a student's attendance record in one class.
type StudentClassAttendance struct {
	ClassID    uint                     `json:"classId"`
	ClassName  string                   `json:"className"`
	Sessions   []StudentSessionResponse `json:"sessions"`
	Present    int                      `json:"present"`
	Total      int                      `json:"total"`
	Percentage float64                  `json:"percentage"`
	Status     string                   `json:"status"`
}

// StudentAttendanceResponse lists a student's attendance across classes.
type StudentAttendanceResponse struct {
	StudentID uint                     `json:"studentId"`
	Classes   []StudentClassAttendance `json:"class"`
}
