package attendance

import (
	"math"
	"time"
)

// Status buckets an attendance percentage for presentation.
type Status string

// Attendance statuses.
const (
	StatusGood     Status = "good"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

const (
	goodThreshold    = 75.0
	warningThreshold = 70.0
)

// Session is a stored roll call as read back from persistence.
type Session struct {
	ID         uint
	Date       time.Time
	IsPresent  bool
	StudentIDs []uint
}

// Present applies the inverse-polarity rule: a student is present when listed
// in a present-list session or missing from an absent-list session.
func (s Session) Present(studentID uint) bool {
	listed := false
	for _, id := range s.StudentIDs {
		if id == studentID {
			listed = true
			break
		}
	}
	return listed == s.IsPresent
}

// Summary is the aggregate attendance of one student.
type Summary struct {
	StudentID  uint
	Present    int
	Total      int
	Percentage float64
	Status     Status
}

// Summarize counts, for every roster student, the sessions they attended.
// Results follow roster order.
func Summarize(sessions []Session, roster []uint) []Summary {
	total := len(sessions)
	lookups := make([]map[uint]struct{}, len(sessions))
	for i, session := range sessions {
		lookups[i] = toSet(session.StudentIDs)
	}

	summaries := make([]Summary, 0, len(roster))
	for _, studentID := range roster {
		present := 0
		for i, session := range sessions {
			_, listed := lookups[i][studentID]
			if listed == session.IsPresent {
				present++
			}
		}

		pct := Percentage(present, total)
		summaries = append(summaries, Summary{
			StudentID:  studentID,
			Present:    present,
			Total:      total,
			Percentage: pct,
			Status:     Classify(pct),
		})
	}

	return summaries
}

// Percentage returns present/total*100 rounded to two decimals, or 0 when no
// session has been taken.
func Percentage(present, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(present)/float64(total)*10000) / 100
}

// Classify maps a percentage to its presentation status.
func Classify(pct float64) Status {
	switch {
	case pct >= goodThreshold:
		return StatusGood
	case pct >= warningThreshold:
		return StatusWarning
	default:
		return StatusCritical
	}
}

// Entry is one roster student's presence in a roll call.
type Entry struct {
	StudentID uint
	Present   bool
}

// RollCall is a reconstructed roll call for display.
type RollCall struct {
	SessionID    uint
	Date         time.Time
	Entries      []Entry
	PresentCount int
	AbsentCount  int
}

// OnDay keeps the sessions recorded on the given UTC calendar day.
func OnDay(sessions []Session, day time.Time) []Session {
	filtered := make([]Session, 0)
	for _, session := range sessions {
		if SameDay(session.Date, day) {
			filtered = append(filtered, session)
		}
	}
	return filtered
}

// RollCallsOn rebuilds every roll call taken on day for the given roster.
func RollCallsOn(sessions []Session, roster []uint, day time.Time) []RollCall {
	matching := OnDay(sessions, day)
	calls := make([]RollCall, 0, len(matching))
	for _, session := range matching {
		call := RollCall{
			SessionID: session.ID,
			Date:      TruncateDay(session.Date),
			Entries:   make([]Entry, 0, len(roster)),
		}
		for _, studentID := range roster {
			present := session.Present(studentID)
			if present {
				call.PresentCount++
			} else {
				call.AbsentCount++
			}
			call.Entries = append(call.Entries, Entry{StudentID: studentID, Present: present})
		}
		calls = append(calls, call)
	}
	return calls
}
