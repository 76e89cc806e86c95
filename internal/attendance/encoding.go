// Package attendance holds the roll-call encoding and the rules that rebuild
// per-student presence from it.
//
// A roll call is stored as a polarity flag plus an explicit list of students.
// When the flag is true the list names the students who were present; when it
// is false it names the absentees. Encode always picks the shorter list.
package attendance

import (
	"sort"
	"time"
)

// Encoding is the compact form of one roll call.
type Encoding struct {
	IsPresent  bool
	StudentIDs []uint
}

// Count is the number of explicit rows the encoding produces.
func (e Encoding) Count() int {
	return len(e.StudentIDs)
}

// Encode chooses the minimal polarity for a roll call. Present ids that are
// not on the roster are dropped. The returned ids are sorted and unique.
func Encode(present, roster []uint) Encoding {
	rosterSet := toSet(roster)
	if len(rosterSet) == 0 {
		return Encoding{IsPresent: true, StudentIDs: []uint{}}
	}

	presentSet := make(map[uint]struct{}, len(present))
	for _, id := range present {
		if _, ok := rosterSet[id]; ok {
			presentSet[id] = struct{}{}
		}
	}

	absent := make([]uint, 0, len(rosterSet)-len(presentSet))
	for id := range rosterSet {
		if _, ok := presentSet[id]; !ok {
			absent = append(absent, id)
		}
	}

	if len(presentSet) < len(absent) {
		return Encoding{IsPresent: true, StudentIDs: sortedKeys(presentSet)}
	}

	sortIDs(absent)
	return Encoding{IsPresent: false, StudentIDs: absent}
}

// PresentFromSubmission turns a raw submission into the set of present
// students. When isPresent is true the listed ids are the present students;
// otherwise they are the absentees and everyone else on the roster is present.
func PresentFromSubmission(listed []uint, isPresent bool, roster []uint) []uint {
	if isPresent {
		return filterToRoster(listed, roster)
	}

	absent := toSet(listed)
	present := make([]uint, 0, len(roster))
	for id := range toSet(roster) {
		if _, ok := absent[id]; !ok {
			present = append(present, id)
		}
	}
	sortIDs(present)
	return present
}

// TruncateDay returns midnight UTC of the calendar day t falls on in UTC.
func TruncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return TruncateDay(a).Equal(TruncateDay(b))
}

func filterToRoster(ids, roster []uint) []uint {
	rosterSet := toSet(roster)
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := rosterSet[id]; ok {
			seen[id] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

func toSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func sortedKeys(set map[uint]struct{}) []uint {
	ids := make([]uint, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

func sortIDs(ids []uint) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
