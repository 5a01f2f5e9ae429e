package models

import (
	"fmt"
	"strings"
	"time"
)

// AttendanceStatus is the outcome recorded for a student on a lesson day.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "PRESENT"
	StatusLate    AttendanceStatus = "LATE"
	StatusAbsent  AttendanceStatus = "ABSENT"

	// StatusExcused is the placeholder used when a teacher did not mark a
	// student. It does not consume a lesson.
	StatusExcused AttendanceStatus = "EXCUSED"
)

// DefaultStatus is written for roster members that were not marked.
const DefaultStatus = StatusExcused

// AllStatuses lists every known status in display order.
var AllStatuses = []AttendanceStatus{StatusPresent, StatusLate, StatusAbsent, StatusExcused}

// ParseStatus converts a wire value into a known status.
func ParseStatus(s string) (AttendanceStatus, error) {
	status := AttendanceStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllStatuses {
		if status == known {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown attendance status %q", s)
}

// Consuming reports whether the status represents a lesson actually held,
// which is charged against the lesson balance. Unknown values are
// non-consuming.
func (s AttendanceStatus) Consuming() bool {
	switch s {
	case StatusPresent, StatusLate, StatusAbsent:
		return true
	}
	return false
}

// AttendanceRecord is the single attendance mark for a student on a day.
// Records are updated in place and never deleted.
type AttendanceRecord struct {
	// ID is the unique identifier for the record (UUID format).
	ID string

	// StudentID and LessonDate form the natural key; at most one record
	// exists per pair.
	StudentID  string
	LessonDate time.Time

	Status AttendanceStatus

	// MarkedBy is the user ID who last wrote the record.
	MarkedBy string

	// MarkedAt is the Unix timestamp of the last write.
	MarkedAt int64

	// CheckinAt is set (Unix timestamp) while the status is consuming and
	// 0 otherwise.
	CheckinAt int64
}

// DateLayout is the wire and storage format of lesson dates.
const DateLayout = time.DateOnly

// Day truncates t to its calendar day at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDay formats a lesson date as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return t.Format(DateLayout)
}
