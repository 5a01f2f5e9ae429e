package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/lessonbook/internal/models"
)

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrTeacherNotFound = errors.New("teacher not found")
	ErrPackageNotFound = errors.New("package not found")
	ErrInvalidStatus   = errors.New("invalid attendance status")
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotYourStudent  = errors.New("student belongs to another teacher")

	// ErrNotTracked is returned by unclamped adjustments on a student whose
	// lesson balance is untracked.
	ErrNotTracked = errors.New("remaining lessons not tracked")
)

// DateTooEarlyError rejects a reconciliation for a day before the
// configured floor.
type DateTooEarlyError struct {
	Date  time.Time
	Floor time.Time
}

func (e *DateTooEarlyError) Error() string {
	return fmt.Sprintf("date %s is before the minimum allowed date %s",
		models.FormatDay(e.Date), models.FormatDay(e.Floor))
}

// Wire error codes.
const (
	CodeStudentNotFound = "student_not_found"
	CodeTeacherNotFound = "teacher_not_found"
	CodePackageNotFound = "package_not_found"
	CodeInvalidStatus   = "invalid_status"
	CodeInvalidAmount   = "invalid_amount"
	CodeInvalidInput    = "invalid_input"
	CodeNotYourStudent  = "not_your_student"
	CodeNotTracked      = "remaining_not_tracked"
	CodeDateTooEarly    = "date_too_early"
	CodeInternal        = "internal"
)

// ErrorCode maps err to its wire code. It returns "" for nil and
// CodeInternal for anything unrecognised.
func ErrorCode(err error) string {
	var tooEarly *DateTooEarlyError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &tooEarly):
		return CodeDateTooEarly
	case errors.Is(err, ErrStudentNotFound):
		return CodeStudentNotFound
	case errors.Is(err, ErrTeacherNotFound):
		return CodeTeacherNotFound
	case errors.Is(err, ErrPackageNotFound):
		return CodePackageNotFound
	case errors.Is(err, ErrInvalidStatus):
		return CodeInvalidStatus
	case errors.Is(err, ErrInvalidAmount):
		return CodeInvalidAmount
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrNotYourStudent):
		return CodeNotYourStudent
	case errors.Is(err, ErrNotTracked):
		return CodeNotTracked
	default:
		return CodeInternal
	}
}
