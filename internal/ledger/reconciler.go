package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmynk/lessonbook/internal/models"
	"github.com/mmynk/lessonbook/internal/storage"
)

// Entry is one line of a teacher's day submission. Status may be empty
// when the line only carries an extra-lessons adjustment.
type Entry struct {
	StudentID    string
	Status       string
	ExtraLessons int
}

// EntryResult is the outcome for one Entry. Applied with a non-empty
// ErrorCode means the status was saved but the extra lessons were not.
type EntryResult struct {
	StudentID    string
	Applied      bool
	Status       models.AttendanceStatus
	NewRemaining *int
	ErrorCode    string
}

// DayResult is the outcome of ReconcileDay.
type DayResult struct {
	// Success is false when at least one entry failed.
	Success bool
	Date    time.Time
	Results []EntryResult

	// AutoFilled lists roster members that received the default status.
	AutoFilled []string

	// FillFailures lists roster members whose default status could not be
	// written.
	FillFailures []EntryResult
}

// Reconciler applies a teacher's full-day submission.
type Reconciler struct {
	env        *env
	attendance *AttendanceLedger
	lessons    *LessonTracker
}

// ReconcileDay applies entries for date on behalf of markerID.
//
// Entries are processed independently: a failing entry is reported in its
// result and the rest still apply. Roster members without a valid status
// entry get the default status unless they already have a record for the
// day. Extra lessons are applied last. Storage failures past the first
// committed entry are reported in the result rather than returned.
func (r *Reconciler) ReconcileDay(ctx context.Context, markerID string, date time.Time, entries []Entry) (*DayResult, error) {
	day := models.Day(date)
	if day.Before(r.env.minDate) {
		return nil, &DateTooEarlyError{Date: day, Floor: r.env.minDate}
	}
	if markerID == "" {
		return nil, fmt.Errorf("%w: marker is required", ErrInvalidInput)
	}

	result := &DayResult{Success: true, Date: day, Results: make([]EntryResult, len(entries))}
	submitted := make(map[string]bool, len(entries))
	failed := make([]bool, len(entries))

	fail := func(i int, err error) {
		result.Results[i].ErrorCode = ErrorCode(err)
		result.Results[i].Applied = false
		result.Success = false
		failed[i] = true
		if result.Results[i].ErrorCode == CodeInternal {
			slog.Error("Failed to reconcile entry", "student_id", entries[i].StudentID, "date", models.FormatDay(day), "error", err)
		}
	}

	// Explicit statuses.
	for i, entry := range entries {
		result.Results[i].StudentID = entry.StudentID
		if strings.TrimSpace(entry.Status) == "" {
			continue
		}

		status, err := models.ParseStatus(entry.Status)
		if err != nil {
			fail(i, fmt.Errorf("%w: %v", ErrInvalidStatus, err))
			continue
		}
		submitted[entry.StudentID] = true

		_, student, err := r.attendance.recordStatus(ctx, entry.StudentID, day, status, markerID, markerID)
		if err != nil {
			fail(i, err)
			continue
		}
		result.Results[i].Applied = true
		result.Results[i].Status = status
		result.Results[i].NewRemaining = student.RemainingLessons
	}

	// Default status for everyone else on the roster.
	// Statuses above are already committed, so a roster failure only
	// skips the auto-fill.
	roster, err := r.env.store.ListStudentsByTeacher(ctx, markerID)
	if err != nil {
		slog.Error("Failed to load roster", "marker_id", markerID, "error", err)
		result.Success = false
	}
	for _, student := range roster {
		if submitted[student.ID] {
			continue
		}
		created, err := r.attendance.fillDefault(ctx, student.ID, day, markerID)
		if err != nil {
			slog.Error("Failed to fill default status", "student_id", student.ID, "date", models.FormatDay(day), "error", err)
			result.FillFailures = append(result.FillFailures, EntryResult{StudentID: student.ID, ErrorCode: ErrorCode(err)})
			result.Success = false
			continue
		}
		if created {
			result.AutoFilled = append(result.AutoFilled, student.ID)
		}
	}

	// Manual extra lessons.
	for i, entry := range entries {
		if entry.ExtraLessons == 0 || failed[i] {
			continue
		}
		remaining, err := r.adjust(ctx, markerID, entry.StudentID, entry.ExtraLessons)
		if err != nil {
			// A saved status stays reported as applied.
			applied := result.Results[i].Applied
			fail(i, err)
			result.Results[i].Applied = applied
			continue
		}
		result.Results[i].Applied = true
		result.Results[i].NewRemaining = models.IntPtr(remaining)
	}

	slog.Info("Reconciled day",
		"marker_id", markerID,
		"date", models.FormatDay(day),
		"entries", len(entries),
		"auto_filled", len(result.AutoFilled),
		"success", result.Success,
	)
	return result, nil
}

func (r *Reconciler) adjust(ctx context.Context, markerID, studentID string, n int) (int, error) {
	var remaining int
	err := r.env.withTx(ctx, func(tx storage.Repository) error {
		student, err := lockStudent(ctx, tx, studentID)
		if err != nil {
			return err
		}
		if student.TeacherID != markerID {
			return fmt.Errorf("%w: %s", ErrNotYourStudent, studentID)
		}
		remaining, err = r.lessons.Adjust(ctx, tx, student, n)
		return err
	})
	return remaining, err
}
