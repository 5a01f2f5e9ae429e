package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/lessonbook/internal/calculator"
	"github.com/mmynk/lessonbook/internal/events"
	"github.com/mmynk/lessonbook/internal/models"
	"github.com/mmynk/lessonbook/internal/storage"
)

// AttendanceLedger owns attendance records, one per student and day.
type AttendanceLedger struct {
	env     *env
	lessons *LessonTracker
}

// MonthSummary counts a student's attendance in a month up to a day.
type MonthSummary struct {
	StudentID string
	From      time.Time
	To        time.Time
	Counts    map[models.AttendanceStatus]int
}

// Missed returns the number of absences.
func (m *MonthSummary) Missed() int {
	return m.Counts[models.StatusAbsent]
}

// RecordStatus writes the status of a student for a day and applies its
// effect on the lesson balance.
//
// Moving into a consuming status costs one lesson, moving out of one
// gives it back, and staying on the same side of the line leaves the
// balance alone. The record's marker, mark time and check-in are always
// refreshed.
func (a *AttendanceLedger) RecordStatus(ctx context.Context, studentID string, date time.Time, status models.AttendanceStatus, markerID string) (*models.AttendanceRecord, error) {
	record, _, err := a.recordStatus(ctx, studentID, date, status, markerID, "")
	return record, err
}

// recordStatus is RecordStatus that, when ownerID is set, also requires the
// locked student to belong to ownerID.
func (a *AttendanceLedger) recordStatus(ctx context.Context, studentID string, date time.Time, status models.AttendanceStatus, markerID, ownerID string) (*models.AttendanceRecord, *models.Student, error) {
	status, err := models.ParseStatus(string(status))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidStatus, err)
	}
	day := models.Day(date)

	var (
		record   *models.AttendanceRecord
		student  *models.Student
		previous models.AttendanceStatus
	)
	err = a.env.withTx(ctx, func(tx storage.Repository) error {
		var err error
		student, err = lockStudent(ctx, tx, studentID)
		if err != nil {
			return err
		}
		if ownerID != "" && student.TeacherID != ownerID {
			return fmt.Errorf("%w: %s", ErrNotYourStudent, studentID)
		}

		existing, err := tx.GetAttendance(ctx, studentID, day)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}

		now := a.env.now().Unix()
		record = &models.AttendanceRecord{
			StudentID:  studentID,
			LessonDate: day,
			Status:     status,
			MarkedBy:   markerID,
			MarkedAt:   now,
		}
		if status.Consuming() {
			record.CheckinAt = now
		}

		var delta calculator.BalanceDelta
		if existing == nil {
			previous = ""
			if err := tx.InsertAttendance(ctx, record); err != nil {
				return err
			}
			delta = calculator.TransitionDelta(false, false, status.Consuming())
		} else {
			previous = existing.Status
			record.ID = existing.ID
			if err := tx.UpdateAttendance(ctx, record, existing.Status); err != nil {
				return err
			}
			delta = calculator.TransitionDelta(true, existing.Status.Consuming(), status.Consuming())
		}

		return a.lessons.apply(ctx, tx, student, delta)
	})
	if err != nil {
		return nil, nil, err
	}

	a.env.publish(ctx, events.AttendanceRecorded{
		StudentID:      studentID,
		LessonDate:     models.FormatDay(day),
		Status:         string(status),
		PreviousStatus: string(previous),
		Remaining:      student.RemainingLessons,
		MarkedBy:       markerID,
		MarkedAt:       record.MarkedAt,
	})
	return record, student, nil
}

// fillDefault inserts the default status for a student and day unless a
// record already exists. It reports whether a record was created.
func (a *AttendanceLedger) fillDefault(ctx context.Context, studentID string, day time.Time, markerID string) (bool, error) {
	record := &models.AttendanceRecord{
		StudentID:  studentID,
		LessonDate: day,
		Status:     models.DefaultStatus,
		MarkedBy:   markerID,
		MarkedAt:   a.env.now().Unix(),
	}
	err := a.env.store.WithTx(ctx, func(tx storage.Repository) error {
		return tx.InsertAttendance(ctx, record)
	})
	if errors.Is(err, storage.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	a.env.publish(ctx, events.AttendanceRecorded{
		StudentID:  studentID,
		LessonDate: models.FormatDay(day),
		Status:     string(record.Status),
		MarkedBy:   markerID,
		MarkedAt:   record.MarkedAt,
	})
	return true, nil
}

// Get returns the record for a student and day, or nil when there is none.
func (a *AttendanceLedger) Get(ctx context.Context, studentID string, date time.Time) (*models.AttendanceRecord, error) {
	record, err := a.env.store.GetAttendance(ctx, studentID, models.Day(date))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// MonthlyCounts counts a student's records from the first of day's month
// through day.
func (a *AttendanceLedger) MonthlyCounts(ctx context.Context, studentID string, day time.Time) (*MonthSummary, error) {
	if _, err := loadStudent(ctx, a.env.store, studentID); err != nil {
		return nil, err
	}

	to := models.Day(day)
	from := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)
	counts, err := a.env.store.CountAttendanceByStatus(ctx, studentID, from, to)
	if err != nil {
		return nil, err
	}
	return &MonthSummary{StudentID: studentID, From: from, To: to, Counts: counts}, nil
}
