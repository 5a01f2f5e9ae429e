package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mmynk/lessonbook/internal/models"
	"github.com/mmynk/lessonbook/internal/storage"
)

// GetAttendance retrieves the record for a student on a day.
func (r *repo) GetAttendance(ctx context.Context, studentID string, day time.Time) (*models.AttendanceRecord, error) {
	record := &models.AttendanceRecord{}
	var lessonDate string
	var checkin sql.NullInt64

	err := r.q.QueryRowContext(ctx,
		`SELECT id, student_id, lesson_date, status, marked_by, marked_at, checkin_at
		 FROM attendance WHERE student_id = ? AND lesson_date = ?`,
		studentID, models.FormatDay(day),
	).Scan(&record.ID, &record.StudentID, &lessonDate, &record.Status, &record.MarkedBy, &record.MarkedAt, &checkin)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}

	record.LessonDate, err = models.ParseDay(lessonDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse lesson date: %w", err)
	}
	record.CheckinAt = checkin.Int64

	return record, nil
}

// InsertAttendance creates a record unless one already exists for the
// student and day, in which case ErrConflict is returned and nothing changes.
func (r *repo) InsertAttendance(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	res, err := r.q.ExecContext(ctx,
		`INSERT INTO attendance (id, student_id, lesson_date, status, marked_by, marked_at, checkin_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (student_id, lesson_date) DO NOTHING`,
		record.ID, record.StudentID, models.FormatDay(record.LessonDate), string(record.Status),
		record.MarkedBy, record.MarkedAt, nullUnix(record.CheckinAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert attendance: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check inserted attendance: %w", err)
	}
	if n == 0 {
		return storage.ErrConflict
	}
	return nil
}

// UpdateAttendance overwrites an existing record if its status is still expected.
func (r *repo) UpdateAttendance(ctx context.Context, record *models.AttendanceRecord, expected models.AttendanceStatus) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE attendance SET status = ?, marked_by = ?, marked_at = ?, checkin_at = ?
		 WHERE student_id = ? AND lesson_date = ? AND status = ?`,
		string(record.Status), record.MarkedBy, record.MarkedAt, nullUnix(record.CheckinAt),
		record.StudentID, models.FormatDay(record.LessonDate), string(expected),
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated attendance: %w", err)
	}
	if n == 0 {
		return storage.ErrConflict
	}
	return nil
}

// CountAttendanceByStatus counts a student's records per status within [from, to].
func (r *repo) CountAttendanceByStatus(ctx context.Context, studentID string, from, to time.Time) (map[models.AttendanceStatus]int, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM attendance
		 WHERE student_id = ? AND lesson_date >= ? AND lesson_date <= ?
		 GROUP BY status`,
		studentID, models.FormatDay(from), models.FormatDay(to),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count attendance: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.AttendanceStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan attendance count: %w", err)
		}
		counts[models.AttendanceStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance counts: %w", err)
	}

	return counts, nil
}
