package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmynk/lessonbook/internal/models"
	"github.com/mmynk/lessonbook/internal/storage"
)

// GetAttendance retrieves the record for a student on a day.
func (r *repo) GetAttendance(ctx context.Context, studentID string, day time.Time) (*models.AttendanceRecord, error) {
	record := &models.AttendanceRecord{}
	var status string
	var checkin *int64

	err := r.q.QueryRow(ctx,
		`SELECT id, student_id, lesson_date, status, marked_by, marked_at, checkin_at
		 FROM attendance WHERE student_id = $1 AND lesson_date = $2`,
		studentID, models.Day(day),
	).Scan(&record.ID, &record.StudentID, &record.LessonDate, &status, &record.MarkedBy, &record.MarkedAt, &checkin)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}

	record.LessonDate = models.Day(record.LessonDate)
	record.Status = models.AttendanceStatus(status)
	if checkin != nil {
		record.CheckinAt = *checkin
	}
	return record, nil
}

// InsertAttendance creates a record unless one already exists for the
// student and day, in which case ErrConflict is returned and nothing changes.
func (r *repo) InsertAttendance(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	tag, err := r.q.Exec(ctx,
		`INSERT INTO attendance (id, student_id, lesson_date, status, marked_by, marked_at, checkin_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (student_id, lesson_date) DO NOTHING`,
		record.ID, record.StudentID, models.Day(record.LessonDate), string(record.Status),
		record.MarkedBy, record.MarkedAt, nullUnix(record.CheckinAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrConflict
	}
	return nil
}

// UpdateAttendance overwrites an existing record if its status is still expected.
func (r *repo) UpdateAttendance(ctx context.Context, record *models.AttendanceRecord, expected models.AttendanceStatus) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE attendance SET status = $1, marked_by = $2, marked_at = $3, checkin_at = $4
		 WHERE student_id = $5 AND lesson_date = $6 AND status = $7`,
		string(record.Status), record.MarkedBy, record.MarkedAt, nullUnix(record.CheckinAt),
		record.StudentID, models.Day(record.LessonDate), string(expected),
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrConflict
	}
	return nil
}

// CountAttendanceByStatus counts a student's records per status within [from, to].
func (r *repo) CountAttendanceByStatus(ctx context.Context, studentID string, from, to time.Time) (map[models.AttendanceStatus]int, error) {
	rows, err := r.q.Query(ctx,
		`SELECT status, COUNT(*) FROM attendance
		 WHERE student_id = $1 AND lesson_date BETWEEN $2 AND $3
		 GROUP BY status`,
		studentID, models.Day(from), models.Day(to),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count attendance: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.AttendanceStatus]int)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan attendance count: %w", err)
		}
		counts[models.AttendanceStatus(status)] = int(count)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance counts: %w", err)
	}
	return counts, nil
}
