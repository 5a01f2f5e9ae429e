// Package postgres provides a PostgreSQL-backed implementation of the
// storage.Store interface using a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mmynk/lessonbook/internal/models"
	"github.com/mmynk/lessonbook/internal/storage"
)

// Ensure PostgresStore implements storage.Store
var _ storage.Store = (*PostgresStore)(nil)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// repo implements storage.Repository on top of a querier.
type repo struct {
	q querier
}

// PostgresStore implements storage.Store using PostgreSQL.
type PostgresStore struct {
	*repo
	pool *pgxpool.Pool
}

// New connects to the database at dsn, applies migrations and seeds the
// package catalogue.
func New(ctx context.Context, dsn string) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if poolConfig.MaxConns == 0 {
		poolConfig.MaxConns = 10
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	if err := runMigrations(poolConfig); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{repo: &repo{q: pool}, pool: pool}
	if err := storage.SeedPackages(ctx, store); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to seed packages: %w", err)
	}

	return store, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// WithTx runs fn inside a transaction.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx storage.Repository) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&repo{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const studentColumns = `id, first_name, last_name, phone, teacher_id, time_slot_id, package_id,
	package_code, package_price, remaining_lessons, debt, needs_book, created_at, updated_at`

func scanStudent(row pgx.Row) (*models.Student, error) {
	student := &models.Student{}
	var phone, timeSlotID, packageID, packageCode *string
	var remaining *int32
	var price, debt int64

	err := row.Scan(&student.ID, &student.FirstName, &student.LastName, &phone, &student.TeacherID,
		&timeSlotID, &packageID, &packageCode, &price, &remaining, &debt,
		&student.NeedsBook, &student.CreatedAt, &student.UpdatedAt)
	if err != nil {
		return nil, err
	}

	student.Phone = deref(phone)
	student.TimeSlotID = deref(timeSlotID)
	student.PackageID = deref(packageID)
	student.PackageCode = deref(packageCode)
	student.PackagePrice = models.Money(price)
	student.Debt = models.Money(debt)
	if remaining != nil {
		student.RemainingLessons = models.IntPtr(int(*remaining))
	}

	return student, nil
}

// CreateStudent persists a new student to the database.
func (r *repo) CreateStudent(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if student.CreatedAt == 0 {
		student.CreatedAt = now
	}
	if student.UpdatedAt == 0 {
		student.UpdatedAt = now
	}

	_, err := r.q.Exec(ctx,
		`INSERT INTO students (`+studentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		student.ID, student.FirstName, student.LastName, nullString(student.Phone), student.TeacherID,
		nullString(student.TimeSlotID), nullString(student.PackageID), nullString(student.PackageCode),
		int64(student.PackagePrice), nullInt(student.RemainingLessons), int64(student.Debt), student.NeedsBook,
		student.CreatedAt, student.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert student: %w", err)
	}
	return nil
}

// GetStudent retrieves a student by ID.
func (r *repo) GetStudent(ctx context.Context, studentID string) (*models.Student, error) {
	return r.getStudent(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, studentID)
}

// GetStudentForUpdate retrieves a student and locks its row until the
// surrounding transaction ends.
func (r *repo) GetStudentForUpdate(ctx context.Context, studentID string) (*models.Student, error) {
	return r.getStudent(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1 FOR UPDATE`, studentID)
}

func (r *repo) getStudent(ctx context.Context, query, studentID string) (*models.Student, error) {
	student, err := scanStudent(r.q.QueryRow(ctx, query, studentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("student %s: %w", studentID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return student, nil
}

// UpdateStudent overwrites a student's mutable fields.
func (r *repo) UpdateStudent(ctx context.Context, student *models.Student) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE students SET first_name = $1, last_name = $2, phone = $3, teacher_id = $4, time_slot_id = $5,
		 package_id = $6, package_code = $7, package_price = $8, remaining_lessons = $9, debt = $10,
		 needs_book = $11, updated_at = $12
		 WHERE id = $13`,
		student.FirstName, student.LastName, nullString(student.Phone), student.TeacherID,
		nullString(student.TimeSlotID), nullString(student.PackageID), nullString(student.PackageCode),
		int64(student.PackagePrice), nullInt(student.RemainingLessons), int64(student.Debt), student.NeedsBook,
		student.UpdatedAt, student.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("student %s: %w", student.ID, storage.ErrNotFound)
	}
	return nil
}

// ListStudentsByTeacher returns a teacher's roster.
func (r *repo) ListStudentsByTeacher(ctx context.Context, teacherID string) ([]*models.Student, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+studentColumns+` FROM students WHERE teacher_id = $1 ORDER BY last_name, first_name`,
		teacherID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list students by teacher: %w", err)
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate students: %w", err)
	}
	return students, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return int32(*p)
}

func nullUnix(ts int64) any {
	if ts == 0 {
		return nil
	}
	return ts
}
