// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/lessonbook/internal/models"
	"github.com/mmynk/lessonbook/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// repo implements storage.Repository on top of a querier.
type repo struct {
	q querier
}

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	*repo
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories, runs migrations and seeds the package
// catalogue automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Transactions take the write lock up front so two writers never both
	// read a stale attendance row and then race on the upgrade.
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite has a single writer; one connection keeps transactions serialized.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	store := &SQLiteStore{repo: &repo{q: db}, db: db}
	if err := storage.SeedPackages(context.Background(), store); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed packages: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside a transaction.
func (s *SQLiteStore) WithTx(ctx context.Context, fn func(tx storage.Repository) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&repo{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const studentColumns = `id, first_name, last_name, phone, teacher_id, time_slot_id, package_id,
	package_code, package_price, remaining_lessons, debt, needs_book, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner) (*models.Student, error) {
	student := &models.Student{}
	var phone, timeSlotID, packageID, packageCode sql.NullString
	var remaining sql.NullInt64
	var needsBook int

	err := row.Scan(&student.ID, &student.FirstName, &student.LastName, &phone, &student.TeacherID,
		&timeSlotID, &packageID, &packageCode, &student.PackagePrice, &remaining, &student.Debt,
		&needsBook, &student.CreatedAt, &student.UpdatedAt)
	if err != nil {
		return nil, err
	}

	student.Phone = phone.String
	student.TimeSlotID = timeSlotID.String
	student.PackageID = packageID.String
	student.PackageCode = packageCode.String
	if remaining.Valid {
		student.RemainingLessons = models.IntPtr(int(remaining.Int64))
	}
	student.NeedsBook = needsBook != 0

	return student, nil
}

// CreateStudent persists a new student to the database.
func (r *repo) CreateStudent(ctx context.Context, student *models.Student) error {
	// Generate ID if not set
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

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO students (`+studentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		student.ID, student.FirstName, student.LastName, nullString(student.Phone), student.TeacherID,
		nullString(student.TimeSlotID), nullString(student.PackageID), nullString(student.PackageCode),
		int64(student.PackagePrice), nullInt(student.RemainingLessons), int64(student.Debt), boolInt(student.NeedsBook),
		student.CreatedAt, student.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert student: %w", err)
	}

	return nil
}

// GetStudent retrieves a student by ID.
func (r *repo) GetStudent(ctx context.Context, studentID string) (*models.Student, error) {
	student, err := scanStudent(r.q.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = ?`, studentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("student %s: %w", studentID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return student, nil
}

// GetStudentForUpdate retrieves a student by ID. Immediate transactions
// already hold the database write lock, so no row lock is needed.
func (r *repo) GetStudentForUpdate(ctx context.Context, studentID string) (*models.Student, error) {
	return r.GetStudent(ctx, studentID)
}

// UpdateStudent overwrites a student's mutable fields.
func (r *repo) UpdateStudent(ctx context.Context, student *models.Student) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE students SET first_name = ?, last_name = ?, phone = ?, teacher_id = ?, time_slot_id = ?,
		 package_id = ?, package_code = ?, package_price = ?, remaining_lessons = ?, debt = ?,
		 needs_book = ?, updated_at = ?
		 WHERE id = ?`,
		student.FirstName, student.LastName, nullString(student.Phone), student.TeacherID,
		nullString(student.TimeSlotID), nullString(student.PackageID), nullString(student.PackageCode),
		int64(student.PackagePrice), nullInt(student.RemainingLessons), int64(student.Debt), boolInt(student.NeedsBook),
		student.UpdatedAt, student.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("student %s: %w", student.ID, storage.ErrNotFound)
	}
	return nil
}

// ListStudentsByTeacher returns a teacher's roster.
func (r *repo) ListStudentsByTeacher(ctx context.Context, teacherID string) ([]*models.Student, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE teacher_id = ? ORDER BY last_name, first_name`,
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
	return *p
}

func nullUnix(ts int64) any {
	if ts == 0 {
		return nil
	}
	return ts
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
