// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/lessonbook/internal/models"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("storage: not found")

	// ErrConflict is returned when a conditional write lost a race with a
	// concurrent writer (for example two inserts for the same student and
	// day). Callers retry the surrounding transaction.
	ErrConflict = errors.New("storage: conflict")
)

// Repository is the set of persistence operations the ledger needs.
// It is implemented both by a Store and by the transaction handle passed to
// Store.WithTx, so the same code runs inside or outside a transaction.
type Repository interface {
	// CreateStudent persists a new student. ID, CreatedAt and UpdatedAt are
	// populated when empty.
	CreateStudent(ctx context.Context, student *models.Student) error

	// GetStudent retrieves a student by ID. Returns ErrNotFound if missing.
	GetStudent(ctx context.Context, studentID string) (*models.Student, error)

	// GetStudentForUpdate is GetStudent that also locks the row for the rest
	// of the transaction where the backend supports it.
	GetStudentForUpdate(ctx context.Context, studentID string) (*models.Student, error)

	// UpdateStudent overwrites a student's mutable fields.
	UpdateStudent(ctx context.Context, student *models.Student) error

	// ListStudentsByTeacher returns the roster of a teacher ordered by last name.
	ListStudentsByTeacher(ctx context.Context, teacherID string) ([]*models.Student, error)

	// GetAttendance retrieves the record for a student and day.
	// Returns ErrNotFound if none exists.
	GetAttendance(ctx context.Context, studentID string, day time.Time) (*models.AttendanceRecord, error)

	// InsertAttendance creates a record. Returns ErrConflict if a record for
	// the same student and day already exists.
	InsertAttendance(ctx context.Context, record *models.AttendanceRecord) error

	// UpdateAttendance overwrites status, marker and timestamps of an existing
	// record, provided its stored status still equals expected. Returns
	// ErrConflict otherwise.
	UpdateAttendance(ctx context.Context, record *models.AttendanceRecord, expected models.AttendanceStatus) error

	// CountAttendanceByStatus counts a student's records per status with
	// from <= lesson_date <= to.
	CountAttendanceByStatus(ctx context.Context, studentID string, from, to time.Time) (map[models.AttendanceStatus]int, error)

	// CreatePayment appends a payment. ID and PaidAt are populated when empty.
	CreatePayment(ctx context.Context, payment *models.Payment) error

	// ListPaymentsByStudent returns a student's payments, most recent first.
	ListPaymentsByStudent(ctx context.Context, studentID string) ([]*models.Payment, error)

	// GetPackageByCode retrieves a catalogue package. Returns ErrNotFound if missing.
	GetPackageByCode(ctx context.Context, code string) (*models.LessonPackage, error)

	// FindPackageByCodePrefix returns the first package (by code) whose code
	// starts with prefix. Returns ErrNotFound if none matches.
	FindPackageByCodePrefix(ctx context.Context, prefix string) (*models.LessonPackage, error)

	// ListPackages returns the catalogue ordered by code.
	ListPackages(ctx context.Context) ([]*models.LessonPackage, error)

	// EnsurePackage inserts a package unless one with the same code exists.
	EnsurePackage(ctx context.Context, pkg *models.LessonPackage) error

	// CreateUser inserts a new staff account.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByUsername retrieves a user. Returns nil, nil if not found.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUserByID retrieves a user. Returns nil, nil if not found.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Store defines the storage backend used by the services.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the ledger or service layer.
type Store interface {
	Repository

	// WithTx runs fn inside one transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Repository) error) error

	// Close releases any resources held by the store.
	Close() error
}

// DefaultPackages is the catalogue every new database starts with.
// Prices are in the smallest currency unit.
func DefaultPackages() []*models.LessonPackage {
	return []*models.LessonPackage{
		{Code: "LESSONS_12_MWF", Title: "12 lessons (Mon/Wed/Fri)", Price: 340000, ScheduleCode: "MWF", LessonsCount: models.IntPtr(12)},
		{Code: "LESSONS_12_TTS", Title: "12 lessons (Tue/Thu/Sat)", Price: 300000, ScheduleCode: "TTS", LessonsCount: models.IntPtr(12)},
		{Code: "LESSONS_6_MON_SAT", Title: "6 lessons/week (Mon-Sat)", Price: 540000, ScheduleCode: "MON_SAT", LessonsCount: models.IntPtr(24)},
		{Code: "LESSONS_24", Title: "24 lessons", Price: 540000, ScheduleCode: "CUSTOM", LessonsCount: models.IntPtr(24)},
	}
}

// SeedPackages makes sure the default catalogue exists.
func SeedPackages(ctx context.Context, repo Repository) error {
	for _, pkg := range DefaultPackages() {
		if err := repo.EnsurePackage(ctx, pkg); err != nil {
			return err
		}
	}
	return nil
}
