// Package ledger is the attendance, lesson-balance and debt engine.
//
// Every operation that changes a student's balance or debt runs inside a
// single storage transaction together with the record that explains the
// change (attendance mark or payment), so the two never drift apart.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/lessonbook/internal/events"
	"github.com/mmynk/lessonbook/internal/models"
	"github.com/mmynk/lessonbook/internal/storage"
)

// maxTxAttempts bounds the retries of a transaction that lost a race on
// the attendance (student, day) key.
const maxTxAttempts = 3

// DefaultMinDate is the earliest day that can be reconciled unless
// configured otherwise.
var DefaultMinDate = time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)

// env is shared by all components of an Engine.
type env struct {
	store   storage.Store
	now     func() time.Time
	events  events.Publisher
	minDate time.Time
}

// Option configures an Engine.
type Option func(*env)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *env) { e.now = now }
}

// WithPublisher sets where ledger events are sent. Defaults to events.Nop.
func WithPublisher(p events.Publisher) Option {
	return func(e *env) { e.events = p }
}

// WithMinDate sets the reconciliation floor.
func WithMinDate(d time.Time) Option {
	return func(e *env) { e.minDate = models.Day(d) }
}

// Engine wires the ledger components over one store.
type Engine struct {
	Packages   *PackageResolver
	Lessons    *LessonTracker
	Debts      *DebtLedger
	Attendance *AttendanceLedger
	Reconciler *Reconciler
	Enrollment *Enrollment

	env *env
}

// New creates an Engine backed by store.
func New(store storage.Store, opts ...Option) *Engine {
	e := &env{
		store:   store,
		now:     time.Now,
		events:  events.Nop{},
		minDate: DefaultMinDate,
	}
	for _, opt := range opts {
		opt(e)
	}

	packages := &PackageResolver{env: e}
	lessons := &LessonTracker{env: e}
	debts := &DebtLedger{env: e}
	attendance := &AttendanceLedger{env: e, lessons: lessons}

	return &Engine{
		Packages:   packages,
		Lessons:    lessons,
		Debts:      debts,
		Attendance: attendance,
		Reconciler: &Reconciler{env: e, attendance: attendance, lessons: lessons},
		Enrollment: &Enrollment{env: e, packages: packages, debts: debts},
		env:        e,
	}
}

// MinDate returns the reconciliation floor.
func (e *Engine) MinDate() time.Time {
	return e.env.minDate
}

// CheckOwner loads a student and verifies that teacherID owns it.
func (e *Engine) CheckOwner(ctx context.Context, teacherID, studentID string) (*models.Student, error) {
	return loadOwned(ctx, e.env.store, teacherID, studentID)
}

// Student returns a student snapshot.
func (e *Engine) Student(ctx context.Context, studentID string) (*models.Student, error) {
	return loadStudent(ctx, e.env.store, studentID)
}

// withTx runs fn in a transaction, retrying when it lost a write race.
func (e *env) withTx(ctx context.Context, fn func(tx storage.Repository) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = e.store.WithTx(ctx, fn)
		if !errors.Is(err, storage.ErrConflict) {
			return err
		}
		slog.Debug("Retrying transaction after conflict", "attempt", attempt)
	}
	return fmt.Errorf("giving up after %d attempts: %w", maxTxAttempts, err)
}

func (e *env) publish(ctx context.Context, event events.Event) {
	if err := e.events.Publish(ctx, event); err != nil {
		slog.Warn("Failed to publish event", "key", event.RoutingKey(), "error", err)
	}
}

func (e *env) stamp(s *models.Student) {
	s.UpdatedAt = e.now().Unix()
}

func loadStudent(ctx context.Context, repo storage.Repository, studentID string) (*models.Student, error) {
	student, err := repo.GetStudent(ctx, studentID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrStudentNotFound, studentID)
	}
	return student, err
}

func lockStudent(ctx context.Context, repo storage.Repository, studentID string) (*models.Student, error) {
	student, err := repo.GetStudentForUpdate(ctx, studentID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrStudentNotFound, studentID)
	}
	return student, err
}

func loadOwned(ctx context.Context, repo storage.Repository, teacherID, studentID string) (*models.Student, error) {
	student, err := loadStudent(ctx, repo, studentID)
	if err != nil {
		return nil, err
	}
	if student.TeacherID != teacherID {
		return nil, fmt.Errorf("%w: %s", ErrNotYourStudent, studentID)
	}
	return student, nil
}
