package ledger

import (
	"context"

	"github.com/mmynk/lessonbook/internal/calculator"
	"github.com/mmynk/lessonbook/internal/models"
	"github.com/mmynk/lessonbook/internal/storage"
)

// LessonTracker owns Student.RemainingLessons.
//
// Attendance-driven changes use the clamped policy (never below zero,
// untracked balances untouched). Manual adjustments use Adjust, which may
// drive the balance negative.
type LessonTracker struct {
	env *env
}

// Decrement consumes one lesson and persists the student.
func (t *LessonTracker) Decrement(ctx context.Context, tx storage.Repository, student *models.Student) error {
	return t.apply(ctx, tx, student, calculator.DeltaConsume)
}

// Increment restores one lesson and persists the student.
func (t *LessonTracker) Increment(ctx context.Context, tx storage.Repository, student *models.Student) error {
	return t.apply(ctx, tx, student, calculator.DeltaRestore)
}

func (t *LessonTracker) apply(ctx context.Context, tx storage.Repository, student *models.Student, delta calculator.BalanceDelta) error {
	if delta == calculator.DeltaNone || !student.Tracked() {
		return nil
	}
	student.RemainingLessons = delta.Apply(student.RemainingLessons)
	t.env.stamp(student)
	return tx.UpdateStudent(ctx, student)
}

// Adjust subtracts n lessons without clamping and persists the student.
// Negative n adds lessons.
func (t *LessonTracker) Adjust(ctx context.Context, tx storage.Repository, student *models.Student, n int) (int, error) {
	next, ok := calculator.AdjustUnclamped(student.RemainingLessons, n)
	if !ok {
		return 0, ErrNotTracked
	}
	student.RemainingLessons = models.IntPtr(next)
	t.env.stamp(student)
	if err := tx.UpdateStudent(ctx, student); err != nil {
		return 0, err
	}
	return next, nil
}

// ConsumeLesson manually consumes one lesson, clamped at zero. It returns
// the new balance, which is nil for untracked students.
func (t *LessonTracker) ConsumeLesson(ctx context.Context, studentID string) (*int, error) {
	var remaining *int
	err := t.env.withTx(ctx, func(tx storage.Repository) error {
		student, err := lockStudent(ctx, tx, studentID)
		if err != nil {
			return err
		}
		if err := t.Decrement(ctx, tx, student); err != nil {
			return err
		}
		remaining = student.RemainingLessons
		return nil
	})
	if err != nil {
		return nil, err
	}
	return remaining, nil
}
