package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/lessonbook/internal/events"
	"github.com/mmynk/lessonbook/internal/models"
	"github.com/mmynk/lessonbook/internal/storage"
)

// EnrollRequest describes a new student. PackageCode takes precedence over
// CoarseType; with neither the student starts without a package.
type EnrollRequest struct {
	FirstName  string
	LastName   string
	Phone      string
	TeacherID  string
	TimeSlotID string
	NeedsBook  bool

	PackageCode string
	CoarseType  models.CoarsePackageType

	InitialPayment models.Money
	PaymentNote    string
	Recorder       string
}

// Enrollment creates students and (re)assigns their packages.
type Enrollment struct {
	env      *env
	packages *PackageResolver
	debts    *DebtLedger
}

// Enroll creates a student, assigns the requested package and records the
// initial payment, all in one transaction.
func (e *Enrollment) Enroll(ctx context.Context, req EnrollRequest) (*models.Student, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	switch {
	case req.FirstName == "" || req.LastName == "":
		return nil, fmt.Errorf("%w: first and last name are required", ErrInvalidInput)
	case req.TeacherID == "":
		return nil, fmt.Errorf("%w: teacher is required", ErrInvalidInput)
	case req.InitialPayment < 0:
		return nil, fmt.Errorf("%w: initial payment %s", ErrInvalidAmount, req.InitialPayment)
	}

	var student *models.Student
	var pkg *models.LessonPackage
	err := e.env.withTx(ctx, func(tx storage.Repository) error {
		teacher, err := tx.GetUserByID(ctx, req.TeacherID)
		if err != nil {
			return err
		}
		if teacher == nil || teacher.Role != models.RoleTeacher {
			return fmt.Errorf("%w: %s", ErrTeacherNotFound, req.TeacherID)
		}

		pkg, err = e.resolve(ctx, tx, req.PackageCode, req.CoarseType)
		if err != nil {
			return err
		}

		now := e.env.now().Unix()
		student = &models.Student{
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			Phone:      strings.TrimSpace(req.Phone),
			TeacherID:  req.TeacherID,
			TimeSlotID: req.TimeSlotID,
			NeedsBook:  req.NeedsBook,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if pkg != nil {
			e.packages.Assign(student, pkg)
			student.Debt = e.debts.InitialDebt(pkg.Price, req.InitialPayment)
		}
		if err := tx.CreateStudent(ctx, student); err != nil {
			return err
		}

		return e.recordInitialPayment(ctx, tx, student.ID, req.InitialPayment, req.PaymentNote, req.Recorder)
	})
	if err != nil {
		return nil, err
	}

	if pkg != nil {
		e.publishAssigned(ctx, student)
	}
	return student, nil
}

// AssignPackage switches a student to the package with code. The unpaid
// part of the new price is added to the existing debt and the lesson
// balance is reset to the package's count.
func (e *Enrollment) AssignPackage(ctx context.Context, studentID, packageCode string, initialPayment models.Money, note, recorder string) (*models.Student, error) {
	if strings.TrimSpace(packageCode) == "" {
		return nil, fmt.Errorf("%w: package code is required", ErrInvalidInput)
	}
	if initialPayment < 0 {
		return nil, fmt.Errorf("%w: initial payment %s", ErrInvalidAmount, initialPayment)
	}

	var student *models.Student
	err := e.env.withTx(ctx, func(tx storage.Repository) error {
		var err error
		student, err = lockStudent(ctx, tx, studentID)
		if err != nil {
			return err
		}

		pkg, err := e.resolve(ctx, tx, packageCode, "")
		if err != nil {
			return err
		}

		e.debts.ApplyPackageChange(student, pkg, initialPayment)
		e.packages.Assign(student, pkg)
		if err := tx.UpdateStudent(ctx, student); err != nil {
			return err
		}

		return e.recordInitialPayment(ctx, tx, student.ID, initialPayment, note, recorder)
	})
	if err != nil {
		return nil, err
	}

	e.publishAssigned(ctx, student)
	return student, nil
}

func (e *Enrollment) resolve(ctx context.Context, tx storage.Repository, code string, coarse models.CoarsePackageType) (*models.LessonPackage, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return e.packages.ResolveForCoarseType(ctx, tx, coarse)
	}
	pkg, err := tx.GetPackageByCode(ctx, code)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, code)
	}
	return pkg, err
}

// recordInitialPayment appends the payment made together with a package.
// It does not touch the debt, which already accounts for it.
func (e *Enrollment) recordInitialPayment(ctx context.Context, tx storage.Repository, studentID string, amount models.Money, note, recorder string) error {
	if !amount.IsPositive() {
		return nil
	}
	return tx.CreatePayment(ctx, &models.Payment{
		StudentID: studentID,
		Amount:    amount,
		PaidAt:    e.env.now().Unix(),
		PaidBy:    recorder,
		Note:      note,
	})
}

func (e *Enrollment) publishAssigned(ctx context.Context, student *models.Student) {
	e.env.publish(ctx, events.PackageAssigned{
		StudentID:   student.ID,
		PackageCode: student.PackageCode,
		Price:       int64(student.PackagePrice),
		Remaining:   student.RemainingLessons,
		Debt:        int64(student.Debt),
	})
}
