package ledger

import (
	"context"
	"fmt"

	"github.com/mmynk/lessonbook/internal/calculator"
	"github.com/mmynk/lessonbook/internal/events"
	"github.com/mmynk/lessonbook/internal/models"
	"github.com/mmynk/lessonbook/internal/storage"
)

// DebtLedger owns Student.Debt and the payment history.
type DebtLedger struct {
	env *env
}

// PaymentResult is the outcome of ApplyPayment.
type PaymentResult struct {
	Payment       *models.Payment
	NewDebt       models.Money
	AppliedAmount models.Money
}

// InitialDebt is the debt of a freshly assigned package.
func (d *DebtLedger) InitialDebt(price, initialPayment models.Money) models.Money {
	return calculator.InitialDebt(price, initialPayment)
}

// ApplyPackageChange adds the unpaid part of pkg to the student's debt.
// The caller persists the student.
func (d *DebtLedger) ApplyPackageChange(student *models.Student, pkg *models.LessonPackage, initialPayment models.Money) {
	student.Debt = calculator.PackageChangeDebt(student.Debt, pkg.Price, initialPayment)
	d.env.stamp(student)
}

// ApplyPayment records a payment and reduces the debt, never below zero.
// The full amount is recorded even when it exceeds the debt.
func (d *DebtLedger) ApplyPayment(ctx context.Context, studentID string, amount models.Money, recorder, note string) (*PaymentResult, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}

	var result *PaymentResult
	err := d.env.withTx(ctx, func(tx storage.Repository) error {
		student, err := lockStudent(ctx, tx, studentID)
		if err != nil {
			return err
		}

		payment, err := d.record(ctx, tx, student, amount, recorder, note)
		if err != nil {
			return err
		}
		result = &PaymentResult{Payment: payment, NewDebt: student.Debt, AppliedAmount: amount}
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.env.publish(ctx, events.PaymentApplied{
		PaymentID: result.Payment.ID,
		StudentID: studentID,
		Amount:    int64(amount),
		NewDebt:   int64(result.NewDebt),
		PaidBy:    recorder,
		PaidAt:    result.Payment.PaidAt,
	})
	return result, nil
}

// record appends a payment and lowers the student's debt inside tx.
func (d *DebtLedger) record(ctx context.Context, tx storage.Repository, student *models.Student, amount models.Money, recorder, note string) (*models.Payment, error) {
	payment := &models.Payment{
		StudentID: student.ID,
		Amount:    amount,
		PaidAt:    d.env.now().Unix(),
		PaidBy:    recorder,
		Note:      note,
	}
	if err := tx.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}

	student.Debt = calculator.PaymentDebt(student.Debt, amount)
	d.env.stamp(student)
	if err := tx.UpdateStudent(ctx, student); err != nil {
		return nil, err
	}
	return payment, nil
}

// History returns a student's payments, most recent first.
func (d *DebtLedger) History(ctx context.Context, studentID string) ([]*models.Payment, error) {
	if _, err := loadStudent(ctx, d.env.store, studentID); err != nil {
		return nil, err
	}
	return d.env.store.ListPaymentsByStudent(ctx, studentID)
}
