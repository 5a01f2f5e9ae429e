package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/lessonbook/internal/models"
)

// CreatePayment persists a new payment to the database.
func (r *repo) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.PaidAt == 0 {
		payment.PaidAt = time.Now().Unix()
	}

	_, err := r.q.Exec(ctx,
		`INSERT INTO payments (id, student_id, amount, paid_at, paid_by, note)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		payment.ID, payment.StudentID, int64(payment.Amount), payment.PaidAt, payment.PaidBy, nullString(payment.Note),
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// ListPaymentsByStudent retrieves all payments for a student, most recent first.
func (r *repo) ListPaymentsByStudent(ctx context.Context, studentID string) ([]*models.Payment, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, student_id, amount, paid_at, paid_by, note
		 FROM payments WHERE student_id = $1 ORDER BY paid_at DESC, seq DESC`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments by student: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		payment := &models.Payment{}
		var amount int64
		var note *string
		if err := rows.Scan(&payment.ID, &payment.StudentID, &amount, &payment.PaidAt, &payment.PaidBy, &note); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payment.Amount = models.Money(amount)
		payment.Note = deref(note)
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}
