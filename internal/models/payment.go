package models

// Payment records money received from a student. Payments are append-only.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string

	// StudentID is the student the payment was applied to.
	StudentID string

	// Amount is the amount received. Always positive.
	Amount Money

	// PaidAt is the Unix timestamp when the payment was recorded.
	PaidAt int64

	// PaidBy is the user ID who recorded the payment.
	PaidBy string

	// Note is an optional description.
	Note string
}
