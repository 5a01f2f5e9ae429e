package calculator

import "github.com/mmynk/lessonbook/internal/models"

// InitialDebt is what a student owes right after buying a package:
// max(0, price - initialPayment).
func InitialDebt(price, initialPayment models.Money) models.Money {
	return (price - initialPayment).MaxZero()
}

// PackageChangeDebt computes the debt after switching packages.
// Debt is additive: anything still owed for the previous package is carried
// forward on top of the new package's unpaid part.
func PackageChangeDebt(previousDebt, newPrice, initialPayment models.Money) models.Money {
	return previousDebt.MaxZero() + InitialDebt(newPrice, initialPayment)
}

// PaymentDebt returns the debt after a payment of amount. Overpayment
// clamps to zero; no credit is kept.
func PaymentDebt(currentDebt, amount models.Money) models.Money {
	return (currentDebt - amount).MaxZero()
}
