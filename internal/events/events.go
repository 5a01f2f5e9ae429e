// Package events publishes ledger changes to interested consumers.
//
// Events are emitted after the owning transaction commits. Delivery is best
// effort: a failed publish is logged by the caller and never rolls back the
// ledger change.
package events

import (
	"context"
	"sync"
)

// Routing keys.
const (
	KeyAttendanceRecorded = "attendance.recorded"
	KeyPaymentApplied     = "payment.applied"
	KeyPackageAssigned    = "package.assigned"
)

// Event is a message that can be routed to a topic.
type Event interface {
	RoutingKey() string
}

// AttendanceRecorded is emitted when an attendance record is written.
type AttendanceRecorded struct {
	StudentID      string `json:"studentId"`
	LessonDate     string `json:"lessonDate"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previousStatus,omitempty"`
	Remaining      *int   `json:"remaining,omitempty"`
	MarkedBy       string `json:"markedBy"`
	MarkedAt       int64  `json:"markedAt"`
}

func (AttendanceRecorded) RoutingKey() string { return KeyAttendanceRecorded }

// PaymentApplied is emitted when a payment has been recorded.
type PaymentApplied struct {
	PaymentID string `json:"paymentId"`
	StudentID string `json:"studentId"`
	Amount    int64  `json:"amount"`
	NewDebt   int64  `json:"newDebt"`
	PaidBy    string `json:"paidBy"`
	PaidAt    int64  `json:"paidAt"`
}

func (PaymentApplied) RoutingKey() string { return KeyPaymentApplied }

// PackageAssigned is emitted when a student gets a package, either at
// enrollment or on reassignment.
type PackageAssigned struct {
	StudentID   string `json:"studentId"`
	PackageCode string `json:"packageCode"`
	Price       int64  `json:"price"`
	Remaining   *int   `json:"remaining,omitempty"`
	Debt        int64  `json:"debt"`
}

func (PackageAssigned) RoutingKey() string { return KeyPackageAssigned }

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish appends event.
func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Close is a no-op.
func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Keys returns the routing keys of the published events in order.
func (r *Recorder) Keys() []string {
	events := r.Events()
	keys := make([]string, len(events))
	for i, e := range events {
		keys[i] = e.RoutingKey()
	}
	return keys
}
