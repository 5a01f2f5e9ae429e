package models

// Student represents an enrolled student.
//
// RemainingLessons and Debt are owned by the ledger components; nothing else
// should mutate them directly.
type Student struct {
	// ID is the unique identifier for the student (UUID format).
	ID string

	FirstName string
	LastName  string
	Phone     string

	// TeacherID is the user ID of the owning teacher. The set of students
	// sharing a TeacherID is that teacher's roster.
	TeacherID string

	// TimeSlotID is the assigned time slot, or "" when none.
	TimeSlotID string

	// PackageID references the assigned catalogue package, or "" when none.
	PackageID string

	// PackageCode and PackagePrice are a snapshot taken when the package was
	// assigned. Later catalogue edits do not change them.
	PackageCode  string
	PackagePrice Money

	// RemainingLessons is the number of lessons left in the current package.
	// nil means the balance is not tracked (unlimited or no package).
	RemainingLessons *int

	// Debt is the amount owed by the student. Never negative.
	Debt Money

	// NeedsBook marks students who still have to receive a course book.
	NeedsBook bool

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// FullName returns "First Last".
func (s *Student) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// Tracked reports whether the student's lesson balance is tracked.
func (s *Student) Tracked() bool {
	return s.RemainingLessons != nil
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
