package models

// LessonPackage is a catalogue entry. The core only reads packages.
type LessonPackage struct {
	// ID is the unique identifier for the package (UUID format).
	ID string

	// Code is the unique package code, e.g. "LESSONS_12_MWF".
	Code string

	// Title is the display name.
	Title string

	// Price is the full package price.
	Price Money

	// LessonsCount is the number of lessons included, or nil for packages
	// that do not track a lesson balance.
	LessonsCount *int

	// ScheduleCode is the weekly schedule (MWF, TTS, MON_SAT, CUSTOM, ...).
	ScheduleCode string
}

// CoarsePackageType is the legacy enumeration used before concrete
// catalogue packages existed.
type CoarsePackageType string

const (
	CoarseLessons12 CoarsePackageType = "LESSONS_12"
	CoarseLessons24 CoarsePackageType = "LESSONS_24"
	CoarseUnlimited CoarsePackageType = "UNLIMITED"
)
