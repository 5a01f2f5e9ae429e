// Package api defines the request and response messages of the
// lessonbook.v1 Connect services. Money amounts are integers in the
// smallest currency unit; dates are YYYY-MM-DD strings; timestamps are
// Unix seconds.
package api

// Error metadata keys attached to Connect errors.
const (
	MetaErrorCode = "Lessonbook-Error-Code"
	MetaMinDate   = "Lessonbook-Min-Date"
)

// --- Attendance ---

type AttendanceEntry struct {
	StudentID    string `json:"studentId"`
	Status       string `json:"status,omitempty"`
	ExtraLessons int    `json:"extraLessons,omitempty"`
}

type ReconcileDayRequest struct {
	Date    string            `json:"date"`
	Entries []AttendanceEntry `json:"entries"`
}

type EntryResult struct {
	StudentID    string `json:"studentId"`
	Applied      bool   `json:"applied"`
	Status       string `json:"status,omitempty"`
	NewRemaining *int   `json:"newRemaining,omitempty"`
	ErrorCode    string `json:"errorCode,omitempty"`
}

type ReconcileDayResponse struct {
	Success    bool          `json:"success"`
	Date       string        `json:"date"`
	Results    []EntryResult `json:"results"`
	AutoFilled []string      `json:"autoFilled"`

	// FillFailures lists roster members whose default mark failed.
	FillFailures []EntryResult `json:"fillFailures,omitempty"`
}

type AttendanceRecord struct {
	ID         string `json:"id"`
	StudentID  string `json:"studentId"`
	LessonDate string `json:"lessonDate"`
	Status     string `json:"status"`
	MarkedBy   string `json:"markedBy"`
	MarkedAt   int64  `json:"markedAt"`
	CheckinAt  int64  `json:"checkinAt,omitempty"`
}

type GetStatusRequest struct {
	StudentID string `json:"studentId"`
	Date      string `json:"date"`
}

// GetStatusResponse carries a nil Record when the student has no mark for
// the day.
type GetStatusResponse struct {
	Record *AttendanceRecord `json:"record"`
}

type ConsumeLessonRequest struct {
	StudentID string `json:"studentId"`
}

type ConsumeLessonResponse struct {
	Remaining *int `json:"remaining"`
}

type MonthlySummaryRequest struct {
	StudentID string `json:"studentId"`
	// Date is the last day counted; the month is taken from it.
	Date string `json:"date"`
}

type MonthlySummaryResponse struct {
	StudentID string         `json:"studentId"`
	From      string         `json:"from"`
	To        string         `json:"to"`
	Counts    map[string]int `json:"counts"`
	Missed    int            `json:"missed"`
}

// --- Billing ---

type Student struct {
	ID               string `json:"id"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Phone            string `json:"phone,omitempty"`
	TeacherID        string `json:"teacherId"`
	TimeSlotID       string `json:"timeSlotId,omitempty"`
	PackageCode      string `json:"packageCode,omitempty"`
	PackagePrice     int64  `json:"packagePrice"`
	RemainingLessons *int   `json:"remainingLessons"`
	Debt             int64  `json:"debt"`
	NeedsBook        bool   `json:"needsBook"`
}

type Payment struct {
	ID        string `json:"id"`
	StudentID string `json:"studentId"`
	Amount    int64  `json:"amount"`
	PaidAt    int64  `json:"paidAt"`
	PaidBy    string `json:"paidBy"`
	Note      string `json:"note,omitempty"`
}

type LessonPackage struct {
	Code         string `json:"code"`
	Title        string `json:"title"`
	Price        int64  `json:"price"`
	LessonsCount *int   `json:"lessonsCount"`
	ScheduleCode string `json:"scheduleCode"`
}

type ApplyPaymentRequest struct {
	StudentID string `json:"studentId"`
	Amount    int64  `json:"amount"`
	Note      string `json:"note,omitempty"`
}

type ApplyPaymentResponse struct {
	PaymentID     string `json:"paymentId"`
	NewDebt       int64  `json:"newDebt"`
	AppliedAmount int64  `json:"appliedAmount"`
}

type ListPaymentsRequest struct {
	StudentID string `json:"studentId"`
}

type ListPaymentsResponse struct {
	Payments []Payment `json:"payments"`
}

type AssignPackageRequest struct {
	StudentID      string `json:"studentId"`
	PackageCode    string `json:"packageCode"`
	InitialPayment int64  `json:"initialPayment,omitempty"`
	PaymentNote    string `json:"paymentNote,omitempty"`
}

type AssignPackageResponse struct {
	Student *Student `json:"student"`
}

// EnrollStudentRequest takes either a PackageCode or a legacy PackageType
// (LESSONS_12, LESSONS_24, UNLIMITED).
type EnrollStudentRequest struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Phone          string `json:"phone,omitempty"`
	TeacherID      string `json:"teacherId"`
	TimeSlotID     string `json:"timeSlotId,omitempty"`
	NeedsBook      bool   `json:"needsBook,omitempty"`
	PackageCode    string `json:"packageCode,omitempty"`
	PackageType    string `json:"packageType,omitempty"`
	InitialPayment int64  `json:"initialPayment,omitempty"`
	PaymentNote    string `json:"paymentNote,omitempty"`
}

type EnrollStudentResponse struct {
	Student *Student `json:"student"`
}

type ListPackagesRequest struct{}

type ListPackagesResponse struct {
	Packages []LessonPackage `json:"packages"`
}

// --- Auth ---

type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	CreatedAt   int64  `json:"createdAt"`
}

type RegisterRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	Password    string `json:"password"`
	Role        string `json:"role"`
}

type RegisterResponse struct {
	User *User `json:"user"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}
