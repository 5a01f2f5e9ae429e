package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/lessonbook/internal/ledger"
	"github.com/mmynk/lessonbook/internal/middleware"
	"github.com/mmynk/lessonbook/internal/models"
	"github.com/mmynk/lessonbook/pkg/api"
	"github.com/mmynk/lessonbook/pkg/api/apiconnect"
)

var _ apiconnect.BillingServiceHandler = (*BillingService)(nil)

// BillingService implements the Connect BillingService: payments, package
// assignment and enrollment. Role checks live in the interceptor chain.
type BillingService struct {
	engine *ledger.Engine
}

// NewBillingService creates a new BillingService over engine.
func NewBillingService(engine *ledger.Engine) *BillingService {
	return &BillingService{engine: engine}
}

// ApplyPayment records a payment and reduces the student's debt.
func (s *BillingService) ApplyPayment(ctx context.Context, req *connect.Request[api.ApplyPaymentRequest]) (*connect.Response[api.ApplyPaymentResponse], error) {
	recorder := middleware.GetUserID(ctx)
	slog.Info("ApplyPayment request received",
		"student_id", req.Msg.StudentID,
		"amount", models.Money(req.Msg.Amount),
		"recorder", recorder,
	)

	result, err := s.engine.Debts.ApplyPayment(ctx, req.Msg.StudentID, models.Money(req.Msg.Amount), recorder, req.Msg.Note)
	if err != nil {
		return nil, toConnectError("ApplyPayment", err)
	}

	return connect.NewResponse(&api.ApplyPaymentResponse{
		PaymentID:     result.Payment.ID,
		NewDebt:       int64(result.NewDebt),
		AppliedAmount: int64(result.AppliedAmount),
	}), nil
}

// ListPayments returns a student's payment history, newest first.
func (s *BillingService) ListPayments(ctx context.Context, req *connect.Request[api.ListPaymentsRequest]) (*connect.Response[api.ListPaymentsResponse], error) {
	payments, err := s.engine.Debts.History(ctx, req.Msg.StudentID)
	if err != nil {
		return nil, toConnectError("ListPayments", err)
	}

	resp := &api.ListPaymentsResponse{Payments: make([]api.Payment, len(payments))}
	for i, p := range payments {
		resp.Payments[i] = toAPIPayment(p)
	}
	return connect.NewResponse(resp), nil
}

// AssignPackage switches a student to another catalogue package.
func (s *BillingService) AssignPackage(ctx context.Context, req *connect.Request[api.AssignPackageRequest]) (*connect.Response[api.AssignPackageResponse], error) {
	slog.Info("AssignPackage request received",
		"student_id", req.Msg.StudentID,
		"package_code", req.Msg.PackageCode,
		"initial_payment", models.Money(req.Msg.InitialPayment),
	)

	student, err := s.engine.Enrollment.AssignPackage(ctx, req.Msg.StudentID, req.Msg.PackageCode,
		models.Money(req.Msg.InitialPayment), req.Msg.PaymentNote, middleware.GetUserID(ctx))
	if err != nil {
		return nil, toConnectError("AssignPackage", err)
	}

	return connect.NewResponse(&api.AssignPackageResponse{Student: toAPIStudent(student)}), nil
}

// EnrollStudent creates a student with an optional package and initial payment.
func (s *BillingService) EnrollStudent(ctx context.Context, req *connect.Request[api.EnrollStudentRequest]) (*connect.Response[api.EnrollStudentResponse], error) {
	msg := req.Msg
	slog.Info("EnrollStudent request received",
		"teacher_id", msg.TeacherID,
		"package_code", msg.PackageCode,
		"package_type", msg.PackageType,
	)

	student, err := s.engine.Enrollment.Enroll(ctx, ledger.EnrollRequest{
		FirstName:      msg.FirstName,
		LastName:       msg.LastName,
		Phone:          msg.Phone,
		TeacherID:      msg.TeacherID,
		TimeSlotID:     msg.TimeSlotID,
		NeedsBook:      msg.NeedsBook,
		PackageCode:    msg.PackageCode,
		CoarseType:     models.CoarsePackageType(msg.PackageType),
		InitialPayment: models.Money(msg.InitialPayment),
		PaymentNote:    msg.PaymentNote,
		Recorder:       middleware.GetUserID(ctx),
	})
	if err != nil {
		return nil, toConnectError("EnrollStudent", err)
	}

	slog.Info("Student enrolled", "student_id", student.ID, "debt", student.Debt)
	return connect.NewResponse(&api.EnrollStudentResponse{Student: toAPIStudent(student)}), nil
}

// ListPackages returns the package catalogue.
func (s *BillingService) ListPackages(ctx context.Context, req *connect.Request[api.ListPackagesRequest]) (*connect.Response[api.ListPackagesResponse], error) {
	packages, err := s.engine.Packages.Catalogue(ctx)
	if err != nil {
		return nil, toConnectError("ListPackages", err)
	}

	resp := &api.ListPackagesResponse{Packages: make([]api.LessonPackage, len(packages))}
	for i, p := range packages {
		resp.Packages[i] = toAPIPackage(p)
	}
	return connect.NewResponse(resp), nil
}
