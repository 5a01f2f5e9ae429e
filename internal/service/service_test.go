package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/lessonbook/internal/auth"
	"github.com/mmynk/lessonbook/internal/ledger"
	"github.com/mmynk/lessonbook/internal/middleware"
	"github.com/mmynk/lessonbook/internal/models"
	"github.com/mmynk/lessonbook/internal/storage/sqlite"
	"github.com/mmynk/lessonbook/pkg/api"
	"github.com/mmynk/lessonbook/pkg/api/apiconnect"
)

var testNow = time.Date(2025, time.December, 3, 9, 30, 0, 0, time.UTC)

type testServer struct {
	attendance apiconnect.AttendanceServiceClient
	billing    apiconnect.BillingServiceClient
	auth       apiconnect.AuthServiceClient

	// tokens by username: admin, manager, anna (teacher), boris (teacher)
	tokens map[string]string
	users  map[string]*models.User
}

// setupTestServer starts all three services over a temp database with
// one admin, one manager and two teachers.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	engine := ledger.New(store, ledger.WithClock(func() time.Time { return testNow }))
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	opts := HandlerOptions(jwtManager, middleware.NewMetrics())
	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAttendanceServiceHandler(NewAttendanceService(engine), opts...))
	mux.Handle(apiconnect.NewBillingServiceHandler(NewBillingService(engine), opts...))
	mux.Handle(apiconnect.NewAuthServiceHandler(NewAuthService(authenticator, jwtManager, store, logger), opts...))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	ts := &testServer{
		attendance: apiconnect.NewAttendanceServiceClient(http.DefaultClient, server.URL),
		billing:    apiconnect.NewBillingServiceClient(http.DefaultClient, server.URL),
		auth:       apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL),
		tokens:     make(map[string]string),
		users:      make(map[string]*models.User),
	}

	for username, role := range map[string]models.Role{
		"admin":   models.RoleAdmin,
		"manager": models.RoleManager,
		"anna":    models.RoleTeacher,
		"boris":   models.RoleTeacher,
	} {
		user, err := authenticator.Register(context.Background(), username, username, "password123", role)
		if err != nil {
			t.Fatalf("failed to register %s: %v", username, err)
		}
		token, err := jwtManager.Generate(user)
		if err != nil {
			t.Fatalf("failed to issue token for %s: %v", username, err)
		}
		ts.users[username] = user
		ts.tokens[username] = token
	}

	return ts
}

func withToken[T any](msg *T, token string) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if token != "" {
		req.Header().Set("Authorization", "Bearer "+token)
	}
	return req
}

// enroll creates a LESSONS_12_MWF student for teacher as the manager.
func (ts *testServer) enroll(t *testing.T, teacher, lastName string, initialPayment int64) *api.Student {
	t.Helper()

	resp, err := ts.billing.EnrollStudent(context.Background(), withToken(&api.EnrollStudentRequest{
		FirstName:      "Student",
		LastName:       lastName,
		TeacherID:      ts.users[teacher].ID,
		PackageCode:    "LESSONS_12_MWF",
		InitialPayment: initialPayment,
	}, ts.tokens["manager"]))
	if err != nil {
		t.Fatalf("EnrollStudent failed: %v", err)
	}
	return resp.Msg.Student
}

func assertCode(t *testing.T, err error, want connect.Code, wantErrorCode string) *connect.Error {
	t.Helper()

	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		t.Fatalf("Expected connect error, got %v", err)
	}
	if connectErr.Code() != want {
		t.Errorf("Expected code %v, got %v (%v)", want, connectErr.Code(), err)
	}
	if wantErrorCode != "" {
		if got := connectErr.Meta().Get(api.MetaErrorCode); got != wantErrorCode {
			t.Errorf("Expected error code %q, got %q", wantErrorCode, got)
		}
	}
	return connectErr
}

func TestAuthService(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	t.Run("login and current user", func(t *testing.T) {
		login, err := ts.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
			Username: "anna",
			Password: "password123",
		}))
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if login.Msg.Token == "" {
			t.Fatal("Expected a token")
		}

		me, err := ts.auth.GetCurrentUser(ctx, withToken(&api.GetCurrentUserRequest{}, login.Msg.Token))
		if err != nil {
			t.Fatalf("GetCurrentUser failed: %v", err)
		}
		if me.Msg.User.ID != ts.users["anna"].ID || me.Msg.User.Role != "teacher" {
			t.Errorf("Unexpected current user %+v", me.Msg.User)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := ts.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{Username: "anna", Password: "nope-nope"}))
		assertCode(t, err, connect.CodeUnauthenticated, "")
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := ts.auth.GetCurrentUser(ctx, connect.NewRequest(&api.GetCurrentUserRequest{}))
		assertCode(t, err, connect.CodeUnauthenticated, "")
	})

	t.Run("register requires admin", func(t *testing.T) {
		req := &api.RegisterRequest{Username: "vera", Password: "password123", Role: "teacher"}

		_, err := ts.auth.Register(ctx, withToken(req, ts.tokens["manager"]))
		assertCode(t, err, connect.CodePermissionDenied, "")

		resp, err := ts.auth.Register(ctx, withToken(req, ts.tokens["admin"]))
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if resp.Msg.User.DisplayName != "vera" {
			t.Errorf("Expected display name to default to username, got %q", resp.Msg.User.DisplayName)
		}

		_, err = ts.auth.Register(ctx, withToken(req, ts.tokens["admin"]))
		assertCode(t, err, connect.CodeAlreadyExists, "")
	})

	t.Run("register rejects unknown role", func(t *testing.T) {
		_, err := ts.auth.Register(ctx, withToken(&api.RegisterRequest{
			Username: "gleb", Password: "password123", Role: "owner",
		}, ts.tokens["admin"]))
		assertCode(t, err, connect.CodeInvalidArgument, "")
	})
}

func TestBillingService(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	t.Run("enroll and pay", func(t *testing.T) {
		student := ts.enroll(t, "anna", "Payer", 100000)
		if student.Debt != 240000 {
			t.Errorf("Expected debt 240000, got %d", student.Debt)
		}
		if student.RemainingLessons == nil || *student.RemainingLessons != 12 {
			t.Errorf("Expected 12 remaining lessons, got %v", student.RemainingLessons)
		}

		pay, err := ts.billing.ApplyPayment(ctx, withToken(&api.ApplyPaymentRequest{
			StudentID: student.ID,
			Amount:    40000,
			Note:      "cash",
		}, ts.tokens["manager"]))
		if err != nil {
			t.Fatalf("ApplyPayment failed: %v", err)
		}
		if pay.Msg.NewDebt != 200000 || pay.Msg.AppliedAmount != 40000 {
			t.Errorf("Unexpected payment result %+v", pay.Msg)
		}

		history, err := ts.billing.ListPayments(ctx, withToken(&api.ListPaymentsRequest{StudentID: student.ID}, ts.tokens["admin"]))
		if err != nil {
			t.Fatalf("ListPayments failed: %v", err)
		}
		if len(history.Msg.Payments) != 2 {
			t.Fatalf("Expected 2 payments, got %d", len(history.Msg.Payments))
		}
		for _, p := range history.Msg.Payments {
			if p.PaidBy != ts.users["manager"].ID && p.PaidBy != ts.users["admin"].ID {
				t.Errorf("Unexpected recorder %q", p.PaidBy)
			}
		}
	})

	t.Run("overpayment clamps debt", func(t *testing.T) {
		student := ts.enroll(t, "anna", "Overpayer", 300000)

		pay, err := ts.billing.ApplyPayment(ctx, withToken(&api.ApplyPaymentRequest{
			StudentID: student.ID,
			Amount:    100000,
		}, ts.tokens["manager"]))
		if err != nil {
			t.Fatalf("ApplyPayment failed: %v", err)
		}
		if pay.Msg.NewDebt != 0 {
			t.Errorf("Expected debt 0, got %d", pay.Msg.NewDebt)
		}
	})

	t.Run("invalid amount", func(t *testing.T) {
		student := ts.enroll(t, "anna", "Zero", 0)
		_, err := ts.billing.ApplyPayment(ctx, withToken(&api.ApplyPaymentRequest{
			StudentID: student.ID,
		}, ts.tokens["manager"]))
		assertCode(t, err, connect.CodeInvalidArgument, ledger.CodeInvalidAmount)
	})

	t.Run("unknown student", func(t *testing.T) {
		_, err := ts.billing.ApplyPayment(ctx, withToken(&api.ApplyPaymentRequest{
			StudentID: "missing",
			Amount:    100,
		}, ts.tokens["manager"]))
		assertCode(t, err, connect.CodeNotFound, ledger.CodeStudentNotFound)
	})

	t.Run("teachers cannot touch money", func(t *testing.T) {
		student := ts.enroll(t, "anna", "Guarded", 0)
		_, err := ts.billing.ApplyPayment(ctx, withToken(&api.ApplyPaymentRequest{
			StudentID: student.ID,
			Amount:    100,
		}, ts.tokens["anna"]))
		assertCode(t, err, connect.CodePermissionDenied, "")
	})

	t.Run("assign package adds to debt", func(t *testing.T) {
		student := ts.enroll(t, "anna", "Switcher", 290000)

		resp, err := ts.billing.AssignPackage(ctx, withToken(&api.AssignPackageRequest{
			StudentID:   student.ID,
			PackageCode: "LESSONS_24",
		}, ts.tokens["manager"]))
		if err != nil {
			t.Fatalf("AssignPackage failed: %v", err)
		}
		if resp.Msg.Student.Debt != 590000 {
			t.Errorf("Expected debt 590000, got %d", resp.Msg.Student.Debt)
		}
		if resp.Msg.Student.PackageCode != "LESSONS_24" || *resp.Msg.Student.RemainingLessons != 24 {
			t.Errorf("Unexpected student after switch %+v", resp.Msg.Student)
		}
	})

	t.Run("unknown package", func(t *testing.T) {
		student := ts.enroll(t, "anna", "Unknown", 0)
		_, err := ts.billing.AssignPackage(ctx, withToken(&api.AssignPackageRequest{
			StudentID:   student.ID,
			PackageCode: "LESSONS_99",
		}, ts.tokens["manager"]))
		assertCode(t, err, connect.CodeNotFound, ledger.CodePackageNotFound)
	})

	t.Run("enroll by legacy type", func(t *testing.T) {
		resp, err := ts.billing.EnrollStudent(ctx, withToken(&api.EnrollStudentRequest{
			FirstName:   "Legacy",
			LastName:    "Type",
			TeacherID:   ts.users["boris"].ID,
			PackageType: "LESSONS_12",
		}, ts.tokens["admin"]))
		if err != nil {
			t.Fatalf("EnrollStudent failed: %v", err)
		}
		if resp.Msg.Student.PackageCode != "LESSONS_12_MWF" {
			t.Errorf("Expected LESSONS_12_MWF, got %q", resp.Msg.Student.PackageCode)
		}
	})

	t.Run("enroll under an unknown teacher", func(t *testing.T) {
		for _, teacherID := range []string{"no-such-teacher", ts.users["manager"].ID} {
			_, err := ts.billing.EnrollStudent(ctx, withToken(&api.EnrollStudentRequest{
				FirstName:   "Lost",
				LastName:    "Student",
				TeacherID:   teacherID,
				PackageCode: "LESSONS_24",
			}, ts.tokens["manager"]))
			assertCode(t, err, connect.CodeNotFound, ledger.CodeTeacherNotFound)
		}
	})

	t.Run("list packages", func(t *testing.T) {
		resp, err := ts.billing.ListPackages(ctx, withToken(&api.ListPackagesRequest{}, ts.tokens["anna"]))
		if err != nil {
			t.Fatalf("ListPackages failed: %v", err)
		}
		if len(resp.Msg.Packages) != 4 {
			t.Fatalf("Expected 4 packages, got %d", len(resp.Msg.Packages))
		}
		if resp.Msg.Packages[0].Code != "LESSONS_12_MWF" {
			t.Errorf("Expected catalogue ordered by code, got %q first", resp.Msg.Packages[0].Code)
		}
	})
}

func TestAttendanceService(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	present := ts.enroll(t, "anna", "Alpha", 0)
	silent := ts.enroll(t, "anna", "Bravo", 0)
	foreign := ts.enroll(t, "boris", "Charlie", 0)

	t.Run("reconcile day", func(t *testing.T) {
		resp, err := ts.attendance.ReconcileDay(ctx, withToken(&api.ReconcileDayRequest{
			Date: "2025-12-03",
			Entries: []api.AttendanceEntry{
				{StudentID: present.ID, Status: "PRESENT"},
				{StudentID: foreign.ID, Status: "PRESENT"},
			},
		}, ts.tokens["anna"]))
		if err != nil {
			t.Fatalf("ReconcileDay failed: %v", err)
		}

		msg := resp.Msg
		if msg.Success {
			t.Error("Expected success=false with a foreign student in the batch")
		}
		if len(msg.Results) != 2 {
			t.Fatalf("Expected 2 results, got %d", len(msg.Results))
		}
		if !msg.Results[0].Applied || msg.Results[0].NewRemaining == nil || *msg.Results[0].NewRemaining != 11 {
			t.Errorf("Unexpected first result %+v", msg.Results[0])
		}
		if msg.Results[1].Applied || msg.Results[1].ErrorCode != ledger.CodeNotYourStudent {
			t.Errorf("Unexpected second result %+v", msg.Results[1])
		}
		if len(msg.AutoFilled) != 1 || msg.AutoFilled[0] != silent.ID {
			t.Errorf("Expected %s auto-filled, got %v", silent.ID, msg.AutoFilled)
		}
	})

	t.Run("date before floor", func(t *testing.T) {
		_, err := ts.attendance.ReconcileDay(ctx, withToken(&api.ReconcileDayRequest{
			Date:    "2025-11-30",
			Entries: []api.AttendanceEntry{{StudentID: present.ID, Status: "PRESENT"}},
		}, ts.tokens["anna"]))
		connectErr := assertCode(t, err, connect.CodeInvalidArgument, ledger.CodeDateTooEarly)
		if got := connectErr.Meta().Get(api.MetaMinDate); got != "2025-12-01" {
			t.Errorf("Expected min date 2025-12-01, got %q", got)
		}
	})

	t.Run("malformed date", func(t *testing.T) {
		_, err := ts.attendance.ReconcileDay(ctx, withToken(&api.ReconcileDayRequest{Date: "03.12.2025"}, ts.tokens["anna"]))
		assertCode(t, err, connect.CodeInvalidArgument, ledger.CodeInvalidInput)
	})

	t.Run("get status", func(t *testing.T) {
		resp, err := ts.attendance.GetStatus(ctx, withToken(&api.GetStatusRequest{
			StudentID: silent.ID,
			Date:      "2025-12-03",
		}, ts.tokens["anna"]))
		if err != nil {
			t.Fatalf("GetStatus failed: %v", err)
		}
		if resp.Msg.Record == nil || resp.Msg.Record.Status != "EXCUSED" {
			t.Errorf("Expected EXCUSED record, got %+v", resp.Msg.Record)
		}

		resp, err = ts.attendance.GetStatus(ctx, withToken(&api.GetStatusRequest{
			StudentID: silent.ID,
			Date:      "2025-12-04",
		}, ts.tokens["anna"]))
		if err != nil {
			t.Fatalf("GetStatus failed: %v", err)
		}
		if resp.Msg.Record != nil {
			t.Errorf("Expected no record, got %+v", resp.Msg.Record)
		}
	})

	t.Run("teachers only see their roster", func(t *testing.T) {
		_, err := ts.attendance.GetStatus(ctx, withToken(&api.GetStatusRequest{
			StudentID: present.ID,
			Date:      "2025-12-03",
		}, ts.tokens["boris"]))
		assertCode(t, err, connect.CodePermissionDenied, ledger.CodeNotYourStudent)

		// Managers see everyone.
		if _, err := ts.attendance.GetStatus(ctx, withToken(&api.GetStatusRequest{
			StudentID: present.ID,
			Date:      "2025-12-03",
		}, ts.tokens["manager"])); err != nil {
			t.Errorf("GetStatus as manager failed: %v", err)
		}
	})

	t.Run("consume lesson", func(t *testing.T) {
		resp, err := ts.attendance.ConsumeLesson(ctx, withToken(&api.ConsumeLessonRequest{StudentID: foreign.ID}, ts.tokens["boris"]))
		if err != nil {
			t.Fatalf("ConsumeLesson failed: %v", err)
		}
		if resp.Msg.Remaining == nil || *resp.Msg.Remaining != 11 {
			t.Errorf("Expected 11 remaining, got %v", resp.Msg.Remaining)
		}

		_, err = ts.attendance.ConsumeLesson(ctx, withToken(&api.ConsumeLessonRequest{StudentID: foreign.ID}, ts.tokens["anna"]))
		assertCode(t, err, connect.CodePermissionDenied, ledger.CodeNotYourStudent)
	})

	t.Run("monthly summary", func(t *testing.T) {
		resp, err := ts.attendance.MonthlySummary(ctx, withToken(&api.MonthlySummaryRequest{
			StudentID: silent.ID,
			Date:      "2025-12-31",
		}, ts.tokens["anna"]))
		if err != nil {
			t.Fatalf("MonthlySummary failed: %v", err)
		}
		msg := resp.Msg
		if msg.From != "2025-12-01" || msg.To != "2025-12-31" {
			t.Errorf("Unexpected range %s..%s", msg.From, msg.To)
		}
		if msg.Counts["EXCUSED"] != 1 || msg.Counts["PRESENT"] != 0 {
			t.Errorf("Unexpected counts %v", msg.Counts)
		}
	})
}
