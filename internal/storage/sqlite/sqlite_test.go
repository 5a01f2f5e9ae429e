package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmynk/lessonbook/internal/models"
	"github.com/mmynk/lessonbook/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "lessonbook-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2025, 12, 3, 0, 0, 0, 0, time.UTC)

	t.Run("Default catalogue is seeded", func(t *testing.T) {
		pkgs, err := store.ListPackages(ctx)
		if err != nil {
			t.Fatalf("ListPackages failed: %v", err)
		}
		if len(pkgs) != 4 {
			t.Fatalf("Expected 4 seeded packages, got %d", len(pkgs))
		}

		pkg, err := store.GetPackageByCode(ctx, "LESSONS_12_MWF")
		if err != nil {
			t.Fatalf("GetPackageByCode failed: %v", err)
		}
		if pkg.Price != 340000 {
			t.Errorf("Price mismatch: got %v, want 3400.00", pkg.Price)
		}
		if pkg.LessonsCount == nil || *pkg.LessonsCount != 12 {
			t.Errorf("LessonsCount mismatch: got %v, want 12", pkg.LessonsCount)
		}
	})

	t.Run("Seeding twice keeps one row per code", func(t *testing.T) {
		if err := storage.SeedPackages(ctx, store); err != nil {
			t.Fatalf("SeedPackages failed: %v", err)
		}
		pkgs, err := store.ListPackages(ctx)
		if err != nil {
			t.Fatalf("ListPackages failed: %v", err)
		}
		if len(pkgs) != 4 {
			t.Errorf("Expected 4 packages after reseed, got %d", len(pkgs))
		}
	})

	t.Run("FindPackageByCodePrefix treats underscores literally", func(t *testing.T) {
		pkg, err := store.FindPackageByCodePrefix(ctx, "LESSONS_12")
		if err != nil {
			t.Fatalf("FindPackageByCodePrefix failed: %v", err)
		}
		if pkg.Code != "LESSONS_12_MWF" {
			t.Errorf("Unexpected package: %s", pkg.Code)
		}

		_, err = store.FindPackageByCodePrefix(ctx, "LESSONS%")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for wildcard prefix, got %v", err)
		}
	})

	t.Run("CreateStudent round trips nullable fields", func(t *testing.T) {
		tracked := &models.Student{
			FirstName:        "Aida",
			LastName:         "Bekova",
			TeacherID:        "teacher-1",
			PackageCode:      "LESSONS_24",
			PackagePrice:     540000,
			RemainingLessons: models.IntPtr(24),
			Debt:             100000,
			NeedsBook:        true,
		}
		untracked := &models.Student{FirstName: "Timur", LastName: "Alimov", TeacherID: "teacher-1"}

		for _, s := range []*models.Student{tracked, untracked} {
			if err := store.CreateStudent(ctx, s); err != nil {
				t.Fatalf("CreateStudent failed: %v", err)
			}
			if s.ID == "" || s.CreatedAt == 0 {
				t.Fatalf("Expected ID and CreatedAt to be generated")
			}
		}

		got, err := store.GetStudent(ctx, tracked.ID)
		if err != nil {
			t.Fatalf("GetStudent failed: %v", err)
		}
		if got.RemainingLessons == nil || *got.RemainingLessons != 24 {
			t.Errorf("RemainingLessons mismatch: got %v, want 24", got.RemainingLessons)
		}
		if got.Debt != 100000 || !got.NeedsBook || got.PackageCode != "LESSONS_24" {
			t.Errorf("Unexpected student: %+v", got)
		}

		got, err = store.GetStudent(ctx, untracked.ID)
		if err != nil {
			t.Fatalf("GetStudent failed: %v", err)
		}
		if got.RemainingLessons != nil {
			t.Errorf("Expected untracked balance, got %d", *got.RemainingLessons)
		}

		roster, err := store.ListStudentsByTeacher(ctx, "teacher-1")
		if err != nil {
			t.Fatalf("ListStudentsByTeacher failed: %v", err)
		}
		if len(roster) != 2 || roster[0].LastName != "Alimov" {
			t.Errorf("Expected roster ordered by last name, got %d students", len(roster))
		}
	})

	t.Run("GetStudent returns ErrNotFound for nonexistent student", func(t *testing.T) {
		_, err := store.GetStudent(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Attendance insert is unique per student and day", func(t *testing.T) {
		student := &models.Student{FirstName: "Dana", LastName: "Omarova", TeacherID: "teacher-2"}
		if err := store.CreateStudent(ctx, student); err != nil {
			t.Fatalf("CreateStudent failed: %v", err)
		}

		first := &models.AttendanceRecord{
			StudentID: student.ID, LessonDate: day, Status: models.StatusPresent,
			MarkedBy: "teacher-2", MarkedAt: 100, CheckinAt: 100,
		}
		if err := store.InsertAttendance(ctx, first); err != nil {
			t.Fatalf("InsertAttendance failed: %v", err)
		}

		second := &models.AttendanceRecord{
			StudentID: student.ID, LessonDate: day, Status: models.StatusExcused,
			MarkedBy: "teacher-2", MarkedAt: 200,
		}
		if err := store.InsertAttendance(ctx, second); !errors.Is(err, storage.ErrConflict) {
			t.Fatalf("Expected ErrConflict on duplicate insert, got %v", err)
		}

		got, err := store.GetAttendance(ctx, student.ID, day)
		if err != nil {
			t.Fatalf("GetAttendance failed: %v", err)
		}
		if got.Status != models.StatusPresent || got.CheckinAt != 100 {
			t.Errorf("Duplicate insert changed the record: %+v", got)
		}
		if !got.LessonDate.Equal(day) {
			t.Errorf("LessonDate mismatch: got %v, want %v", got.LessonDate, day)
		}

		// Conditional update only applies while the expected status matches
		got.Status = models.StatusExcused
		got.CheckinAt = 0
		if err := store.UpdateAttendance(ctx, got, models.StatusAbsent); !errors.Is(err, storage.ErrConflict) {
			t.Errorf("Expected ErrConflict for stale status, got %v", err)
		}
		if err := store.UpdateAttendance(ctx, got, models.StatusPresent); err != nil {
			t.Fatalf("UpdateAttendance failed: %v", err)
		}

		got, err = store.GetAttendance(ctx, student.ID, day)
		if err != nil {
			t.Fatalf("GetAttendance failed: %v", err)
		}
		if got.Status != models.StatusExcused || got.CheckinAt != 0 {
			t.Errorf("Unexpected record after update: %+v", got)
		}

		_, err = store.GetAttendance(ctx, student.ID, day.AddDate(0, 0, 1))
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for unmarked day, got %v", err)
		}
	})

	t.Run("CountAttendanceByStatus respects the range", func(t *testing.T) {
		student := &models.Student{FirstName: "Erlan", LastName: "Sadykov", TeacherID: "teacher-3"}
		if err := store.CreateStudent(ctx, student); err != nil {
			t.Fatalf("CreateStudent failed: %v", err)
		}

		statuses := []models.AttendanceStatus{models.StatusAbsent, models.StatusAbsent, models.StatusPresent, models.StatusAbsent}
		for i, status := range statuses {
			rec := &models.AttendanceRecord{
				StudentID: student.ID, LessonDate: day.AddDate(0, 0, i), Status: status,
				MarkedBy: "teacher-3", MarkedAt: 1,
			}
			if err := store.InsertAttendance(ctx, rec); err != nil {
				t.Fatalf("InsertAttendance failed: %v", err)
			}
		}

		counts, err := store.CountAttendanceByStatus(ctx, student.ID, day, day.AddDate(0, 0, 2))
		if err != nil {
			t.Fatalf("CountAttendanceByStatus failed: %v", err)
		}
		if counts[models.StatusAbsent] != 2 || counts[models.StatusPresent] != 1 {
			t.Errorf("Unexpected counts: %v", counts)
		}
	})

	t.Run("Payments are listed most recent first", func(t *testing.T) {
		student := &models.Student{FirstName: "Gulnara", LastName: "Toktosunova", TeacherID: "teacher-4"}
		if err := store.CreateStudent(ctx, student); err != nil {
			t.Fatalf("CreateStudent failed: %v", err)
		}

		amounts := []models.Money{10000, 20000, 30000}
		for _, amount := range amounts {
			p := &models.Payment{StudentID: student.ID, Amount: amount, PaidAt: 1000, PaidBy: "manager"}
			if err := store.CreatePayment(ctx, p); err != nil {
				t.Fatalf("CreatePayment failed: %v", err)
			}
		}
		if err := store.CreatePayment(ctx, &models.Payment{StudentID: student.ID, Amount: 5000, PaidAt: 900, PaidBy: "manager", Note: "old"}); err != nil {
			t.Fatalf("CreatePayment failed: %v", err)
		}

		payments, err := store.ListPaymentsByStudent(ctx, student.ID)
		if err != nil {
			t.Fatalf("ListPaymentsByStudent failed: %v", err)
		}
		if len(payments) != 4 {
			t.Fatalf("Expected 4 payments, got %d", len(payments))
		}
		want := []models.Money{30000, 20000, 10000, 5000}
		for i, p := range payments {
			if p.Amount != want[i] {
				t.Errorf("Payment %d: got %v, want %v", i, p.Amount, want[i])
			}
		}
		if payments[3].Note != "old" {
			t.Errorf("Note mismatch: got %q", payments[3].Note)
		}
	})

	t.Run("WithTx rolls back on error", func(t *testing.T) {
		student := &models.Student{FirstName: "Nurlan", LastName: "Asanov", TeacherID: "teacher-5", Debt: 50000}
		if err := store.CreateStudent(ctx, student); err != nil {
			t.Fatalf("CreateStudent failed: %v", err)
		}

		boom := errors.New("boom")
		err := store.WithTx(ctx, func(tx storage.Repository) error {
			s, err := tx.GetStudentForUpdate(ctx, student.ID)
			if err != nil {
				return err
			}
			s.Debt = 0
			if err := tx.UpdateStudent(ctx, s); err != nil {
				return err
			}
			if err := tx.CreatePayment(ctx, &models.Payment{StudentID: s.ID, Amount: 50000, PaidBy: "manager"}); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Expected boom, got %v", err)
		}

		got, err := store.GetStudent(ctx, student.ID)
		if err != nil {
			t.Fatalf("GetStudent failed: %v", err)
		}
		if got.Debt != 50000 {
			t.Errorf("Debt changed despite rollback: %v", got.Debt)
		}
		payments, err := store.ListPaymentsByStudent(ctx, student.ID)
		if err != nil {
			t.Fatalf("ListPaymentsByStudent failed: %v", err)
		}
		if len(payments) != 0 {
			t.Errorf("Expected no payments after rollback, got %d", len(payments))
		}
	})

	t.Run("Users round trip", func(t *testing.T) {
		user := models.NewUser("manager1", "Manager One", "hash", models.RoleManager)
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}

		got, err := store.GetUserByUsername(ctx, "manager1")
		if err != nil || got == nil {
			t.Fatalf("GetUserByUsername failed: %v", err)
		}
		if got.Role != models.RoleManager || got.ID != user.ID {
			t.Errorf("Unexpected user: %+v", got)
		}

		missing, err := store.GetUserByID(ctx, "nope")
		if err != nil || missing != nil {
			t.Errorf("Expected nil, nil for missing user, got %v, %v", missing, err)
		}
	})
}
