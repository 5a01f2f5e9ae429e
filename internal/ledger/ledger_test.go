package ledger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/lessonbook/internal/events"
	"github.com/mmynk/lessonbook/internal/models"
	"github.com/mmynk/lessonbook/internal/storage"
	"github.com/mmynk/lessonbook/internal/storage/sqlite"
)

var (
	studentSeq int

	testNow = time.Date(2025, time.December, 3, 9, 30, 0, 0, time.UTC)
	testDay = models.Day(testNow)
)

type testEnv struct {
	engine *Engine
	store  storage.Store
	events *events.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	rec := &events.Recorder{}
	engine := New(store,
		WithClock(func() time.Time { return testNow }),
		WithPublisher(rec),
	)
	return &testEnv{engine: engine, store: store, events: rec}
}

// addStudent creates a student owned by teacherID with the given balance.
func (e *testEnv) addStudent(t *testing.T, teacherID string, remaining *int, debt models.Money) *models.Student {
	t.Helper()

	studentSeq++
	s := &models.Student{
		FirstName:        "Student",
		LastName:         fmt.Sprintf("%03d", studentSeq),
		TeacherID:        teacherID,
		RemainingLessons: remaining,
		Debt:             debt,
	}
	require.NoError(t, e.store.CreateStudent(context.Background(), s))
	return s
}

// addTeacher creates a staff account with the given role and returns its ID.
func (e *testEnv) addTeacher(t *testing.T, username string, role models.Role) string {
	t.Helper()

	user := models.NewUser(username, username, "hash", role)
	require.NoError(t, e.store.CreateUser(context.Background(), user))
	return user.ID
}

func (e *testEnv) student(t *testing.T, id string) *models.Student {
	t.Helper()
	s, err := e.store.GetStudent(context.Background(), id)
	require.NoError(t, err)
	return s
}

func remainingOf(t *testing.T, s *models.Student) int {
	t.Helper()
	require.NotNil(t, s.RemainingLessons, "expected a tracked balance")
	return *s.RemainingLessons
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("wrapped: %w", ErrStudentNotFound), CodeStudentNotFound},
		{ErrTeacherNotFound, CodeTeacherNotFound},
		{ErrPackageNotFound, CodePackageNotFound},
		{ErrInvalidStatus, CodeInvalidStatus},
		{ErrInvalidAmount, CodeInvalidAmount},
		{ErrInvalidInput, CodeInvalidInput},
		{ErrNotYourStudent, CodeNotYourStudent},
		{ErrNotTracked, CodeNotTracked},
		{&DateTooEarlyError{Date: testDay, Floor: DefaultMinDate}, CodeDateTooEarly},
		{errors.New("disk on fire"), CodeInternal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorCode(tt.err), "error: %v", tt.err)
	}
}

func TestCheckOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.addStudent(t, "teacher-a", models.IntPtr(5), 0)

	got, err := env.engine.CheckOwner(ctx, "teacher-a", s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)

	_, err = env.engine.CheckOwner(ctx, "teacher-b", s.ID)
	assert.ErrorIs(t, err, ErrNotYourStudent)

	_, err = env.engine.CheckOwner(ctx, "teacher-a", "missing")
	assert.ErrorIs(t, err, ErrStudentNotFound)
}
