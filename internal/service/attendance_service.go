package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/lessonbook/internal/ledger"
	"github.com/mmynk/lessonbook/internal/middleware"
	"github.com/mmynk/lessonbook/internal/models"
	"github.com/mmynk/lessonbook/pkg/api"
	"github.com/mmynk/lessonbook/pkg/api/apiconnect"
)

var _ apiconnect.AttendanceServiceHandler = (*AttendanceService)(nil)

// AttendanceService implements the Connect AttendanceService.
// The caller is the marker; teachers may only touch their own roster.
type AttendanceService struct {
	engine *ledger.Engine
}

// NewAttendanceService creates a new AttendanceService over engine.
func NewAttendanceService(engine *ledger.Engine) *AttendanceService {
	return &AttendanceService{engine: engine}
}

// ReconcileDay applies a teacher's full-day submission.
func (s *AttendanceService) ReconcileDay(ctx context.Context, req *connect.Request[api.ReconcileDayRequest]) (*connect.Response[api.ReconcileDayResponse], error) {
	markerID := middleware.GetUserID(ctx)
	slog.Info("ReconcileDay request received",
		"marker_id", markerID,
		"date", req.Msg.Date,
		"entries_count", len(req.Msg.Entries),
	)

	day, err := parseDay(req.Msg.Date)
	if err != nil {
		return nil, err
	}

	entries := make([]ledger.Entry, len(req.Msg.Entries))
	for i, e := range req.Msg.Entries {
		entries[i] = ledger.Entry{StudentID: e.StudentID, Status: e.Status, ExtraLessons: e.ExtraLessons}
	}

	result, err := s.engine.Reconciler.ReconcileDay(ctx, markerID, day, entries)
	if err != nil {
		return nil, toConnectError("ReconcileDay", err)
	}

	resp := &api.ReconcileDayResponse{
		Success:    result.Success,
		Date:       models.FormatDay(result.Date),
		Results:    make([]api.EntryResult, len(result.Results)),
		AutoFilled: result.AutoFilled,
	}
	if resp.AutoFilled == nil {
		resp.AutoFilled = []string{}
	}
	for i, r := range result.Results {
		resp.Results[i] = toAPIEntryResult(r)
	}
	for _, r := range result.FillFailures {
		resp.FillFailures = append(resp.FillFailures, toAPIEntryResult(r))
	}

	return connect.NewResponse(resp), nil
}

// GetStatus returns a student's record for a day, or none.
func (s *AttendanceService) GetStatus(ctx context.Context, req *connect.Request[api.GetStatusRequest]) (*connect.Response[api.GetStatusResponse], error) {
	day, err := parseDay(req.Msg.Date)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, req.Msg.StudentID); err != nil {
		return nil, toConnectError("GetStatus", err)
	}

	record, err := s.engine.Attendance.Get(ctx, req.Msg.StudentID, day)
	if err != nil {
		return nil, toConnectError("GetStatus", err)
	}

	return connect.NewResponse(&api.GetStatusResponse{Record: toAPIRecord(record)}), nil
}

// ConsumeLesson manually consumes one lesson.
func (s *AttendanceService) ConsumeLesson(ctx context.Context, req *connect.Request[api.ConsumeLessonRequest]) (*connect.Response[api.ConsumeLessonResponse], error) {
	slog.Info("ConsumeLesson request received", "student_id", req.Msg.StudentID, "user_id", middleware.GetUserID(ctx))

	if err := s.authorize(ctx, req.Msg.StudentID); err != nil {
		return nil, toConnectError("ConsumeLesson", err)
	}

	remaining, err := s.engine.Lessons.ConsumeLesson(ctx, req.Msg.StudentID)
	if err != nil {
		return nil, toConnectError("ConsumeLesson", err)
	}

	return connect.NewResponse(&api.ConsumeLessonResponse{Remaining: remaining}), nil
}

// MonthlySummary counts a student's marks in a month up to a day.
func (s *AttendanceService) MonthlySummary(ctx context.Context, req *connect.Request[api.MonthlySummaryRequest]) (*connect.Response[api.MonthlySummaryResponse], error) {
	day, err := parseDay(req.Msg.Date)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, req.Msg.StudentID); err != nil {
		return nil, toConnectError("MonthlySummary", err)
	}

	summary, err := s.engine.Attendance.MonthlyCounts(ctx, req.Msg.StudentID, day)
	if err != nil {
		return nil, toConnectError("MonthlySummary", err)
	}

	counts := make(map[string]int, len(models.AllStatuses))
	for _, status := range models.AllStatuses {
		counts[string(status)] = summary.Counts[status]
	}

	return connect.NewResponse(&api.MonthlySummaryResponse{
		StudentID: summary.StudentID,
		From:      models.FormatDay(summary.From),
		To:        models.FormatDay(summary.To),
		Counts:    counts,
		Missed:    summary.Missed(),
	}), nil
}

// authorize restricts teachers to their own roster.
func (s *AttendanceService) authorize(ctx context.Context, studentID string) error {
	if studentID == "" {
		return fmt.Errorf("%w: studentId is required", ledger.ErrInvalidInput)
	}
	if middleware.GetRole(ctx) != models.RoleTeacher {
		return nil
	}
	_, err := s.engine.CheckOwner(ctx, middleware.GetUserID(ctx), studentID)
	return err
}
