package service

import (
	"github.com/mmynk/lessonbook/internal/ledger"
	"github.com/mmynk/lessonbook/internal/models"
	"github.com/mmynk/lessonbook/pkg/api"
)

func toAPIStudent(s *models.Student) *api.Student {
	return &api.Student{
		ID:               s.ID,
		FirstName:        s.FirstName,
		LastName:         s.LastName,
		Phone:            s.Phone,
		TeacherID:        s.TeacherID,
		TimeSlotID:       s.TimeSlotID,
		PackageCode:      s.PackageCode,
		PackagePrice:     int64(s.PackagePrice),
		RemainingLessons: s.RemainingLessons,
		Debt:             int64(s.Debt),
		NeedsBook:        s.NeedsBook,
	}
}

func toAPIRecord(r *models.AttendanceRecord) *api.AttendanceRecord {
	if r == nil {
		return nil
	}
	return &api.AttendanceRecord{
		ID:         r.ID,
		StudentID:  r.StudentID,
		LessonDate: models.FormatDay(r.LessonDate),
		Status:     string(r.Status),
		MarkedBy:   r.MarkedBy,
		MarkedAt:   r.MarkedAt,
		CheckinAt:  r.CheckinAt,
	}
}

func toAPIPayment(p *models.Payment) api.Payment {
	return api.Payment{
		ID:        p.ID,
		StudentID: p.StudentID,
		Amount:    int64(p.Amount),
		PaidAt:    p.PaidAt,
		PaidBy:    p.PaidBy,
		Note:      p.Note,
	}
}

func toAPIPackage(p *models.LessonPackage) api.LessonPackage {
	return api.LessonPackage{
		Code:         p.Code,
		Title:        p.Title,
		Price:        int64(p.Price),
		LessonsCount: p.LessonsCount,
		ScheduleCode: p.ScheduleCode,
	}
}

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt,
	}
}

func toAPIEntryResult(r ledger.EntryResult) api.EntryResult {
	return api.EntryResult{
		StudentID:    r.StudentID,
		Applied:      r.Applied,
		Status:       string(r.Status),
		NewRemaining: r.NewRemaining,
		ErrorCode:    r.ErrorCode,
	}
}
