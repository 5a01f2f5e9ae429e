package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/lessonbook/pkg/api"
)

// AttendanceServiceName is the fully-qualified name of the AttendanceService.
const AttendanceServiceName = "lessonbook.v1.AttendanceService"

const (
	AttendanceServiceReconcileDayProcedure   = "/lessonbook.v1.AttendanceService/ReconcileDay"
	AttendanceServiceGetStatusProcedure      = "/lessonbook.v1.AttendanceService/GetStatus"
	AttendanceServiceConsumeLessonProcedure  = "/lessonbook.v1.AttendanceService/ConsumeLesson"
	AttendanceServiceMonthlySummaryProcedure = "/lessonbook.v1.AttendanceService/MonthlySummary"
)

// AttendanceServiceHandler is implemented by the attendance service.
type AttendanceServiceHandler interface {
	ReconcileDay(context.Context, *connect.Request[api.ReconcileDayRequest]) (*connect.Response[api.ReconcileDayResponse], error)
	GetStatus(context.Context, *connect.Request[api.GetStatusRequest]) (*connect.Response[api.GetStatusResponse], error)
	ConsumeLesson(context.Context, *connect.Request[api.ConsumeLessonRequest]) (*connect.Response[api.ConsumeLessonResponse], error)
	MonthlySummary(context.Context, *connect.Request[api.MonthlySummaryRequest]) (*connect.Response[api.MonthlySummaryResponse], error)
}

// NewAttendanceServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and
// the handler itself.
func NewAttendanceServiceHandler(svc AttendanceServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + AttendanceServiceName + "/", router{
		AttendanceServiceReconcileDayProcedure:   connect.NewUnaryHandler(AttendanceServiceReconcileDayProcedure, svc.ReconcileDay, opts...),
		AttendanceServiceGetStatusProcedure:      connect.NewUnaryHandler(AttendanceServiceGetStatusProcedure, svc.GetStatus, opts...),
		AttendanceServiceConsumeLessonProcedure:  connect.NewUnaryHandler(AttendanceServiceConsumeLessonProcedure, svc.ConsumeLesson, opts...),
		AttendanceServiceMonthlySummaryProcedure: connect.NewUnaryHandler(AttendanceServiceMonthlySummaryProcedure, svc.MonthlySummary, opts...),
	}
}

// AttendanceServiceClient is a client for the AttendanceService.
type AttendanceServiceClient interface {
	ReconcileDay(context.Context, *connect.Request[api.ReconcileDayRequest]) (*connect.Response[api.ReconcileDayResponse], error)
	GetStatus(context.Context, *connect.Request[api.GetStatusRequest]) (*connect.Response[api.GetStatusResponse], error)
	ConsumeLesson(context.Context, *connect.Request[api.ConsumeLessonRequest]) (*connect.Response[api.ConsumeLessonResponse], error)
	MonthlySummary(context.Context, *connect.Request[api.MonthlySummaryRequest]) (*connect.Response[api.MonthlySummaryResponse], error)
}

// NewAttendanceServiceClient constructs a client for the AttendanceService.
// baseURL should include the scheme and host, e.g. http://localhost:8080.
func NewAttendanceServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AttendanceServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &attendanceServiceClient{
		reconcileDay:   connect.NewClient[api.ReconcileDayRequest, api.ReconcileDayResponse](httpClient, baseURL+AttendanceServiceReconcileDayProcedure, opts...),
		getStatus:      connect.NewClient[api.GetStatusRequest, api.GetStatusResponse](httpClient, baseURL+AttendanceServiceGetStatusProcedure, opts...),
		consumeLesson:  connect.NewClient[api.ConsumeLessonRequest, api.ConsumeLessonResponse](httpClient, baseURL+AttendanceServiceConsumeLessonProcedure, opts...),
		monthlySummary: connect.NewClient[api.MonthlySummaryRequest, api.MonthlySummaryResponse](httpClient, baseURL+AttendanceServiceMonthlySummaryProcedure, opts...),
	}
}

type attendanceServiceClient struct {
	reconcileDay   *connect.Client[api.ReconcileDayRequest, api.ReconcileDayResponse]
	getStatus      *connect.Client[api.GetStatusRequest, api.GetStatusResponse]
	consumeLesson  *connect.Client[api.ConsumeLessonRequest, api.ConsumeLessonResponse]
	monthlySummary *connect.Client[api.MonthlySummaryRequest, api.MonthlySummaryResponse]
}

func (c *attendanceServiceClient) ReconcileDay(ctx context.Context, req *connect.Request[api.ReconcileDayRequest]) (*connect.Response[api.ReconcileDayResponse], error) {
	return c.reconcileDay.CallUnary(ctx, req)
}

func (c *attendanceServiceClient) GetStatus(ctx context.Context, req *connect.Request[api.GetStatusRequest]) (*connect.Response[api.GetStatusResponse], error) {
	return c.getStatus.CallUnary(ctx, req)
}

func (c *attendanceServiceClient) ConsumeLesson(ctx context.Context, req *connect.Request[api.ConsumeLessonRequest]) (*connect.Response[api.ConsumeLessonResponse], error) {
	return c.consumeLesson.CallUnary(ctx, req)
}

func (c *attendanceServiceClient) MonthlySummary(ctx context.Context, req *connect.Request[api.MonthlySummaryRequest]) (*connect.Response[api.MonthlySummaryResponse], error) {
	return c.monthlySummary.CallUnary(ctx, req)
}
