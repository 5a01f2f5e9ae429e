package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/lessonbook/pkg/api"
)

// BillingServiceName is the fully-qualified name of the BillingService.
const BillingServiceName = "lessonbook.v1.BillingService"

const (
	BillingServiceApplyPaymentProcedure  = "/lessonbook.v1.BillingService/ApplyPayment"
	BillingServiceListPaymentsProcedure  = "/lessonbook.v1.BillingService/ListPayments"
	BillingServiceAssignPackageProcedure = "/lessonbook.v1.BillingService/AssignPackage"
	BillingServiceEnrollStudentProcedure = "/lessonbook.v1.BillingService/EnrollStudent"
	BillingServiceListPackagesProcedure  = "/lessonbook.v1.BillingService/ListPackages"
)

// BillingServiceHandler is implemented by the billing service.
type BillingServiceHandler interface {
	ApplyPayment(context.Context, *connect.Request[api.ApplyPaymentRequest]) (*connect.Response[api.ApplyPaymentResponse], error)
	ListPayments(context.Context, *connect.Request[api.ListPaymentsRequest]) (*connect.Response[api.ListPaymentsResponse], error)
	AssignPackage(context.Context, *connect.Request[api.AssignPackageRequest]) (*connect.Response[api.AssignPackageResponse], error)
	EnrollStudent(context.Context, *connect.Request[api.EnrollStudentRequest]) (*connect.Response[api.EnrollStudentResponse], error)
	ListPackages(context.Context, *connect.Request[api.ListPackagesRequest]) (*connect.Response[api.ListPackagesResponse], error)
}

// NewBillingServiceHandler builds an HTTP handler from the service
// implementation.
func NewBillingServiceHandler(svc BillingServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + BillingServiceName + "/", router{
		BillingServiceApplyPaymentProcedure:  connect.NewUnaryHandler(BillingServiceApplyPaymentProcedure, svc.ApplyPayment, opts...),
		BillingServiceListPaymentsProcedure:  connect.NewUnaryHandler(BillingServiceListPaymentsProcedure, svc.ListPayments, opts...),
		BillingServiceAssignPackageProcedure: connect.NewUnaryHandler(BillingServiceAssignPackageProcedure, svc.AssignPackage, opts...),
		BillingServiceEnrollStudentProcedure: connect.NewUnaryHandler(BillingServiceEnrollStudentProcedure, svc.EnrollStudent, opts...),
		BillingServiceListPackagesProcedure:  connect.NewUnaryHandler(BillingServiceListPackagesProcedure, svc.ListPackages, opts...),
	}
}

// BillingServiceClient is a client for the BillingService.
type BillingServiceClient interface {
	ApplyPayment(context.Context, *connect.Request[api.ApplyPaymentRequest]) (*connect.Response[api.ApplyPaymentResponse], error)
	ListPayments(context.Context, *connect.Request[api.ListPaymentsRequest]) (*connect.Response[api.ListPaymentsResponse], error)
	AssignPackage(context.Context, *connect.Request[api.AssignPackageRequest]) (*connect.Response[api.AssignPackageResponse], error)
	EnrollStudent(context.Context, *connect.Request[api.EnrollStudentRequest]) (*connect.Response[api.EnrollStudentResponse], error)
	ListPackages(context.Context, *connect.Request[api.ListPackagesRequest]) (*connect.Response[api.ListPackagesResponse], error)
}

// NewBillingServiceClient constructs a client for the BillingService.
func NewBillingServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) BillingServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &billingServiceClient{
		applyPayment:  connect.NewClient[api.ApplyPaymentRequest, api.ApplyPaymentResponse](httpClient, baseURL+BillingServiceApplyPaymentProcedure, opts...),
		listPayments:  connect.NewClient[api.ListPaymentsRequest, api.ListPaymentsResponse](httpClient, baseURL+BillingServiceListPaymentsProcedure, opts...),
		assignPackage: connect.NewClient[api.AssignPackageRequest, api.AssignPackageResponse](httpClient, baseURL+BillingServiceAssignPackageProcedure, opts...),
		enrollStudent: connect.NewClient[api.EnrollStudentRequest, api.EnrollStudentResponse](httpClient, baseURL+BillingServiceEnrollStudentProcedure, opts...),
		listPackages:  connect.NewClient[api.ListPackagesRequest, api.ListPackagesResponse](httpClient, baseURL+BillingServiceListPackagesProcedure, opts...),
	}
}

type billingServiceClient struct {
	applyPayment  *connect.Client[api.ApplyPaymentRequest, api.ApplyPaymentResponse]
	listPayments  *connect.Client[api.ListPaymentsRequest, api.ListPaymentsResponse]
	assignPackage *connect.Client[api.AssignPackageRequest, api.AssignPackageResponse]
	enrollStudent *connect.Client[api.EnrollStudentRequest, api.EnrollStudentResponse]
	listPackages  *connect.Client[api.ListPackagesRequest, api.ListPackagesResponse]
}

func (c *billingServiceClient) ApplyPayment(ctx context.Context, req *connect.Request[api.ApplyPaymentRequest]) (*connect.Response[api.ApplyPaymentResponse], error) {
	return c.applyPayment.CallUnary(ctx, req)
}

func (c *billingServiceClient) ListPayments(ctx context.Context, req *connect.Request[api.ListPaymentsRequest]) (*connect.Response[api.ListPaymentsResponse], error) {
	return c.listPayments.CallUnary(ctx, req)
}

func (c *billingServiceClient) AssignPackage(ctx context.Context, req *connect.Request[api.AssignPackageRequest]) (*connect.Response[api.AssignPackageResponse], error) {
	return c.assignPackage.CallUnary(ctx, req)
}

func (c *billingServiceClient) EnrollStudent(ctx context.Context, req *connect.Request[api.EnrollStudentRequest]) (*connect.Response[api.EnrollStudentResponse], error) {
	return c.enrollStudent.CallUnary(ctx, req)
}

func (c *billingServiceClient) ListPackages(ctx context.Context, req *connect.Request[api.ListPackagesRequest]) (*connect.Response[api.ListPackagesResponse], error) {
	return c.listPackages.CallUnary(ctx, req)
}
