package service

import (
	"connectrpc.com/connect"

	"github.com/mmynk/lessonbook/internal/auth"
	"github.com/mmynk/lessonbook/internal/middleware"
	"github.com/mmynk/lessonbook/internal/models"
	"github.com/mmynk/lessonbook/pkg/api/apiconnect"
)

// moneyProcedures change or reveal what a student owes.
var moneyProcedures = []string{
	apiconnect.BillingServiceApplyPaymentProcedure,
	apiconnect.BillingServiceListPaymentsProcedure,
	apiconnect.BillingServiceAssignPackageProcedure,
	apiconnect.BillingServiceEnrollStudentProcedure,
}

// HandlerOptions returns the interceptor chain shared by every service.
// metrics may be nil.
func HandlerOptions(jwtManager *auth.JWTManager, metrics *middleware.Metrics) []connect.HandlerOption {
	var interceptors []connect.Interceptor
	if metrics != nil {
		interceptors = append(interceptors, metrics.Interceptor())
	}
	interceptors = append(interceptors,
		middleware.RequireAuth(jwtManager, apiconnect.AuthServiceLoginProcedure),
		middleware.RequireRole(models.MoneyRoles, moneyProcedures...),
		middleware.RequireRole([]models.Role{models.RoleAdmin}, apiconnect.AuthServiceRegisterProcedure),
		middleware.LoggingInterceptor(),
	)
	return []connect.HandlerOption{connect.WithInterceptors(interceptors...)}
}
