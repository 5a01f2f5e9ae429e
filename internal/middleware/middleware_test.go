package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/lessonbook/internal/auth"
	"github.com/mmynk/lessonbook/internal/models"
	"github.com/mmynk/lessonbook/pkg/api"
)

const (
	whoAmIProcedure = "/test.v1.Test/WhoAmI"
	publicProcedure = "/test.v1.Test/Public"
)

func whoAmI(ctx context.Context, _ *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	return connect.NewResponse(&api.GetCurrentUserResponse{User: &api.User{
		ID:       GetUserID(ctx),
		Username: GetUsername(ctx),
		Role:     string(GetRole(ctx)),
	}}), nil
}

func setupTestServer(t *testing.T, jwt *auth.JWTManager, metrics *Metrics) string {
	t.Helper()

	opts := []connect.HandlerOption{
		connect.WithCodec(api.JSONCodec{}),
		connect.WithInterceptors(
			metrics.Interceptor(),
			RequireAuth(jwt, publicProcedure),
			RequireRole([]models.Role{models.RoleAdmin, models.RoleManager}, whoAmIProcedure),
			LoggingInterceptor(),
		),
	}

	mux := http.NewServeMux()
	mux.Handle(whoAmIProcedure, connect.NewUnaryHandler(whoAmIProcedure, whoAmI, opts...))
	mux.Handle(publicProcedure, connect.NewUnaryHandler(publicProcedure, whoAmI, opts...))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server.URL
}

func call(t *testing.T, url, procedure, token string) (*connect.Response[api.GetCurrentUserResponse], error) {
	t.Helper()
	client := connect.NewClient[api.GetCurrentUserRequest, api.GetCurrentUserResponse](
		http.DefaultClient, url+procedure, connect.WithCodec(api.JSONCodec{}))
	req := connect.NewRequest(&api.GetCurrentUserRequest{})
	if token != "" {
		req.Header().Set("Authorization", "Bearer "+token)
	}
	return client.CallUnary(context.Background(), req)
}

func TestInterceptors(t *testing.T) {
	jwt := auth.NewJWTManager("test-secret", time.Hour)
	metrics := NewMetrics()
	url := setupTestServer(t, jwt, metrics)

	manager := models.NewUser("manager1", "Manager", "hash", models.RoleManager)
	teacher := models.NewUser("teacher1", "Teacher", "hash", models.RoleTeacher)
	managerToken, _ := jwt.Generate(manager)
	teacherToken, _ := jwt.Generate(teacher)

	t.Run("Authenticated caller reaches the handler", func(t *testing.T) {
		resp, err := call(t, url, whoAmIProcedure, managerToken)
		if err != nil {
			t.Fatalf("call failed: %v", err)
		}
		if resp.Msg.User.ID != manager.ID || resp.Msg.User.Role != "manager" {
			t.Errorf("Unexpected identity: %+v", resp.Msg.User)
		}
	})

	t.Run("Missing token", func(t *testing.T) {
		_, err := call(t, url, whoAmIProcedure, "")
		if connect.CodeOf(err) != connect.CodeUnauthenticated {
			t.Errorf("Expected Unauthenticated, got %v", err)
		}
	})

	t.Run("Wrong role", func(t *testing.T) {
		_, err := call(t, url, whoAmIProcedure, teacherToken)
		if connect.CodeOf(err) != connect.CodePermissionDenied {
			t.Errorf("Expected PermissionDenied, got %v", err)
		}
	})

	t.Run("Public procedure skips auth", func(t *testing.T) {
		resp, err := call(t, url, publicProcedure, "")
		if err != nil {
			t.Fatalf("call failed: %v", err)
		}
		if resp.Msg.User.ID != "" {
			t.Errorf("Expected anonymous caller, got %+v", resp.Msg.User)
		}
	})

	t.Run("Metrics count calls by code", func(t *testing.T) {
		if got := testutil.ToFloat64(metrics.requests.WithLabelValues(whoAmIProcedure, "ok")); got != 1 {
			t.Errorf("ok calls: got %v, want 1", got)
		}
		if got := testutil.ToFloat64(metrics.requests.WithLabelValues(whoAmIProcedure, "unauthenticated")); got != 1 {
			t.Errorf("unauthenticated calls: got %v, want 1", got)
		}
	})
}

func TestCodeOf(t *testing.T) {
	if got := codeOf(nil); got != "ok" {
		t.Errorf("nil: got %q", got)
	}
	if got := codeOf(connect.NewError(connect.CodeNotFound, errors.New("x"))); got != "not_found" {
		t.Errorf("not found: got %q", got)
	}
	if got := codeOf(errors.New("plain")); got != "unknown" {
		t.Errorf("plain: got %q", got)
	}
}
