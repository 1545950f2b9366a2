package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/gradebook-service/internal/api/http"
	"github.com/spec-kit/gradebook-service/internal/api/http/handlers"
	"github.com/spec-kit/gradebook-service/internal/auth"
	"github.com/spec-kit/gradebook-service/internal/domain"
	"github.com/spec-kit/gradebook-service/internal/events"
	"github.com/spec-kit/gradebook-service/internal/observability"
	"github.com/spec-kit/gradebook-service/internal/repository"
	"github.com/spec-kit/gradebook-service/internal/service"
	"github.com/spec-kit/gradebook-service/internal/session"
	"github.com/spec-kit/gradebook-service/internal/ws"
)

type testEnv struct {
	app      *fiber.App
	tokens   *auth.TokenManager
	authSvc  *service.AuthService
	registry *ws.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	tokens := auth.NewTokenManager("handler-test-secret", 240)
	users := repository.NewMemoryUserRepository()
	cache := session.NewMemoryCache()
	gate := auth.NewMiddleware(tokens, cache, "token", logger)

	registry := ws.NewRegistry()
	bus := events.NewBus()
	authSvc := service.NewAuthService(users, tokens)
	notifications := service.NewNotificationService(registry, bus, logger, metrics)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, 0)

	authHandler := handlers.NewAuthHandler(authSvc)
	gradesHandler := handlers.NewGradesHandler(notifications)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", gate.Require(domain.RoleAdmin), authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	grades := app.Group("/grades", gate.Require(domain.RoleTeacher, domain.RoleAdmin))
	grades.Post("/notify", gradesHandler.Notify)

	return &testEnv{app: app, tokens: tokens, authSvc: authSvc, registry: registry}
}

func (env *testEnv) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	return resp
}

func (env *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	token, _, err := env.tokens.Issue("admin-1", domain.RoleAdmin)
	require.NoError(t, err)
	return token
}

func registerBody(username string) map[string]any {
	return map[string]any{
		"username":  username,
		"email":     username + "@school.example",
		"password":  "pw-" + username,
		"firstName": "Grace",
		"lastName":  "Hopper",
		"roleId":    int(domain.RoleStudent),
	}
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var parsed map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return parsed
}

func TestRegisterRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/auth/register", "", registerBody("grace"))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	teacherToken, _, err := env.tokens.Issue("teacher-1", domain.RoleTeacher)
	require.NoError(t, err)
	resp = env.request(t, http.MethodPost, "/auth/register", teacherToken, registerBody("grace"))
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRegisterCreatesSanitizedUser(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/auth/register", env.adminToken(t), registerBody("grace"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	user := body["data"].(map[string]any)["user"].(map[string]any)
	require.Equal(t, "grace", user["username"])
	require.Equal(t, float64(domain.RoleStudent), user["roleId"])
	require.NotContains(t, user, "passwordHash")
	require.NotContains(t, user, "password")
}

func TestRegisterDuplicateConflict(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken(t)

	resp := env.request(t, http.MethodPost, "/auth/register", admin, registerBody("grace"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.request(t, http.MethodPost, "/auth/register", admin, registerBody("grace"))
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decodeBody(t, resp)
	require.Equal(t, "CONFLICT", body["error"].(map[string]any)["code"])
}

func TestRegisterMissingFields(t *testing.T) {
	env := newTestEnv(t)

	body := registerBody("grace")
	delete(body, "password")
	resp := env.request(t, http.MethodPost, "/auth/register", env.adminToken(t), body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginSuccessAndFailure(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/auth/register", env.adminToken(t), registerBody("grace"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.request(t, http.MethodPost, "/auth/login", "", map[string]any{
		"username": "grace",
		"password": "pw-grace",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	data := body["data"].(map[string]any)
	require.NotEmpty(t, data["token"])
	require.Equal(t, "grace", data["user"].(map[string]any)["username"])

	resp = env.request(t, http.MethodPost, "/auth/login", "", map[string]any{
		"username": "grace",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body = decodeBody(t, resp)
	_, hasData := body["data"]
	require.False(t, hasData, "failed login must not return a token")
}

func TestGradeNotifyRoleGating(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]any{
		"studentId":  "student-1",
		"gradeId":    1,
		"subjectId":  2,
		"gradeValue": 5.5,
		"gradeDate":  "2026-03-01",
	}

	resp := env.request(t, http.MethodPost, "/grades/notify", "", payload)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	studentToken, _, err := env.tokens.Issue("student-1", domain.RoleStudent)
	require.NoError(t, err)
	resp = env.request(t, http.MethodPost, "/grades/notify", studentToken, payload)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	teacherToken, _, err := env.tokens.Issue("teacher-1", domain.RoleTeacher)
	require.NoError(t, err)
	resp = env.request(t, http.MethodPost, "/grades/notify", teacherToken, payload)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
}
