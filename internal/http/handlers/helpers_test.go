package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/you/gymdesk/domain"
	"github.com/you/gymdesk/internal/infrastructure/repositories"
	"github.com/you/gymdesk/internal/mocks"
	"github.com/you/gymdesk/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func ptr[T any](v T) *T { return &v }

// do sends a JSON request and decodes the JSON reply.
func do(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func fieldNames(body map[string]any) []string {
	raw, _ := body["errors"].([]any)
	names := make([]string, 0, len(raw))
	for _, e := range raw {
		if m, ok := e.(map[string]any); ok {
			names = append(names, m["field"].(string))
		}
	}
	return names
}

// ledgerEnv runs the registry handlers on real services over SQLite.
type ledgerEnv struct {
	router  *gin.Engine
	users   domain.UserRepository
	trainer *domain.User
	member  *domain.User
	other   *domain.User
}

func newLedgerEnv(t *testing.T) *ledgerEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(repositories.Models()...))

	users := repositories.NewUserRepository(db)
	env := &ledgerEnv{
		users:   users,
		trainer: &domain.User{Email: "coach@gym.in", Name: "Coach", Role: domain.RoleTrainer},
		member:  &domain.User{Phone: "9000000001", Name: "Asha", Role: domain.RoleMember},
		other:   &domain.User{Phone: "9000000002", Name: "Ravi", Role: domain.RoleMember},
	}
	for _, u := range []*domain.User{env.trainer, env.member, env.other} {
		require.NoError(t, users.Create(context.Background(), u))
	}

	events := mocks.NewMockEventPublisher()
	clock := func() time.Time { return time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC) }
	sessions := services.NewSessionService(repositories.NewSessionRepository(db), users, events, nil, time.UTC).WithClock(clock)
	payments := services.NewPaymentService(repositories.NewPaymentRepository(db), users, events, nil, time.UTC).WithClock(clock)
	profiles := services.NewProfileService(users, events, nil)

	sh := NewSessionHandlers(sessions)
	ph := NewPaymentHandlers(payments, time.UTC, nil)
	ph.now = clock
	prof := NewProfileHandlers(profiles)
	ah := NewAuthHandlers(mocks.NewMockAuthService(), mocks.NewMockOTPService(), profiles, 10*time.Minute, nil)

	r := gin.New()
	api := r.Group("/api")
	api.GET("/users", ah.ListUsers)
	api.GET("/users/:id", ah.GetUser)
	api.PUT("/users/:id/role", ah.SetRole)

	api.GET("/profile/:userId", prof.Get)
	api.PUT("/profile/:userId", prof.Update)
	api.PUT("/profile/:userId/personal", prof.UpdatePersonal)
	api.PUT("/profile/:userId/measurements", prof.UpdateMeasurements)
	api.PUT("/profile/:userId/bca", prof.UpdateBCA)

	api.GET("/sessions/upcoming", sh.Upcoming)
	api.POST("/sessions", sh.Create)
	api.GET("/sessions", sh.List)
	api.GET("/sessions/date-range", sh.ByDateRange)
	api.GET("/sessions/date/:date", sh.ByDate)
	api.GET("/sessions/user/:userId", sh.ByUser)
	api.GET("/sessions/session/:sessionId", sh.GetBySessionID)
	api.GET("/sessions/:id", sh.Get)
	api.PUT("/sessions/:id", sh.Update)
	api.DELETE("/sessions/:id", sh.Delete)
	api.POST("/sessions/:id/add-user", sh.AddUser)
	api.POST("/sessions/:id/remove-user", sh.RemoveUser)
	api.PATCH("/sessions/:id/status", sh.SetStatus)

	api.POST("/payments", ph.Create)
	api.GET("/payments", ph.List)
	api.GET("/payments/export", ph.Export)
	api.GET("/payments/statistics", ph.Statistics)
	api.GET("/payments/payment/:paymentId", ph.GetByPaymentID)
	api.GET("/payments/user/:userId", ph.ByUser)
	api.GET("/payments/super-user/:superUserId", ph.BySuperUser)
	api.GET("/payments/:id", ph.Get)
	api.PUT("/payments/:id", ph.Update)
	api.DELETE("/payments/:id", ph.Delete)
	api.PATCH("/payments/:id/status", ph.SetStatus)
	api.POST("/payments/:id/refund", ph.Refund)

	env.router = r
	return env
}
