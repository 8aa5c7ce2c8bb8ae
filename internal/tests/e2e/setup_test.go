package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/you/gymdesk/internal/app"
	"github.com/you/gymdesk/internal/config"
	"github.com/you/gymdesk/internal/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// TestSuite is one fully wired API over in-memory stores.
type TestSuite struct {
	Server    *httptest.Server
	Container *app.Container
	Redis     *miniredis.Miniredis
	Notifier  *mocks.MockNotificationService
	Events    *mocks.MockEventPublisher
}

// NewTestSuite assembles the production container on SQLite and miniredis
// with seeded policies. Notifications and audit events are captured.
func NewTestSuite(t *testing.T) *TestSuite {
	t.Helper()

	file := config.Defaults()
	file.JWT.Secret = "e2e-secret"
	file.App.GinMode = gin.TestMode
	cfg, err := config.Build(file)
	require.NoError(t, err)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	s := &TestSuite{
		Redis:    mr,
		Notifier: mocks.NewMockNotificationService(),
		Events:   mocks.NewMockEventPublisher(),
	}
	s.Container, err = app.Assemble(cfg, zaptest.NewLogger(t), app.Infra{
		DB:       db,
		Redis:    rdb,
		Notifier: s.Notifier,
		Events:   s.Events,
	})
	require.NoError(t, err)

	s.Server = httptest.NewServer(s.Container.Router())
	t.Cleanup(func() {
		s.Server.Close()
		_ = s.Container.Close()
	})
	return s
}

// Response is a decoded API reply.
type Response struct {
	Status int
	Header http.Header
	Body   map[string]any
	Raw    []byte
}

// Data returns the "data" member as an object.
func (r Response) Data() map[string]any {
	m, _ := r.Body["data"].(map[string]any)
	return m
}

// List returns the "data" member as an array.
func (r Response) List() []any {
	l, _ := r.Body["data"].([]any)
	return l
}

// Do sends a JSON request with an optional bearer token.
func (s *TestSuite) Do(t *testing.T, method, path, token string, body any) Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.Server.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.Server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := Response{Status: resp.StatusCode, Header: resp.Header, Raw: raw}
	if resp.Header.Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(raw, &out.Body), string(raw))
	}
	return out
}
