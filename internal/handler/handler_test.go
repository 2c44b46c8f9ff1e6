package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Kilat-Travel/service-booking/internal/application"
	"github.com/Kilat-Travel/service-booking/internal/kafka"
	"github.com/Kilat-Travel/service-booking/internal/repository"
	"github.com/Kilat-Travel/service-booking/internal/response"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _, _ string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type testServer struct {
	router    *gin.Engine
	redis     *miniredis.Miniredis
	publisher *recordingPublisher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&repository.BookingModel{}, &repository.PromoCodeModel{}, &repository.ClientModel{}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := zap.NewNop()
	pub := &recordingPublisher{}
	snapshots := repository.NewRedisSnapshotStore(rdb, time.Hour)
	autosaver := application.NewAutosaver(snapshots, 10*time.Millisecond, log)
	t.Cleanup(autosaver.Stop)

	bookingService := application.NewBookingService(repository.NewGormBookingRepository(db), pub, log)
	promoService := application.NewPromoService(repository.NewGormPromoRepository(db), log)
	clientService := application.NewClientService(repository.NewGormClientRepository(db), log)
	pricingService := application.NewPricingService(log)
	wizardService := application.NewWizardService(snapshots, autosaver, promoService, bookingService, clientService, pricingService, log)

	router := gin.New()
	NewWizardHandler(wizardService).RegisterRoutes(&router.RouterGroup)
	NewBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup)
	NewAdminBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup)
	NewPromoHandler(promoService).RegisterRoutes(&router.RouterGroup)
	NewPricingHandler(pricingService).RegisterRoutes(&router.RouterGroup)
	NewClientHandler(clientService).RegisterRoutes(&router.RouterGroup)

	return &testServer{router: router, redis: mr, publisher: pub}
}

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorBody `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

// expect runs a request, checks the status and decodes data into out when non-nil.
func (s *testServer) expect(t *testing.T, status int, method, path string, body, out interface{}) envelope {
	t.Helper()
	code, env := s.do(t, method, path, body)
	require.Equal(t, status, code, "%s %s: %+v", method, path, env.Error)
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

func (s *testServer) createClient(t *testing.T, name, email string) uuid.UUID {
	t.Helper()
	var c struct {
		ID uuid.UUID `json:"id"`
	}
	s.expect(t, http.StatusCreated, http.MethodPost, "/api/v1/clients", map[string]interface{}{
		"name":        name,
		"email":       email,
		"nationality": "si",
	}, &c)
	return c.ID
}
