package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adminapp "github.com/sngm3741/revision-landing-services/api/internal/admin/application"
	admindomain "github.com/sngm3741/revision-landing-services/api/internal/admin/domain"
	"github.com/sngm3741/revision-landing-services/api/internal/config"
	"github.com/sngm3741/revision-landing-services/api/internal/notify"
	"github.com/sngm3741/revision-landing-services/api/internal/public/domain"
)

type memoryStore struct {
	mu     sync.Mutex
	leads  []domain.Lead
	nextID int
}

func (m *memoryStore) NewID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return fmt.Sprintf("lead-%d", m.nextID)
}

func (m *memoryStore) Create(_ context.Context, lead *domain.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.leads {
		if existing.Phone == lead.Phone {
			return fmt.Errorf("insert lead: %w", domain.ErrDuplicateLead)
		}
	}
	if lead.ID == "" {
		m.nextID++
		lead.ID = fmt.Sprintf("lead-%d", m.nextID)
	}
	m.leads = append(m.leads, *lead)
	return nil
}

func (m *memoryStore) FindByID(_ context.Context, id string) (*domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, lead := range m.leads {
		if lead.ID == id {
			return &lead, nil
		}
	}
	return nil, domain.ErrLeadNotFound
}

func (m *memoryStore) Find(_ context.Context, _ adminapp.LeadFilter, _ adminapp.Paging) ([]admindomain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]admindomain.Lead(nil), m.leads...), nil
}

func (m *memoryStore) Count(context.Context, adminapp.LeadFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.leads)), nil
}

func (m *memoryStore) CountByRevisionType(context.Context) (map[int]int64, error) {
	return map[int]int64{}, nil
}

func (m *memoryStore) CountBySource(context.Context) (map[string]int64, error) {
	return map[string]int64{}, nil
}

func (m *memoryStore) SaveFailure(context.Context, *notify.FailedNotification) error { return nil }

func (m *memoryStore) ListPending(context.Context, int) ([]notify.FailedNotification, error) {
	return nil, nil
}

func (m *memoryStore) UpdateAttempt(context.Context, string, int, string, string, time.Time) error {
	return nil
}

func testConfig() config.Config {
	return config.Config{
		Addr:                ":0",
		LeadStore:           config.StoreMongo,
		Timezone:            "Asia/Seoul",
		AllowedOrigins:      []string{"https://landing.example.com"},
		SessionSecret:       "cookie-secret",
		SessionTTL:          time.Hour,
		SessionSweep:        "@every 10m",
		NotifyRetrySchedule: "@every 5m",
		StorageMaxAttempts:  1,
		RequestTimeout:      time.Second,
		ServerLog:           log.New(io.Discard, "", 0),
	}
}

func newTestServer(t *testing.T, cfg config.Config, pingErr error) (*Server, *memoryStore) {
	t.Helper()
	mem := &memoryStore{}
	store := &storage{
		name:       "memory",
		leads:      mem,
		adminLeads: mem,
		failures:   mem,
		ping:       func(context.Context) error { return pingErr },
		close:      func(context.Context) error { return nil },
	}
	return newServer(cfg, store, nil), mem
}

func serve(h http.Handler, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), nil)
	rec := serve(srv.Routes(), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"store":"memory"`)

	srv, _ = newTestServer(t, testConfig(), errors.New("no route to host"))
	rec = serve(srv.Routes(), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestLeadSubmissionEndToEnd(t *testing.T) {
	srv, mem := newTestServer(t, testConfig(), nil)
	routes := srv.Routes()

	body := `{"name":"김민지","phone":"01012345678","revisionTypeId":1,"consent":true}`
	rec := serve(routes, http.MethodPost, "/leads", body, map[string]string{"Referer": "https://landing.example.com/?utm_source=naver"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"leadId":"lead-1"`)

	rec = serve(routes, http.MethodPost, "/leads", `{"name":"이서연","phone":"010-1234-5678","consent":true}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(routes, http.MethodPost, "/leads", `{"name":"이","phone":"010-9999-8888","consent":true}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"name"`)

	srv.intake.Wait()
	require.Len(t, mem.leads, 1)
	lead := mem.leads[0]
	assert.Equal(t, "010-1234-5678", lead.Phone)
	assert.Equal(t, "naver", domain.StringValue(lead.UTM.Source))

	metricsBody := serve(routes, http.MethodGet, "/metrics", "", nil).Body.String()
	assert.Contains(t, metricsBody, `lead_submissions_total{kind="ok"} 1`)
	assert.Contains(t, metricsBody, `lead_submissions_total{kind="duplicate"} 1`)
}

func TestAdminRoutesRequireSecret(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), nil)
	assert.Equal(t, http.StatusNotFound, serve(srv.Routes(), http.MethodGet, "/admin/leads", "", nil).Code)

	cfg := testConfig()
	cfg.AdminJWTSecret = "jwt-secret"
	cfg.AdminJWTIssuer = "revision-landing-admin"
	srv, _ = newTestServer(t, cfg, nil)
	routes := srv.Routes()
	assert.Equal(t, http.StatusUnauthorized, serve(routes, http.MethodGet, "/admin/leads", "", nil).Code)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "staff-1",
		"iss": "revision-landing-admin",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("jwt-secret"))
	require.NoError(t, err)
	rec := serve(routes, http.MethodGet, "/admin/leads", "", map[string]string{"Authorization": "Bearer " + signed})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"items":[]`)
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), nil)
	routes := srv.Routes()

	rec := serve(routes, http.MethodOptions, "/leads", "", map[string]string{"Origin": "https://landing.example.com"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://landing.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PUT")

	rec = serve(routes, http.MethodGet, "/revision-types", "", map[string]string{"Origin": "https://evil.example.com"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSOriginPolicies(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	request := func(h http.Handler, origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/session", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := request(withCORS(nil)(next), "https://evil.example.com")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"), "no origins configured means no CORS")

	rec = request(withCORS([]string{"*"})(next), "https://evil.example.com")
	assert.Equal(t, "https://evil.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = request(withCORS([]string{"*", "https://landing.example.com"})(next), "https://landing.example.com")
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestJobs(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), nil)
	require.NoError(t, srv.registerJobs())
	assert.Equal(t, 1, srv.scheduler.Len(), "redelivery is skipped without notification channels")

	srv.sessions.Get("a")
	require.NoError(t, srv.sweepSessions(context.Background()))
	assert.Equal(t, 1, srv.sessions.Len())

	cfg := testConfig()
	cfg.SessionSweep = "whenever"
	srv, _ = newTestServer(t, cfg, nil)
	assert.Error(t, srv.registerJobs())
}

func TestShutdownClosesStorage(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), nil)
	closed := false
	srv.storage.close = func(context.Context) error {
		closed = true
		return nil
	}
	srv.shutdown(context.Background())
	assert.True(t, closed)
}
