package public

import (
	"log"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/revision-landing-services/api/internal/interfaces/http/common"
	publicapp "github.com/sngm3741/revision-landing-services/api/internal/public/application"
	"github.com/sngm3741/revision-landing-services/api/internal/public/session"
)

const defaultRequestTimeout = 5 * time.Second

// Handler wires public HTTP endpoints to application services.
type Handler struct {
	logger         *log.Logger
	intake         publicapp.LeadSubmitter
	sessions       *session.Registry
	sessionSecret  []byte
	sessionSecure  bool
	mediaBaseURL   string
	requestTimeout time.Duration
	leadLimiter    *common.IPRateLimiter
	trustedProxies int
	now            func() time.Time
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger              *log.Logger
	Intake              publicapp.LeadSubmitter
	Sessions            *session.Registry
	SessionSecret       []byte
	SessionCookieSecure bool
	MediaBaseURL        string
	RequestTimeout      time.Duration
	// LeadLimiter throttles POST /leads per client IP. nil disables throttling.
	LeadLimiter *common.IPRateLimiter
	// TrustedProxies is the number of reverse proxies allowed to set X-Forwarded-For.
	TrustedProxies int
}

// NewHandler constructs a public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = session.NewRegistry(0, 0)
	}
	return &Handler{
		logger:         cfg.Logger,
		intake:         cfg.Intake,
		sessions:       sessions,
		sessionSecret:  cfg.SessionSecret,
		sessionSecure:  cfg.SessionCookieSecure,
		mediaBaseURL:   strings.TrimRight(strings.TrimSpace(cfg.MediaBaseURL), "/"),
		requestTimeout: timeout,
		leadLimiter:    cfg.LeadLimiter,
		trustedProxies: cfg.TrustedProxies,
		now:            time.Now,
	}
}

// Register mounts all public routes onto the router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.leadLimiter != nil {
			r.Use(h.leadLimiter.Middleware)
		}
		r.Post("/leads", h.leadCreateHandler())
	})
	r.Post("/leads/validate", h.leadValidateHandler())

	r.Get("/session", h.sessionGetHandler())
	r.Put("/session/category", h.sessionCategoryHandler())
	r.Delete("/session", h.sessionResetHandler())

	r.Get("/revision-types", h.revisionTypeListHandler())
	r.Get("/revision-types/{id}", h.revisionTypeDetailHandler())
}

func (h *Handler) logf(format string, args ...any) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}
