package admin

import (
	"log"
	"time"

	"github.com/go-chi/chi/v5"

	adminapp "github.com/sngm3741/revision-landing-services/api/internal/admin/application"
)

// Handler wires admin HTTP endpoints to application services.
type Handler struct {
	logger      *log.Logger
	leadService adminapp.LeadService
	location    *time.Location
}

// Config provides dependencies for Handler.
type Config struct {
	Logger      *log.Logger
	LeadService adminapp.LeadService
	// Location is used to render createdAt for staff. Defaults to UTC.
	Location *time.Location
}

// NewHandler constructs an admin HTTP handler set.
func NewHandler(cfg Config) *Handler {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		logger:      cfg.Logger,
		leadService: cfg.LeadService,
		location:    loc,
	}
}

// Register mounts admin routes onto router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/leads", h.leadListHandler())
	r.Get("/leads/stats", h.leadStatsHandler())
	r.Get("/leads/{id}", h.leadDetailHandler())
}
