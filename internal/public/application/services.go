package application

import (
	"context"

	"github.com/sngm3741/revision-landing-services/api/internal/public/domain"
)

// LeadRepository persists leads. Create keeps a preassigned lead.ID and assigns one
// otherwise; NewID returns an id in the backend's format.
// LeadRepository は Public コンテキストでリードを書き込むためのポート。
type LeadRepository interface {
	NewID() string
	Create(ctx context.Context, lead *domain.Lead) error
	FindByID(ctx context.Context, id string) (*domain.Lead, error)
}

// LeadNotifier tells clinic staff about a new lead.
type LeadNotifier interface {
	NotifyLeadCreated(ctx context.Context, lead domain.Lead) error
}

// EventPublisher emits integration events for downstream systems.
type EventPublisher interface {
	PublishLeadCreated(ctx context.Context, lead domain.Lead) error
}

// IntakeMetrics receives counters from the intake pipeline.
type IntakeMetrics interface {
	SubmissionObserved(kind string)
	StorageRetried()
}

// SubmitLeadInput captures the lead form as posted.
type SubmitLeadInput struct {
	Name              string
	Phone             string
	RevisionTypeID    int
	RevisionTypeTitle string
	Consent           bool
}

// RequestContext is ambient request metadata gathered by the transport layer.
type RequestContext struct {
	UserAgent string
	IPAddress string
	Referrer  string
	// UTM is an explicit override. It is used only when at least one field is set.
	UTM *domain.UTMParams
}

// Result kinds.
const (
	ResultOK         = "ok"
	ResultValidation = "validation"
	ResultDuplicate  = "duplicate"
	ResultStorage    = "storage"
	ResultUnexpected = "unexpected"
)

// SubmitLeadResult is the only shape SubmitLead ever returns.
type SubmitLeadResult struct {
	Success bool   `json:"success"`
	LeadID  string `json:"leadId,omitempty"`
	Message string `json:"message"`
	// Error is diagnostic text for logs. It must not be shown to visitors.
	Error string `json:"error,omitempty"`
	Kind  string `json:"-"`
	// Field is set for validation failures.
	Field string `json:"field,omitempty"`
}

// LeadSubmitter describes the intake use-case.
type LeadSubmitter interface {
	SubmitLead(ctx context.Context, input SubmitLeadInput, reqCtx RequestContext) SubmitLeadResult
}
