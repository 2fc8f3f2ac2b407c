package notify

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Failed notification statuses.
const (
	StatusPending   = "pending"
	StatusDelivered = "delivered"
	StatusAbandoned = "abandoned"
)

// TargetStaffLead marks a failed staff notification about a new lead.
const TargetStaffLead = "staff_lead_notification"

// FailedNotification is a staff message that no channel accepted.
type FailedNotification struct {
	ID          string
	Target      string
	LeadID      string
	Identifier  string
	Text        string
	Error       string
	Attempts    int
	Status      string
	CreatedAt   time.Time
	LastTriedAt time.Time
}

// FailureStore persists failed notifications for later redelivery.
type FailureStore interface {
	SaveFailure(ctx context.Context, n *FailedNotification) error
	ListPending(ctx context.Context, limit int) ([]FailedNotification, error)
	UpdateAttempt(ctx context.Context, id string, attempts int, status, lastError string, triedAt time.Time) error
}

func combineErrors(errs ...error) error {
	parts := make([]string, 0, len(errs))
	for _, err := range errs {
		if err == nil {
			continue
		}
		parts = append(parts, err.Error())
	}
	if len(parts) == 0 {
		return nil
	}
	return errors.New(strings.Join(parts, "; "))
}
