package notify

import (
	"context"
	"log"
	"time"
)

const defaultRedeliverBatch = 50

// Deliverer re-sends a stored notification.
type Deliverer interface {
	Redeliver(ctx context.Context, identifier, text string) error
}

// Redeliverer drains pending failed notifications. It is run periodically by the
// scheduler.
type Redeliverer struct {
	store       FailureStore
	deliverer   Deliverer
	logger      *log.Logger
	maxAttempts int
	batch       int
	now         func() time.Time
}

// RedeliverReport summarizes one pass.
type RedeliverReport struct {
	Delivered int
	Retrying  int
	Abandoned int
}

func NewRedeliverer(store FailureStore, deliverer Deliverer, logger *log.Logger, maxAttempts int) *Redeliverer {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &Redeliverer{
		store:       store,
		deliverer:   deliverer,
		logger:      logger,
		maxAttempts: maxAttempts,
		batch:       defaultRedeliverBatch,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RunOnce tries every pending notification once. A notification whose attempt
// count reaches maxAttempts without success is marked abandoned.
func (r *Redeliverer) RunOnce(ctx context.Context) (RedeliverReport, error) {
	var report RedeliverReport

	pending, err := r.store.ListPending(ctx, r.batch)
	if err != nil {
		return report, err
	}

	for _, item := range pending {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		attempts := item.Attempts + 1
		status := StatusDelivered
		lastError := ""
		if err := r.deliverer.Redeliver(ctx, item.Identifier, item.Text); err != nil {
			lastError = err.Error()
			status = StatusPending
			if attempts >= r.maxAttempts {
				status = StatusAbandoned
			}
		}

		switch status {
		case StatusDelivered:
			report.Delivered++
		case StatusAbandoned:
			report.Abandoned++
			r.logf("通知の再送を断念しました (id=%s, lead=%s): %s", item.ID, item.LeadID, lastError)
		default:
			report.Retrying++
		}

		if err := r.store.UpdateAttempt(ctx, item.ID, attempts, status, lastError, r.now()); err != nil {
			r.logf("再送結果の保存に失敗 (id=%s): %v", item.ID, err)
		}
	}
	return report, nil
}

// Run is the scheduler entry point.
func (r *Redeliverer) Run(ctx context.Context) error {
	report, err := r.RunOnce(ctx)
	if err != nil {
		return err
	}
	if report.Delivered+report.Retrying+report.Abandoned > 0 {
		r.logf("通知再送: delivered=%d retrying=%d abandoned=%d", report.Delivered, report.Retrying, report.Abandoned)
	}
	return nil
}

func (r *Redeliverer) logf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}
