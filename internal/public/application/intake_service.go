package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/sngm3741/revision-landing-services/api/internal/public/domain"
)

// User facing result messages.
const (
	MsgSubmitted      = "상담 신청이 완료되었습니다!"
	MsgDuplicatePhone = "이미 상담 신청이 접수된 번호입니다."
	MsgStorageFailed  = "제출 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요."
	MsgUnexpected     = "예상치 못한 오류가 발생했습니다. 관리자에게 문의해주세요."
)

const (
	defaultStorageAttempts   = 3
	defaultSideEffectTimeout = 15 * time.Second
)

// IntakeService validates, enriches and persists lead submissions.
type IntakeService struct {
	repo     LeadRepository
	notifier LeadNotifier
	events   EventPublisher
	metrics  IntakeMetrics
	logger   *log.Logger

	now               func() time.Time
	newBackOff        func() backoff.BackOff
	maxAttempts       uint
	sideEffectTimeout time.Duration

	wg sync.WaitGroup
}

// IntakeOption customizes an IntakeService.
type IntakeOption func(*IntakeService)

// WithNotifier sets the staff notifier run after a lead is stored.
func WithNotifier(n LeadNotifier) IntakeOption {
	return func(s *IntakeService) { s.notifier = n }
}

// WithEventPublisher sets the publisher for lead.created events.
func WithEventPublisher(p EventPublisher) IntakeOption {
	return func(s *IntakeService) { s.events = p }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m IntakeMetrics) IntakeOption {
	return func(s *IntakeService) { s.metrics = m }
}

// WithClock overrides the time source used for createdAt.
func WithClock(now func() time.Time) IntakeOption {
	return func(s *IntakeService) { s.now = now }
}

// WithStorageRetry sets how many times a transient storage failure is attempted in
// total and the backoff between attempts.
func WithStorageRetry(maxAttempts int, newBackOff func() backoff.BackOff) IntakeOption {
	return func(s *IntakeService) {
		if maxAttempts > 0 {
			s.maxAttempts = uint(maxAttempts)
		}
		if newBackOff != nil {
			s.newBackOff = newBackOff
		}
	}
}

// NewIntakeService wires the intake use-case around a repository.
func NewIntakeService(repo LeadRepository, logger *log.Logger, opts ...IntakeOption) *IntakeService {
	if logger == nil {
		logger = log.New(os.Stdout, "[intake] ", log.LstdFlags)
	}
	s := &IntakeService{
		repo:              repo,
		logger:            logger,
		now:               func() time.Time { return time.Now().UTC() },
		newBackOff:        defaultBackOff,
		maxAttempts:       defaultStorageAttempts,
		sideEffectTimeout: defaultSideEffectTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = time.Second
	b.RandomizationFactor = 0.5
	b.Multiplier = 2
	return b
}

// SubmitLead runs the intake pipeline. Every outcome, including a panic raised by
// a dependency, is reported through the returned result.
func (s *IntakeService) SubmitLead(ctx context.Context, input SubmitLeadInput, reqCtx RequestContext) (result SubmitLeadResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("リード登録中に予期しないエラー: %v", r)
			result = failure(ResultUnexpected, MsgUnexpected, fmt.Sprintf("panic: %v", r))
		}
		s.observe(result.Kind)
	}()

	if ctx == nil {
		ctx = context.Background()
	}

	sub, verr := domain.ValidateSubmission(domain.LeadSubmission{
		Name:              input.Name,
		Phone:             input.Phone,
		RevisionTypeID:    input.RevisionTypeID,
		RevisionTypeTitle: input.RevisionTypeTitle,
		Consent:           input.Consent,
	})
	if verr != nil {
		res := failure(ResultValidation, verr.Message, verr.Error())
		res.Field = verr.Field
		return res
	}

	lead := s.buildLead(sub, reqCtx)
	lead.ID = s.repo.NewID()
	if err := s.persist(ctx, lead); err != nil {
		if errors.Is(err, domain.ErrDuplicateLead) {
			return failure(ResultDuplicate, MsgDuplicatePhone, err.Error())
		}
		s.logger.Printf("リードの保存に失敗: %v", err)
		var storageErr *domain.StorageError
		if errors.As(err, &storageErr) {
			return failure(ResultStorage, MsgStorageFailed, err.Error())
		}
		return failure(ResultStorage, MsgStorageFailed, (&domain.StorageError{Op: "create lead", Err: err}).Error())
	}

	s.afterCreate(*lead)

	return SubmitLeadResult{
		Success: true,
		LeadID:  lead.ID,
		Message: MsgSubmitted,
		Kind:    ResultOK,
	}
}

// Wait blocks until post-submit side effects started so far have finished.
func (s *IntakeService) Wait() {
	s.wg.Wait()
}

func (s *IntakeService) buildLead(sub domain.LeadSubmission, reqCtx RequestContext) *domain.Lead {
	referrer := strings.TrimSpace(reqCtx.Referrer)

	var utm domain.UTMParams
	switch {
	case reqCtx.UTM != nil && reqCtx.UTM.HasAny():
		utm = *reqCtx.UTM
	case referrer != "":
		utm = domain.ExtractUTM(referrer)
	}

	return &domain.Lead{
		Name:              sub.Name,
		Phone:             sub.Phone,
		RevisionTypeID:    sub.RevisionTypeID,
		RevisionTypeTitle: sub.RevisionTypeTitle,
		UserAgent:         domain.StringPtr(strings.TrimSpace(reqCtx.UserAgent)),
		IPAddress:         domain.StringPtr(strings.TrimSpace(reqCtx.IPAddress)),
		Referrer:          domain.StringPtr(referrer),
		UTM:               utm,
		Status:            domain.LeadStatusNew,
		ConsentPrivacy:    true,
		CreatedAt:         s.now(),
	}
}

// persist inserts the lead, retrying transient failures. Duplicates and context
// cancellation end the loop immediately. lead.ID is fixed before the first attempt, so a
// duplicate reported on a retry is checked against that id: the earlier attempt may
// have committed even though the driver returned an error.
func (s *IntakeService) persist(ctx context.Context, lead *domain.Lead) error {
	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		if attempt > 1 && s.metrics != nil {
			s.metrics.StorageRetried()
		}
		err := s.repo.Create(ctx, lead)
		switch {
		case err == nil:
			return struct{}{}, nil
		case errors.Is(err, domain.ErrDuplicateLead):
			if attempt > 1 && s.storedEarlier(ctx, lead.ID) {
				return struct{}{}, nil
			}
			return struct{}{}, backoff.Permanent(err)
		case errors.Is(err, context.Canceled),
			errors.Is(err, context.DeadlineExceeded):
			return struct{}{}, backoff.Permanent(err)
		default:
			return struct{}{}, err
		}
	},
		backoff.WithBackOff(s.newBackOff()),
		backoff.WithMaxTries(s.maxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.logger.Printf("リード保存をリトライします (attempt=%d, wait=%s): %v", attempt, next, err)
		}),
	)
	return err
}

func (s *IntakeService) storedEarlier(ctx context.Context, id string) bool {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if !errors.Is(err, domain.ErrLeadNotFound) {
			s.logger.Printf("リトライ前の保存確認に失敗 (lead=%s): %v", id, err)
		}
		return false
	}
	s.logger.Printf("前回の保存がコミット済みでした (lead=%s)", id)
	return true
}

func (s *IntakeService) afterCreate(lead domain.Lead) {
	if s.notifier == nil && s.events == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Printf("リード登録後処理で panic: %v", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.sideEffectTimeout)
		defer cancel()

		if s.notifier != nil {
			if err := s.notifier.NotifyLeadCreated(ctx, lead); err != nil {
				s.logger.Printf("スタッフ通知に失敗 (lead=%s): %v", lead.ID, err)
			}
		}
		if s.events != nil {
			if err := s.events.PublishLeadCreated(ctx, lead); err != nil {
				s.logger.Printf("lead.created イベントの発行に失敗 (lead=%s): %v", lead.ID, err)
			}
		}
	}()
}

func (s *IntakeService) observe(kind string) {
	if s.metrics == nil || kind == "" {
		return
	}
	s.metrics.SubmissionObserved(kind)
}

func failure(kind, message, diagnostic string) SubmitLeadResult {
	return SubmitLeadResult{
		Success: false,
		Message: message,
		Error:   diagnostic,
		Kind:    kind,
	}
}
