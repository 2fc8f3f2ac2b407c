package application

import (
	"context"
	"errors"
	"io"
	"log"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/revision-landing-services/api/internal/public/domain"
)

type memoryLeadRepo struct {
	mu      sync.Mutex
	leads   map[string]domain.Lead
	byPhone map[string]string
	failN   int
	failErr error
	calls   int
	panics  bool
	nextID  int

	// lostAcks stores the row and still reports failErr, like a reset after COMMIT.
	lostAcks int
}

func newMemoryLeadRepo() *memoryLeadRepo {
	return &memoryLeadRepo{leads: map[string]domain.Lead{}, byPhone: map[string]string{}}
}

func (r *memoryLeadRepo) NewID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	return "lead-" + strconv.Itoa(r.nextID)
}

func (r *memoryLeadRepo) Create(_ context.Context, lead *domain.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.panics {
		panic("driver exploded")
	}
	if r.failN > 0 {
		r.failN--
		return r.failErr
	}
	if _, ok := r.byPhone[lead.Phone]; ok {
		return domain.ErrDuplicateLead
	}
	if lead.ID == "" {
		r.nextID++
		lead.ID = "lead-" + strconv.Itoa(r.nextID)
	}
	r.leads[lead.ID] = *lead
	r.byPhone[lead.Phone] = lead.ID
	if r.lostAcks > 0 {
		r.lostAcks--
		return r.failErr
	}
	return nil
}

func (r *memoryLeadRepo) FindByID(_ context.Context, id string) (*domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lead, ok := r.leads[id]
	if !ok {
		return nil, domain.ErrLeadNotFound
	}
	return &lead, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	leads []domain.Lead
	err   error
}

func (n *recordingNotifier) NotifyLeadCreated(_ context.Context, lead domain.Lead) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.leads = append(n.leads, lead)
	return n.err
}

func (n *recordingNotifier) PublishLeadCreated(ctx context.Context, lead domain.Lead) error {
	return n.NotifyLeadCreated(ctx, lead)
}

type countingMetrics struct {
	mu      sync.Mutex
	kinds   map[string]int
	retries int
}

func (m *countingMetrics) SubmissionObserved(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.kinds == nil {
		m.kinds = map[string]int{}
	}
	m.kinds[kind]++
}

func (m *countingMetrics) StorageRetried() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries++
}

var fixedNow = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func newTestService(repo LeadRepository, opts ...IntakeOption) *IntakeService {
	base := []IntakeOption{
		WithClock(func() time.Time { return fixedNow }),
		WithStorageRetry(3, func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	}
	return NewIntakeService(repo, log.New(io.Discard, "", 0), append(base, opts...)...)
}

func validInput() SubmitLeadInput {
	return SubmitLeadInput{
		Name:              "홍길동",
		Phone:             "010-1234-5678",
		RevisionTypeID:    3,
		RevisionTypeTitle: "보형물이 휘어 보이는 경우",
		Consent:           true,
	}
}

func TestSubmitLeadEndToEnd(t *testing.T) {
	repo := newMemoryLeadRepo()
	svc := newTestService(repo)

	res := svc.SubmitLead(context.Background(), validInput(), RequestContext{})

	require.True(t, res.Success, res.Error)
	assert.NotEmpty(t, res.LeadID)
	assert.Equal(t, MsgSubmitted, res.Message)
	assert.Equal(t, ResultOK, res.Kind)

	stored, err := repo.FindByID(context.Background(), res.LeadID)
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusNew, stored.Status)
	assert.True(t, stored.ConsentPrivacy)
	assert.Equal(t, fixedNow, stored.CreatedAt)
	assert.Equal(t, 3, stored.RevisionTypeID)
	assert.Equal(t, "보형물이 휘어 보이는 경우", stored.RevisionTypeTitle)
	assert.Equal(t, domain.UTMParams{}, stored.UTM)
	assert.Nil(t, stored.Referrer)
	assert.Nil(t, stored.UserAgent)
	assert.Nil(t, stored.IPAddress)
}

func TestSubmitLeadValidationShortCircuits(t *testing.T) {
	repo := newMemoryLeadRepo()
	svc := newTestService(repo)

	in := validInput()
	in.Name = "A"
	in.Phone = "nope"
	res := svc.SubmitLead(context.Background(), in, RequestContext{})

	assert.False(t, res.Success)
	assert.Equal(t, ResultValidation, res.Kind)
	assert.Equal(t, domain.MsgNameTooShort, res.Message)
	assert.Equal(t, domain.FieldName, res.Field)
	assert.NotEmpty(t, res.Error)
	assert.Zero(t, repo.calls)
}

func TestSubmitLeadRejectsMissingConsent(t *testing.T) {
	repo := newMemoryLeadRepo()
	svc := newTestService(repo)

	in := validInput()
	in.Consent = false
	res := svc.SubmitLead(context.Background(), in, RequestContext{})

	assert.Equal(t, ResultValidation, res.Kind)
	assert.Equal(t, domain.MsgConsentRequired, res.Message)
	assert.Zero(t, repo.calls)
}

func TestSubmitLeadDuplicatePhone(t *testing.T) {
	repo := newMemoryLeadRepo()
	svc := newTestService(repo)

	first := svc.SubmitLead(context.Background(), validInput(), RequestContext{})
	require.True(t, first.Success)

	in := validInput()
	in.Name = "김철수"
	in.Phone = "01012345678"
	second := svc.SubmitLead(context.Background(), in, RequestContext{})

	assert.False(t, second.Success)
	assert.Equal(t, ResultDuplicate, second.Kind)
	assert.Equal(t, MsgDuplicatePhone, second.Message)
	assert.Equal(t, 2, repo.calls, "duplicates are not retried")
}

func TestSubmitLeadRetriesTransientStorageErrors(t *testing.T) {
	repo := newMemoryLeadRepo()
	repo.failN = 2
	repo.failErr = errors.New("connection reset by peer")
	metrics := &countingMetrics{}
	svc := newTestService(repo, WithMetrics(metrics))

	res := svc.SubmitLead(context.Background(), validInput(), RequestContext{})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, 3, repo.calls)
	assert.Equal(t, 2, metrics.retries)
	assert.Equal(t, 1, metrics.kinds[ResultOK])
}

func TestSubmitLeadRetryAfterLostAckIsNotDuplicate(t *testing.T) {
	repo := newMemoryLeadRepo()
	repo.lostAcks = 1
	repo.failErr = &domain.StorageError{Op: "insert lead", Err: errors.New("connection reset by peer")}
	svc := newTestService(repo)

	res := svc.SubmitLead(context.Background(), validInput(), RequestContext{})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, ResultOK, res.Kind)
	assert.Equal(t, MsgSubmitted, res.Message)
	assert.Equal(t, 2, repo.calls)
	assert.Len(t, repo.leads, 1)
	stored, err := repo.FindByID(context.Background(), res.LeadID)
	require.NoError(t, err)
	assert.Equal(t, "010-1234-5678", stored.Phone)

	in := validInput()
	in.Name = "김철수"
	again := svc.SubmitLead(context.Background(), in, RequestContext{})
	assert.Equal(t, ResultDuplicate, again.Kind, "a different submission with the same phone is still a duplicate")
}

func TestSubmitLeadStorageFailureAfterRetries(t *testing.T) {
	repo := newMemoryLeadRepo()
	repo.failN = 10
	repo.failErr = &domain.StorageError{Op: "insert lead", Err: errors.New("timeout")}
	svc := newTestService(repo)

	res := svc.SubmitLead(context.Background(), validInput(), RequestContext{})

	assert.False(t, res.Success)
	assert.Equal(t, ResultStorage, res.Kind)
	assert.Equal(t, MsgStorageFailed, res.Message)
	assert.Contains(t, res.Error, "timeout")
	assert.Equal(t, 3, repo.calls)
}

func TestSubmitLeadRecoversFromPanic(t *testing.T) {
	repo := newMemoryLeadRepo()
	repo.panics = true
	metrics := &countingMetrics{}
	svc := newTestService(repo, WithMetrics(metrics))

	var res SubmitLeadResult
	require.NotPanics(t, func() {
		res = svc.SubmitLead(context.Background(), validInput(), RequestContext{})
	})
	assert.False(t, res.Success)
	assert.Equal(t, ResultUnexpected, res.Kind)
	assert.Equal(t, MsgUnexpected, res.Message)
	assert.Contains(t, res.Error, "driver exploded")
	assert.Equal(t, 1, metrics.kinds[ResultUnexpected])
}

func TestSubmitLeadUTMEnrichment(t *testing.T) {
	referrer := "https://search.naver.com/?utm_source=naver&utm_medium=cpc"

	t.Run("referrer is parsed when no override", func(t *testing.T) {
		repo := newMemoryLeadRepo()
		svc := newTestService(repo)
		res := svc.SubmitLead(context.Background(), validInput(), RequestContext{
			UserAgent: "Mozilla/5.0",
			IPAddress: "203.0.113.7",
			Referrer:  referrer,
		})
		require.True(t, res.Success)
		stored, _ := repo.FindByID(context.Background(), res.LeadID)
		assert.Equal(t, "naver", domain.StringValue(stored.UTM.Source))
		assert.Equal(t, "cpc", domain.StringValue(stored.UTM.Medium))
		assert.Nil(t, stored.UTM.Campaign)
		assert.Equal(t, referrer, domain.StringValue(stored.Referrer))
		assert.Equal(t, "Mozilla/5.0", domain.StringValue(stored.UserAgent))
		assert.Equal(t, "203.0.113.7", domain.StringValue(stored.IPAddress))
	})

	t.Run("explicit override wins verbatim", func(t *testing.T) {
		repo := newMemoryLeadRepo()
		svc := newTestService(repo)
		override := domain.UTMParams{Campaign: domain.StringPtr("spring")}
		res := svc.SubmitLead(context.Background(), validInput(), RequestContext{Referrer: referrer, UTM: &override})
		require.True(t, res.Success)
		stored, _ := repo.FindByID(context.Background(), res.LeadID)
		assert.Equal(t, override, stored.UTM)
	})

	t.Run("empty override falls back to referrer", func(t *testing.T) {
		repo := newMemoryLeadRepo()
		svc := newTestService(repo)
		res := svc.SubmitLead(context.Background(), validInput(), RequestContext{Referrer: referrer, UTM: &domain.UTMParams{}})
		require.True(t, res.Success)
		stored, _ := repo.FindByID(context.Background(), res.LeadID)
		assert.Equal(t, "naver", domain.StringValue(stored.UTM.Source))
	})

	t.Run("malformed referrer leaves utm absent", func(t *testing.T) {
		repo := newMemoryLeadRepo()
		svc := newTestService(repo)
		res := svc.SubmitLead(context.Background(), validInput(), RequestContext{Referrer: "::not a url"})
		require.True(t, res.Success)
		stored, _ := repo.FindByID(context.Background(), res.LeadID)
		assert.False(t, stored.UTM.HasAny())
	})
}

func TestSubmitLeadSideEffects(t *testing.T) {
	repo := newMemoryLeadRepo()
	notifier := &recordingNotifier{err: errors.New("gateway down")}
	events := &recordingNotifier{}
	svc := newTestService(repo, WithNotifier(notifier), WithEventPublisher(events))

	res := svc.SubmitLead(context.Background(), validInput(), RequestContext{})
	svc.Wait()

	require.True(t, res.Success, "notification failure must not change the result")
	require.Len(t, notifier.leads, 1)
	assert.Equal(t, res.LeadID, notifier.leads[0].ID)
	require.Len(t, events.leads, 1)
	assert.Equal(t, res.LeadID, events.leads[0].ID)
}

func TestSubmitLeadConcurrentDuplicates(t *testing.T) {
	repo := newMemoryLeadRepo()
	svc := newTestService(repo)

	const n = 8
	results := make([]SubmitLeadResult, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.SubmitLead(context.Background(), validInput(), RequestContext{})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, res := range results {
		if res.Success {
			succeeded++
			continue
		}
		assert.Equal(t, ResultDuplicate, res.Kind)
	}
	assert.Equal(t, 1, succeeded)
}
