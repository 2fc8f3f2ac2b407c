package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/revision-landing-services/api/internal/public/domain"
)

func TestStoreInitialState(t *testing.T) {
	s := NewStore()
	assert.Nil(t, s.SelectedTypeID())
	assert.False(t, s.FormSubmitted())
	assert.Nil(t, s.SubmittedName())
	assert.Equal(t, domain.UTMParams{}, s.UTM())
}

func TestStoreSelectedType(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetSelectedTypeID(4))
	require.NotNil(t, s.SelectedTypeID())
	assert.Equal(t, 4, *s.SelectedTypeID())

	for _, id := range []int{0, -1, 10} {
		assert.ErrorIs(t, s.SetSelectedTypeID(id), ErrInvalidRevisionType)
	}
	assert.Equal(t, 4, *s.SelectedTypeID(), "rejected ids leave selection untouched")

	got := s.SelectedTypeID()
	*got = 9
	assert.Equal(t, 4, *s.SelectedTypeID())
}

func TestStoreUTMCapturedOnce(t *testing.T) {
	s := NewStore()
	assert.False(t, s.SetUTM(domain.UTMParams{}), "empty capture is ignored")

	first := domain.UTMParams{Source: domain.StringPtr("google")}
	assert.True(t, s.SetUTM(first))
	assert.False(t, s.SetUTM(domain.UTMParams{Source: domain.StringPtr("naver")}))
	assert.Equal(t, first, s.UTM())

	s.Reset()
	assert.True(t, s.SetUTM(domain.UTMParams{Medium: domain.StringPtr("sns")}))
}

func TestStoreReset(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetSelectedTypeID(2))
	s.MarkSubmitted("홍길동")
	s.SetUTM(domain.UTMParams{Campaign: domain.StringPtr("spring")})

	snap := s.Snapshot()
	assert.True(t, snap.FormSubmitted)
	assert.Equal(t, "홍길동", domain.StringValue(snap.SubmittedName))

	s.Reset()
	assert.Equal(t, State{}, s.Snapshot())
}

func TestStoreSetters(t *testing.T) {
	s := NewStore()
	s.SetFormSubmitted(true)
	s.SetSubmittedName("김철수")
	assert.True(t, s.FormSubmitted())
	assert.Equal(t, "김철수", domain.StringValue(s.SubmittedName()))

	s.SetSubmittedName("")
	assert.Nil(t, s.SubmittedName())
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 1; i <= 9; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			_ = s.SetSelectedTypeID(id)
			s.SetUTM(domain.UTMParams{Source: domain.StringPtr("src")})
		}(i)
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()
	assert.NotNil(t, s.SelectedTypeID())
}

func TestRegistry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRegistry(time.Hour, 0)
	r.now = func() time.Time { return now }

	store, created := r.Get("a")
	require.True(t, created)
	require.NoError(t, store.SetSelectedTypeID(1))

	again, created := r.Get("a")
	assert.False(t, created)
	assert.Same(t, store, again)

	_, ok := r.Lookup("missing")
	assert.False(t, ok)

	now = now.Add(30 * time.Minute)
	r.Get("b")
	now = now.Add(45 * time.Minute)

	_, ok = r.Lookup("a")
	assert.False(t, ok, "a idle for 75 minutes")
	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Len())

	fresh, created := r.Get("a")
	assert.True(t, created)
	assert.Nil(t, fresh.SelectedTypeID())

	r.Delete("a")
	r.Delete("b")
	assert.Zero(t, r.Len())
	assert.NotEqual(t, NewID(), NewID())
}

func TestRegistryMaxEntries(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRegistry(time.Hour, 2)
	r.now = func() time.Time { return now }

	first, _ := r.Get("a")
	now = now.Add(time.Minute)
	r.Get("b")
	now = now.Add(time.Minute)
	again, created := r.Get("a")
	require.False(t, created)
	require.Same(t, first, again)

	now = now.Add(time.Minute)
	for i := range 100 {
		r.Get(fmt.Sprintf("bot-%d", i))
		now = now.Add(time.Second)
	}
	assert.Equal(t, 2, r.Len())
	_, ok := r.Lookup("bot-99")
	assert.True(t, ok)
	_, ok = r.Lookup("a")
	assert.False(t, ok, "least recently seen sessions are evicted first")

	now = now.Add(2 * time.Hour)
	r.Get("c")
	assert.Equal(t, 1, r.Len(), "expired sessions are dropped before evicting live ones")
}
