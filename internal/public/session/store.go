// Package session holds per-visitor funnel state: the selected revision type,
// whether the lead form was submitted, and the UTM parameters the visit arrived with.
package session

import (
	"errors"
	"sync"

	"github.com/sngm3741/revision-landing-services/api/internal/public/domain"
)

// ErrInvalidRevisionType is returned when a selection outside 1..9 is attempted.
var ErrInvalidRevisionType = errors.New("revision type must be between 1 and 9")

// State is a point-in-time copy of a Store.
type State struct {
	SelectedTypeID *int             `json:"selectedTypeId"`
	FormSubmitted  bool             `json:"formSubmitted"`
	SubmittedName  *string          `json:"submittedName"`
	UTM            domain.UTMParams `json:"utm"`
}

// Store is one visitor's funnel state. The zero value is ready to use.
type Store struct {
	mu            sync.RWMutex
	selectedType  *int
	formSubmitted bool
	submittedName *string
	utm           domain.UTMParams
	utmCaptured   bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// SelectedTypeID returns a copy of the selected category id, or nil.
func (s *Store) SelectedTypeID() *int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selectedType == nil {
		return nil
	}
	id := *s.selectedType
	return &id
}

// SetSelectedTypeID records the visitor's category. Only catalog ids are accepted;
// "no category" is expressed by never selecting one.
func (s *Store) SetSelectedTypeID(id int) error {
	if id < 1 || id > domain.MaxRevisionTypeID {
		return ErrInvalidRevisionType
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedType = &id
	return nil
}

// FormSubmitted reports whether the lead form was sent in this session.
func (s *Store) FormSubmitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.formSubmitted
}

// SetFormSubmitted sets the submitted flag.
func (s *Store) SetFormSubmitted(submitted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.formSubmitted = submitted
}

// SubmittedName returns the name used on the submitted form, or nil.
func (s *Store) SubmittedName() *string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.submittedName == nil {
		return nil
	}
	name := *s.submittedName
	return &name
}

// SetSubmittedName records the submitter's name.
func (s *Store) SetSubmittedName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submittedName = domain.StringPtr(name)
}

// UTM returns the captured attribution parameters.
func (s *Store) UTM() domain.UTMParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.utm
}

// SetUTM captures attribution once. The first call carrying any parameter wins and
// later calls are ignored until Reset.
func (s *Store) SetUTM(params domain.UTMParams) bool {
	if !params.HasAny() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.utmCaptured {
		return false
	}
	s.utm = params
	s.utmCaptured = true
	return true
}

// MarkSubmitted records a successful lead submission.
func (s *Store) MarkSubmitted(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.formSubmitted = true
	s.submittedName = domain.StringPtr(name)
}

// Reset clears every field back to its initial state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedType = nil
	s.formSubmitted = false
	s.submittedName = nil
	s.utm = domain.UTMParams{}
	s.utmCaptured = false
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := State{
		FormSubmitted: s.formSubmitted,
		UTM:           s.utm,
	}
	if s.selectedType != nil {
		id := *s.selectedType
		state.SelectedTypeID = &id
	}
	if s.submittedName != nil {
		name := *s.submittedName
		state.SubmittedName = &name
	}
	return state
}
