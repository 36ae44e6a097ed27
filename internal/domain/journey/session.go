package journey

import (
	"sync"

	"github.com/google/uuid"
)

// SessionStore holds each patient's in-progress selection. Selections are
// transient: created empty on first use and discarded when the patient
// context changes (Reset) or the server restarts.
type SessionStore struct {
	mu         sync.Mutex
	selections map[uuid.UUID]Selection
}

func NewSessionStore() *SessionStore {
	return &SessionStore{selections: make(map[uuid.UUID]Selection)}
}

// Get returns the patient's current selection, empty if none exists yet.
func (s *SessionStore) Get(patientID uuid.UUID) Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel, ok := s.selections[patientID]
	if !ok {
		return NewSelection()
	}
	return sel
}

// Apply reduces the actions against the patient's selection in the order
// given and stores the result. Ordering matters: the cascade rule is only
// correct when toggles land in the order the user issued them.
func (s *SessionStore) Apply(patientID uuid.UUID, j *Journey, actions []Action) Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel, ok := s.selections[patientID]
	if !ok {
		sel = NewSelection()
	}
	for _, a := range actions {
		sel = Apply(sel, a, j)
	}
	s.selections[patientID] = sel
	return sel
}

// Reset discards the patient's selection.
func (s *SessionStore) Reset(patientID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selections, patientID)
}
