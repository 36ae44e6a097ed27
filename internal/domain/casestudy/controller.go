package casestudy

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Generation lifecycle states.
const (
	StateIdle         = "idle"
	StateRequesting   = "requesting"
	StateSucceeded    = "succeeded"
	StateFailed       = "failed"
	StateRegenerating = "regenerating-section"
)

// ErrGenerationInFlight is returned when a dispatch or regeneration is
// attempted while a call to the generator is already running for the patient.
var ErrGenerationInFlight = errors.New("a generation is already in flight for this patient")

// ErrNoResult is returned when a section regeneration is attempted before
// any successful generation exists.
var ErrNoResult = errors.New("no generated case study to regenerate")

// Status is a snapshot of one patient's generation lifecycle.
type Status struct {
	State     string `json:"state"`
	LastError string `json:"last_error,omitempty"`
}

type lifecycle struct {
	state   string
	lastErr string
}

// Controller is the per-patient generation state machine. At most one call
// to the generator may be in flight per patient; a failed call surfaces its
// error without discarding the previously generated result, which lives in
// the repository untouched.
type Controller struct {
	mu       sync.Mutex
	patients map[uuid.UUID]*lifecycle
}

func NewController() *Controller {
	return &Controller{patients: make(map[uuid.UUID]*lifecycle)}
}

func (c *Controller) get(patientID uuid.UUID) *lifecycle {
	l, ok := c.patients[patientID]
	if !ok {
		l = &lifecycle{state: StateIdle}
		c.patients[patientID] = l
	}
	return l
}

// Begin transitions to Requesting. Allowed from Idle, Succeeded, and Failed;
// rejected while a call is in flight.
func (c *Controller) Begin(patientID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.get(patientID)
	if l.state == StateRequesting || l.state == StateRegenerating {
		return ErrGenerationInFlight
	}
	l.state = StateRequesting
	l.lastErr = ""
	return nil
}

// BeginRegenerate transitions to RegeneratingSection. Allowed only once a
// successful result exists.
func (c *Controller) BeginRegenerate(patientID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.get(patientID)
	switch l.state {
	case StateRequesting, StateRegenerating:
		return ErrGenerationInFlight
	case StateSucceeded:
		l.state = StateRegenerating
		l.lastErr = ""
		return nil
	default:
		return ErrNoResult
	}
}

// Succeed records a successful completion of the in-flight call.
func (c *Controller) Succeed(patientID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.get(patientID)
	l.state = StateSucceeded
	l.lastErr = ""
}

// Fail records a failed completion with a human-readable message.
func (c *Controller) Fail(patientID uuid.UUID, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.get(patientID)
	l.state = StateFailed
	l.lastErr = message
}

// MarkSucceeded seeds the Succeeded state, used when a stored case study is
// loaded so regeneration is permitted after a restart.
func (c *Controller) MarkSucceeded(patientID uuid.UUID) {
	c.Succeed(patientID)
}

// Status returns the patient's current lifecycle snapshot.
func (c *Controller) Status(patientID uuid.UUID) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.get(patientID)
	return Status{State: l.state, LastError: l.lastErr}
}
