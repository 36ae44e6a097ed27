package records

import (
	"time"

	"github.com/google/uuid"
)

// Observation is a clinical finding recorded against one or more teeth.
type Observation struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	PatientID    uuid.UUID  `db:"patient_id" json:"patient_id"`
	ToothNumbers []string   `db:"tooth_numbers" json:"tooth_numbers"`
	Condition    string     `db:"condition" json:"condition"`
	Severity     *string    `db:"severity" json:"severity,omitempty"`
	Notes        *string    `db:"notes" json:"notes,omitempty"`
	RecordedAt   time.Time  `db:"recorded_at" json:"recorded_at"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Procedure lifecycle statuses.
const (
	StatusPlanned    = "planned"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Procedure is a clinical intervention, optionally linked to the Observation
// that motivated it.
type Procedure struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	ToothNumbers  []string   `db:"tooth_numbers" json:"tooth_numbers"`
	Name          string     `db:"name" json:"name"`
	Code          *string    `db:"code" json:"code,omitempty"`
	Status        string     `db:"status" json:"status"`
	ScheduledAt   *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	CompletedAt   *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	ObservationID *uuid.UUID `db:"observation_id" json:"observation_id,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// EffectiveDate returns the date a procedure counts against when building the
// treatment timeline: the completion date when the work is done, otherwise
// the scheduled date. Returns nil when neither is set.
func (p *Procedure) EffectiveDate() *time.Time {
	if p.CompletedAt != nil {
		return p.CompletedAt
	}
	return p.ScheduledAt
}

// Attachment kinds.
const (
	AttachmentBefore     = "before"
	AttachmentAfter      = "after"
	AttachmentRadiograph = "radiograph"
	AttachmentTestResult = "test-result"
	AttachmentOther      = "other"
)

// Attachment is a file reference (photograph, radiograph, document) uploaded
// against an Observation or a Procedure. The binary itself lives in external
// storage; only the location is kept here.
type Attachment struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	ObservationID *uuid.UUID `db:"observation_id" json:"observation_id,omitempty"`
	ProcedureID   *uuid.UUID `db:"procedure_id" json:"procedure_id,omitempty"`
	Kind          string     `db:"kind" json:"kind"`
	Caption       *string    `db:"caption" json:"caption,omitempty"`
	TakenAt       *time.Time `db:"taken_at" json:"taken_at,omitempty"`
	StorageURL    string     `db:"storage_url" json:"storage_url"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// Bundle is the full unfiltered record set for one patient, as consumed by
// the treatment-journey aggregation.
type Bundle struct {
	Observations []*Observation `json:"observations"`
	Procedures   []*Procedure   `json:"procedures"`
	Attachments  []*Attachment  `json:"attachments"`
}
