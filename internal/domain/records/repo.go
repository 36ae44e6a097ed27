package records

import (
	"context"

	"github.com/google/uuid"
)

type ObservationRepository interface {
	Create(ctx context.Context, o *Observation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Observation, error)
	Update(ctx context.Context, o *Observation) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByPatient returns the patient's full observation set, unpaginated.
	// The journey aggregation depends on seeing every record.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Observation, error)
}

type ProcedureRepository interface {
	Create(ctx context.Context, p *Procedure) error
	GetByID(ctx context.Context, id uuid.UUID) (*Procedure, error)
	Update(ctx context.Context, p *Procedure) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Procedure, error)
}

type AttachmentRepository interface {
	Create(ctx context.Context, a *Attachment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Attachment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Attachment, error)
}
