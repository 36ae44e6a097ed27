package records

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// procedureTransitions defines valid status transitions for Procedure.
var procedureTransitions = map[string][]string{
	StatusPlanned:    {StatusInProgress, StatusCompleted, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {StatusPlanned},
}

// ValidateTransition checks if a procedure status transition is valid.
func ValidateTransition(from, to string) error {
	if from == to {
		return nil
	}
	allowed, ok := procedureTransitions[from]
	if !ok {
		return fmt.Errorf("unknown procedure status: %s", from)
	}
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("invalid status transition: %s -> %s", from, to)
}

type Service struct {
	observations ObservationRepository
	procedures   ProcedureRepository
	attachments  AttachmentRepository
}

func NewService(o ObservationRepository, p ProcedureRepository, a AttachmentRepository) *Service {
	return &Service{observations: o, procedures: p, attachments: a}
}

// -- Observations --

func (s *Service) CreateObservation(ctx context.Context, o *Observation) error {
	if err := validateToothNumbers(o.ToothNumbers); err != nil {
		return err
	}
	if strings.TrimSpace(o.Condition) == "" {
		return fmt.Errorf("observation condition is required")
	}
	if o.RecordedAt.IsZero() {
		return fmt.Errorf("observation recorded_at is required")
	}
	return s.observations.Create(ctx, o)
}

func (s *Service) GetObservation(ctx context.Context, id uuid.UUID) (*Observation, error) {
	return s.observations.GetByID(ctx, id)
}

func (s *Service) UpdateObservation(ctx context.Context, o *Observation) error {
	if err := validateToothNumbers(o.ToothNumbers); err != nil {
		return err
	}
	if _, err := s.observations.GetByID(ctx, o.ID); err != nil {
		return err
	}
	return s.observations.Update(ctx, o)
}

func (s *Service) DeleteObservation(ctx context.Context, id uuid.UUID) error {
	if _, err := s.observations.GetByID(ctx, id); err != nil {
		return err
	}
	return s.observations.Delete(ctx, id)
}

// -- Procedures --

func (s *Service) CreateProcedure(ctx context.Context, p *Procedure) error {
	if err := validateToothNumbers(p.ToothNumbers); err != nil {
		return err
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("procedure name is required")
	}
	if p.Status == "" {
		p.Status = StatusPlanned
	}
	if _, ok := procedureTransitions[p.Status]; !ok {
		return fmt.Errorf("unknown procedure status: %s", p.Status)
	}
	if p.ObservationID != nil {
		if _, err := s.observations.GetByID(ctx, *p.ObservationID); err != nil {
			return fmt.Errorf("linked observation: %w", err)
		}
	}
	return s.procedures.Create(ctx, p)
}

func (s *Service) GetProcedure(ctx context.Context, id uuid.UUID) (*Procedure, error) {
	return s.procedures.GetByID(ctx, id)
}

func (s *Service) UpdateProcedure(ctx context.Context, p *Procedure) error {
	if err := validateToothNumbers(p.ToothNumbers); err != nil {
		return err
	}
	existing, err := s.procedures.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if err := ValidateTransition(existing.Status, p.Status); err != nil {
		return err
	}
	return s.procedures.Update(ctx, p)
}

func (s *Service) DeleteProcedure(ctx context.Context, id uuid.UUID) error {
	if _, err := s.procedures.GetByID(ctx, id); err != nil {
		return err
	}
	return s.procedures.Delete(ctx, id)
}

// -- Attachments --

func (s *Service) CreateAttachment(ctx context.Context, a *Attachment) error {
	if a.ObservationID == nil && a.ProcedureID == nil {
		return fmt.Errorf("attachment must reference an observation or a procedure")
	}
	if strings.TrimSpace(a.StorageURL) == "" {
		return fmt.Errorf("attachment storage_url is required")
	}
	if a.Kind == "" {
		a.Kind = AttachmentOther
	}
	return s.attachments.Create(ctx, a)
}

func (s *Service) DeleteAttachment(ctx context.Context, id uuid.UUID) error {
	if _, err := s.attachments.GetByID(ctx, id); err != nil {
		return err
	}
	return s.attachments.Delete(ctx, id)
}

// -- Bundle --

// GetBundle returns the patient's complete clinical record set. This is the
// feed the treatment-journey aggregation runs on; it is always the full set,
// never a page.
func (s *Service) GetBundle(ctx context.Context, patientID uuid.UUID) (*Bundle, error) {
	observations, err := s.observations.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	procedures, err := s.procedures.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list procedures: %w", err)
	}
	attachments, err := s.attachments.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	return &Bundle{
		Observations: observations,
		Procedures:   procedures,
		Attachments:  attachments,
	}, nil
}

func validateToothNumbers(teeth []string) error {
	if len(teeth) == 0 {
		return fmt.Errorf("at least one tooth number is required")
	}
	for _, tooth := range teeth {
		if !ValidToothNumber(tooth) {
			return fmt.Errorf("invalid FDI tooth number: %q", tooth)
		}
	}
	return nil
}
