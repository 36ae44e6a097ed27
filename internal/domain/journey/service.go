package journey

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dentiva/clinic/internal/domain/records"
)

// RecordSource is the clinical-record feed the aggregation runs on. It always
// returns a patient's full record set, never a page.
type RecordSource interface {
	GetBundle(ctx context.Context, patientID uuid.UUID) (*records.Bundle, error)
}

type Service struct {
	source   RecordSource
	sessions *SessionStore
	window   time.Duration
	logger   zerolog.Logger
}

func NewService(source RecordSource, sessions *SessionStore, window time.Duration, logger zerolog.Logger) *Service {
	return &Service{source: source, sessions: sessions, window: window, logger: logger}
}

// GetJourney fetches the patient's records and derives the visit list and
// tooth groups. Records with no usable date are excluded from clustering and
// logged here; the aggregation itself stays pure.
func (s *Service) GetJourney(ctx context.Context, patientID uuid.UUID) (*Journey, error) {
	bundle, err := s.source.GetBundle(ctx, patientID)
	if err != nil {
		return nil, err
	}
	visits, excluded := Aggregate(bundle, s.window)
	for _, ex := range excluded {
		s.logger.Warn().
			Str("patient_id", patientID.String()).
			Str("record_kind", ex.Kind).
			Str("record_id", ex.ID.String()).
			Msg("record excluded from journey: no usable date or dangling reference")
	}
	return &Journey{Visits: visits, Groups: GroupByTooth(visits)}, nil
}

// GetSelection returns the patient's current selection.
func (s *Service) GetSelection(patientID uuid.UUID) Selection {
	return s.sessions.Get(patientID)
}

// ApplySelection reduces the actions, in order, against the patient's stored
// selection using a freshly derived journey.
func (s *Service) ApplySelection(ctx context.Context, patientID uuid.UUID, actions []Action) (Selection, error) {
	j, err := s.GetJourney(ctx, patientID)
	if err != nil {
		return Selection{}, err
	}
	return s.sessions.Apply(patientID, j, actions), nil
}

// ResetSelection discards the patient's selection.
func (s *Service) ResetSelection(patientID uuid.UUID) {
	s.sessions.Reset(patientID)
}

// BuildCaseStudyRequest derives the journey and assembles a generation
// request from the patient's current selection.
func (s *Service) BuildCaseStudyRequest(ctx context.Context, patientID uuid.UUID, title, chiefComplaint string) (*CaseStudyRequest, error) {
	j, err := s.GetJourney(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return BuildRequest(s.sessions.Get(patientID), j, patientID, title, chiefComplaint)
}
