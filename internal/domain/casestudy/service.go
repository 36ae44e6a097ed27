package casestudy

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dentiva/clinic/internal/domain/journey"
	"github.com/dentiva/clinic/internal/domain/records"
	"github.com/dentiva/clinic/internal/platform/genai"
	"github.com/dentiva/clinic/internal/platform/websocket"
)

// RequestBuilder assembles a generation request from the patient's current
// journey selection.
type RequestBuilder interface {
	BuildCaseStudyRequest(ctx context.Context, patientID uuid.UUID, title, chiefComplaint string) (*journey.CaseStudyRequest, error)
}

// RecordSource supplies the record content rendered into the prompt.
type RecordSource interface {
	GetBundle(ctx context.Context, patientID uuid.UUID) (*records.Bundle, error)
}

type Service struct {
	builder    RequestBuilder
	source     RecordSource
	generator  genai.Client
	repo       Repository
	controller *Controller
	events     websocket.EventPublisher
	logger     zerolog.Logger
}

func NewService(
	builder RequestBuilder,
	source RecordSource,
	generator genai.Client,
	repo Repository,
	controller *Controller,
	events websocket.EventPublisher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		builder:    builder,
		source:     source,
		generator:  generator,
		repo:       repo,
		controller: controller,
		events:     events,
		logger:     logger,
	}
}

// Dispatch validates the patient's selection, claims the lifecycle, and
// starts the generation in the background. Validation failures are surfaced
// immediately and never reach the generator; a second dispatch while a call
// is in flight is rejected with ErrGenerationInFlight.
func (s *Service) Dispatch(ctx context.Context, patientID uuid.UUID, title, chiefComplaint string) (Status, error) {
	if s.generator == nil {
		return s.controller.Status(patientID), genai.ErrNotConfigured
	}

	req, err := s.builder.BuildCaseStudyRequest(ctx, patientID, title, chiefComplaint)
	if err != nil {
		return s.controller.Status(patientID), err
	}

	if err := s.controller.Begin(patientID); err != nil {
		return s.controller.Status(patientID), err
	}
	s.publishState(patientID, uuid.Nil, StateRequesting)

	// The generator call outlives the HTTP request that triggered it.
	go s.run(context.Background(), req)

	return s.controller.Status(patientID), nil
}

// run performs one full generation. Completion, success or failure, resumes
// the lifecycle state machine; a failure leaves any previously stored case
// study untouched.
func (s *Service) run(ctx context.Context, req *journey.CaseStudyRequest) {
	bundle, err := s.source.GetBundle(ctx, req.PatientID)
	if err != nil {
		s.fail(req.PatientID, uuid.Nil, "load clinical records: "+err.Error())
		return
	}

	result, err := s.generator.GenerateCaseStudy(ctx, systemPrompt, buildUserPrompt(req, bundle))
	if err != nil {
		s.fail(req.PatientID, uuid.Nil, failureMessage(err))
		return
	}

	cs := &CaseStudy{
		PatientID:      req.PatientID,
		Title:          req.Title,
		ChiefComplaint: req.ChiefComplaint,
		Sections:       result.Sections,
		Model:          result.Model,
		TotalTokens:    result.Usage.TotalTokens,
		Cost:           result.Cost,
		ObservationIDs: req.ObservationIDs,
		ProcedureIDs:   req.ProcedureIDs,
		AttachmentIDs:  req.AttachmentIDs,
	}
	if err := s.repo.Create(ctx, cs); err != nil {
		s.fail(req.PatientID, uuid.Nil, "save case study: "+err.Error())
		return
	}

	s.controller.Succeed(req.PatientID)
	s.logger.Info().
		Str("patient_id", req.PatientID.String()).
		Str("case_study_id", cs.ID.String()).
		Int("total_tokens", cs.TotalTokens).
		Float64("cost", cs.Cost).
		Msg("case study generated")
	s.publishState(req.PatientID, cs.ID, StateSucceeded)
}

// RegenerateSection claims the lifecycle for a single-section rewrite and
// starts it in the background. Only the named section is replaced.
func (s *Service) RegenerateSection(ctx context.Context, caseStudyID uuid.UUID, section string) (Status, error) {
	if s.generator == nil {
		return Status{}, genai.ErrNotConfigured
	}
	if !ValidSection(section) {
		return Status{}, errors.New("unknown section: " + section)
	}

	cs, err := s.repo.GetByID(ctx, caseStudyID)
	if err != nil {
		return Status{}, err
	}

	if err := s.controller.BeginRegenerate(cs.PatientID); err != nil {
		return s.controller.Status(cs.PatientID), err
	}
	s.publishState(cs.PatientID, cs.ID, StateRegenerating)

	go s.runRegenerate(context.Background(), cs, section)

	return s.controller.Status(cs.PatientID), nil
}

func (s *Service) runRegenerate(ctx context.Context, cs *CaseStudy, section string) {
	result, err := s.generator.RegenerateSection(ctx, regenerateSystemPrompt,
		buildRegeneratePrompt(cs, section), section)
	if err != nil {
		s.fail(cs.PatientID, cs.ID, failureMessage(err))
		return
	}

	cs.SetSection(section, result.Text)
	cs.TotalTokens += result.Usage.TotalTokens
	cs.Cost += result.Cost
	if err := s.repo.Update(ctx, cs); err != nil {
		s.fail(cs.PatientID, cs.ID, "save case study: "+err.Error())
		return
	}

	s.controller.Succeed(cs.PatientID)
	s.logger.Info().
		Str("case_study_id", cs.ID.String()).
		Str("section", section).
		Float64("cost", result.Cost).
		Msg("case study section regenerated")
	s.publishState(cs.PatientID, cs.ID, StateSucceeded)
}

// Get returns a stored case study. Loading one marks the patient's lifecycle
// as Succeeded so regeneration works after a restart.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*CaseStudy, error) {
	cs, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if st := s.controller.Status(cs.PatientID); st.State == StateIdle {
		s.controller.MarkSucceeded(cs.PatientID)
	}
	return cs, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*CaseStudy, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// GenerationStatus returns the patient's current lifecycle snapshot.
func (s *Service) GenerationStatus(patientID uuid.UUID) Status {
	return s.controller.Status(patientID)
}

func (s *Service) fail(patientID, caseStudyID uuid.UUID, message string) {
	s.controller.Fail(patientID, message)
	s.logger.Error().
		Str("patient_id", patientID.String()).
		Str("reason", message).
		Msg("case study generation failed")
	s.publishState(patientID, caseStudyID, StateFailed)
}

func (s *Service) publishState(patientID, caseStudyID uuid.UUID, state string) {
	if s.events == nil {
		return
	}
	event := websocket.Event{
		Type:      "case-study.state",
		Topic:     websocket.PatientTopic(patientID),
		PatientID: patientID.String(),
		State:     state,
		Timestamp: time.Now(),
	}
	if caseStudyID != uuid.Nil {
		event.CaseStudyID = caseStudyID.String()
	}
	if err := s.events.Publish(context.Background(), event); err != nil {
		s.logger.Warn().Err(err).Msg("publish case-study event")
	}
}

// failureMessage converts a generator error to the message shown to the user.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, genai.ErrNotConfigured):
		return "the narrative generator is not configured; contact your administrator"
	case genai.IsRetryable(err):
		return "the narrative generator is temporarily unavailable; try again (" + err.Error() + ")"
	default:
		return err.Error()
	}
}
