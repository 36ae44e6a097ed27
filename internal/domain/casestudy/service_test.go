package casestudy

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dentiva/clinic/internal/domain/journey"
	"github.com/dentiva/clinic/internal/domain/records"
	"github.com/dentiva/clinic/internal/platform/genai"
	"github.com/dentiva/clinic/internal/platform/websocket"
)

// -- Mocks --

type mockBuilder struct {
	req *journey.CaseStudyRequest
	err error
}

func (m *mockBuilder) BuildCaseStudyRequest(_ context.Context, patientID uuid.UUID, title, chiefComplaint string) (*journey.CaseStudyRequest, error) {
	if m.err != nil {
		return nil, m.err
	}
	req := *m.req
	req.PatientID = patientID
	req.Title = title
	req.ChiefComplaint = chiefComplaint
	return &req, nil
}

type mockSource struct {
	bundle *records.Bundle
}

func (m *mockSource) GetBundle(_ context.Context, _ uuid.UUID) (*records.Bundle, error) {
	return m.bundle, nil
}

type mockGenerator struct {
	result     *genai.Result
	section    *genai.SectionResult
	err        error
	calls      int
	lastPrompt string
}

func (m *mockGenerator) GenerateCaseStudy(_ context.Context, _, user string) (*genai.Result, error) {
	m.calls++
	m.lastPrompt = user
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockGenerator) RegenerateSection(_ context.Context, _, user, _ string) (*genai.SectionResult, error) {
	m.calls++
	m.lastPrompt = user
	if m.err != nil {
		return nil, m.err
	}
	return m.section, nil
}

type mockRepo struct {
	studies map[uuid.UUID]*CaseStudy
}

func newMockRepo() *mockRepo {
	return &mockRepo{studies: make(map[uuid.UUID]*CaseStudy)}
}

func (m *mockRepo) Create(_ context.Context, cs *CaseStudy) error {
	cs.ID = uuid.New()
	copied := *cs
	m.studies[cs.ID] = &copied
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*CaseStudy, error) {
	cs, ok := m.studies[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *cs
	return &copied, nil
}

func (m *mockRepo) Update(_ context.Context, cs *CaseStudy) error {
	if _, ok := m.studies[cs.ID]; !ok {
		return ErrNotFound
	}
	copied := *cs
	m.studies[cs.ID] = &copied
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, _, _ int) ([]*CaseStudy, int, error) {
	var list []*CaseStudy
	for _, cs := range m.studies {
		if cs.PatientID == patientID {
			list = append(list, cs)
		}
	}
	return list, len(list), nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []websocket.Event
}

func (p *capturePublisher) Publish(_ context.Context, event websocket.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) states() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	states := make([]string, len(p.events))
	for i, e := range p.events {
		states[i] = e.State
	}
	return states
}

func testFixture() (*journey.CaseStudyRequest, *records.Bundle) {
	obsID, procID := uuid.New(), uuid.New()
	recordedAt := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)
	req := &journey.CaseStudyRequest{
		ObservationIDs: []uuid.UUID{obsID},
		ProcedureIDs:   []uuid.UUID{procID},
	}
	bundle := &records.Bundle{
		Observations: []*records.Observation{{
			ID:           obsID,
			ToothNumbers: []string{"16"},
			Condition:    "deep caries",
			RecordedAt:   recordedAt,
		}},
		Procedures: []*records.Procedure{{
			ID:           procID,
			ToothNumbers: []string{"16"},
			Name:         "Root Canal - Pulpectomy",
			Status:       records.StatusCompleted,
			CompletedAt:  &recordedAt,
		}},
	}
	return req, bundle
}

func testResult() *genai.Result {
	return &genai.Result{
		Sections: genai.Sections{
			PreTreatmentSummary: "Deep caries on 16.",
			InitialDiagnosis:    "Irreversible pulpitis.",
			FullNarrative:       "The patient presented with...",
		},
		Model: "gpt-4o",
		Usage: genai.Usage{PromptTokens: 500, CompletionTokens: 700, TotalTokens: 1200},
		Cost:  0.05,
	}
}

// newTestService wires a service around the caller's fixture bundle so the
// request's record ids dereference into the mock source.
func newTestService(builder *mockBuilder, gen *mockGenerator, bundle *records.Bundle) (*Service, *mockRepo, *capturePublisher) {
	repo := newMockRepo()
	events := &capturePublisher{}
	svc := NewService(builder, &mockSource{bundle: bundle}, gen, repo,
		NewController(), events, zerolog.Nop())
	return svc, repo, events
}

// -- Tests --

func TestDispatch_NoSelectionNeverReachesGenerator(t *testing.T) {
	_, bundle := testFixture()
	gen := &mockGenerator{result: testResult()}
	svc, _, _ := newTestService(&mockBuilder{err: journey.ErrNoSelection}, gen, bundle)

	_, err := svc.Dispatch(context.Background(), uuid.New(), "", "")
	if !errors.Is(err, journey.ErrNoSelection) {
		t.Fatalf("err = %v, want ErrNoSelection", err)
	}
	if gen.calls != 0 {
		t.Error("generator must not be called on validation failure")
	}
	if st := svc.GenerationStatus(uuid.New()); st.State != StateIdle {
		t.Errorf("state = %s, want idle", st.State)
	}
}

func TestDispatch_RejectedWhileInFlight(t *testing.T) {
	req, bundle := testFixture()
	svc, _, _ := newTestService(&mockBuilder{req: req}, &mockGenerator{result: testResult()}, bundle)
	patientID := uuid.New()

	if err := svc.controller.Begin(patientID); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Dispatch(context.Background(), patientID, "", "")
	if !errors.Is(err, ErrGenerationInFlight) {
		t.Fatalf("err = %v, want ErrGenerationInFlight", err)
	}
}

func TestRun_Success(t *testing.T) {
	req, bundle := testFixture()
	gen := &mockGenerator{result: testResult()}
	svc, repo, events := newTestService(&mockBuilder{req: req}, gen, bundle)
	patientID := uuid.New()
	req.PatientID = patientID
	req.Title = "Molar rehab"

	svc.controller.Begin(patientID)
	svc.run(context.Background(), req)

	if st := svc.GenerationStatus(patientID); st.State != StateSucceeded {
		t.Fatalf("state = %s, want succeeded", st.State)
	}
	list, _, _ := repo.ListByPatient(context.Background(), patientID, 100, 0)
	if len(list) != 1 {
		t.Fatalf("stored case studies = %d, want 1", len(list))
	}
	cs := list[0]
	if cs.TotalTokens != 1200 || cs.Cost != 0.05 {
		t.Errorf("metadata = %d tokens / %v cost, want 1200 / 0.05", cs.TotalTokens, cs.Cost)
	}
	if len(cs.ObservationIDs) != 1 || len(cs.ProcedureIDs) != 1 {
		t.Error("originating record ids not persisted")
	}
	if !strings.Contains(gen.lastPrompt, "deep caries") ||
		!strings.Contains(gen.lastPrompt, "Root Canal - Pulpectomy") {
		t.Error("prompt missing selected record content")
	}

	states := events.states()
	if len(states) == 0 || states[len(states)-1] != StateSucceeded {
		t.Errorf("published states = %v, want trailing succeeded", states)
	}
}

func TestRun_FailureRetainsPriorResult(t *testing.T) {
	req, bundle := testFixture()
	gen := &mockGenerator{result: testResult()}
	svc, repo, _ := newTestService(&mockBuilder{req: req}, gen, bundle)
	patientID := uuid.New()
	req.PatientID = patientID

	// First generation succeeds.
	svc.controller.Begin(patientID)
	svc.run(context.Background(), req)
	list, _, _ := repo.ListByPatient(context.Background(), patientID, 100, 0)
	if len(list) != 1 {
		t.Fatal("first generation not stored")
	}
	priorID := list[0].ID

	// Second generation fails; the stored result survives.
	gen.err = &genai.TransientError{Status: 429, Message: "rate limited"}
	svc.controller.Begin(patientID)
	svc.run(context.Background(), req)

	st := svc.GenerationStatus(patientID)
	if st.State != StateFailed {
		t.Fatalf("state = %s, want failed", st.State)
	}
	if st.LastError == "" {
		t.Error("failure message not recorded")
	}
	if _, err := repo.GetByID(context.Background(), priorID); err != nil {
		t.Error("prior case study discarded on failure")
	}
}

func TestRunRegenerate_ReplacesOnlyNamedSection(t *testing.T) {
	req, bundle := testFixture()
	gen := &mockGenerator{result: testResult()}
	svc, repo, _ := newTestService(&mockBuilder{req: req}, gen, bundle)
	patientID := uuid.New()
	req.PatientID = patientID

	svc.controller.Begin(patientID)
	svc.run(context.Background(), req)
	list, _, _ := repo.ListByPatient(context.Background(), patientID, 100, 0)
	cs := list[0]

	gen.section = &genai.SectionResult{
		Text:  "Revised outcome.",
		Model: "gpt-4o",
		Usage: genai.Usage{TotalTokens: 300},
		Cost:  0.01,
	}
	svc.controller.BeginRegenerate(patientID)
	svc.runRegenerate(context.Background(), cs, SectionOutcomeSummary)

	updated, err := repo.GetByID(context.Background(), cs.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Sections.OutcomeSummary != "Revised outcome." {
		t.Errorf("outcome = %q, want replacement text", updated.Sections.OutcomeSummary)
	}
	if updated.Sections.InitialDiagnosis != "Irreversible pulpitis." {
		t.Error("untouched section was altered by regeneration")
	}
	if updated.TotalTokens != 1500 {
		t.Errorf("total tokens = %d, want 1500 (accumulated)", updated.TotalTokens)
	}
	if st := svc.GenerationStatus(patientID); st.State != StateSucceeded {
		t.Errorf("state = %s, want succeeded", st.State)
	}
}

func TestRegenerateSection_UnknownSection(t *testing.T) {
	req, bundle := testFixture()
	svc, _, _ := newTestService(&mockBuilder{req: req}, &mockGenerator{}, bundle)

	_, err := svc.RegenerateSection(context.Background(), uuid.New(), "conclusion")
	if err == nil || !strings.Contains(err.Error(), "unknown section") {
		t.Fatalf("err = %v, want unknown section error", err)
	}
}

func TestRegenerateSection_RequiresPriorResult(t *testing.T) {
	req, bundle := testFixture()
	svc, repo, _ := newTestService(&mockBuilder{req: req}, &mockGenerator{}, bundle)

	cs := &CaseStudy{PatientID: uuid.New()}
	repo.Create(context.Background(), cs)

	// The stored study exists but the lifecycle never saw a success and the
	// patient state is idle, so Get must seed Succeeded first.
	if _, err := svc.Get(context.Background(), cs.ID); err != nil {
		t.Fatal(err)
	}
	if st := svc.GenerationStatus(cs.PatientID); st.State != StateSucceeded {
		t.Fatalf("state after Get = %s, want succeeded", st.State)
	}
}

func TestFailureMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not configured", genai.ErrNotConfigured, "not configured"},
		{"transient", &genai.TransientError{Status: 429, Message: "slow down"}, "temporarily unavailable"},
		{"parse", &genai.ParseError{Cause: errors.New("bad json")}, "temporarily unavailable"},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := failureMessage(tt.err); !strings.Contains(got, tt.want) {
				t.Errorf("failureMessage() = %q, want containing %q", got, tt.want)
			}
		})
	}
}
