package records

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repositories --

type mockObsRepo struct {
	observations map[uuid.UUID]*Observation
}

func newMockObsRepo() *mockObsRepo {
	return &mockObsRepo{observations: make(map[uuid.UUID]*Observation)}
}

func (m *mockObsRepo) Create(_ context.Context, o *Observation) error {
	o.ID = uuid.New()
	m.observations[o.ID] = o
	return nil
}

func (m *mockObsRepo) GetByID(_ context.Context, id uuid.UUID) (*Observation, error) {
	o, ok := m.observations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

func (m *mockObsRepo) Update(_ context.Context, o *Observation) error {
	m.observations[o.ID] = o
	return nil
}

func (m *mockObsRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.observations, id)
	return nil
}

func (m *mockObsRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Observation, error) {
	var result []*Observation
	for _, o := range m.observations {
		if o.PatientID == patientID {
			result = append(result, o)
		}
	}
	return result, nil
}

type mockProcRepo struct {
	procedures map[uuid.UUID]*Procedure
}

func newMockProcRepo() *mockProcRepo {
	return &mockProcRepo{procedures: make(map[uuid.UUID]*Procedure)}
}

func (m *mockProcRepo) Create(_ context.Context, p *Procedure) error {
	p.ID = uuid.New()
	if p.Status == "" {
		p.Status = StatusPlanned
	}
	m.procedures[p.ID] = p
	return nil
}

func (m *mockProcRepo) GetByID(_ context.Context, id uuid.UUID) (*Procedure, error) {
	p, ok := m.procedures[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockProcRepo) Update(_ context.Context, p *Procedure) error {
	m.procedures[p.ID] = p
	return nil
}

func (m *mockProcRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.procedures, id)
	return nil
}

func (m *mockProcRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Procedure, error) {
	var result []*Procedure
	for _, p := range m.procedures {
		if p.PatientID == patientID {
			result = append(result, p)
		}
	}
	return result, nil
}

type mockAttRepo struct {
	attachments map[uuid.UUID]*Attachment
}

func newMockAttRepo() *mockAttRepo {
	return &mockAttRepo{attachments: make(map[uuid.UUID]*Attachment)}
}

func (m *mockAttRepo) Create(_ context.Context, a *Attachment) error {
	a.ID = uuid.New()
	m.attachments[a.ID] = a
	return nil
}

func (m *mockAttRepo) GetByID(_ context.Context, id uuid.UUID) (*Attachment, error) {
	a, ok := m.attachments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *mockAttRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.attachments, id)
	return nil
}

func (m *mockAttRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Attachment, error) {
	var result []*Attachment
	for _, a := range m.attachments {
		if a.PatientID == patientID {
			result = append(result, a)
		}
	}
	return result, nil
}

func newTestService() (*Service, *mockObsRepo, *mockProcRepo, *mockAttRepo) {
	obs := newMockObsRepo()
	procs := newMockProcRepo()
	atts := newMockAttRepo()
	return NewService(obs, procs, atts), obs, procs, atts
}

// -- Tests --

func TestCreateObservation(t *testing.T) {
	svc, _, _, _ := newTestService()

	o := &Observation{
		PatientID:    uuid.New(),
		ToothNumbers: []string{"16"},
		Condition:    "deep caries",
		RecordedAt:   time.Now(),
	}
	if err := svc.CreateObservation(context.Background(), o); err != nil {
		t.Fatalf("CreateObservation() error: %v", err)
	}
}

func TestCreateObservation_Validation(t *testing.T) {
	svc, _, _, _ := newTestService()
	now := time.Now()

	tests := []struct {
		name string
		obs  *Observation
	}{
		{"no teeth", &Observation{Condition: "caries", RecordedAt: now}},
		{"bad tooth", &Observation{ToothNumbers: []string{"99"}, Condition: "caries", RecordedAt: now}},
		{"no condition", &Observation{ToothNumbers: []string{"16"}, RecordedAt: now}},
		{"no date", &Observation{ToothNumbers: []string{"16"}, Condition: "caries"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.CreateObservation(context.Background(), tt.obs); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestCreateProcedure_LinkedObservationMustExist(t *testing.T) {
	svc, _, _, _ := newTestService()

	missing := uuid.New()
	p := &Procedure{
		PatientID:     uuid.New(),
		ToothNumbers:  []string{"16"},
		Name:          "Root Canal - Pulpectomy",
		ObservationID: &missing,
	}
	if err := svc.CreateProcedure(context.Background(), p); err == nil {
		t.Error("expected error for missing linked observation")
	}
}

func TestUpdateProcedure_StatusTransitions(t *testing.T) {
	tests := []struct {
		from, to string
		wantErr  bool
	}{
		{StatusPlanned, StatusInProgress, false},
		{StatusPlanned, StatusCompleted, false},
		{StatusInProgress, StatusCompleted, false},
		{StatusInProgress, StatusCancelled, false},
		{StatusCompleted, StatusPlanned, true},
		{StatusCompleted, StatusCancelled, true},
		{StatusCancelled, StatusPlanned, false},
		{StatusPlanned, StatusPlanned, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			svc, _, procs, _ := newTestService()
			p := &Procedure{
				PatientID:    uuid.New(),
				ToothNumbers: []string{"16"},
				Name:         "Composite Filling",
				Status:       tt.from,
			}
			if err := procs.Create(context.Background(), p); err != nil {
				t.Fatal(err)
			}

			updated := *p
			updated.Status = tt.to
			err := svc.UpdateProcedure(context.Background(), &updated)
			if (err != nil) != tt.wantErr {
				t.Errorf("UpdateProcedure(%s -> %s) error = %v, wantErr %v", tt.from, tt.to, err, tt.wantErr)
			}
		})
	}
}

func TestCreateAttachment_RequiresOwner(t *testing.T) {
	svc, _, _, _ := newTestService()

	a := &Attachment{PatientID: uuid.New(), Kind: AttachmentBefore, StorageURL: "s3://bucket/img.jpg"}
	if err := svc.CreateAttachment(context.Background(), a); err == nil {
		t.Error("expected error for attachment without observation or procedure")
	}
}

func TestGetBundle_FullSetForPatient(t *testing.T) {
	svc, obs, procs, atts := newTestService()
	patientID := uuid.New()
	otherID := uuid.New()

	o := &Observation{PatientID: patientID, ToothNumbers: []string{"16"}, Condition: "caries", RecordedAt: time.Now()}
	obs.Create(context.Background(), o)
	obs.Create(context.Background(), &Observation{PatientID: otherID, ToothNumbers: []string{"21"}, Condition: "caries", RecordedAt: time.Now()})

	procs.Create(context.Background(), &Procedure{PatientID: patientID, ToothNumbers: []string{"16"}, Name: "Filling"})
	atts.Create(context.Background(), &Attachment{PatientID: patientID, ObservationID: &o.ID, Kind: AttachmentBefore, StorageURL: "s3://x"})

	bundle, err := svc.GetBundle(context.Background(), patientID)
	if err != nil {
		t.Fatalf("GetBundle() error: %v", err)
	}
	if len(bundle.Observations) != 1 {
		t.Errorf("observations = %d, want 1", len(bundle.Observations))
	}
	if len(bundle.Procedures) != 1 {
		t.Errorf("procedures = %d, want 1", len(bundle.Procedures))
	}
	if len(bundle.Attachments) != 1 {
		t.Errorf("attachments = %d, want 1", len(bundle.Attachments))
	}
}

func TestProcedureEffectiveDate(t *testing.T) {
	scheduled := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	completed := time.Date(2025, 12, 3, 15, 0, 0, 0, time.UTC)

	p := &Procedure{ScheduledAt: &scheduled}
	if got := p.EffectiveDate(); got == nil || !got.Equal(scheduled) {
		t.Errorf("EffectiveDate() = %v, want scheduled date", got)
	}

	p.CompletedAt = &completed
	if got := p.EffectiveDate(); got == nil || !got.Equal(completed) {
		t.Errorf("EffectiveDate() = %v, want completed date", got)
	}

	if got := (&Procedure{}).EffectiveDate(); got != nil {
		t.Errorf("EffectiveDate() = %v, want nil", got)
	}
}
