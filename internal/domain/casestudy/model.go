package casestudy

import (
	"time"

	"github.com/google/uuid"

	"github.com/dentiva/clinic/internal/platform/genai"
)

// Narrative section names, as accepted by the regeneration endpoint.
const (
	SectionPreTreatmentSummary = "pre_treatment_summary"
	SectionInitialDiagnosis    = "initial_diagnosis"
	SectionTreatmentGoals      = "treatment_goals"
	SectionTreatmentSummary    = "treatment_summary"
	SectionProceduresPerformed = "procedures_performed"
	SectionOutcomeSummary      = "outcome_summary"
	SectionSuccessMetrics      = "success_metrics"
	SectionFullNarrative       = "full_narrative"
)

// SectionNames lists every regenerable section.
var SectionNames = []string{
	SectionPreTreatmentSummary,
	SectionInitialDiagnosis,
	SectionTreatmentGoals,
	SectionTreatmentSummary,
	SectionProceduresPerformed,
	SectionOutcomeSummary,
	SectionSuccessMetrics,
	SectionFullNarrative,
}

// ValidSection reports whether name is a known section.
func ValidSection(name string) bool {
	for _, s := range SectionNames {
		if s == name {
			return true
		}
	}
	return false
}

// CaseStudy is a generated narrative document plus the record ids it was
// built from, kept so the document can be re-displayed and regenerated later.
type CaseStudy struct {
	ID             uuid.UUID      `db:"id" json:"id"`
	PatientID      uuid.UUID      `db:"patient_id" json:"patient_id"`
	Title          string         `db:"title" json:"title"`
	ChiefComplaint string         `db:"chief_complaint" json:"chief_complaint"`
	Sections       genai.Sections `db:"sections" json:"sections"`
	Model          string         `db:"model" json:"model"`
	TotalTokens    int            `db:"total_tokens" json:"total_tokens"`
	Cost           float64        `db:"cost" json:"cost"`
	ObservationIDs []uuid.UUID    `db:"observation_ids" json:"observation_ids"`
	ProcedureIDs   []uuid.UUID    `db:"procedure_ids" json:"procedure_ids"`
	AttachmentIDs  []uuid.UUID    `db:"attachment_ids" json:"attachment_ids"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// SetSection replaces one named section's text, leaving the others untouched.
func (cs *CaseStudy) SetSection(name, text string) {
	switch name {
	case SectionPreTreatmentSummary:
		cs.Sections.PreTreatmentSummary = text
	case SectionInitialDiagnosis:
		cs.Sections.InitialDiagnosis = text
	case SectionTreatmentGoals:
		cs.Sections.TreatmentGoals = text
	case SectionTreatmentSummary:
		cs.Sections.TreatmentSummary = text
	case SectionProceduresPerformed:
		cs.Sections.ProceduresPerformed = text
	case SectionOutcomeSummary:
		cs.Sections.OutcomeSummary = text
	case SectionSuccessMetrics:
		cs.Sections.SuccessMetrics = text
	case SectionFullNarrative:
		cs.Sections.FullNarrative = text
	}
}
