package casestudy

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dentiva/clinic/internal/domain/journey"
	"github.com/dentiva/clinic/internal/domain/records"
)

const systemPrompt = `You are a dental clinical writer. Given the clinical
records below, write a professional case study. Respond with a JSON object
containing exactly these string fields: pre_treatment_summary,
initial_diagnosis, treatment_goals, treatment_summary, procedures_performed,
outcome_summary, success_metrics, full_narrative. Use only the information
provided; do not invent clinical details.`

const regenerateSystemPrompt = `You are a dental clinical writer. Rewrite the
requested section of an existing case study using the clinical records below.
Respond with a JSON object containing exactly one string field named after
the requested section.`

// buildUserPrompt renders the selected records as the user message for the
// generator. Only records named in the request appear in the prompt.
func buildUserPrompt(req *journey.CaseStudyRequest, bundle *records.Bundle) string {
	wantObs := idSet(req.ObservationIDs)
	wantProc := idSet(req.ProcedureIDs)

	var b strings.Builder
	if req.Title != "" {
		fmt.Fprintf(&b, "Case title: %s\n", req.Title)
	}
	if req.ChiefComplaint != "" {
		fmt.Fprintf(&b, "Chief complaint: %s\n", req.ChiefComplaint)
	}

	b.WriteString("\nObservations:\n")
	for _, o := range bundle.Observations {
		if !wantObs[o.ID] {
			continue
		}
		fmt.Fprintf(&b, "- %s: teeth %s, condition %q",
			o.RecordedAt.Format("2006-01-02"), strings.Join(o.ToothNumbers, ","), o.Condition)
		if o.Severity != nil {
			fmt.Fprintf(&b, ", severity %s", *o.Severity)
		}
		if o.Notes != nil && *o.Notes != "" {
			fmt.Fprintf(&b, ", notes: %s", *o.Notes)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nProcedures:\n")
	for _, p := range bundle.Procedures {
		if !wantProc[p.ID] {
			continue
		}
		fmt.Fprintf(&b, "- %s (teeth %s, status %s", p.Name, strings.Join(p.ToothNumbers, ","), p.Status)
		if d := p.EffectiveDate(); d != nil {
			fmt.Fprintf(&b, ", date %s", d.Format("2006-01-02"))
		}
		b.WriteString(")\n")
	}

	return b.String()
}

// buildRegeneratePrompt renders the stored case study plus the section to
// rewrite.
func buildRegeneratePrompt(cs *CaseStudy, section string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Section to rewrite: %s\n\nCurrent case study:\n", section)
	fmt.Fprintf(&b, "pre_treatment_summary: %s\n", cs.Sections.PreTreatmentSummary)
	fmt.Fprintf(&b, "initial_diagnosis: %s\n", cs.Sections.InitialDiagnosis)
	fmt.Fprintf(&b, "treatment_goals: %s\n", cs.Sections.TreatmentGoals)
	fmt.Fprintf(&b, "treatment_summary: %s\n", cs.Sections.TreatmentSummary)
	fmt.Fprintf(&b, "procedures_performed: %s\n", cs.Sections.ProceduresPerformed)
	fmt.Fprintf(&b, "outcome_summary: %s\n", cs.Sections.OutcomeSummary)
	fmt.Fprintf(&b, "success_metrics: %s\n", cs.Sections.SuccessMetrics)
	if cs.ChiefComplaint != "" {
		fmt.Fprintf(&b, "\nChief complaint: %s\n", cs.ChiefComplaint)
	}
	return b.String()
}

func idSet(ids []uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
