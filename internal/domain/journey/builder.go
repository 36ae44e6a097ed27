package journey

import (
	"errors"

	"github.com/google/uuid"
)

// ErrNoSelection is returned when a case-study request is built from a
// selection holding no visits, or from visits that dereference to no
// observation or procedure ids.
var ErrNoSelection = errors.New("no visits selected")

// CaseStudyRequest is the bounded payload handed to the generator: the
// distinct record ids reachable from the selected visits, plus the selected
// images carried through for display alongside the narrative.
type CaseStudyRequest struct {
	PatientID      uuid.UUID   `json:"patient_id"`
	ObservationIDs []uuid.UUID `json:"observation_ids"`
	ProcedureIDs   []uuid.UUID `json:"procedure_ids"`
	AttachmentIDs  []uuid.UUID `json:"attachment_ids"`
	Title          string      `json:"title,omitempty"`
	ChiefComplaint string      `json:"chief_complaint,omitempty"`
}

// BuildRequest walks the selected visits and collects the distinct
// observation and procedure ids they reference. Fails with ErrNoSelection
// when nothing usable is selected; the generator is never called with an
// empty request.
func BuildRequest(sel Selection, j *Journey, patientID uuid.UUID, title, chiefComplaint string) (*CaseStudyRequest, error) {
	visitIDs := sel.VisitIDs()
	if len(visitIDs) == 0 {
		return nil, ErrNoSelection
	}

	seenObs := make(map[uuid.UUID]bool)
	seenProc := make(map[uuid.UUID]bool)
	req := &CaseStudyRequest{
		PatientID:      patientID,
		AttachmentIDs:  sel.ImageIDs(),
		Title:          title,
		ChiefComplaint: chiefComplaint,
	}

	for _, id := range visitIDs {
		v := j.VisitByID(id)
		if v == nil {
			continue
		}
		for _, o := range v.Observations {
			if !seenObs[o.ID] {
				seenObs[o.ID] = true
				req.ObservationIDs = append(req.ObservationIDs, o.ID)
			}
		}
		for _, p := range v.Procedures {
			if !seenProc[p.ID] {
				seenProc[p.ID] = true
				req.ProcedureIDs = append(req.ProcedureIDs, p.ID)
			}
		}
	}

	if len(req.ObservationIDs) == 0 && len(req.ProcedureIDs) == 0 {
		return nil, ErrNoSelection
	}
	return req, nil
}
