package journey

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/dentiva/clinic/internal/domain/records"
)

func TestBuildRequest_EmptySelection(t *testing.T) {
	j, _, _ := twoVisitJourney(t)

	_, err := BuildRequest(NewSelection(), j, uuid.New(), "", "")
	if !errors.Is(err, ErrNoSelection) {
		t.Fatalf("err = %v, want ErrNoSelection", err)
	}
}

func TestBuildRequest_CollectsDistinctIDs(t *testing.T) {
	d := day(1)
	o := obs([]string{"16"}, d)
	p1 := proc([]string{"16"}, "Root Canal - Pulpectomy", &d, &o.ID)
	p2 := proc([]string{"16"}, "Composite Filling", &d, &o.ID)
	bundle := &records.Bundle{
		Observations: []*records.Observation{o},
		Procedures:   []*records.Procedure{p1, p2},
	}
	visits, _ := Aggregate(bundle, clusterWindow)
	j := &Journey{Visits: visits, Groups: GroupByTooth(visits)}

	sel := Apply(NewSelection(), Action{Type: ActionToggleVisit, VisitID: visits[0].ID}, j)
	patientID := uuid.New()

	req, err := BuildRequest(sel, j, patientID, "Molar rehab", "persistent pain")
	if err != nil {
		t.Fatalf("BuildRequest() error: %v", err)
	}
	if req.PatientID != patientID {
		t.Error("patient id not carried through")
	}
	if len(req.ObservationIDs) != 1 || len(req.ProcedureIDs) != 2 {
		t.Errorf("ids = %d obs, %d procs, want 1 and 2",
			len(req.ObservationIDs), len(req.ProcedureIDs))
	}
	if req.Title != "Molar rehab" || req.ChiefComplaint != "persistent pain" {
		t.Error("title or chief complaint not carried through")
	}
}

func TestBuildRequest_CarriesSelectedImages(t *testing.T) {
	j, v1, _ := twoVisitJourney(t)
	img := v1.Attachments[0].ID

	sel := Apply(NewSelection(), Action{Type: ActionToggleVisit, VisitID: v1.ID}, j)
	sel = Apply(sel, Action{Type: ActionToggleImage, ImageID: img}, j)

	req, err := BuildRequest(sel, j, uuid.New(), "", "")
	if err != nil {
		t.Fatalf("BuildRequest() error: %v", err)
	}
	if len(req.AttachmentIDs) != 1 || req.AttachmentIDs[0] != img {
		t.Errorf("attachment ids = %v, want [%s]", req.AttachmentIDs, img)
	}
}

func TestBuildRequest_DegenerateSelection(t *testing.T) {
	// A selection whose visit ids no longer dereference yields no record ids
	// and must fail the same way an empty selection does.
	j := &Journey{}
	sel := Selection{
		visits: map[string]struct{}{"visit-gone": {}},
		images: map[uuid.UUID]struct{}{},
	}

	_, err := BuildRequest(sel, j, uuid.New(), "", "")
	if !errors.Is(err, ErrNoSelection) {
		t.Fatalf("err = %v, want ErrNoSelection", err)
	}
}
