package journey

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dentiva/clinic/internal/domain/records"
)

// Visit is a derived aggregate of the clinical records judged to belong to one
// patient encounter. Visits are recomputed from the raw record set on every
// aggregation run and never persisted.
type Visit struct {
	ID           string                 `json:"id"`
	Date         time.Time              `json:"date"`
	Observations []*records.Observation `json:"observations"`
	Procedures   []*records.Procedure   `json:"procedures"`
	Attachments  []*records.Attachment  `json:"attachments"`
}

// ToothNumbers returns the distinct tooth numbers referenced by any of the
// visit's observations or procedures, in canonical FDI order.
func (v *Visit) ToothNumbers() []string {
	seen := make(map[string]bool)
	var teeth []string
	for _, o := range v.Observations {
		for _, t := range o.ToothNumbers {
			if !seen[t] {
				seen[t] = true
				teeth = append(teeth, t)
			}
		}
	}
	for _, p := range v.Procedures {
		for _, t := range p.ToothNumbers {
			if !seen[t] {
				seen[t] = true
				teeth = append(teeth, t)
			}
		}
	}
	records.SortToothNumbers(teeth)
	return teeth
}

// AttachmentIDs returns the ids of every attachment owned by the visit.
func (v *Visit) AttachmentIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(v.Attachments))
	for _, a := range v.Attachments {
		ids = append(ids, a.ID)
	}
	return ids
}

// Excluded identifies a record that could not be placed in any visit because
// it carries no usable date. The caller logs these at the boundary.
type Excluded struct {
	Kind string
	ID   uuid.UUID
}

// clusterRecord is one datable record feeding the time-proximity clustering.
type clusterRecord struct {
	date time.Time
	obs  *records.Observation
	proc *records.Procedure
}

// Aggregate clusters a patient's raw records into visits using a
// time-proximity rule: two records share a visit when their dates fall within
// the given window of the visit's first record. A procedure explicitly linked
// to an observation always joins that observation's visit regardless of dates.
// A procedure with no date of its own inherits its linked observation's date;
// records with no usable date at all are returned as excluded.
//
// Pure function of its inputs. Visits come back ordered ascending by date and
// the result is structurally identical across re-runs on the same bundle.
func Aggregate(bundle *records.Bundle, window time.Duration) ([]*Visit, []Excluded) {
	var excluded []Excluded

	obsByID := make(map[uuid.UUID]*records.Observation, len(bundle.Observations))
	for _, o := range bundle.Observations {
		obsByID[o.ID] = o
	}

	// Linked procedures are held aside: they join their observation's visit
	// after clustering, no matter what their own dates say.
	linked := make(map[uuid.UUID][]*records.Procedure)
	var anchors []clusterRecord

	for _, o := range bundle.Observations {
		if o.RecordedAt.IsZero() {
			excluded = append(excluded, Excluded{Kind: "observation", ID: o.ID})
			continue
		}
		anchors = append(anchors, clusterRecord{date: o.RecordedAt, obs: o})
	}

	for _, p := range bundle.Procedures {
		if p.ObservationID != nil {
			if o, ok := obsByID[*p.ObservationID]; ok && !o.RecordedAt.IsZero() {
				linked[o.ID] = append(linked[o.ID], p)
				continue
			}
		}
		date := p.EffectiveDate()
		if date == nil {
			excluded = append(excluded, Excluded{Kind: "procedure", ID: p.ID})
			continue
		}
		anchors = append(anchors, clusterRecord{date: *date, proc: p})
	}

	sort.SliceStable(anchors, func(i, j int) bool {
		if !anchors[i].date.Equal(anchors[j].date) {
			return anchors[i].date.Before(anchors[j].date)
		}
		return anchorID(anchors[i]).String() < anchorID(anchors[j]).String()
	})

	var visits []*Visit
	var current *Visit
	for _, rec := range anchors {
		if current == nil || rec.date.Sub(current.Date) > window {
			current = &Visit{Date: rec.date}
			visits = append(visits, current)
		}
		if rec.obs != nil {
			current.Observations = append(current.Observations, rec.obs)
			current.Procedures = append(current.Procedures, linked[rec.obs.ID]...)
		} else {
			current.Procedures = append(current.Procedures, rec.proc)
		}
	}

	attachTo := make(map[uuid.UUID]*Visit)
	for _, v := range visits {
		v.ID = visitID(v)
		for _, o := range v.Observations {
			attachTo[o.ID] = v
		}
		for _, p := range v.Procedures {
			attachTo[p.ID] = v
		}
	}

	for _, a := range bundle.Attachments {
		var owner uuid.UUID
		switch {
		case a.ObservationID != nil:
			owner = *a.ObservationID
		case a.ProcedureID != nil:
			owner = *a.ProcedureID
		default:
			excluded = append(excluded, Excluded{Kind: "attachment", ID: a.ID})
			continue
		}
		v, ok := attachTo[owner]
		if !ok {
			excluded = append(excluded, Excluded{Kind: "attachment", ID: a.ID})
			continue
		}
		v.Attachments = append(v.Attachments, a)
	}

	return visits, excluded
}

func anchorID(rec clusterRecord) uuid.UUID {
	if rec.obs != nil {
		return rec.obs.ID
	}
	return rec.proc.ID
}

// visitID derives a stable identifier from the visit's contents: the smallest
// constituent record id. Re-aggregating an unchanged record set yields the
// same ids regardless of input order.
func visitID(v *Visit) string {
	var min string
	for _, o := range v.Observations {
		if s := o.ID.String(); min == "" || s < min {
			min = s
		}
	}
	for _, p := range v.Procedures {
		if s := p.ID.String(); min == "" || s < min {
			min = s
		}
	}
	return "visit-" + min
}
