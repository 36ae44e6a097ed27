package journey

import "github.com/google/uuid"

// Journey is the fully derived view of one patient's treatment history: the
// clustered visit list plus the per-tooth groups built over it. Derived fresh
// from the raw record set on every request; any recomputation replaces the
// whole structure rather than patching it, since clustering boundaries shift
// as records arrive.
type Journey struct {
	Visits []*Visit      `json:"visits"`
	Groups []*ToothGroup `json:"groups"`
}

// VisitByID returns the visit with the given derived id, or nil.
func (j *Journey) VisitByID(id string) *Visit {
	for _, v := range j.Visits {
		if v.ID == id {
			return v
		}
	}
	return nil
}

// HasAttachment reports whether any visit in the journey carries the
// attachment.
func (j *Journey) HasAttachment(id uuid.UUID) bool {
	for _, v := range j.Visits {
		for _, att := range v.Attachments {
			if att.ID == id {
				return true
			}
		}
	}
	return false
}

// Group returns the treatment group for a tooth number, or nil.
func (j *Journey) Group(tooth string) *ToothGroup {
	for _, g := range j.Groups {
		if g.Tooth == tooth {
			return g
		}
	}
	return nil
}
