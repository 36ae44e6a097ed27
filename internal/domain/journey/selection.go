package journey

import (
	"sort"

	"github.com/google/uuid"
)

// Selection action types.
const (
	ActionToggleVisit   = "toggle-visit"
	ActionToggleImage   = "toggle-image"
	ActionSelectGroup   = "select-group"
	ActionDeselectGroup = "deselect-group"
)

// Action is one user selection toggle. Exactly one of VisitID, ImageID, or
// Tooth is meaningful depending on Type.
type Action struct {
	Type    string    `json:"type"`
	VisitID string    `json:"visit_id,omitempty"`
	ImageID uuid.UUID `json:"image_id,omitempty"`
	Tooth   string    `json:"tooth,omitempty"`
}

// Selection is the clinician's working pick of visits and images. It is an
// immutable value: Apply returns a fresh Selection and never mutates its
// receiver, so the cascade rule can be tested as a pure reducer.
type Selection struct {
	visits map[string]struct{}
	images map[uuid.UUID]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() Selection {
	return Selection{
		visits: map[string]struct{}{},
		images: map[uuid.UUID]struct{}{},
	}
}

func (s Selection) HasVisit(id string) bool {
	_, ok := s.visits[id]
	return ok
}

func (s Selection) HasImage(id uuid.UUID) bool {
	_, ok := s.images[id]
	return ok
}

func (s Selection) Empty() bool {
	return len(s.visits) == 0 && len(s.images) == 0
}

// VisitIDs returns the selected visit ids, sorted for stable output.
func (s Selection) VisitIDs() []string {
	ids := make([]string, 0, len(s.visits))
	for id := range s.visits {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ImageIDs returns the selected attachment ids, sorted for stable output.
func (s Selection) ImageIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.images))
	for id := range s.images {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func (s Selection) clone() Selection {
	next := Selection{
		visits: make(map[string]struct{}, len(s.visits)),
		images: make(map[uuid.UUID]struct{}, len(s.images)),
	}
	for id := range s.visits {
		next.visits[id] = struct{}{}
	}
	for id := range s.images {
		next.images[id] = struct{}{}
	}
	return next
}

// Apply reduces one action against the selection and returns the resulting
// state. Deselecting a visit cascades: every attachment owned by that visit
// leaves the selected-images set. Selecting an image never pulls in its
// visit, and only attachments present in the journey can be selected.
// Actions referencing unknown ids are no-ops, as is reaching an
// already-reached state.
func Apply(s Selection, a Action, j *Journey) Selection {
	next := s.clone()
	switch a.Type {
	case ActionToggleVisit:
		v := j.VisitByID(a.VisitID)
		if v == nil {
			return next
		}
		if _, selected := next.visits[v.ID]; selected {
			next.deselectVisit(v)
		} else {
			next.visits[v.ID] = struct{}{}
		}

	case ActionToggleImage:
		if _, selected := next.images[a.ImageID]; selected {
			delete(next.images, a.ImageID)
		} else if j.HasAttachment(a.ImageID) {
			next.images[a.ImageID] = struct{}{}
		}

	case ActionSelectGroup:
		g := j.Group(a.Tooth)
		if g == nil {
			return next
		}
		for _, v := range g.Visits {
			next.visits[v.ID] = struct{}{}
			for _, id := range v.AttachmentIDs() {
				next.images[id] = struct{}{}
			}
		}

	case ActionDeselectGroup:
		g := j.Group(a.Tooth)
		if g == nil {
			return next
		}
		for _, v := range g.Visits {
			next.deselectVisit(v)
		}
	}
	return next
}

func (s Selection) deselectVisit(v *Visit) {
	delete(s.visits, v.ID)
	for _, id := range v.AttachmentIDs() {
		delete(s.images, id)
	}
}
