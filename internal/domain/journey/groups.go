package journey

import (
	"sort"
	"time"

	"github.com/dentiva/clinic/internal/domain/records"
)

// ToothGroup collects every visit that touched one tooth, with a summary for
// display. Visits are held by reference: a visit touching N teeth appears in
// all N groups.
type ToothGroup struct {
	Tooth         string    `json:"tooth"`
	Visits        []*Visit  `json:"visits"`
	VisitCount    int       `json:"visit_count"`
	FirstVisit    time.Time `json:"first_visit"`
	LastVisit     time.Time `json:"last_visit"`
	TreatmentType string    `json:"treatment_type"`
}

// GroupByTooth re-keys the visit list by tooth number. Each group's visits are
// sorted ascending by date and the groups come back in canonical FDI order,
// never lexical order.
func GroupByTooth(visits []*Visit) []*ToothGroup {
	byTooth := make(map[string]*ToothGroup)
	for _, v := range visits {
		for _, tooth := range v.ToothNumbers() {
			g, ok := byTooth[tooth]
			if !ok {
				g = &ToothGroup{Tooth: tooth}
				byTooth[tooth] = g
			}
			g.Visits = append(g.Visits, v)
		}
	}

	teeth := make([]string, 0, len(byTooth))
	for tooth := range byTooth {
		teeth = append(teeth, tooth)
	}
	records.SortToothNumbers(teeth)

	groups := make([]*ToothGroup, 0, len(teeth))
	for _, tooth := range teeth {
		g := byTooth[tooth]
		sort.SliceStable(g.Visits, func(i, j int) bool {
			return g.Visits[i].Date.Before(g.Visits[j].Date)
		})
		g.VisitCount = len(g.Visits)
		g.FirstVisit = g.Visits[0].Date
		g.LastVisit = g.Visits[len(g.Visits)-1].Date
		g.TreatmentType = Classify(procedureNames(g.Visits, tooth))
		groups = append(groups, g)
	}
	return groups
}

// procedureNames returns the names of the group's procedures that reference
// the group's tooth.
func procedureNames(visits []*Visit, tooth string) []string {
	var names []string
	for _, v := range visits {
		for _, p := range v.Procedures {
			for _, t := range p.ToothNumbers {
				if t == tooth {
					names = append(names, p.Name)
					break
				}
			}
		}
	}
	return names
}
