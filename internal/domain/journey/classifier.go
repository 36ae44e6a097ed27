package journey

import "strings"

// Treatment-type labels. Presentation metadata only, never used for billing
// or clinical decisions.
const (
	TreatmentRootCanal   = "Root Canal Treatment"
	TreatmentExtraction  = "Extraction"
	TreatmentRestorative = "Restorative Treatment"
	TreatmentProsthetic  = "Prosthetic Treatment"
	TreatmentPeriodontal = "Periodontal Treatment"
	TreatmentGeneral     = "General Treatment"
)

type treatmentCategory struct {
	label    string
	keywords []string
}

// Priority order matters: the first category with a keyword hit wins, so a
// group holding both a root canal and a filling is labeled a root canal.
var treatmentCategories = []treatmentCategory{
	{TreatmentRootCanal, []string{"root canal", "rct", "pulpectomy", "pulpotomy", "endodontic"}},
	{TreatmentExtraction, []string{"extraction", "extract", "removal of tooth"}},
	{TreatmentRestorative, []string{"filling", "restoration", "composite", "amalgam", "inlay", "onlay"}},
	{TreatmentProsthetic, []string{"crown", "bridge", "denture", "implant", "veneer", "prosthesis"}},
	{TreatmentPeriodontal, []string{"scaling", "root planing", "gum", "periodontal", "gingiv"}},
}

// Classify labels a group of procedure names with its dominant treatment
// category via case-insensitive keyword matching. Deterministic for a given
// input set.
func Classify(procedureNames []string) string {
	for _, cat := range treatmentCategories {
		for _, name := range procedureNames {
			lower := strings.ToLower(name)
			for _, kw := range cat.keywords {
				if strings.Contains(lower, kw) {
					return cat.label
				}
			}
		}
	}
	return TreatmentGeneral
}
