package journey

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		procs []string
		want  string
	}{
		{"root canal", []string{"Root Canal - Pulpectomy"}, TreatmentRootCanal},
		{"extraction", []string{"Surgical Extraction"}, TreatmentExtraction},
		{"restorative", []string{"Composite Filling"}, TreatmentRestorative},
		{"prosthetic", []string{"Zirconia Crown"}, TreatmentProsthetic},
		{"periodontal", []string{"Full Mouth Scaling"}, TreatmentPeriodontal},
		{"no match", []string{"Consultation"}, TreatmentGeneral},
		{"empty", nil, TreatmentGeneral},
		{"case insensitive", []string{"ROOT CANAL retreatment"}, TreatmentRootCanal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.procs); got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.procs, got, tt.want)
			}
		})
	}
}

func TestClassify_PriorityOrder(t *testing.T) {
	// Root canal outranks restorative even when the filling appears first.
	procs := []string{"Composite Filling", "Root Canal - Pulpectomy"}
	if got := Classify(procs); got != TreatmentRootCanal {
		t.Errorf("Classify(%v) = %q, want %q", procs, got, TreatmentRootCanal)
	}

	// Extraction outranks restorative.
	procs = []string{"Amalgam Filling", "Extraction of 48"}
	if got := Classify(procs); got != TreatmentExtraction {
		t.Errorf("Classify(%v) = %q, want %q", procs, got, TreatmentExtraction)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	procs := []string{"Scaling", "Crown Preparation", "Composite Filling"}
	first := Classify(procs)
	for i := 0; i < 10; i++ {
		if got := Classify(procs); got != first {
			t.Fatalf("Classify returned %q then %q for the same input", first, got)
		}
	}
}
