package models

// Condition classes scored by the imaging stage, in canonical order.
// The order doubles as the deterministic tie-break for arg-max lookups.
var Conditions = []string{
	ConditionNormal,
	ConditionPneumonia,
	ConditionCovidSuspect,
	ConditionBronchitis,
	ConditionTBSuspect,
}

const (
	ConditionNormal       = "normal"
	ConditionPneumonia    = "pneumonia"
	ConditionCovidSuspect = "covid_suspect"
	ConditionBronchitis   = "bronchitis"
	ConditionTBSuspect    = "tb_suspect"
)

// Severity hints.
const (
	SeverityMild     = "mild"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
)

// ImagingAssessment is the immutable output of the imaging stage.
type ImagingAssessment struct {
	ConditionProbs  map[string]float64 `json:"condition_probs"`
	SeverityHint    string             `json:"severity_hint"`
	Confidence      float64            `json:"confidence"`
	RedFlags        []string           `json:"red_flags"`
	Recommendations []string           `json:"recommendations"`
}

// PrimaryCondition returns the arg-max condition, first max winning in
// canonical order.
func (a ImagingAssessment) PrimaryCondition() string {
	best := ""
	bestProb := -1.0
	for _, cond := range Conditions {
		if p, ok := a.ConditionProbs[cond]; ok && p > bestProb {
			best = cond
			bestProb = p
		}
	}
	if best == "" {
		return "unknown"
	}
	return best
}
