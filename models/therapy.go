package models

// OTCOption is a single over-the-counter medicine recommendation.
type OTCOption struct {
	SKU        string   `json:"sku"`
	DrugName   string   `json:"drug_name"`
	Dose       string   `json:"dose"`
	Frequency  string   `json:"frequency"`
	MaxDaily   string   `json:"max_daily"`
	Duration   string   `json:"duration"`
	Warnings   []string `json:"warnings"`
	Form       string   `json:"form"`
	PriceRange string   `json:"price_range"`
}

// InteractionWarning flags a drug-drug interaction between a recommended
// OTC medicine and one of the patient's current medications.
type InteractionWarning struct {
	DrugA          string `json:"drug_a"`
	DrugB          string `json:"drug_b"`
	Level          string `json:"level"` // mild, moderate, high, severe
	Warning        string `json:"warning"`
	Recommendation string `json:"recommendation"`
}

// AllergyConflict records a candidate removed because of a patient allergy.
type AllergyConflict struct {
	Drug    string `json:"drug"`
	Allergy string `json:"allergy"`
	Reason  string `json:"reason"`
}

// AgeRestriction records a candidate removed because of the patient's age.
type AgeRestriction struct {
	Drug        string `json:"drug"`
	RequiredAge int    `json:"required_age"`
	PatientAge  int    `json:"patient_age"`
	Reason      string `json:"reason"`
}

// TherapyPlan is the output of the therapy selection stage.
// Invariant: RequiresPrescription == true implies OTCOptions is empty.
type TherapyPlan struct {
	OTCOptions           []OTCOption          `json:"otc_options"`
	InteractionWarnings  []InteractionWarning `json:"interaction_warnings"`
	AllergyConflicts     []AllergyConflict    `json:"allergy_conflicts"`
	AgeRestrictions      []AgeRestriction     `json:"age_restrictions"`
	RequiresPrescription bool                 `json:"requires_prescription"`
	EscalateToDoctor     bool                 `json:"escalate_to_doctor"`
	SafetyAdvice         []string             `json:"safety_advice"`
	PrimaryCondition     string               `json:"primary_condition"`
	Severity             string               `json:"severity"`
}
