// Package therapy maps the primary imaging condition to candidate OTC
// medicines, applies age/allergy/interaction safety checks, and decides
// whether the case needs a prescription or a doctor.
package therapy

import (
	"fmt"
	"strings"

	"medtriage/database/reference"
	"medtriage/models"
)

// EventSink receives per-request pipeline events.
type EventSink interface {
	Record(agent, level, message string, metadata map[string]interface{})
}

const agentName = "TherapyAgent"

const maxOTCOptions = 5

// conditionIndications maps each condition to the pharmacological
// indications an OTC medicine must cover. Healthy patients get nothing.
var conditionIndications = map[string][]string{
	models.ConditionNormal:       {},
	models.ConditionPneumonia:    {"cough", "fever", "pain", "chest congestion"},
	models.ConditionCovidSuspect: {"fever", "cough", "pain"},
	models.ConditionBronchitis:   {"cough", "chest congestion", "expectorant"},
	models.ConditionTBSuspect:    {"cough", "fever"}, // escalated before reaching OTC search
}

// Selector implements the therapy stage.
type Selector struct {
	Ref *reference.Store
}

// NewSelector returns a Selector backed by the reference tables.
func NewSelector(ref *reference.Store) *Selector {
	return &Selector{Ref: ref}
}

// Select produces the therapy plan for an imaging assessment.
func (s *Selector) Select(assessment *models.ImagingAssessment, patient models.PatientContext, sink EventSink) (*models.TherapyPlan, error) {
	if assessment == nil || len(assessment.ConditionProbs) == 0 {
		return nil, fmt.Errorf("missing condition probabilities in imaging output")
	}
	if patient.Age <= 0 {
		return nil, fmt.Errorf("missing patient age")
	}

	condition := assessment.PrimaryCondition()
	severity := assessment.SeverityHint

	if requiresPrescription(condition, severity, assessment.RedFlags) {
		sink.Record(agentName, models.LevelWarning, "Case requires prescription - escalating", nil)
		return prescriptionRequiredPlan(condition, severity), nil
	}

	options, allergyConflicts, ageRestrictions := s.gatherCandidates(condition, severity, patient)
	interactionWarnings := s.checkInteractions(options, patient.CurrentMedications)

	plan := &models.TherapyPlan{
		OTCOptions:           options,
		InteractionWarnings:  interactionWarnings,
		AllergyConflicts:     allergyConflicts,
		AgeRestrictions:      ageRestrictions,
		RequiresPrescription: false,
		EscalateToDoctor:     shouldEscalate(assessment.RedFlags, severity, interactionWarnings, len(options)),
		SafetyAdvice:         safetyAdvice(condition, severity),
		PrimaryCondition:     condition,
		Severity:             severity,
	}

	sink.Record(agentName, models.LevelSuccess,
		fmt.Sprintf("Generated %d OTC recommendations", len(options)), nil)
	return plan, nil
}

// requiresPrescription is the prescription gate: critical red flags, severe
// presentation, or a TB suspicion short-circuit the OTC search entirely.
func requiresPrescription(condition, severity string, redFlags []string) bool {
	if HasCriticalFlag(redFlags) {
		return true
	}
	if severity == models.SeveritySevere {
		return true
	}
	return condition == models.ConditionTBSuspect
}

// HasCriticalFlag reports whether any red flag carries a critical or
// emergency marker.
func HasCriticalFlag(redFlags []string) bool {
	for _, flag := range redFlags {
		upper := strings.ToUpper(flag)
		if strings.Contains(upper, "CRITICAL") || strings.Contains(upper, "EMERGENCY") {
			return true
		}
	}
	return false
}

// gatherCandidates walks the catalog once, applying the age and allergy
// checks a single time. Rejected candidates are classified into the
// restriction lists so the reporting fields stay populated.
func (s *Selector) gatherCandidates(condition, severity string, patient models.PatientContext) ([]models.OTCOption, []models.AllergyConflict, []models.AgeRestriction) {
	indications := conditionIndications[condition]
	if len(indications) == 0 {
		return nil, nil, nil
	}

	var options []models.OTCOption
	var allergyConflicts []models.AllergyConflict
	var ageRestrictions []models.AgeRestriction

	for _, med := range s.Ref.Medicines {
		if !indicationMatches(med.Indication, indications) {
			continue
		}

		if patient.Age < med.AgeMin {
			ageRestrictions = append(ageRestrictions, models.AgeRestriction{
				Drug:        med.DrugName,
				RequiredAge: med.AgeMin,
				PatientAge:  patient.Age,
				Reason:      fmt.Sprintf("Minimum age: %d years", med.AgeMin),
			})
			continue
		}

		if allergy, conflict := allergyConflict(med, patient.Allergies); conflict {
			allergyConflicts = append(allergyConflicts, models.AllergyConflict{
				Drug:    med.DrugName,
				Allergy: allergy,
				Reason:  fmt.Sprintf("Patient allergic to %s", allergy),
			})
			continue
		}

		if len(options) < maxOTCOptions {
			options = append(options, formatOption(med, severity))
		}
	}

	return options, allergyConflicts, ageRestrictions
}

func indicationMatches(indication string, required []string) bool {
	text := strings.ToLower(indication)
	for _, ind := range required {
		if strings.Contains(text, ind) {
			return true
		}
	}
	return false
}

// allergyConflict matches patient allergies against the medicine's
// contraindication keywords and its name (case-insensitive substring).
func allergyConflict(med models.Medicine, allergies []string) (string, bool) {
	name := strings.ToLower(med.DrugName)
	for _, allergy := range allergies {
		a := strings.ToLower(strings.TrimSpace(allergy))
		if a == "" {
			continue
		}
		for _, keyword := range med.ContraAllergyKeywords {
			if strings.ToLower(strings.TrimSpace(keyword)) == a {
				return allergy, true
			}
		}
		if strings.Contains(name, a) {
			return allergy, true
		}
	}
	return "", false
}

// checkInteractions screens each OTC option against each current medication
// using the undirected interaction table.
func (s *Selector) checkInteractions(options []models.OTCOption, currentMeds []string) []models.InteractionWarning {
	if len(currentMeds) == 0 {
		return nil
	}

	var warnings []models.InteractionWarning
	for _, otc := range options {
		for _, current := range currentMeds {
			in, ok := s.Ref.FindInteraction(otc.DrugName, current)
			if !ok {
				continue
			}
			warnings = append(warnings, models.InteractionWarning{
				DrugA:          otc.DrugName,
				DrugB:          current,
				Level:          in.Level,
				Warning:        fmt.Sprintf("%s: %s", strings.ToUpper(in.Level), in.Note),
				Recommendation: interactionRecommendation(in.Level),
			})
		}
	}
	return warnings
}

func interactionRecommendation(level string) string {
	switch level {
	case "mild":
		return "Monitor for side effects. Generally safe to use together."
	case "moderate":
		return "Consult pharmacist before combining. May need dose adjustment."
	case "high":
		return "Consult doctor before use. Avoid combination if possible."
	case "severe":
		return "DO NOT COMBINE. Seek doctor's advice immediately."
	}
	return "Consult healthcare professional."
}

// shouldEscalate is the therapy-side escalation gate. Deliberately lenient:
// only true emergencies, severe cases, risky interactions, or a non-mild
// case with nothing to offer escalate.
func shouldEscalate(redFlags []string, severity string, warnings []models.InteractionWarning, numOptions int) bool {
	if HasCriticalFlag(redFlags) {
		return true
	}
	if severity == models.SeveritySevere {
		return true
	}
	for _, w := range warnings {
		if w.Level == "high" || w.Level == "severe" {
			return true
		}
	}
	if numOptions == 0 && severity != models.SeverityMild {
		return true
	}
	return false
}

func prescriptionRequiredPlan(condition, severity string) *models.TherapyPlan {
	return &models.TherapyPlan{
		OTCOptions:           []models.OTCOption{},
		RequiresPrescription: true,
		EscalateToDoctor:     true,
		SafetyAdvice: []string{
			fmt.Sprintf("%s with %s severity requires professional medical evaluation", strings.ToUpper(condition), severity),
			"OTC medicines are NOT sufficient for this condition",
			"Please consult a doctor for prescription medication",
			"Consider tele-consultation or in-person visit",
			"If symptoms worsen, seek emergency care immediately",
		},
		PrimaryCondition: condition,
		Severity:         severity,
	}
}

func safetyAdvice(condition, severity string) []string {
	advice := []string{
		"These are OTC recommendations only - NOT a prescription",
		"Follow dosage instructions carefully",
		"Do not exceed recommended duration without doctor consultation",
	}

	switch condition {
	case models.ConditionPneumonia, models.ConditionCovidSuspect:
		advice = append(advice,
			"Rest and isolate to prevent spread",
			"Stay well-hydrated (8-10 glasses water/day)",
			"Monitor temperature regularly",
			"Check oxygen saturation if available",
		)
	case models.ConditionBronchitis:
		advice = append(advice,
			"Steam inhalation may help relieve congestion",
			"Avoid smoking and secondhand smoke",
			"Wear mask in polluted areas",
		)
	}

	if severity == models.SeverityModerate {
		advice = append(advice,
			"If symptoms worsen or persist beyond 3 days, consult doctor immediately",
			"Keep emergency contact numbers handy",
		)
	}

	advice = append(advice, "SEEK IMMEDIATE HELP IF: high fever (>103F), difficulty breathing, chest pain, confusion")
	return advice
}
