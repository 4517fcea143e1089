package therapy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medtriage/database/reference"
	"medtriage/models"
)

type nopSink struct{}

func (nopSink) Record(agent, level, message string, metadata map[string]interface{}) {}

func testStore() *reference.Store {
	return &reference.Store{
		Medicines: []models.Medicine{
			{SKU: "MED001", DrugName: "Paracetamol", Indication: "fever; pain", AgeMin: 6, ContraAllergyKeywords: []string{"paracetamol", "acetaminophen"}},
			{SKU: "MED002", DrugName: "Ibuprofen", Indication: "fever; pain; inflammation", AgeMin: 12, ContraAllergyKeywords: []string{"ibuprofen", "nsaid"}},
			{SKU: "MED004", DrugName: "Guaifenesin Syrup", Indication: "productive cough; chest congestion", AgeMin: 6, ContraAllergyKeywords: []string{"guaifenesin"}},
		},
		Interactions: []models.Interaction{
			{DrugA: "Ibuprofen", DrugB: "Warfarin", Level: "severe", Note: "Significantly increases bleeding risk"},
			{DrugA: "Paracetamol", DrugB: "Warfarin", Level: "moderate", Note: "May enhance anticoagulant effect"},
		},
	}
}

func assessment(condition, severity string, redFlags ...string) *models.ImagingAssessment {
	probs := map[string]float64{
		models.ConditionNormal:       0.1,
		models.ConditionPneumonia:    0.1,
		models.ConditionCovidSuspect: 0.1,
		models.ConditionBronchitis:   0.1,
		models.ConditionTBSuspect:    0.1,
	}
	probs[condition] = 0.6
	return &models.ImagingAssessment{
		ConditionProbs: probs,
		SeverityHint:   severity,
		Confidence:     0.8,
		RedFlags:       redFlags,
	}
}

func patient(age int, allergies, meds []string) models.PatientContext {
	return models.PatientContext{Age: age, Allergies: allergies, CurrentMedications: meds}
}

func TestPrescriptionGate(t *testing.T) {
	selector := NewSelector(testStore())

	tests := []struct {
		name       string
		assessment *models.ImagingAssessment
	}{
		{name: "tb suspect", assessment: assessment(models.ConditionTBSuspect, models.SeverityModerate)},
		{name: "severe case", assessment: assessment(models.ConditionPneumonia, models.SeveritySevere)},
		{name: "critical flag", assessment: assessment(models.ConditionPneumonia, models.SeverityModerate, "CRITICAL: SpO2 < 88% - call emergency services immediately")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := selector.Select(tc.assessment, patient(40, nil, nil), nopSink{})
			require.NoError(t, err)
			assert.True(t, plan.RequiresPrescription)
			assert.True(t, plan.EscalateToDoctor)
			assert.Empty(t, plan.OTCOptions, "prescription plan must carry no OTC options")
		})
	}
}

func TestNormalConditionHasNoOptions(t *testing.T) {
	selector := NewSelector(testStore())

	plan, err := selector.Select(assessment(models.ConditionNormal, models.SeverityMild), patient(30, nil, nil), nopSink{})
	require.NoError(t, err)
	assert.Empty(t, plan.OTCOptions)
	assert.False(t, plan.RequiresPrescription)
	assert.False(t, plan.EscalateToDoctor, "mild normal case must not escalate")
}

func TestAllergyConflictRemovesOption(t *testing.T) {
	selector := NewSelector(testStore())

	plan, err := selector.Select(
		assessment(models.ConditionPneumonia, models.SeverityMild),
		patient(40, []string{"Paracetamol"}, nil),
		nopSink{},
	)
	require.NoError(t, err)

	for _, opt := range plan.OTCOptions {
		assert.NotEqual(t, "Paracetamol", opt.DrugName)
	}
	require.Len(t, plan.AllergyConflicts, 1)
	assert.Equal(t, "Paracetamol", plan.AllergyConflicts[0].Drug)
	assert.Equal(t, "Paracetamol", plan.AllergyConflicts[0].Allergy)
}

func TestAgeRestrictionRemovesOption(t *testing.T) {
	selector := NewSelector(testStore())

	plan, err := selector.Select(
		assessment(models.ConditionPneumonia, models.SeverityMild),
		patient(8, nil, nil),
		nopSink{},
	)
	require.NoError(t, err)

	for _, opt := range plan.OTCOptions {
		assert.NotEqual(t, "Ibuprofen", opt.DrugName)
	}
	require.NotEmpty(t, plan.AgeRestrictions)
	assert.Equal(t, "Ibuprofen", plan.AgeRestrictions[0].Drug)
	assert.Equal(t, 12, plan.AgeRestrictions[0].RequiredAge)
	assert.Equal(t, 8, plan.AgeRestrictions[0].PatientAge)
}

func TestSevereInteractionEscalates(t *testing.T) {
	selector := NewSelector(testStore())

	plan, err := selector.Select(
		assessment(models.ConditionPneumonia, models.SeverityMild),
		patient(40, nil, []string{"Warfarin"}),
		nopSink{},
	)
	require.NoError(t, err)

	var severe bool
	for _, w := range plan.InteractionWarnings {
		if w.Level == "severe" {
			severe = true
			assert.Equal(t, "Ibuprofen", w.DrugA)
			assert.Equal(t, "Warfarin", w.DrugB)
		}
	}
	assert.True(t, severe, "expected a severe interaction warning")
	assert.True(t, plan.EscalateToDoctor)
}

func TestDosageFallsBackForUnknownDrug(t *testing.T) {
	opt := formatOption(models.Medicine{SKU: "MED099", DrugName: "Obscure Remedy"}, models.SeverityMild)
	assert.Equal(t, defaultDosage.Dose, opt.Dose)
	assert.Equal(t, defaultDosage.Duration, opt.Duration)
}

func TestModerateSeverityAddsCaution(t *testing.T) {
	opt := formatOption(models.Medicine{SKU: "MED001", DrugName: "Paracetamol"}, models.SeverityModerate)
	assert.Contains(t, opt.Warnings, "Monitor symptoms closely; consult doctor if no improvement in 48 hours")
}

func TestSelectRejectsBadInput(t *testing.T) {
	selector := NewSelector(testStore())

	_, err := selector.Select(nil, patient(40, nil, nil), nopSink{})
	assert.Error(t, err)

	_, err = selector.Select(assessment(models.ConditionPneumonia, models.SeverityMild), patient(0, nil, nil), nopSink{})
	assert.Error(t, err)
}
