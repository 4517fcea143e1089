package doctor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medtriage/database/reference"
	"medtriage/models"
)

type nopSink struct{}

func (nopSink) Record(agent, level, message string, metadata map[string]interface{}) {}

func testRoster() *reference.Store {
	return &reference.Store{
		Doctors: []models.Doctor{
			{
				DoctorID: "DOC001", Name: "Dr. Asha Kulkarni", Specialty: "Pulmonologist",
				TeleAvailable: true, ConsultationFee: 800, ExperienceYears: 18,
				Languages: []string{"English", "Hindi"},
				AvailableSlots: []string{
					"2026-08-25T10:00:00Z", // past relative to the test clock
					"2026-08-26T10:00:00Z",
					"2026-08-26T14:00:00Z",
					"2026-08-27T09:00:00Z",
					"2026-08-28T09:00:00Z",
				},
			},
			{
				DoctorID: "DOC002", Name: "Dr. Rohan Mehta", Specialty: "General Physician",
				TeleAvailable: true, ConsultationFee: 400, ExperienceYears: 9,
				AvailableSlots: []string{"2026-08-26T09:30:00Z"},
			},
			{
				DoctorID: "DOC003", Name: "Dr. Suresh Patil", Specialty: "Pulmonologist",
				TeleAvailable: false, ConsultationFee: 750, ExperienceYears: 22,
				AvailableSlots: []string{"2026-08-26T12:00:00Z"},
			},
		},
	}
}

func newTestReferrer() *Referrer {
	r := NewReferrer(testRoster())
	r.now = func() time.Time {
		return time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	}
	return r
}

func assessmentFor(condition, severity string, redFlags ...string) *models.ImagingAssessment {
	probs := map[string]float64{condition: 0.7, models.ConditionNormal: 0.1}
	return &models.ImagingAssessment{
		ConditionProbs: probs,
		SeverityHint:   severity,
		RedFlags:       redFlags,
	}
}

func TestReferRanksSpecialistFirst(t *testing.T) {
	r := newTestReferrer()

	referral := r.Refer(assessmentFor(models.ConditionPneumonia, models.SeverityModerate), "test", nopSink{})

	require.NotEmpty(t, referral.AvailableDoctors)
	assert.Equal(t, "DOC001", referral.AvailableDoctors[0].DoctorID,
		"tele-available pulmonologist with most experience ranks first")

	for _, doc := range referral.AvailableDoctors {
		assert.NotEqual(t, "DOC003", doc.DoctorID, "doctors without tele availability are excluded")
		assert.LessOrEqual(t, doc.MatchScore, 100)
	}
}

func TestReferFiltersPastSlots(t *testing.T) {
	r := newTestReferrer()

	referral := r.Refer(assessmentFor(models.ConditionPneumonia, models.SeverityModerate), "test", nopSink{})

	var top models.DoctorRecommendation
	for _, doc := range referral.AvailableDoctors {
		if doc.DoctorID == "DOC001" {
			top = doc
		}
	}
	require.NotEmpty(t, top.DoctorID)
	assert.Equal(t, 4, top.TotalSlotsAvailable, "past slot must be dropped")
	assert.Len(t, top.AvailableSlots, 3, "at most three slots are shown")
	for _, slot := range top.AvailableSlots {
		assert.NotEqual(t, "2026-08-25T10:00:00Z", slot)
	}
}

func TestUrgencyDetermination(t *testing.T) {
	tests := []struct {
		name       string
		assessment *models.ImagingAssessment
		want       string
	}{
		{"critical flag", assessmentFor(models.ConditionPneumonia, models.SeverityModerate, "CRITICAL: SpO2 < 88% - call emergency services immediately"), models.UrgencyCritical},
		{"severe", assessmentFor(models.ConditionPneumonia, models.SeveritySevere), models.UrgencyHigh},
		{"moderate with warning flag", assessmentFor(models.ConditionPneumonia, models.SeverityModerate, "WARNING: Oxygen saturation is low; urgent doctor review advised"), models.UrgencyHigh},
		{"mild with warning flag", assessmentFor(models.ConditionBronchitis, models.SeverityMild, "WARNING: Reported symptom \"chest pain\" requires prompt medical attention"), models.UrgencyHigh},
		{"moderate", assessmentFor(models.ConditionBronchitis, models.SeverityModerate), models.UrgencyModerate},
		{"mild", assessmentFor(models.ConditionBronchitis, models.SeverityMild), models.UrgencyLow},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, determineUrgency(tc.assessment))
		})
	}
}

func TestCriticalReferralGuidance(t *testing.T) {
	r := newTestReferrer()

	referral := r.Refer(
		assessmentFor(models.ConditionPneumonia, models.SeveritySevere, "CRITICAL: SpO2 < 88% - call emergency services immediately"),
		"critical red flags detected", nopSink{})

	assert.Equal(t, models.UrgencyCritical, referral.UrgencyLevel)
	assert.Equal(t, "emergency_room", referral.ConsultationType)
	assert.Equal(t, "immediate", referral.EstimatedWaitTime)
	assert.NotEmpty(t, referral.EmergencyNote)
	assert.Contains(t, referral.BookingInstructions[0], "emergency room")
}

func TestFallbackIncludesInPersonGPs(t *testing.T) {
	// Roster has no tele-available doctor at all; the general-physician
	// fallback must still return the in-person one.
	r := NewReferrer(&reference.Store{
		Doctors: []models.Doctor{
			{
				DoctorID: "DOC010", Name: "Dr. Vikram Joshi", Specialty: "General Physician",
				TeleAvailable: false, ConsultationFee: 300, ExperienceYears: 12,
				AvailableSlots: []string{"2026-08-26T10:00:00Z"},
			},
		},
	})
	r.now = func() time.Time {
		return time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	}

	referral := r.Refer(assessmentFor(models.ConditionPneumonia, models.SeverityModerate), "test", nopSink{})

	require.Len(t, referral.AvailableDoctors, 1)
	assert.Equal(t, "DOC010", referral.AvailableDoctors[0].DoctorID)
	assert.Equal(t, 1, referral.TotalMatches)
}

func TestMildReferralGuidance(t *testing.T) {
	r := newTestReferrer()

	referral := r.Refer(assessmentFor(models.ConditionBronchitis, models.SeverityMild), "test", nopSink{})

	assert.Equal(t, models.UrgencyLow, referral.UrgencyLevel)
	assert.Equal(t, "tele_consultation", referral.ConsultationType)
	assert.Empty(t, referral.EmergencyNote)
}
