package models

// Urgency levels for escalated cases.
const (
	UrgencyCritical = "critical"
	UrgencyHigh     = "high"
	UrgencyModerate = "moderate"
	UrgencyLow      = "low"
)

// DoctorRecommendation is a ranked doctor match for an escalated case.
type DoctorRecommendation struct {
	DoctorID             string   `json:"doctor_id"`
	Name                 string   `json:"name"`
	Specialty            string   `json:"specialty"`
	ExperienceYears      int      `json:"experience_years"`
	ConsultationFee      int      `json:"consultation_fee"`
	Languages            []string `json:"languages"`
	AvailableSlots       []string `json:"available_slots"`
	TotalSlotsAvailable  int      `json:"total_slots_available"`
	MatchScore           int      `json:"match_score"`
	RecommendationReason string   `json:"recommendation_reason"`
}

// DoctorReferral wraps the ranked doctor list with consultation guidance.
type DoctorReferral struct {
	AvailableDoctors    []DoctorRecommendation `json:"available_doctors"`
	TotalMatches        int                    `json:"total_matches"`
	UrgencyLevel        string                 `json:"urgency_level"`
	RecommendedAction   string                 `json:"recommended_action"`
	ConsultationType    string                 `json:"consultation_type"`
	EstimatedWaitTime   string                 `json:"estimated_wait_time"`
	BookingInstructions []string               `json:"booking_instructions"`
	EmergencyNote       string                 `json:"emergency_note,omitempty"`
}
