package models

// Pipeline result statuses.
const (
	StatusEmergency = "EMERGENCY"
	StatusEscalated = "ESCALATED"
	StatusSuccess   = "SUCCESS"
	StatusFailed    = "FAILED"
)

// Consolidated status levels for the success path.
const (
	StatusLevelOK      = "OK"
	StatusLevelCaution = "CAUTION"
	StatusLevelWarning = "WARNING"
)

// Assessment summarizes the imaging output inside a consolidated result.
type Assessment struct {
	ConditionProbabilities map[string]float64 `json:"condition_probabilities"`
	PrimaryCondition       string             `json:"primary_condition"`
	Severity               string             `json:"severity"`
	Confidence             float64            `json:"confidence"`
	RedFlags               []string           `json:"red_flags"`
}

// Treatment summarizes the therapy output inside a consolidated result.
type Treatment struct {
	OTCMedicines        []OTCOption          `json:"otc_medicines"`
	InteractionWarnings []InteractionWarning `json:"interaction_warnings"`
	AllergyConflicts    []AllergyConflict    `json:"allergy_conflicts"`
	SafetyAdvice        []string             `json:"safety_advice"`
}

// OrderPricing is the pricing block of a mock order.
type OrderPricing struct {
	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"delivery_fee"`
	Total       float64 `json:"total"`
	Currency    string  `json:"currency"`
}

// OrderDelivery is the delivery block of a mock order.
type OrderDelivery struct {
	Pharmacy             string `json:"pharmacy"`
	ETAMinutes           int    `json:"eta_minutes"`
	ReservationID        string `json:"reservation_id,omitempty"`
	ReservedUnits        int    `json:"reserved_units"`
	ReservationExpiresAt string `json:"reservation_expires_at,omitempty"`
}

// OrderSummary is the mock order generated on a successful pharmacy match.
type OrderSummary struct {
	OrderID  string         `json:"order_id"`
	Status   string         `json:"status"`
	Items    []ReservedItem `json:"items"`
	Pricing  OrderPricing   `json:"pricing"`
	Delivery OrderDelivery  `json:"delivery"`
	Note     string         `json:"note"`
}

// NextSteps carries follow-up guidance on the escalation path.
type NextSteps struct {
	Immediate         string `json:"immediate"`
	Monitoring        string `json:"monitoring"`
	EmergencyTriggers string `json:"emergency_triggers"`
}

// TriageResult is the single response shape for every pipeline outcome,
// discriminated by Status.
type TriageResult struct {
	Status      string `json:"status"`
	StatusLevel string `json:"status_level,omitempty"`
	SessionID   string `json:"session_id"`

	Patient    *PatientContext `json:"patient,omitempty"`
	Assessment *Assessment     `json:"assessment,omitempty"`
	Treatment  *Treatment      `json:"treatment,omitempty"`
	Pharmacy   *PharmacyMatch  `json:"pharmacy,omitempty"`
	Order      *OrderSummary   `json:"order,omitempty"`
	Doctors    *DoctorReferral `json:"doctor_recommendations,omitempty"`

	// Escalation / emergency path.
	Severity         string     `json:"severity,omitempty"`
	ActionRequired   string     `json:"action_required,omitempty"`
	EscalationReason string     `json:"escalation_reason,omitempty"`
	NextSteps        *NextSteps `json:"next_steps,omitempty"`
	RedFlags         []string   `json:"red_flags,omitempty"`

	// Failure path.
	FailedAt string `json:"failed_at,omitempty"`
	Error    string `json:"error,omitempty"`

	Message           string            `json:"message,omitempty"`
	Recommendations   []string          `json:"recommendations,omitempty"`
	Disclaimers       []string          `json:"disclaimers,omitempty"`
	ProcessingSummary map[string]string `json:"processing_summary,omitempty"`
	Timestamp         string            `json:"timestamp"`
	EventLog          []Event           `json:"event_log"`
}
