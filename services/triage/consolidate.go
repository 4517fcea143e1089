package triage

import (
	"fmt"
	"math/rand"
	"time"

	"medtriage/models"
)

var disclaimers = []string{
	"This is a simulated triage demo, not medical software.",
	"Condition probabilities are heuristic, not a diagnosis.",
	"Always consult a qualified clinician before taking medication.",
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// emergency consolidates the short-circuit path taken on critical red flags.
// The payload is fixed guidance; no downstream stage runs.
func (c *Coordinator) emergency(session *Session, bundle *models.IngestionBundle, assessment *models.ImagingAssessment) *models.TriageResult {
	return &models.TriageResult{
		Status:         models.StatusEmergency,
		SessionID:      session.ID,
		Patient:        &bundle.Patient,
		Assessment:     summarizeAssessment(assessment),
		Severity:       "critical",
		ActionRequired: "SEEK EMERGENCY MEDICAL CARE IMMEDIATELY",
		RedFlags:       assessment.RedFlags,
		NextSteps: &models.NextSteps{
			Immediate:         "Call emergency services (911 / 108) or go to the nearest emergency room",
			Monitoring:        "Do not leave the patient alone; monitor breathing and responsiveness",
			EmergencyTriggers: "Loss of consciousness, blue lips, inability to speak full sentences",
		},
		Recommendations:   assessment.Recommendations,
		Disclaimers:       disclaimers,
		ProcessingSummary: processingSummary(bundle, assessment, nil, nil, "emergency short-circuit"),
		Timestamp:         nowRFC3339(),
		EventLog:          session.Events(),
	}
}

// escalated consolidates the doctor-referral path.
func (c *Coordinator) escalated(session *Session, bundle *models.IngestionBundle, assessment *models.ImagingAssessment, plan *models.TherapyPlan, referral *models.DoctorReferral, reason string) *models.TriageResult {
	return &models.TriageResult{
		Status:           models.StatusEscalated,
		SessionID:        session.ID,
		Patient:          &bundle.Patient,
		Assessment:       summarizeAssessment(assessment),
		Treatment:        summarizeTreatment(plan),
		Doctors:          referral,
		Severity:         assessment.SeverityHint,
		ActionRequired:   referral.RecommendedAction,
		EscalationReason: reason,
		RedFlags:         assessment.RedFlags,
		NextSteps: &models.NextSteps{
			Immediate:         referral.RecommendedAction,
			Monitoring:        "Track symptoms, temperature and oxygen saturation until the consultation",
			EmergencyTriggers: "SpO2 below 90%, worsening breathlessness, chest pain, confusion",
		},
		Recommendations:   assessment.Recommendations,
		Disclaimers:       disclaimers,
		ProcessingSummary: processingSummary(bundle, assessment, plan, nil, reason),
		Timestamp:         nowRFC3339(),
		EventLog:          session.Events(),
	}
}

// success consolidates the OTC path, with or without a pharmacy reservation.
func (c *Coordinator) success(session *Session, bundle *models.IngestionBundle, assessment *models.ImagingAssessment, plan *models.TherapyPlan, match *models.PharmacyMatch) *models.TriageResult {
	result := &models.TriageResult{
		Status:            models.StatusSuccess,
		StatusLevel:       statusLevel(assessment),
		SessionID:         session.ID,
		Patient:           &bundle.Patient,
		Assessment:        summarizeAssessment(assessment),
		Treatment:         summarizeTreatment(plan),
		Pharmacy:          match,
		Severity:          assessment.SeverityHint,
		RedFlags:          assessment.RedFlags,
		Recommendations:   assessment.Recommendations,
		Disclaimers:       disclaimers,
		ProcessingSummary: processingSummary(bundle, assessment, plan, match, ""),
		Timestamp:         nowRFC3339(),
		EventLog:          session.Events(),
	}

	if match.Availability == models.AvailabilityInStock {
		result.Order = orderSummary(match)
		result.Message = "Triage complete. Medicines reserved for delivery."
	} else {
		result.Message = match.Message
	}
	return result
}

// statusLevel grades a successful run from the clinical picture alone.
// Pharmacy availability is reported separately and never degrades it.
func statusLevel(assessment *models.ImagingAssessment) string {
	if len(assessment.RedFlags) > 0 || assessment.SeverityHint == models.SeveritySevere {
		return models.StatusLevelWarning
	}
	if assessment.SeverityHint == models.SeverityModerate {
		return models.StatusLevelCaution
	}
	return models.StatusLevelOK
}

func summarizeAssessment(assessment *models.ImagingAssessment) *models.Assessment {
	return &models.Assessment{
		ConditionProbabilities: assessment.ConditionProbs,
		PrimaryCondition:       assessment.PrimaryCondition(),
		Severity:               assessment.SeverityHint,
		Confidence:             assessment.Confidence,
		RedFlags:               assessment.RedFlags,
	}
}

func summarizeTreatment(plan *models.TherapyPlan) *models.Treatment {
	return &models.Treatment{
		OTCMedicines:        plan.OTCOptions,
		InteractionWarnings: plan.InteractionWarnings,
		AllergyConflicts:    plan.AllergyConflicts,
		SafetyAdvice:        plan.SafetyAdvice,
	}
}

// orderSummary turns a held reservation into a mock order.
func orderSummary(match *models.PharmacyMatch) *models.OrderSummary {
	units := 0
	for _, item := range match.Items {
		units += item.ReservedQuantity
	}

	return &models.OrderSummary{
		OrderID: fmt.Sprintf("ORD%08d", rand.Intn(100000000)),
		Status:  "reserved",
		Items:   match.Items,
		Pricing: models.OrderPricing{
			Subtotal:    match.Subtotal,
			DeliveryFee: match.DeliveryFee,
			Total:       match.TotalPrice,
			Currency:    "INR",
		},
		Delivery: models.OrderDelivery{
			Pharmacy:             match.PharmacyName,
			ETAMinutes:           match.ETAMin,
			ReservationID:        match.ReservationID,
			ReservedUnits:        units,
			ReservationExpiresAt: match.ReservationExpiresAt.UTC().Format(time.RFC3339),
		},
		Note: "Mock order only. No payment is collected and no delivery is dispatched.",
	}
}

// processingSummary gives a one-line outcome per stage.
func processingSummary(bundle *models.IngestionBundle, assessment *models.ImagingAssessment, plan *models.TherapyPlan, match *models.PharmacyMatch, note string) map[string]string {
	summary := map[string]string{
		StageIngestion: fmt.Sprintf("normalized intake for %d-year-old, pincode %s", bundle.Patient.Age, bundle.Patient.Location.Pincode),
		StageImaging:   fmt.Sprintf("%s (%s, confidence %.2f)", assessment.PrimaryCondition(), assessment.SeverityHint, assessment.Confidence),
	}
	if plan != nil {
		summary[StageTherapy] = fmt.Sprintf("%d OTC options, escalate=%t", len(plan.OTCOptions), plan.EscalateToDoctor)
	}
	if match != nil {
		summary[StagePharmacy] = fmt.Sprintf("%s at %s", match.Availability, match.PharmacyName)
		if match.PharmacyName == "" {
			summary[StagePharmacy] = match.Availability
		}
	}
	if note != "" {
		summary["routing"] = note
	}
	return summary
}
