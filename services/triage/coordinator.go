// Package triage runs the full pipeline: ingestion, imaging, therapy, then
// pharmacy matching or doctor escalation, and consolidates the outcome into
// a single response shape. The coordinator owns all routing decisions; the
// stage agents never call each other.
package triage

import (
	"fmt"

	"medtriage/models"
	"medtriage/services/doctor"
	"medtriage/services/imaging"
	"medtriage/services/ingestion"
	"medtriage/services/pharmacy"
	"medtriage/services/therapy"
)

const coordinatorName = "Coordinator"

// Pipeline states, recorded into the event log as the request advances.
const (
	stateStart             = "START"
	stateIngested          = "INGESTED"
	stateImaged            = "IMAGED"
	stateEmergency         = "EMERGENCY"
	stateTherapized        = "THERAPIZED"
	stateEscalated         = "ESCALATED"
	statePharmacyAttempted = "PHARMACY_ATTEMPTED"
	stateSuccess           = "SUCCESS"
	stateFailed            = "FAILED"
)

// Coordinator wires the stage agents together.
type Coordinator struct {
	Ingestion *ingestion.Normalizer
	Imaging   *imaging.Scorer
	Therapy   *therapy.Selector
	Pharmacy  *pharmacy.Matcher
	Doctor    *doctor.Referrer
}

// NewCoordinator assembles the pipeline from its stage agents.
func NewCoordinator(n *ingestion.Normalizer, s *imaging.Scorer, t *therapy.Selector, p *pharmacy.Matcher, d *doctor.Referrer) *Coordinator {
	return &Coordinator{Ingestion: n, Imaging: s, Therapy: t, Pharmacy: p, Doctor: d}
}

// Execute runs one triage request end to end. It always returns a result;
// stage failures become FAILED results, never panics or nil.
func (c *Coordinator) Execute(payload ingestion.Payload) *models.TriageResult {
	session := NewSession()
	c.transition(session, stateStart)

	bundle, err := c.Ingestion.Normalize(payload, session)
	if err != nil {
		return c.failed(session, newStageError(StageIngestion, "validation", err))
	}
	c.transition(session, stateIngested)

	assessment, err := c.Imaging.Score(imaging.Request{
		XrayPath: bundle.XrayPath,
		Age:      bundle.Patient.Age,
		SpO2:     bundle.SpO2,
		Notes:    bundle.Notes,
	}, session)
	if err != nil {
		return c.failed(session, newStageError(StageImaging, "analysis", err))
	}
	c.transition(session, stateImaged)

	// Critical red flags bypass therapy, pharmacy and doctor matching
	// entirely; the emergency payload is fixed guidance, not a referral.
	if therapy.HasCriticalFlag(assessment.RedFlags) {
		c.transition(session, stateEmergency)
		session.Record(coordinatorName, models.LevelCritical, "Emergency detected, bypassing remaining stages", nil)
		return c.emergency(session, bundle, assessment)
	}

	plan, err := c.Therapy.Select(assessment, bundle.Patient, session)
	if err != nil {
		return c.failed(session, newStageError(StageTherapy, "selection", err))
	}
	c.transition(session, stateTherapized)

	if reason := escalationReason(assessment, plan); reason != "" {
		c.transition(session, stateEscalated)
		session.Record(coordinatorName, models.LevelWarning,
			fmt.Sprintf("Escalating to doctor: %s", reason), nil)
		referral := c.Doctor.Refer(assessment, reason, session)
		return c.escalated(session, bundle, assessment, plan, referral, reason)
	}

	match := c.Pharmacy.Match(plan.OTCOptions, bundle.Patient.Location, session)
	c.transition(session, statePharmacyAttempted)

	c.transition(session, stateSuccess)
	return c.success(session, bundle, assessment, plan, match)
}

func (c *Coordinator) transition(session *Session, state string) {
	session.Record(coordinatorName, models.LevelInfo, fmt.Sprintf("Pipeline state: %s", state), nil)
}

// escalationReason is the coordinator-side escalation gate. It repeats the
// therapy checks so routing stays correct even if a stage is swapped out,
// and adds the low-confidence rule only the coordinator can apply.
func escalationReason(assessment *models.ImagingAssessment, plan *models.TherapyPlan) string {
	switch {
	case therapy.HasCriticalFlag(assessment.RedFlags):
		return "critical red flags detected"
	case plan.RequiresPrescription:
		return fmt.Sprintf("prescription required for %s", plan.PrimaryCondition)
	case assessment.SeverityHint == models.SeveritySevere:
		return "severe presentation requires medical supervision"
	case hasRiskyInteraction(plan.InteractionWarnings):
		return "high-risk drug interaction with current medications"
	case plan.EscalateToDoctor:
		return "no safe OTC treatment available"
	case assessment.Confidence < 0.3 && assessment.ConditionProbs[models.ConditionNormal] < 0.4:
		return "imaging confidence too low to rule out serious illness"
	}
	return ""
}

func hasRiskyInteraction(warnings []models.InteractionWarning) bool {
	for _, w := range warnings {
		if w.Level == "high" || w.Level == "severe" {
			return true
		}
	}
	return false
}

func (c *Coordinator) failed(session *Session, stageErr *StageError) *models.TriageResult {
	c.transition(session, stateFailed)
	session.Record(coordinatorName, models.LevelError,
		fmt.Sprintf("Pipeline failed at %s: %s", stageErr.Stage, stageErr.Message), nil)

	return &models.TriageResult{
		Status:    models.StatusFailed,
		SessionID: session.ID,
		FailedAt:  stageErr.Stage,
		Error:     stageErr.Message,
		Message:   "Triage could not be completed. Please correct the input and retry.",
		Timestamp: nowRFC3339(),
		EventLog:  session.Events(),
	}
}
