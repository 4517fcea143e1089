// Package doctor ranks available doctors for escalated cases and wraps the
// result with consultation guidance sized to the case urgency.
package doctor

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
	"strings"
	"time"

	"medtriage/database/reference"
	"medtriage/models"
	"medtriage/services/therapy"
)

// EventSink receives per-request pipeline events.
type EventSink interface {
	Record(agent, level, message string, metadata map[string]interface{})
}

const agentName = "DoctorAgent"

const (
	maxDoctors    = 5
	maxShownSlots = 3
	fallbackSpec  = "General Physician"
)

// conditionSpecialties ranks the preferred specialties per condition.
var conditionSpecialties = map[string][]string{
	models.ConditionPneumonia:    {"Pulmonologist", "General Physician", "Internal Medicine"},
	models.ConditionCovidSuspect: {"Pulmonologist", "Infectious Disease", "General Physician"},
	models.ConditionBronchitis:   {"Pulmonologist", "General Physician", "ENT Specialist"},
	models.ConditionTBSuspect:    {"Pulmonologist", "Infectious Disease", "Internal Medicine"},
	models.ConditionNormal:       {"General Physician"},
}

// Referrer implements the escalation stage.
type Referrer struct {
	Ref *reference.Store

	// now is swappable so slot filtering is testable.
	now func() time.Time
}

// NewReferrer returns a Referrer backed by the doctor roster.
func NewReferrer(ref *reference.Store) *Referrer {
	return &Referrer{Ref: ref, now: time.Now}
}

// Refer ranks doctors for an escalated case.
func (r *Referrer) Refer(assessment *models.ImagingAssessment, reason string, sink EventSink) *models.DoctorReferral {
	condition := assessment.PrimaryCondition()
	urgency := determineUrgency(assessment)
	specialties := conditionSpecialties[condition]
	if len(specialties) == 0 {
		specialties = []string{fallbackSpec}
	}

	matches := r.rankDoctors(specialties, urgency, true)
	if len(matches) == 0 {
		// Roster exhausted for the preferred specialties; fall back to every
		// general physician, in-person ones included.
		matches = r.rankDoctors([]string{fallbackSpec}, urgency, false)
	}
	if len(matches) > maxDoctors {
		matches = matches[:maxDoctors]
	}

	referral := &models.DoctorReferral{
		AvailableDoctors:    matches,
		TotalMatches:        len(matches),
		UrgencyLevel:        urgency,
		RecommendedAction:   recommendedAction(urgency),
		ConsultationType:    consultationType(urgency),
		EstimatedWaitTime:   estimatedWait(urgency),
		BookingInstructions: bookingInstructions(urgency, len(matches)),
		EmergencyNote:       emergencyNote(urgency),
	}

	sink.Record(agentName, models.LevelSuccess,
		fmt.Sprintf("Found %d doctors for %s case (%s urgency)", len(matches), condition, urgency),
		map[string]interface{}{"reason": reason})
	return referral
}

// determineUrgency maps the assessment onto the consultation urgency scale.
// Any red flag, critical or not, pushes the case to high urgency.
func determineUrgency(assessment *models.ImagingAssessment) string {
	if therapy.HasCriticalFlag(assessment.RedFlags) {
		return models.UrgencyCritical
	}
	if assessment.SeverityHint == models.SeveritySevere || len(assessment.RedFlags) > 0 {
		return models.UrgencyHigh
	}
	if assessment.SeverityHint == models.SeverityModerate {
		return models.UrgencyModerate
	}
	return models.UrgencyLow
}

// rankDoctors scores the roster against the specialty preference order and
// sorts best first. requireTele restricts the pass to tele-capable doctors;
// the fallback pass accepts in-person ones too.
func (r *Referrer) rankDoctors(specialties []string, urgency string, requireTele bool) []models.DoctorRecommendation {
	var matches []models.DoctorRecommendation
	for _, doc := range r.Ref.Doctors {
		if requireTele && !doc.TeleAvailable {
			continue
		}
		rank := specialtyRank(doc.Specialty, specialties)
		if rank < 0 {
			continue
		}

		score := matchScore(doc, rank, urgency)
		slots := r.futureSlots(doc.AvailableSlots)
		shown := slots
		if len(shown) > maxShownSlots {
			shown = shown[:maxShownSlots]
		}

		matches = append(matches, models.DoctorRecommendation{
			DoctorID:             doc.DoctorID,
			Name:                 doc.Name,
			Specialty:            doc.Specialty,
			ExperienceYears:      doc.ExperienceYears,
			ConsultationFee:      doc.ConsultationFee,
			Languages:            doc.Languages,
			AvailableSlots:       shown,
			TotalSlotsAvailable:  len(slots),
			MatchScore:           score,
			RecommendationReason: recommendationReason(doc, rank),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})
	return matches
}

func specialtyRank(specialty string, preferred []string) int {
	for i, s := range preferred {
		if strings.EqualFold(specialty, s) {
			return i
		}
	}
	return -1
}

// matchScore combines specialty rank, experience, tele availability, a
// small deterministic jitter and an urgency bonus, capped at 100.
func matchScore(doc models.Doctor, rank int, urgency string) int {
	score := 0

	switch rank {
	case 0:
		score += 40
	case 1:
		score += 30
	default:
		score += 20
	}

	switch {
	case doc.ExperienceYears >= 15:
		score += 30
	case doc.ExperienceYears >= 10:
		score += 25
	case doc.ExperienceYears >= 5:
		score += 20
	default:
		score += 15
	}

	if doc.TeleAvailable {
		score += 20
	}

	score += jitter(doc.DoctorID)

	if urgency == models.UrgencyCritical || urgency == models.UrgencyHigh {
		score += 5
	}

	if score > 100 {
		score = 100
	}
	return score
}

// jitter breaks ranking ties per doctor without run-to-run churn.
func jitter(doctorID string) int {
	h := fnv.New64a()
	h.Write([]byte(doctorID))
	return rand.New(rand.NewSource(int64(h.Sum64()))).Intn(11)
}

// futureSlots keeps only slots after the current time, preserving order.
func (r *Referrer) futureSlots(slots []string) []string {
	now := r.now()
	var future []string
	for _, slot := range slots {
		t, err := time.Parse(time.RFC3339, slot)
		if err != nil {
			t, err = time.Parse("2006-01-02 15:04", slot)
		}
		if err != nil {
			continue
		}
		if t.After(now) {
			future = append(future, slot)
		}
	}
	return future
}

func recommendationReason(doc models.Doctor, rank int) string {
	if rank == 0 {
		return fmt.Sprintf("Specialist match with %d years of experience", doc.ExperienceYears)
	}
	return fmt.Sprintf("%s with %d years of experience, available for tele-consultation", doc.Specialty, doc.ExperienceYears)
}

func recommendedAction(urgency string) string {
	switch urgency {
	case models.UrgencyCritical:
		return "Seek emergency care NOW. Tele-consultation is not sufficient."
	case models.UrgencyHigh:
		return "Book the earliest available consultation today."
	case models.UrgencyModerate:
		return "Book a consultation within 24 hours."
	}
	return "Book a routine consultation at your convenience."
}

func consultationType(urgency string) string {
	switch urgency {
	case models.UrgencyCritical:
		return "emergency_room"
	case models.UrgencyHigh:
		return "urgent_tele_or_in_person"
	}
	return "tele_consultation"
}

func estimatedWait(urgency string) string {
	switch urgency {
	case models.UrgencyCritical:
		return "immediate"
	case models.UrgencyHigh:
		return "within 2 hours"
	case models.UrgencyModerate:
		return "within 24 hours"
	}
	return "1-3 days"
}

func bookingInstructions(urgency string, matches int) []string {
	instructions := []string{
		"Review the doctor list and pick a suitable slot",
		"Keep your X-ray image and this assessment ready for the consultation",
		"List your current medications and allergies for the doctor",
	}
	if urgency == models.UrgencyCritical {
		instructions = append([]string{"Do NOT wait for a booking - go to the nearest emergency room"}, instructions...)
	}
	if matches == 0 {
		instructions = append(instructions, "No tele-doctors are currently available; contact a local clinic directly")
	}
	return instructions
}

func emergencyNote(urgency string) string {
	if urgency == models.UrgencyCritical {
		return "CRITICAL: call local emergency services (911 / 108) if symptoms are worsening"
	}
	return ""
}
