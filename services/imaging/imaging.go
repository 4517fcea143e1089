// Package imaging derives a condition probability distribution from chest
// X-ray pixel statistics plus symptom, SpO2 and age heuristics. The weights
// are seeded from a hash of the image bytes, so identical inputs always
// produce identical output. This is a simulation heuristic, not a model.
package imaging

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"medtriage/models"
)

// EventSink receives per-request pipeline events.
type EventSink interface {
	Record(agent, level, message string, metadata map[string]interface{})
}

const agentName = "ImagingAgent"

// Red-flag symptom keywords requiring prompt medical attention.
var redFlagKeywords = []string{
	"chest pain",
	"shortness of breath",
	"breathing difficulty",
	"confusion",
	"disorientation",
	"unconscious",
	"unresponsive",
	"severe pain",
	"coughing blood",
	"blood in stool",
	"severe headache",
	"seizure",
}

// Request carries the imaging stage inputs.
type Request struct {
	XrayPath string
	Age      int
	SpO2     int
	Notes    string
}

// Scorer implements the imaging stage.
type Scorer struct{}

// NewScorer returns a ready Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score validates the image, extracts features and produces the assessment.
func (s *Scorer) Score(req Request, sink EventSink) (*models.ImagingAssessment, error) {
	if err := validatePath(req.XrayPath); err != nil {
		return nil, err
	}

	blob, err := os.ReadFile(req.XrayPath)
	if err != nil {
		return nil, fmt.Errorf("read x-ray: %w", err)
	}

	features, err := extractFeatures(blob)
	if err != nil {
		return nil, fmt.Errorf("decode x-ray: %w", err)
	}

	notes := strings.ToLower(req.Notes)
	spo2 := req.SpO2
	if spo2 <= 0 {
		spo2 = 98
	}
	age := req.Age
	if age <= 0 {
		age = 40
	}

	probs := computeProbabilities(blob, features, notes, spo2, age)
	severity := scoreSeverity(probs, spo2, notes)
	confidence := scoreConfidence(probs)
	redFlags := detectRedFlags(notes, spo2, severity)
	recommendations := recommendations(severity, redFlags)

	assessment := &models.ImagingAssessment{
		ConditionProbs:  probs,
		SeverityHint:    severity,
		Confidence:      confidence,
		RedFlags:        redFlags,
		Recommendations: recommendations,
	}

	sink.Record(agentName, models.LevelSuccess, "Imaging completed", map[string]interface{}{
		"severity":   severity,
		"confidence": confidence,
	})
	return assessment, nil
}

func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("x-ray path is required")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("x-ray not found: %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg":
		return nil
	}
	return fmt.Errorf("only PNG/JPG images supported")
}

// computeProbabilities draws one hash-seeded base weight per condition and
// applies the additive feature/symptom/vitals adjustments, then normalizes.
func computeProbabilities(blob []byte, f Features, notes string, spo2, age int) map[string]float64 {
	rng := newWeightSource(blob)

	weights := make(map[string]float64, len(models.Conditions))
	for _, cond := range models.Conditions {
		weights[cond] = rng.BaseWeight()
	}

	// Pixel statistics.
	if f.DarkRatio > 0.55 {
		weights[models.ConditionPneumonia] += 0.9
		weights[models.ConditionCovidSuspect] += 0.6
		weights[models.ConditionNormal] -= 0.7
	} else if f.DarkRatio > 0.4 {
		weights[models.ConditionBronchitis] += 0.4
		weights[models.ConditionPneumonia] += 0.25
	}

	if f.Contrast < 120 {
		weights[models.ConditionPneumonia] += 0.5
	} else if f.Contrast > 220 {
		weights[models.ConditionNormal] += 0.4
	}

	if f.Mean < 100 {
		weights[models.ConditionPneumonia] += 0.3
		weights[models.ConditionTBSuspect] += 0.2
	}

	// Symptom keywords.
	if strings.Contains(notes, "dry cough") {
		weights[models.ConditionCovidSuspect] += 0.4
	}
	if strings.Contains(notes, "productive") || strings.Contains(notes, "phlegm") {
		weights[models.ConditionBronchitis] += 0.4
	}
	if strings.Contains(notes, "fever") {
		weights[models.ConditionPneumonia] += 0.3
		weights[models.ConditionCovidSuspect] += 0.2
	}
	if strings.Contains(notes, "shortness of breath") || strings.Contains(notes, "breathless") {
		weights[models.ConditionPneumonia] += 0.5
	}

	// SpO2 bands.
	switch {
	case spo2 < 90:
		weights[models.ConditionPneumonia] += 0.8
	case spo2 < 94:
		weights[models.ConditionPneumonia] += 0.4
	default:
		weights[models.ConditionNormal] += 0.3
	}

	// Age bands.
	if age > 65 {
		weights[models.ConditionPneumonia] += 0.2
	} else if age < 5 {
		weights[models.ConditionBronchitis] += 0.3
	}

	return normalize(weights)
}

// normalize clips weights to the floor, scales to a probability distribution
// and pushes the rounding remainder onto the largest class.
func normalize(weights map[string]float64) map[string]float64 {
	const floor = 0.01

	total := 0.0
	clipped := make(map[string]float64, len(weights))
	for _, cond := range models.Conditions {
		v := math.Max(floor, weights[cond])
		clipped[cond] = v
		total += v
	}

	probs := make(map[string]float64, len(clipped))
	sum := 0.0
	for _, cond := range models.Conditions {
		p := round3(clipped[cond] / total)
		probs[cond] = p
		sum += p
	}

	// First max in canonical order absorbs the remainder.
	top := models.Conditions[0]
	for _, cond := range models.Conditions[1:] {
		if probs[cond] > probs[top] {
			top = cond
		}
	}
	probs[top] = round3(probs[top] + (1.0 - sum))

	return probs
}

func scoreSeverity(probs map[string]float64, spo2 int, notes string) string {
	infectionProb := probs[models.ConditionPneumonia] + probs[models.ConditionCovidSuspect]

	if spo2 < 90 || infectionProb > 0.75 {
		return models.SeveritySevere
	}
	if spo2 < 94 || infectionProb > 0.55 {
		return models.SeverityModerate
	}
	for _, token := range []string{"worsening", "severe", "acute"} {
		if strings.Contains(notes, token) {
			return models.SeverityModerate
		}
	}
	return models.SeverityMild
}

// scoreConfidence measures class separation, not calibrated probability.
func scoreConfidence(probs map[string]float64) float64 {
	top1, top2 := 0.0, 0.0
	for _, p := range probs {
		if p > top1 {
			top1, top2 = p, top1
		} else if p > top2 {
			top2 = p
		}
	}
	confidence := 0.4 + math.Min(0.5, top1-top2)
	return round2(math.Min(0.95, math.Max(0.4, confidence)))
}

func detectRedFlags(notes string, spo2 int, severity string) []string {
	var flags []string

	if spo2 < 88 {
		flags = append(flags, "CRITICAL: SpO2 < 88% - call emergency services immediately")
	} else if spo2 < 92 {
		flags = append(flags, "WARNING: Oxygen saturation is low; urgent doctor review advised")
	}

	for _, keyword := range redFlagKeywords {
		if strings.Contains(notes, keyword) {
			flags = append(flags, fmt.Sprintf("WARNING: Reported symptom %q requires prompt medical attention", keyword))
		}
	}

	if severity == models.SeveritySevere {
		flags = append(flags, "WARNING: Severe presentation - direct medical supervision recommended")
	}

	// Deduplicate preserving order.
	seen := make(map[string]bool, len(flags))
	deduped := flags[:0]
	for _, flag := range flags {
		if !seen[flag] {
			deduped = append(deduped, flag)
			seen[flag] = true
		}
	}
	return deduped
}

func recommendations(severity string, redFlags []string) []string {
	for _, flag := range redFlags {
		if strings.HasPrefix(flag, "CRITICAL") {
			return []string{
				"Seek emergency medical care immediately",
				"Call local emergency services (911 / 108)",
				"Do not drive yourself; arrange safe transport",
			}
		}
	}

	guidance := []string{"This system is a demo - always consult a qualified clinician."}
	switch severity {
	case models.SeveritySevere:
		guidance = append([]string{"Urgent in-person evaluation recommended within a few hours."}, guidance...)
	case models.SeverityModerate:
		guidance = append([]string{"Arrange a doctor or tele-consultation within 24-48 hours."}, guidance...)
	default:
		guidance = append([]string{"Monitor symptoms closely and use OTC care if previously recommended."}, guidance...)
	}

	if len(redFlags) == 0 {
		guidance = append(guidance, "If new red-flag symptoms appear, escalate immediately.")
	}
	return guidance
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
