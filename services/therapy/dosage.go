package therapy

import (
	"strings"

	"medtriage/models"
)

// dosageInfo is the static adult dosing reference for a known drug.
type dosageInfo struct {
	Dose       string
	Frequency  string
	MaxDaily   string
	Duration   string
	Warnings   []string
	Form       string
	PriceRange string
}

// dosageReference holds common Indian OTC dosing guidance keyed by lowercase
// drug name. Unknown drugs fall back to defaultDosage.
var dosageReference = map[string]dosageInfo{
	"paracetamol": {
		Dose:       "500-650mg",
		Frequency:  "every 6-8 hours",
		MaxDaily:   "4000mg (8 tablets of 500mg)",
		Duration:   "3-5 days",
		Warnings:   []string{"Avoid alcohol", "Do not exceed max daily dose"},
		Form:       "Tablet",
		PriceRange: "Rs 15-40",
	},
	"ibuprofen": {
		Dose:       "400mg",
		Frequency:  "every 6-8 hours with food",
		MaxDaily:   "1200mg",
		Duration:   "3-5 days",
		Warnings:   []string{"Take with food", "Avoid if stomach ulcers", "Stay hydrated"},
		Form:       "Tablet",
		PriceRange: "Rs 20-50",
	},
	"cetirizine": {
		Dose:       "10mg",
		Frequency:  "once daily at bedtime",
		MaxDaily:   "10mg",
		Duration:   "5-7 days",
		Warnings:   []string{"May cause drowsiness", "Avoid driving"},
		Form:       "Tablet",
		PriceRange: "Rs 10-30",
	},
	"omeprazole": {
		Dose:       "20mg",
		Frequency:  "once daily before breakfast",
		MaxDaily:   "20mg",
		Duration:   "up to 14 days",
		Warnings:   []string{"Take 30 minutes before food"},
		Form:       "Capsule",
		PriceRange: "Rs 25-60",
	},
}

var defaultDosage = dosageInfo{
	Dose:       "As per package instructions",
	Frequency:  "2-3 times daily",
	MaxDaily:   "Do not exceed package limits",
	Duration:   "3-5 days",
	Warnings:   []string{"Read package insert carefully"},
	Form:       "Tablet",
	PriceRange: "Rs 20-80",
}

// formatOption converts a catalog medicine into a dispensable recommendation
// using the dosing reference. Moderate severity adds a monitoring caution.
func formatOption(med models.Medicine, severity string) models.OTCOption {
	info, ok := dosageReference[strings.ToLower(med.DrugName)]
	if !ok {
		info = defaultDosage
	}

	warnings := append([]string(nil), info.Warnings...)
	if severity == models.SeverityModerate {
		warnings = append(warnings, "Monitor symptoms closely; consult doctor if no improvement in 48 hours")
	}

	return models.OTCOption{
		SKU:        med.SKU,
		DrugName:   med.DrugName,
		Dose:       info.Dose,
		Frequency:  info.Frequency,
		MaxDaily:   info.MaxDaily,
		Duration:   info.Duration,
		Warnings:   warnings,
		Form:       info.Form,
		PriceRange: info.PriceRange,
	}
}
