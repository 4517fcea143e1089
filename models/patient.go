package models

// Location is the resolved patient location used for pharmacy matching.
type Location struct {
	Pincode      string `json:"pincode"`
	City         string `json:"city"`
	FallbackUsed bool   `json:"fallback_used"`
}

// PatientContext is the normalized patient profile produced by ingestion.
// It is created once per request and read-only downstream.
type PatientContext struct {
	Age                int      `json:"age"`
	Gender             string   `json:"gender"` // male, female, other, unspecified
	Allergies          []string `json:"allergies"`
	CurrentMedications []string `json:"current_medications"`
	Location           Location `json:"location"`
}

// IngestionBundle is the canonical output of the ingestion stage.
type IngestionBundle struct {
	Patient            PatientContext `json:"patient"`
	XrayPath           string         `json:"xray_path"`
	Notes              string         `json:"notes"`
	SpO2               int            `json:"spo2"`
	IngestedDocuments  []string       `json:"ingested_documents,omitempty"`
	DocumentExcerpt    string         `json:"document_excerpt,omitempty"`
	ProvidedPincode    string         `json:"provided_pincode,omitempty"`
	ExtractedPincode   string         `json:"extracted_pincode,omitempty"`
}
