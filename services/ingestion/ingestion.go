// Package ingestion normalizes raw intake payloads into a clean bundle the
// downstream stages consume. It resolves field aliases, persists the X-ray
// upload, extracts text from supporting documents and masks PII before any
// document text is carried forward.
package ingestion

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"

	"medtriage/models"
)

// EventSink receives per-request pipeline events.
type EventSink interface {
	Record(agent, level, message string, metadata map[string]interface{})
}

const agentName = "IngestionAgent"

// UploadedFile is one file received with the intake request.
type UploadedFile struct {
	Name string
	Data []byte
}

// Payload is the raw intake request before normalization. Fields holds the
// form values keyed by the name the client actually sent.
type Payload struct {
	Fields    map[string]string
	Xray      UploadedFile
	Documents []UploadedFile
}

// Normalizer implements the ingestion stage.
type Normalizer struct {
	UploadDir      string
	MaxUploadBytes int64
	DefaultPincode string
	DefaultCity    string
}

// NewNormalizer builds a Normalizer from resolved configuration values.
func NewNormalizer(uploadDir string, maxUploadMB int, defaultPincode, defaultCity string) *Normalizer {
	return &Normalizer{
		UploadDir:      uploadDir,
		MaxUploadBytes: int64(maxUploadMB) * 1024 * 1024,
		DefaultPincode: defaultPincode,
		DefaultCity:    defaultCity,
	}
}

// Field aliases accepted on intake, checked in order.
var (
	ageAliases        = []string{"age", "patient_age"}
	genderAliases     = []string{"gender", "sex"}
	allergyAliases    = []string{"allergies", "allergy"}
	medicationAliases = []string{"current_medications", "medications", "meds"}
	pincodeAliases    = []string{"pincode", "zipcode", "zip", "postal_code"}
	cityAliases       = []string{"city", "town"}
	notesAliases      = []string{"notes", "symptoms", "complaint", "chief_complaint"}
	spo2Aliases       = []string{"spo2", "oxygen_saturation", "o2_sat"}
)

// Normalize validates the raw payload and produces the ingestion bundle.
func (n *Normalizer) Normalize(p Payload, sink EventSink) (*models.IngestionBundle, error) {
	age, err := parseAge(firstField(p.Fields, ageAliases))
	if err != nil {
		return nil, err
	}

	xrayPath, err := n.saveXray(p.Xray)
	if err != nil {
		return nil, err
	}

	notes := strings.TrimSpace(firstField(p.Fields, notesAliases))
	spo2 := parseSpO2(firstField(p.Fields, spo2Aliases))

	docNames, excerpt, docPincode := n.ingestDocuments(p.Documents, sink)
	if excerpt != "" {
		if notes != "" {
			notes = notes + "\n" + excerpt
		} else {
			notes = excerpt
		}
	}

	providedPincode := sanitizePincode(firstField(p.Fields, pincodeAliases))
	location := n.resolveLocation(providedPincode, docPincode, firstField(p.Fields, cityAliases), sink)

	bundle := &models.IngestionBundle{
		Patient: models.PatientContext{
			Age:                age,
			Gender:             normalizeGender(firstField(p.Fields, genderAliases)),
			Allergies:          normalizeList(firstField(p.Fields, allergyAliases)),
			CurrentMedications: normalizeList(firstField(p.Fields, medicationAliases)),
			Location:           location,
		},
		XrayPath:          xrayPath,
		Notes:             notes,
		SpO2:              spo2,
		IngestedDocuments: docNames,
		DocumentExcerpt:   excerpt,
		ProvidedPincode:   providedPincode,
		ExtractedPincode:  docPincode,
	}

	sink.Record(agentName, models.LevelSuccess, "Intake normalized", map[string]interface{}{
		"documents": len(docNames),
		"pincode":   location.Pincode,
	})
	return bundle, nil
}

// saveXray validates and persists the X-ray upload under a fresh UUID name.
func (n *Normalizer) saveXray(file UploadedFile) (string, error) {
	if len(file.Data) == 0 {
		return "", fmt.Errorf("x-ray image is required")
	}
	if int64(len(file.Data)) > n.MaxUploadBytes {
		return "", fmt.Errorf("x-ray exceeds %dMB upload limit", n.MaxUploadBytes/(1024*1024))
	}

	ext := strings.ToLower(filepath.Ext(file.Name))
	switch ext {
	case ".png", ".jpg", ".jpeg":
	default:
		return "", fmt.Errorf("unsupported x-ray format %q, use PNG or JPG", ext)
	}

	// Reject files that only look like images by extension.
	if _, _, err := image.DecodeConfig(bytes.NewReader(file.Data)); err != nil {
		return "", fmt.Errorf("x-ray is not a readable image: %w", err)
	}

	if err := os.MkdirAll(n.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	path := filepath.Join(n.UploadDir, uuid.New().String()+ext)
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		return "", fmt.Errorf("persist x-ray: %w", err)
	}
	return path, nil
}

// ingestDocuments extracts masked text from the supporting documents and
// scans it for a symptom excerpt and an embedded pincode.
func (n *Normalizer) ingestDocuments(docs []UploadedFile, sink EventSink) (names []string, excerpt, pincode string) {
	var sections []string
	for _, doc := range docs {
		text, err := extractDocumentText(doc)
		if err != nil {
			sink.Record(agentName, models.LevelWarning,
				fmt.Sprintf("Skipping document %s: %v", doc.Name, err), nil)
			continue
		}
		names = append(names, doc.Name)

		masked := maskPII(text)
		if section := extractSymptomSection(masked); section != "" {
			sections = append(sections, section)
		}
		if pincode == "" {
			pincode = findPincode(masked)
		}
	}
	return names, strings.Join(sections, "\n"), pincode
}

// resolveLocation picks the pincode in preference order: provided, extracted
// from documents, configured default. Falling back sets the flag so the
// response can disclose that the location was assumed.
func (n *Normalizer) resolveLocation(provided, extracted, city string, sink EventSink) models.Location {
	city = strings.TrimSpace(city)

	if provided != "" {
		return models.Location{Pincode: provided, City: city, FallbackUsed: false}
	}
	if extracted != "" {
		sink.Record(agentName, models.LevelInfo,
			fmt.Sprintf("Using pincode %s extracted from documents", extracted), nil)
		return models.Location{Pincode: extracted, City: city, FallbackUsed: false}
	}

	sink.Record(agentName, models.LevelWarning,
		fmt.Sprintf("No pincode provided, defaulting to %s (%s)", n.DefaultPincode, n.DefaultCity), nil)
	if city == "" {
		city = n.DefaultCity
	}
	return models.Location{Pincode: n.DefaultPincode, City: city, FallbackUsed: true}
}

func firstField(fields map[string]string, aliases []string) string {
	for _, key := range aliases {
		if v, ok := fields[key]; ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func parseAge(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("patient age is required")
	}
	age, err := strconv.Atoi(raw)
	if err != nil || age <= 0 || age > 120 {
		return 0, fmt.Errorf("invalid patient age %q", raw)
	}
	return age, nil
}

// parseSpO2 returns 0 for absent or out-of-range values; downstream treats
// 0 as "not measured".
func parseSpO2(raw string) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 50 || v > 100 {
		return 0
	}
	return v
}

func normalizeGender(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "m", "male":
		return "male"
	case "f", "female":
		return "female"
	case "":
		return "unspecified"
	}
	return "other"
}

// normalizeList lowercases and splits a comma or semicolon separated field.
func normalizeList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.ToLower(strings.TrimSpace(p)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// sanitizePincode strips non-digits and accepts exactly six digits.
func sanitizePincode(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 6 {
		return digits.String()
	}
	return ""
}
