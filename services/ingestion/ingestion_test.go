package ingestion

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSink struct{}

func (nopSink) Record(agent, level, message string, metadata map[string]interface{}) {}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	return NewNormalizer(t.TempDir(), 10, "400001", "Mumbai")
}

func TestNormalizeResolvesAliases(t *testing.T) {
	n := newTestNormalizer(t)

	bundle, err := n.Normalize(Payload{
		Fields: map[string]string{
			"patient_age": "34",
			"sex":         "F",
			"meds":        "Metformin, Warfarin",
			"zipcode":     "400 050",
			"symptoms":    "dry cough and fever",
			"o2_sat":      "95",
		},
		Xray: UploadedFile{Name: "chest.png", Data: pngBytes(t)},
	}, nopSink{})
	require.NoError(t, err)

	assert.Equal(t, 34, bundle.Patient.Age)
	assert.Equal(t, "female", bundle.Patient.Gender)
	assert.Equal(t, []string{"metformin", "warfarin"}, bundle.Patient.CurrentMedications)
	assert.Equal(t, "400050", bundle.Patient.Location.Pincode)
	assert.False(t, bundle.Patient.Location.FallbackUsed)
	assert.Equal(t, "dry cough and fever", bundle.Notes)
	assert.Equal(t, 95, bundle.SpO2)
	assert.FileExists(t, bundle.XrayPath)
}

func TestNormalizeDefaultsLocation(t *testing.T) {
	n := newTestNormalizer(t)

	bundle, err := n.Normalize(Payload{
		Fields: map[string]string{"age": "40"},
		Xray:   UploadedFile{Name: "chest.png", Data: pngBytes(t)},
	}, nopSink{})
	require.NoError(t, err)

	assert.Equal(t, "400001", bundle.Patient.Location.Pincode)
	assert.Equal(t, "Mumbai", bundle.Patient.Location.City)
	assert.True(t, bundle.Patient.Location.FallbackUsed)
}

func TestNormalizeRejectsBadInput(t *testing.T) {
	n := newTestNormalizer(t)
	xray := UploadedFile{Name: "chest.png", Data: pngBytes(t)}

	tests := []struct {
		name    string
		payload Payload
	}{
		{"missing age", Payload{Fields: map[string]string{}, Xray: xray}},
		{"age out of range", Payload{Fields: map[string]string{"age": "150"}, Xray: xray}},
		{"missing xray", Payload{Fields: map[string]string{"age": "30"}}},
		{"xray wrong type", Payload{Fields: map[string]string{"age": "30"}, Xray: UploadedFile{Name: "chest.bmp", Data: pngBytes(t)}}},
		{"xray not an image", Payload{Fields: map[string]string{"age": "30"}, Xray: UploadedFile{Name: "chest.png", Data: []byte("not an image")}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := n.Normalize(tc.payload, nopSink{})
			assert.Error(t, err)
		})
	}
}

func TestNormalizeRejectsOversizedUpload(t *testing.T) {
	n := NewNormalizer(t.TempDir(), 1, "400001", "Mumbai")

	big := UploadedFile{Name: "chest.png", Data: make([]byte, 2*1024*1024)}
	_, err := n.Normalize(Payload{Fields: map[string]string{"age": "30"}, Xray: big}, nopSink{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload limit")
}

func TestDocumentExcerptAndPincodeExtraction(t *testing.T) {
	n := newTestNormalizer(t)

	report := "Patient: John, phone 9876543210\n" +
		"Symptoms: productive cough with fever for 3 days\n\n" +
		"Address: Powai, Mumbai 400076\n"

	bundle, err := n.Normalize(Payload{
		Fields: map[string]string{"age": "45"},
		Xray:   UploadedFile{Name: "chest.png", Data: pngBytes(t)},
		Documents: []UploadedFile{
			{Name: "report.txt", Data: []byte(report)},
		},
	}, nopSink{})
	require.NoError(t, err)

	assert.Equal(t, []string{"report.txt"}, bundle.IngestedDocuments)
	assert.Contains(t, bundle.Notes, "productive cough with fever")
	assert.Equal(t, "400076", bundle.ExtractedPincode)
	assert.Equal(t, "400076", bundle.Patient.Location.Pincode)
	assert.False(t, bundle.Patient.Location.FallbackUsed)
}

func TestMaskPII(t *testing.T) {
	text := "Contact 9876543210 or john.doe@example.com, Aadhaar 1234 5678 9012"
	masked := maskPII(text)

	assert.NotContains(t, masked, "9876543210")
	assert.NotContains(t, masked, "john.doe@example.com")
	assert.NotContains(t, masked, "1234 5678 9012")
	assert.Contains(t, masked, "[PHONE MASKED]")
	assert.Contains(t, masked, "[EMAIL MASKED]")
	assert.Contains(t, masked, "[ID MASKED]")
}

func TestSanitizePincode(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"400001", "400001"},
		{"400 001", "400001"},
		{"IN-400001", "400001"},
		{"40001", ""},
		{"4000011", ""},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, sanitizePincode(tc.raw), "input %q", tc.raw)
	}
}

func TestNormalizeGender(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"M", "male"},
		{"female", "female"},
		{"nonbinary", "other"},
		{"", "unspecified"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, normalizeGender(tc.raw))
	}
}

func TestExtractSymptomSectionWithoutHeading(t *testing.T) {
	text := strings.Repeat("persistent cough noted. ", 40)
	section := extractSymptomSection(text)
	assert.LessOrEqual(t, len(section), maxExcerptLen+3)
	assert.True(t, strings.HasSuffix(section, "..."))
}
