package ingestion

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxExcerptLen = 600

// PII patterns masked out of document text before it enters the pipeline.
var (
	emailPattern   = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern   = regexp.MustCompile(`(\+91[\s-]?)?[6-9]\d{9}\b`)
	aadhaarPattern = regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`)
)

// Headings that introduce the clinically relevant section of a report.
var symptomHeadings = []string{
	"symptoms:",
	"chief complaint:",
	"presenting complaint:",
	"clinical history:",
	"history:",
	"impression:",
	"findings:",
}

var pincodePattern = regexp.MustCompile(`\b[1-9]\d{5}\b`)

// extractDocumentText pulls plain text out of a supporting document.
// Only .txt and .pdf are accepted.
func extractDocumentText(doc UploadedFile) (string, error) {
	switch strings.ToLower(filepath.Ext(doc.Name)) {
	case ".txt":
		if !utf8.Valid(doc.Data) {
			return "", fmt.Errorf("not valid UTF-8 text")
		}
		return string(doc.Data), nil
	case ".pdf":
		return extractPDFText(doc.Data), nil
	}
	return "", fmt.Errorf("unsupported document type, use .txt or .pdf")
}

// pdfTextPattern captures parenthesized string operands of PDF show-text
// operators. Works for uncompressed text streams only, which covers the
// simple generated reports this pipeline sees.
var pdfTextPattern = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*Tj`)

func extractPDFText(blob []byte) string {
	matches := pdfTextPattern.FindAllSubmatch(blob, -1)
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		s := strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`).Replace(string(m[1]))
		if strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// maskPII replaces contact and identity numbers before document text is
// stored or echoed back.
func maskPII(text string) string {
	text = emailPattern.ReplaceAllString(text, "[EMAIL MASKED]")
	text = aadhaarPattern.ReplaceAllString(text, "[ID MASKED]")
	text = phonePattern.ReplaceAllString(text, "[PHONE MASKED]")
	return text
}

// extractSymptomSection returns the text following the first recognized
// clinical heading, truncated to a short excerpt. Without a heading the
// leading slice of the document is used.
func extractSymptomSection(text string) string {
	lower := strings.ToLower(text)
	for _, heading := range symptomHeadings {
		idx := strings.Index(lower, heading)
		if idx < 0 {
			continue
		}
		section := text[idx+len(heading):]
		if end := strings.Index(section, "\n\n"); end > 0 {
			section = section[:end]
		}
		return truncate(strings.TrimSpace(section), maxExcerptLen)
	}
	return truncate(strings.TrimSpace(text), maxExcerptLen)
}

// findPincode returns the first six-digit pincode found in the text.
func findPincode(text string) string {
	return pincodePattern.FindString(text)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
