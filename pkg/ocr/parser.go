// Package ocr extracts medication fields from raw label text.
package ocr

import (
	"regexp"
	"strings"
)

// Defaults used when a field cannot be found in the text.
const (
	SeePackaging            = "See packaging"
	FollowDosageInstruction = "Follow dosage instructions"
	UnknownDrug             = "Unknown"
)

// Result holds the fields recovered from label text.
type Result struct {
	DrugName          string `json:"drug_name"`
	Dosage            string `json:"dosage"`
	Manufacturer      string `json:"manufacturer"`
	ActiveIngredients string `json:"active_ingredients"`
	Warnings          string `json:"warnings"`
	RawText           string `json:"raw_text"`
}

// Patterns are tried in order; the first that matches wins.
var (
	dosagePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b\d+\s*mg\b`),
		regexp.MustCompile(`(?i)\b\d+\s*mcg\b`),
		regexp.MustCompile(`(?i)\b\d+\s*g\b`),
		regexp.MustCompile(`(?i)\b\d+\s*ml\b`),
		regexp.MustCompile(`(?i)\b\d+\s*IU\b`),
	}

	manufacturerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)MFG[:\s]*([A-Za-z\s]{3,25})`),
		regexp.MustCompile(`(?i)MANUFACTURER[:\s]*([A-Za-z\s]{3,25})`),
	}

	warningPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)STORE[:\s]*[^.\n]*`),
		regexp.MustCompile(`(?i)WARNING[:\s]*[^.\n]*`),
		regexp.MustCompile(`(?i)CAUTION[:\s]*[^.\n]*`),
		regexp.MustCompile(`(?i)EXPIRY[:\s]*[^.\n]*`),
	}

	nameNoise      = regexp.MustCompile(`[\d\-.,()\[\]]`)
	upperWordsOnly = regexp.MustCompile(`^[A-Z\s]+$`)
)

const (
	maxWarningParts = 3
	fallbackLines   = 8
)

// commonDrugs is searched in order; earlier entries win within a line.
var commonDrugs = []string{
	"PARACETAMOL", "ACETAMINOPHEN", "IBUPROFEN", "ASPIRIN", "AMOXICILLIN",
	"CIPROFLOXACIN", "AZITHROMYCIN", "METFORMIN", "ATORVASTATIN", "AMLODIPINE",
	"LOSARTAN", "OMEPRAZOOL", "PANTOPRAZOLE", "CETIRIZINE", "LORATADINE",
	"DICLOFENAC", "TRAMADOL", "AMITRIPTYLINE", "METRONIDAZOLE", "CIPLA",
}

// ParseLabelText extracts medication fields from OCR output. It never fails;
// missing fields get the package defaults.
func ParseLabelText(text string) Result {
	upper := strings.ToUpper(text)
	lines := nonEmptyLines(text)

	name := drugName(lines)

	result := Result{
		DrugName:          firstNonEmpty(name, firstLine(lines), UnknownDrug),
		Dosage:            firstNonEmpty(dosage(upper), SeePackaging),
		Manufacturer:      firstNonEmpty(manufacturer(upper), SeePackaging),
		ActiveIngredients: firstNonEmpty(name, SeePackaging),
		Warnings:          firstNonEmpty(warnings(upper), FollowDosageInstruction),
		RawText:           text,
	}
	return result
}

// IsDefault reports whether v is one of the parser's placeholder values.
func IsDefault(v string) bool {
	return v == SeePackaging || v == FollowDosageInstruction
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 1 {
			lines = append(lines, line)
		}
	}
	return lines
}

func dosage(upper string) string {
	for _, p := range dosagePatterns {
		if m := p.FindString(upper); m != "" {
			return m
		}
	}
	return ""
}

func manufacturer(upper string) string {
	for _, p := range manufacturerPatterns {
		if m := p.FindStringSubmatch(upper); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func warnings(upper string) string {
	for _, p := range warningPatterns {
		if matches := p.FindAllString(upper, maxWarningParts); len(matches) > 0 {
			return strings.Join(matches, ". ")
		}
	}
	return ""
}

func drugName(lines []string) string {
	for _, line := range lines {
		upperLine := strings.ToUpper(line)
		for _, drug := range commonDrugs {
			if strings.Contains(upperLine, drug) {
				return drug
			}
		}
	}

	for i, line := range lines {
		if i >= fallbackLines {
			break
		}
		cleaned := strings.TrimSpace(nameNoise.ReplaceAllString(line, ""))
		if len(cleaned) > 3 && len(cleaned) < 35 &&
			upperWordsOnly.MatchString(cleaned) && !strings.Contains(cleaned, "MG") {
			return cleaned
		}
	}
	return ""
}

func firstLine(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return lines[0]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
