package analysis

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// fallbackConfidence is the confidence assigned when the model reply is
// malformed or its confidence field is not a usable number.
const fallbackConfidence = 0.35

// standardWarnings are substituted whenever a detection carries no warnings of
// its own, including the parse fallback record.
var standardWarnings = []string{
	"Always verify medications with a licensed pharmacist before use",
	"Never take medication that has not been positively identified",
}

// fallbackDetection returns the fixed low-confidence record substituted when
// the model reply cannot be parsed. The caller always gets a structured
// answer, never a parse error.
func fallbackDetection() *Detection {
	return &Detection{
		Name:        UnknownName,
		GenericName: "Unconfirmed",
		BrandName:   "Unconfirmed",
		DrugClass:   "Unconfirmed",
		Confidence:  fallbackConfidence,
		Description: "Unable to identify this pill with certainty. Please consult a pharmacist.",
		Color:       "Unknown",
		Shape:       "Unknown",
		Imprint:     "No visible imprint",
		Usage:       "Unknown - please consult a healthcare professional",
		Warnings:    append([]string(nil), standardWarnings...),
	}
}

// rawDetection mirrors Detection but tolerates a confidence that is not a
// JSON number. Models occasionally echo "high" or quote the value.
type rawDetection struct {
	Name        string   `json:"name"`
	GenericName string   `json:"genericName"`
	BrandName   string   `json:"brandName"`
	DrugClass   string   `json:"drugClass"`
	Confidence  any      `json:"confidence"`
	Description string   `json:"description"`
	Color       string   `json:"color"`
	Shape       string   `json:"shape"`
	Imprint     string   `json:"imprint"`
	Usage       string   `json:"usage"`
	Warnings    []string `json:"warnings"`
}

// parseDetection parses the model's text reply into a Detection. Markdown
// code fences around the JSON are tolerated. Any reply that does not contain
// a JSON object with a name yields the fallback record instead of an error.
func parseDetection(text string) *Detection {
	text = strings.TrimSpace(text)

	// Remove markdown code blocks if present
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	endIdx := strings.LastIndex(text, "}")
	if startIdx == -1 || endIdx < startIdx {
		return fallbackDetection()
	}
	text = text[startIdx : endIdx+1]

	var raw rawDetection
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return fallbackDetection()
	}

	raw.Name = strings.TrimSpace(raw.Name)
	if raw.Name == "" {
		return fallbackDetection()
	}

	return &Detection{
		Name:        raw.Name,
		GenericName: raw.GenericName,
		BrandName:   raw.BrandName,
		DrugClass:   raw.DrugClass,
		Confidence:  coerceConfidence(raw.Confidence),
		Description: raw.Description,
		Color:       raw.Color,
		Shape:       raw.Shape,
		Imprint:     raw.Imprint,
		Usage:       raw.Usage,
		Warnings:    raw.Warnings,
	}
}

// coerceConfidence turns whatever the model put in the confidence field into
// a finite float64. Non-numeric values map to the fallback confidence.
func coerceConfidence(v any) float64 {
	switch c := v.(type) {
	case float64:
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fallbackConfidence
		}
		return c
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return fallbackConfidence
		}
		return f
	default:
		return fallbackConfidence
	}
}
