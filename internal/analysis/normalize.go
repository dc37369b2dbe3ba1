package analysis

import (
	"math"
	"regexp"
	"strings"
)

// Field defaults substituted for empty or placeholder values.
const (
	defaultUnconfirmed = "Unconfirmed"
	defaultImprint     = "No visible imprint"
	defaultUsage       = "Usage information unavailable. Consult a healthcare professional for guidance."
)

var (
	// placeholderRe matches the placeholder strings models emit for fields
	// they could not determine.
	placeholderRe = regexp.MustCompile(`(?i)^(n/?a|na|none|unknown)$`)

	// Markdown artifacts the model sometimes echoes despite the prompt.
	linkRe  = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	urlRe   = regexp.MustCompile(`https?://\S+`)
	spaceRe = regexp.MustCompile(`[ \t]{2,}`)

	emphasisReplacer = strings.NewReplacer("**", "", "__", "", "*", "", "`", "")
)

// stripMarkdown removes markdown emphasis, link syntax and raw URLs from a
// free-text field. The transform is idempotent: running it on already-clean
// text changes nothing.
func stripMarkdown(s string) string {
	s = linkRe.ReplaceAllString(s, "$1")
	s = urlRe.ReplaceAllString(s, "")
	s = emphasisReplacer.Replace(s)
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// defaulted cleans a free-text field and substitutes the given default when
// the value is empty or a recognized placeholder.
func defaulted(s, def string) string {
	s = stripMarkdown(s)
	if s == "" || placeholderRe.MatchString(s) {
		return def
	}
	return s
}

// Normalize applies the post-processing rules to a parsed detection in place:
// markdown stripping, placeholder defaulting and the warnings guarantee.
// A record carrying the non-pill name is passed through untouched since its
// fields do not describe a medication; only the confidence clamp applies.
func Normalize(d *Detection) {
	if d.Name != NonPillName {
		d.Name = stripMarkdown(d.Name)
		d.GenericName = defaulted(d.GenericName, defaultUnconfirmed)
		d.BrandName = defaulted(d.BrandName, defaultUnconfirmed)
		d.DrugClass = defaulted(d.DrugClass, defaultUnconfirmed)
		d.Imprint = defaulted(d.Imprint, defaultImprint)
		d.Usage = defaulted(d.Usage, defaultUsage)
		d.Description = stripMarkdown(d.Description)
		d.Color = stripMarkdown(d.Color)
		d.Shape = stripMarkdown(d.Shape)

		warnings := make([]string, 0, len(d.Warnings))
		for _, w := range d.Warnings {
			if w = stripMarkdown(w); w != "" {
				warnings = append(warnings, w)
			}
		}
		if len(warnings) == 0 {
			warnings = append(warnings, standardWarnings...)
		}
		d.Warnings = warnings
	}

	d.Confidence = clampConfidence(d.Confidence)
}

// clampConfidence forces a confidence into [0, 1]. Values that are not
// finite numbers map to the fallback confidence.
func clampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c) || math.IsInf(c, 0):
		return fallbackConfidence
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}
