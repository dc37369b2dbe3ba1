package analysis

// Detection contains the structured identification extracted from a pill image
type Detection struct {
	Name        string   `json:"name"`
	GenericName string   `json:"genericName"`
	BrandName   string   `json:"brandName"`
	DrugClass   string   `json:"drugClass"`
	Confidence  float64  `json:"confidence"`
	Description string   `json:"description"`
	Color       string   `json:"color"`
	Shape       string   `json:"shape"`
	Imprint     string   `json:"imprint"`
	Usage       string   `json:"usage"`
	Warnings    []string `json:"warnings"`
}

// NonPillName is the name the model returns when the image does not show a
// pharmaceutical product. Records carrying it bypass normalization.
const NonPillName = "Not a Pharmaceutical Pill"

// UnknownName is the name carried by the fallback record substituted when the
// model reply cannot be parsed.
const UnknownName = "Unknown Pill"

// Identified reports whether the detection names an actual medication, as
// opposed to the non-pill classification or the parse fallback.
func (d *Detection) Identified() bool {
	return d.Name != NonPillName && d.Name != UnknownName
}

// Analyzer defines the interface for pill identification backends
type Analyzer interface {
	// Identify analyzes a pill image and returns the structured identification.
	// An optional free-text hint from the user is forwarded to the model.
	Identify(imageData []byte, contentType string, hint string) (*Detection, error)
	// Close closes the analyzer and releases resources
	Close() error
}
