package pill

import "time"

// HistoryEntry records one completed analysis. History is append-only: every
// analysis inserts a row, repeated scans of the same pill included.
type HistoryEntry struct {
	ID          string    `json:"id"`
	PillName    string    `json:"pill_name"`
	Confidence  float64   `json:"confidence"`
	Color       string    `json:"color"`
	Shape       string    `json:"shape"`
	Imprint     string    `json:"imprint"`
	Description string    `json:"description"`
	Usage       string    `json:"usage"`
	Warnings    []string  `json:"warnings"`
	CreatedAt   time.Time `json:"created_at"`
}

// CatalogEntry is a user-authored pill reference record, maintained through
// the manual entry form and never auto-populated from detections.
type CatalogEntry struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	DrugClass     string    `json:"drug_class,omitempty"`
	Color         string    `json:"color,omitempty"`
	Size          string    `json:"size,omitempty"`
	Shape         string    `json:"shape,omitempty"`
	Dosage        string    `json:"dosage,omitempty"`
	Uses          string    `json:"uses,omitempty"`
	Description   string    `json:"description,omitempty"`
	Warnings      string    `json:"warnings,omitempty"`
	ImageFilename string    `json:"image_filename,omitempty"`
	ContentType   string    `json:"content_type,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
