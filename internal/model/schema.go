package model

// JSONLDBlock is one script[type="application/ld+json"] block.
// Data is nil when the block failed to parse; ParseError then holds
// the reason.
type JSONLDBlock struct {
	Data       any    `json:"data,omitempty"`
	Raw        string `json:"raw,omitempty"`
	ParseError string `json:"parse_error,omitempty"`
}

// MicrodataItem is one itemscope element with its collected properties.
// Property values are strings, or slices of strings when a property
// appears more than once.
type MicrodataItem struct {
	Type       string         `json:"type,omitempty"`
	ID         string         `json:"id,omitempty"`
	Properties map[string]any `json:"properties"`
}

// RDFaItem is one element carrying RDFa attributes.
type RDFaItem struct {
	Attributes map[string]string `json:"attributes"`
}

// SchemaResult is the structured-data extraction report for a page.
type SchemaResult struct {
	URL       string          `json:"url"`
	JSONLD    []JSONLDBlock   `json:"json_ld"`
	Microdata []MicrodataItem `json:"microdata"`
	RDFa      []RDFaItem      `json:"rdfa"`

	// SchemaTypes is the deduplicated set of schema.org types found
	// across all three formats.
	SchemaTypes []string `json:"schema_types"`

	// TypeCounts maps each schema type to its number of occurrences.
	TypeCounts map[string]int `json:"type_counts"`

	ParseErrors     int      `json:"parse_errors"`
	Recommendations []string `json:"recommendations"`
	Error           string   `json:"error,omitempty"`
}
