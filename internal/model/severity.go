package model

// Severity represents the impact level of an audit finding.
// The levels follow the impact taxonomy used by common accessibility
// tooling (critical, serious, moderate, minor), which also maps well
// onto privacy findings from image metadata.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type Severity int

const (
	// SeverityMinor indicates cosmetic or low-impact issues.
	// Examples: empty heading elements, software names in image metadata.
	SeverityMinor Severity = iota

	// SeverityModerate indicates issues that degrade quality for some users.
	// Examples: skipped heading levels, camera make/model in image metadata.
	SeverityModerate

	// SeveritySerious indicates issues that block or mislead a class of users.
	// Examples: unlabeled form controls, insufficient color contrast,
	// device serial numbers or author names embedded in published images.
	SeveritySerious

	// SeverityCritical indicates issues that make content unusable or leak
	// sensitive data. Examples: images without alternative text, GPS
	// coordinates embedded in published images.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityMinor:
		return "minor"
	case SeverityModerate:
		return "moderate"
	case SeveritySerious:
		return "serious"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Finding is a single issue discovered by an auditor.
// The Type field is a stable machine-readable identifier; Title and
// Description are for human consumption.
type Finding struct {
	// Type is a stable identifier such as "exif_gps" or "contrast".
	Type string `json:"type"`

	// Title is a short human-readable summary.
	Title string `json:"title"`

	// Description explains the issue and its impact.
	Description string `json:"description"`

	// Severity is the impact level of the finding.
	Severity Severity `json:"-"`

	// SeverityText is the string form of Severity for serialization.
	SeverityText string `json:"severity"`

	// Value holds the offending data, such as a tag value or element snippet.
	Value string `json:"value,omitempty"`

	// Location identifies where the issue was found (URL or element path).
	Location string `json:"location,omitempty"`
}

// NewFinding builds a Finding with SeverityText kept in sync with Severity.
func NewFinding(findingType, title, description string, severity Severity) Finding {
	return Finding{
		Type:         findingType,
		Title:        title,
		Description:  description,
		Severity:     severity,
		SeverityText: severity.String(),
	}
}
