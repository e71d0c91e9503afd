package model

// AccessibilityViolation is a single failed accessibility check.
type AccessibilityViolation struct {
	// Rule identifies the check, such as "image-alt" or "color-contrast".
	Rule string `json:"rule"`

	// Impact is the severity bucket of the violation.
	Impact string `json:"impact"`

	// Description explains what is wrong.
	Description string `json:"description"`

	// Element is a short snippet or locator of the offending element.
	Element string `json:"element,omitempty"`
}

// AccessibilityPass is a check that succeeded for a given element.
type AccessibilityPass struct {
	Rule    string `json:"rule"`
	Element string `json:"element,omitempty"`
}

// AccessibilityResult is the outcome of the static accessibility audit.
// The score is the pass rate: passes / (passes + violations) * 100,
// or 100 when nothing was checkable.
type AccessibilityResult struct {
	URL        string                   `json:"url"`
	Violations []AccessibilityViolation `json:"violations"`
	Passes     int                      `json:"passes"`
	Score      int                      `json:"score"`

	// ViolationCounts buckets violations by impact level.
	ViolationCounts map[string]int `json:"violation_counts"`

	Recommendations []string `json:"recommendations"`
	Error           string   `json:"error,omitempty"`
}
