package model

// Speed metric rating thresholds, applied to Lighthouse's normalized
// per-metric score in [0, 1].
const (
	SpeedRatingGood             = "good"
	SpeedRatingNeedsImprovement = "needs_improvement"
	SpeedRatingPoor             = "poor"
)

// SpeedMetric is one Lighthouse performance metric.
type SpeedMetric struct {
	// Name is the metric identifier, such as "first-contentful-paint".
	Name string `json:"name"`

	// DisplayValue is the human-readable value, such as "1.2 s".
	DisplayValue string `json:"display_value"`

	// NumericValue is the raw value in the metric's native unit
	// (milliseconds for timings, unitless for layout shift).
	NumericValue float64 `json:"numeric_value"`

	// Score is Lighthouse's normalized score in [0, 1].
	Score float64 `json:"score"`

	// Rating buckets the score: good at or above 0.9, needs_improvement
	// at or above 0.5, poor below.
	Rating string `json:"rating"`
}

// SpeedResult is the Lighthouse performance audit report.
type SpeedResult struct {
	URL string `json:"url"`

	// Metrics holds the core web vitals and supporting metrics:
	// FCP, LCP, TTI, speed index, total blocking time, and CLS.
	Metrics []SpeedMetric `json:"metrics"`

	// Score is the Lighthouse performance category score scaled to 0-100.
	Score int `json:"score"`

	Recommendations []string `json:"recommendations"`
	Error           string   `json:"error,omitempty"`
}
