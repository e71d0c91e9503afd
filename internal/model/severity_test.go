package model

import "testing"

func TestSeverityString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityMinor, "minor"},
		{SeverityModerate, "moderate"},
		{SeveritySerious, "serious"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.severity.String(); got != tt.want {
			t.Errorf("Severity(%d).String() = %q, want %q", tt.severity, got, tt.want)
		}
	}
}

func TestNewFinding(t *testing.T) {
	t.Parallel()

	finding := NewFinding("exif_gps", "GPS Coordinates in Image", "location disclosure", SeverityCritical)

	if finding.Type != "exif_gps" {
		t.Errorf("expected type %q, got %q", "exif_gps", finding.Type)
	}
	if finding.Severity != SeverityCritical {
		t.Errorf("expected critical severity, got %v", finding.Severity)
	}
	if finding.SeverityText != "critical" {
		t.Errorf("expected severity text kept in sync, got %q", finding.SeverityText)
	}
}
