package model

import "time"

// CertificateInfo contains serializable TLS certificate information.
// We extract this from x509.Certificate because that type doesn't
// serialize well.
type CertificateInfo struct {
	// Subject is the certificate subject (typically the domain name).
	Subject string `json:"subject"`

	// Issuer is the certificate issuer.
	Issuer string `json:"issuer"`

	// SerialNumber is the certificate serial number as hex string.
	SerialNumber string `json:"serial_number"`

	// NotBefore is when the certificate becomes valid.
	NotBefore time.Time `json:"not_before"`

	// NotAfter is when the certificate expires.
	NotAfter time.Time `json:"not_after"`

	// SANs contains Subject Alternative Names.
	SANs []string `json:"sans,omitempty"` //nolint:tagliatelle // SANs is standard acronym

	// DaysUntilExpiry is the number of whole days before NotAfter.
	// Negative for expired certificates.
	DaysUntilExpiry int `json:"days_until_expiry"`

	// MatchesHostname is true when the certificate covers the audited
	// host, including wildcard and www variants.
	MatchesHostname bool `json:"matches_hostname"`
}

// HTTPSResult is the transport-security report for a site.
//
// The score decomposes as: 25 points for HTTPS being available, 25 for
// HTTP redirecting to HTTPS, 30 for a valid matching certificate, and
// 20 for a modern TLS version (half credit for TLS 1.0/1.1).
type HTTPSResult struct {
	URL string `json:"url"`

	HTTPSAvailable       bool `json:"https_available"`
	HTTPAccessible       bool `json:"http_accessible"`
	HTTPRedirectsToHTTPS bool `json:"http_redirects_to_https"`

	Certificate      *CertificateInfo `json:"certificate,omitempty"`
	CertificateValid bool             `json:"certificate_valid"`

	// TLSVersion is the negotiated protocol, such as "TLS 1.3".
	TLSVersion string `json:"tls_version,omitempty"`

	// CipherSuite is the negotiated cipher suite name.
	CipherSuite string `json:"cipher_suite,omitempty"`

	Warnings        []string `json:"warnings,omitempty"`
	Score           int      `json:"score"`
	Recommendations []string `json:"recommendations"`
	Error           string   `json:"error,omitempty"`
}
