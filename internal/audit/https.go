package audit

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"strings"
	"time"

	"github.com/webaudit/webaudit/internal/fetch"
	"github.com/webaudit/webaudit/internal/model"
)

// HTTPS score weights. The certificate carries the most weight because
// an invalid certificate actively breaks trust, while a missing
// redirect merely leaves a gap.
const (
	httpsAvailableScore = 25
	httpsRedirectScore  = 25
	httpsCertScore      = 30
	httpsModernTLSScore = 20
	httpsLegacyTLSScore = 10
	certExpiryCritical  = 30 // days
	certExpiryWarning   = 90 // days
)

// HTTPSAuditor checks a site's transport security.
type HTTPSAuditor struct {
	client *fetch.Client
}

// NewHTTPSAuditor creates an HTTPSAuditor using the given client.
func NewHTTPSAuditor(client *fetch.Client) *HTTPSAuditor {
	return &HTTPSAuditor{client: client}
}

// Check probes the https and http variants of a URL, inspects the TLS
// certificate, and scores the result.
func (a *HTTPSAuditor) Check(ctx context.Context, rawURL string) *model.HTTPSResult {
	result := &model.HTTPSResult{URL: rawURL}

	base, err := fetch.ValidateURL(rawURL)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	host := base.Host

	httpsURL := "https://" + host + base.RequestURI()
	httpURL := "http://" + host + base.RequestURI()

	httpsResp, httpsErr := a.client.Get(ctx, httpsURL)
	if httpsErr == nil {
		result.HTTPSAvailable = true
		if httpsResp.TLS != nil {
			inspectTLS(httpsResp.TLS, base.Hostname(), result)
		}
	} else {
		result.Warnings = append(result.Warnings, "HTTPS not reachable: "+httpsErr.Error())
	}

	httpResp, httpErr := a.client.Get(ctx, httpURL)
	if httpErr == nil {
		result.HTTPAccessible = true
		result.HTTPRedirectsToHTTPS = strings.HasPrefix(httpResp.FinalURL, "https://")
	}

	if !result.HTTPSAvailable && httpErr != nil {
		result.Error = fmt.Sprintf("site unreachable over both https and http: %v", httpsErr)
		return result
	}

	result.Score = scoreHTTPS(result)
	result.Recommendations = httpsRecommendations(result)
	return result
}

// inspectTLS extracts certificate and protocol details from the
// connection state.
func inspectTLS(state *tls.ConnectionState, hostname string, result *model.HTTPSResult) {
	result.TLSVersion = tlsVersionName(state.Version)
	result.CipherSuite = tls.CipherSuiteName(state.CipherSuite)

	switch state.Version {
	case tls.VersionTLS10, tls.VersionTLS11:
		result.Warnings = append(result.Warnings,
			"Deprecated TLS protocol "+result.TLSVersion+" negotiated; require TLS 1.2 or later.")
	}

	if len(state.PeerCertificates) == 0 {
		return
	}
	cert := state.PeerCertificates[0]

	info := &model.CertificateInfo{
		Subject:         cert.Subject.String(),
		Issuer:          cert.Issuer.String(),
		SerialNumber:    cert.SerialNumber.Text(16),
		NotBefore:       cert.NotBefore,
		NotAfter:        cert.NotAfter,
		SANs:            cert.DNSNames,
		DaysUntilExpiry: int(time.Until(cert.NotAfter).Hours() / 24),
		MatchesHostname: certMatchesHost(cert, hostname),
	}
	result.Certificate = info

	now := time.Now()
	result.CertificateValid = info.MatchesHostname && now.After(cert.NotBefore) && now.Before(cert.NotAfter)

	switch {
	case info.DaysUntilExpiry < 0:
		result.Warnings = append(result.Warnings, "Certificate has expired.")
	case info.DaysUntilExpiry < certExpiryCritical:
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Certificate expires in %d days; renew now.", info.DaysUntilExpiry))
	case info.DaysUntilExpiry < certExpiryWarning:
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Certificate expires in %d days; plan renewal.", info.DaysUntilExpiry))
	}
	if !info.MatchesHostname {
		result.Warnings = append(result.Warnings, "Certificate does not cover the audited hostname.")
	}
}

// certMatchesHost checks whether the certificate covers the hostname,
// including wildcard entries and the www variant.
func certMatchesHost(cert *x509.Certificate, hostname string) bool {
	if cert.VerifyHostname(hostname) == nil {
		return true
	}
	// A certificate for example.com commonly serves www.example.com and
	// vice versa.
	if stripped, ok := strings.CutPrefix(hostname, "www."); ok {
		return cert.VerifyHostname(stripped) == nil
	}
	return cert.VerifyHostname("www."+hostname) == nil
}

// scoreHTTPS computes the weighted transport-security score. Pure.
func scoreHTTPS(result *model.HTTPSResult) int {
	score := 0
	if result.HTTPSAvailable {
		score += httpsAvailableScore
	}
	if result.HTTPRedirectsToHTTPS {
		score += httpsRedirectScore
	}
	if result.CertificateValid {
		score += httpsCertScore
	}
	switch result.TLSVersion {
	case "TLS 1.2", "TLS 1.3":
		score += httpsModernTLSScore
	case "TLS 1.0", "TLS 1.1":
		score += httpsLegacyTLSScore
	}
	return score
}

// httpsRecommendations derives advice from the probe outcome.
func httpsRecommendations(result *model.HTTPSResult) []string {
	recs := make([]string, 0)

	if !result.HTTPSAvailable {
		recs = append(recs, "Enable HTTPS with a certificate from a trusted authority.")
	}
	if result.HTTPAccessible && !result.HTTPRedirectsToHTTPS {
		recs = append(recs, "Redirect all HTTP traffic to HTTPS permanently (301).")
	}
	if result.HTTPSAvailable && !result.CertificateValid {
		recs = append(recs, "Replace the certificate: it is expired, not yet valid, or does not match the host.")
	}
	switch result.TLSVersion {
	case "TLS 1.0", "TLS 1.1":
		recs = append(recs, "Disable TLS 1.0/1.1 and require TLS 1.2 or later.")
	}

	switch {
	case result.Score >= 90:
		recs = append(recs, "Transport security is excellent.")
	case result.Score >= 75:
		recs = append(recs, "Transport security is good; close the remaining gaps.")
	case result.Score >= 50:
		recs = append(recs, "Transport security is partial; prioritize the items above.")
	default:
		recs = append(recs, "Transport security needs immediate attention.")
	}
	return recs
}

// tlsVersionName maps a TLS version constant to its display name.
func tlsVersionName(version uint16) string {
	switch version {
	case tls.VersionTLS10:
		return "TLS 1.0"
	case tls.VersionTLS11:
		return "TLS 1.1"
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS13:
		return "TLS 1.3"
	default:
		return fmt.Sprintf("unknown (0x%04x)", version)
	}
}
