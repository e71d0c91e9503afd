package audit

import (
	"context"
	"encoding/base64"
	"regexp"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/webaudit/webaudit/internal/fetch"
	"github.com/webaudit/webaudit/internal/model"
)

// Image metadata audit limits.
const (
	defaultMaxImageChecks = 10
	maxImageBytes         = 5 * 1024 * 1024 // 5MB
)

// exifCapablePattern matches image formats that can carry EXIF data.
var exifCapablePattern = regexp.MustCompile(`(?i)\.(jpe?g|tiff?|heic)(?:\?[^"'\s]*)?$`)

// ImageMetadataAuditor flags privacy-sensitive metadata in published
// images: GPS coordinates, device serial numbers, author names, and
// similar identifiers that image pipelines should have stripped.
type ImageMetadataAuditor struct {
	client *fetch.Client

	// maxImages bounds how many images are fetched per page.
	maxImages int
}

// ImageMetadataOption configures an ImageMetadataAuditor.
type ImageMetadataOption func(*ImageMetadataAuditor)

// WithMaxImageChecks caps the images fetched per audit.
func WithMaxImageChecks(limit int) ImageMetadataOption {
	return func(a *ImageMetadataAuditor) {
		a.maxImages = limit
	}
}

// NewImageMetadataAuditor creates an auditor using the given client.
func NewImageMetadataAuditor(client *fetch.Client, opts ...ImageMetadataOption) *ImageMetadataAuditor {
	a := &ImageMetadataAuditor{
		client:    client,
		maxImages: defaultMaxImageChecks,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Audit fetches a page, collects its same-origin images, and extracts
// metadata findings. Only same-origin images are fetched: third-party
// images are not this site's responsibility, and probing them would
// leak the audit to other hosts.
func (a *ImageMetadataAuditor) Audit(ctx context.Context, pageURL string) ([]model.Finding, error) {
	base, err := fetch.ValidateURL(pageURL)
	if err != nil {
		return nil, err
	}

	_, parsed, err := fetchParsed(ctx, a.client, pageURL)
	if err != nil {
		return nil, err
	}

	findings := make([]model.Finding, 0)
	processed := make(map[string]struct{})
	fetched := 0

	for _, img := range parsed.Images {
		if fetched >= a.maxImages {
			break
		}
		if _, done := processed[img.Source]; done {
			continue
		}
		processed[img.Source] = struct{}{}

		select {
		case <-ctx.Done():
			return findings, ctx.Err()
		default:
		}

		if strings.HasPrefix(img.Source, "data:image/") {
			findings = append(findings, a.auditDataURL(img.Source, pageURL)...)
			continue
		}
		if !exifCapablePattern.MatchString(img.Source) {
			continue
		}
		target, err := fetch.ValidateURL(img.Source)
		if err != nil || !strings.EqualFold(target.Host, base.Host) {
			continue
		}

		fetched++
		resp, err := a.client.Get(ctx, img.Source)
		if err != nil || len(resp.Body) > maxImageBytes {
			continue
		}
		findings = append(findings, auditImageData(resp.Body, img.Source, pageURL)...)
	}

	return findings, nil
}

// auditDataURL decodes an inline base64 image and audits it.
func (a *ImageMetadataAuditor) auditDataURL(dataURL, pageURL string) []model.Finding {
	_, encoded, found := strings.Cut(dataURL, ",")
	if !found {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.URLEncoding.DecodeString(encoded)
		if err != nil {
			return nil
		}
	}
	return auditImageData(data, "data:URL", pageURL)
}

// auditImageData extracts EXIF entries from image bytes and converts
// the privacy-relevant tags into findings.
func auditImageData(imageData []byte, imageURL, pageURL string) []model.Finding {
	findings := make([]model.Finding, 0)

	rawExif, err := exif.SearchAndExtractExif(imageData)
	if err != nil || rawExif == nil {
		return findings
	}
	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return findings
	}

	location := pageURL + " -> " + imageURL
	for _, entry := range entries {
		value := entry.TagName + ": " + entry.Formatted

		switch entry.TagName {
		case "GPSLatitude", "GPSLongitude", "GPSLatitudeRef", "GPSLongitudeRef":
			finding := model.NewFinding("exif_gps",
				"GPS Coordinates in Published Image",
				"An image on the site carries GPS coordinates in its metadata, revealing where it was taken.",
				model.SeverityCritical)
			finding.Value = value
			finding.Location = location
			findings = append(findings, finding)

		case "SerialNumber", "CameraSerialNumber", "BodySerialNumber", "LensSerialNumber":
			finding := model.NewFinding("exif_serial",
				"Device Serial Number in Published Image",
				"An image carries a device serial number, a unique identifier that links photos to one device.",
				model.SeveritySerious)
			finding.Value = value
			finding.Location = location
			findings = append(findings, finding)

		case "Artist", "Author", "Copyright", "XPAuthor":
			finding := model.NewFinding("exif_author",
				"Author Information in Published Image",
				"An image carries author or copyright metadata that may identify the photographer.",
				model.SeveritySerious)
			finding.Value = value
			finding.Location = location
			findings = append(findings, finding)

		case "Make", "Model", "HostComputer":
			finding := model.NewFinding("exif_device",
				"Device Information in Published Image",
				"An image carries camera or computer identification metadata.",
				model.SeverityModerate)
			finding.Value = value
			finding.Location = location
			findings = append(findings, finding)

		case "Software", "ProcessingSoftware":
			finding := model.NewFinding("exif_software",
				"Software Information in Published Image",
				"An image reveals the software used to create or edit it.",
				model.SeverityMinor)
			finding.Value = value
			finding.Location = location
			findings = append(findings, finding)

		case "DateTimeOriginal", "DateTimeDigitized", "DateTime":
			finding := model.NewFinding("exif_datetime",
				"Timestamp in Published Image",
				"An image carries its capture timestamp, which can reveal activity patterns.",
				model.SeverityMinor)
			finding.Value = value
			finding.Location = location
			findings = append(findings, finding)
		}
	}

	return findings
}
