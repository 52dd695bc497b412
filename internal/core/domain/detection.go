package domain

import "time"

// DetectionMethod records how an ATS platform was identified.
type DetectionMethod string

const (
	// MethodHTMLParse means identifiers were extracted from a fetched careers page.
	MethodHTMLParse DetectionMethod = "html_parse"
	// MethodAPIQuery means a vendor's public board API confirmed the identifier.
	MethodAPIQuery DetectionMethod = "api_query"
	// MethodManual means an operator entered the identifier by hand.
	MethodManual DetectionMethod = "manual"
)

// PlatformDetection is the result of probing a company for its ATS platform.
// A detection always carries at least one identifier; probes that find
// nothing return no detection at all rather than an empty one.
type PlatformDetection struct {
	// CompanyID is the registry ID of the probed company, empty for
	// companies not yet upserted.
	CompanyID string

	// CompanyName is the company's display name, carried for logging.
	CompanyName string

	// Domain is the registrable domain that was probed.
	Domain string

	// Identifiers maps each detected vendor to its board identifier.
	Identifiers map[AtsVendor]string

	// DetectedAt is when the detection completed.
	DetectedAt time.Time

	// Method records how the identifiers were obtained.
	Method DetectionMethod

	// SourceURL is the URL that yielded the identifiers, empty for api_query.
	SourceURL string
}

// LeverSlug returns the detected Lever board slug, or "" if none.
func (p *PlatformDetection) LeverSlug() string {
	return p.Identifiers[VendorLever]
}

// GreenhouseBoardToken returns the detected Greenhouse board token, or "" if none.
func (p *PlatformDetection) GreenhouseBoardToken() string {
	return p.Identifiers[VendorGreenhouse]
}

// Vendors returns the detected vendors in the canonical reporting order.
func (p *PlatformDetection) Vendors() []AtsVendor {
	out := make([]AtsVendor, 0, len(p.Identifiers))
	for _, v := range KnownVendors() {
		if _, ok := p.Identifiers[v]; ok {
			out = append(out, v)
		}
	}
	return out
}
