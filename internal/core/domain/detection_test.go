package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestPlatformDetection_Accessors tests the vendor-specific accessors
func TestPlatformDetection_Accessors(t *testing.T) {
	detection := PlatformDetection{
		CompanyName: "Acme",
		Domain:      "acme.com",
		Identifiers: map[AtsVendor]string{
			VendorLever:      "acme",
			VendorGreenhouse: "acmeinc",
		},
		DetectedAt: time.Now(),
		Method:     MethodHTMLParse,
		SourceURL:  "https://acme.com/careers",
	}

	assert.Equal(t, "acme", detection.LeverSlug())
	assert.Equal(t, "acmeinc", detection.GreenhouseBoardToken())
}

// TestPlatformDetection_AccessorsMissing tests accessors with no identifier
func TestPlatformDetection_AccessorsMissing(t *testing.T) {
	detection := PlatformDetection{
		Domain:      "acme.com",
		Identifiers: map[AtsVendor]string{VendorAshby: "acme"},
	}

	assert.Empty(t, detection.LeverSlug())
	assert.Empty(t, detection.GreenhouseBoardToken())
}

// TestPlatformDetection_Vendors tests vendor ordering
func TestPlatformDetection_Vendors(t *testing.T) {
	detection := PlatformDetection{
		Identifiers: map[AtsVendor]string{
			VendorRecruitee:  "acme",
			VendorLever:      "acme",
			VendorGreenhouse: "acme",
		},
	}

	// Canonical order regardless of map iteration order.
	assert.Equal(t, []AtsVendor{VendorLever, VendorGreenhouse, VendorRecruitee}, detection.Vendors())
}

// TestDetectionMethod_Values tests the detection method constants
func TestDetectionMethod_Values(t *testing.T) {
	assert.Equal(t, DetectionMethod("html_parse"), MethodHTMLParse)
	assert.Equal(t, DetectionMethod("api_query"), MethodAPIQuery)
	assert.Equal(t, DetectionMethod("manual"), MethodManual)
}

// TestDiscoveredCompany_Valid tests minimum field validation
func TestDiscoveredCompany_Valid(t *testing.T) {
	record := DiscoveredCompany{Name: "Acme", Domain: "acme.com", Source: "seedfile"}
	assert.True(t, record.Valid())

	noDomain := DiscoveredCompany{Name: "Acme", Source: "seedfile"}
	assert.False(t, noDomain.Valid())

	noName := DiscoveredCompany{Domain: "acme.com", Source: "seedfile"}
	assert.False(t, noName.Valid())
}
