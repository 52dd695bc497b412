package driven

import (
	"context"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
)

// PageFetcher retrieves careers pages for platform detection.
// Implementations apply the probe timeout and rate limiting.
type PageFetcher interface {
	// Fetch GETs the URL and returns the status code and body.
	// A non-2xx status is not an error; callers decide how to treat it.
	Fetch(ctx context.Context, url string) (status int, body []byte, err error)
}

// BoardProber checks ATS vendor public board APIs for a slug's existence.
// Used by the registry harvest phase to confirm identifiers without
// fetching careers pages.
type BoardProber interface {
	// ProbeBoard reports whether the vendor hosts a public board under slug.
	ProbeBoard(ctx context.Context, vendor domain.AtsVendor, slug string) (bool, error)
}
