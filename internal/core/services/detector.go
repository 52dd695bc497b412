package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hirelens-labs/hirelens/internal/atsprobe"
	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driven"
	"github.com/hirelens-labs/hirelens/internal/logger"
	"github.com/hirelens-labs/hirelens/internal/metrics"
)

// DefaultDetectConcurrency bounds how many companies are probed at once.
const DefaultDetectConcurrency = 5

// DetectorService probes companies for their ATS platform.
type DetectorService struct {
	fetcher     driven.PageFetcher
	metrics     *metrics.Metrics
	concurrency int
	now         func() time.Time
}

// NewDetectorService creates a detector over the given fetcher.
// concurrency <= 0 falls back to DefaultDetectConcurrency. metrics may be nil.
func NewDetectorService(fetcher driven.PageFetcher, m *metrics.Metrics, concurrency int) *DetectorService {
	if concurrency <= 0 {
		concurrency = DefaultDetectConcurrency
	}
	return &DetectorService{
		fetcher:     fetcher,
		metrics:     m,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// candidateURLs lists the probe URLs for a domain, most likely first.
// The order is fixed so probes are deterministic and cheap pages are
// tried before subdomains that often don't resolve.
func candidateURLs(dom string) []string {
	return []string{
		"https://" + dom,
		"https://" + dom + "/careers",
		"https://" + dom + "/jobs",
		"https://careers." + dom,
		"https://jobs." + dom,
	}
}

// DetectFromCareersPage probes a company's candidate careers URLs in order
// and extracts ATS identifiers from the first page that yields any.
//
// Absence is not an error: when no candidate yields an identifier the
// return is (nil, nil). Unreachable candidates and non-2xx responses are
// skipped, not failed. The error return is reserved for context cancellation.
func (s *DetectorService) DetectFromCareersPage(ctx context.Context, name, dom string) (*domain.PlatformDetection, error) {
	for _, url := range candidateURLs(dom) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		status, body, err := s.fetcher.Fetch(ctx, url)
		if err != nil {
			logger.Debug("Probe %s: %v", url, err)
			continue
		}
		if status < 200 || status > 299 {
			logger.Debug("Probe %s: status %d", url, status)
			continue
		}

		identifiers := atsprobe.ExtractIdentifiers(body)
		if len(identifiers) == 0 {
			continue
		}

		detection := &domain.PlatformDetection{
			CompanyName: name,
			Domain:      dom,
			Identifiers: identifiers,
			DetectedAt:  s.now(),
			Method:      domain.MethodHTMLParse,
			SourceURL:   url,
		}
		for vendor := range identifiers {
			s.metrics.RecordDetection(string(vendor), string(domain.MethodHTMLParse))
		}
		logger.Info("Detected ATS for %s (%s): %v via %s", name, dom, detection.Vendors(), url)
		return detection, nil
	}
	return nil, nil
}

// DetectBatch probes a batch of companies with bounded concurrency.
// Companies without a detection are simply absent from the result; the
// result order follows completion, not input. Per-company failures are
// logged and never abort the batch.
func (s *DetectorService) DetectBatch(ctx context.Context, companies []domain.Company) []domain.PlatformDetection {
	var (
		mu         sync.Mutex
		detections []domain.PlatformDetection
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, company := range companies {
		g.Go(func() error {
			detection, err := s.DetectFromCareersPage(gctx, company.Name, company.Domain)
			if err != nil {
				logger.Debug("Detection cancelled for %s: %v", company.Domain, err)
				return nil
			}
			if detection == nil {
				return nil
			}
			detection.CompanyID = company.ID
			mu.Lock()
			detections = append(detections, *detection)
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; Wait is for draining.
	_ = g.Wait()

	logger.Info("Platform detection finished: %d of %d companies identified",
		len(detections), len(companies))
	return detections
}

// HarvestService confirms ATS identifiers through vendor public board APIs.
// It covers registry companies the careers-page detector missed: board APIs
// answer for companies whose careers pages hide their ATS behind JS.
type HarvestService struct {
	prober driven.BoardProber
	now    func() time.Time
}

// NewHarvestService creates a harvester over the given prober.
// The prober may be nil; harvesting is then a no-op.
func NewHarvestService(prober driven.BoardProber) *HarvestService {
	return &HarvestService{prober: prober, now: time.Now}
}

// HarvestCompany tries slug candidates against each vendor's public board
// API and returns a detection for the first confirmed slug per vendor.
// Returns (nil, nil) when nothing is confirmed.
func (s *HarvestService) HarvestCompany(ctx context.Context, company *domain.Company) (*domain.PlatformDetection, error) {
	if s.prober == nil {
		return nil, nil
	}

	candidates := atsprobe.SlugCandidates(company.Name, company.Domain)
	identifiers := make(map[domain.AtsVendor]string)

	for _, vendor := range []domain.AtsVendor{domain.VendorGreenhouse, domain.VendorLever} {
		for _, slug := range candidates {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			exists, err := s.prober.ProbeBoard(ctx, vendor, slug)
			if err != nil {
				logger.Debug("Board probe %s/%s: %v", vendor, slug, err)
				continue
			}
			if exists {
				identifiers[vendor] = slug
				break
			}
		}
	}

	if len(identifiers) == 0 {
		return nil, nil
	}
	return &domain.PlatformDetection{
		CompanyID:   company.ID,
		CompanyName: company.Name,
		Domain:      company.Domain,
		Identifiers: identifiers,
		DetectedAt:  s.now(),
		Method:      domain.MethodAPIQuery,
	}, nil
}

// HarvestMissing runs the harvester over registry companies that have no
// ATS identifiers yet and records confirmed identifiers. Returns how many
// companies gained identifiers.
func (s *HarvestService) HarvestMissing(ctx context.Context, store driven.CompanyStore, limit int) (int, error) {
	if s.prober == nil {
		return 0, nil
	}

	companies, err := store.ListMissingATS(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list companies missing ATS: %w", err)
	}

	harvested := 0
	for i := range companies {
		detection, err := s.HarvestCompany(ctx, &companies[i])
		if err != nil {
			return harvested, err
		}
		if detection == nil {
			continue
		}
		if err := store.SetIdentifiers(ctx, detection.CompanyID, detection.Identifiers); err != nil {
			logger.Warn("Saving harvested identifiers for %s failed: %v", detection.Domain, err)
			continue
		}
		harvested++
		logger.Info("Harvested ATS identifiers for %s (%s): %v",
			detection.CompanyName, detection.Domain, detection.Vendors())
	}
	return harvested, nil
}
