package seedfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driven"
	"github.com/hirelens-labs/hirelens/internal/logger"
	"github.com/hirelens-labs/hirelens/internal/sources"
)

const (
	// SourceID is the source type identifier.
	SourceID = "seedfile"

	// Confidence is the trust level for seed records. Hand-curated lists
	// outrank every remote directory.
	Confidence = 0.95

	// pathKey is the config key holding the seed file location.
	pathKey = "sources.seedfile.path"
)

// Ensure Source implements the interface.
var _ driven.CompanySource = (*Source)(nil)

// seedRecord is the JSON shape of one entry in the seed file.
type seedRecord struct {
	Name          string `json:"name"`
	Domain        string `json:"domain"`
	Website       string `json:"website,omitempty"`
	Description   string `json:"description,omitempty"`
	Industry      string `json:"industry,omitempty"`
	FundingStage  string `json:"funding_stage,omitempty"`
	EmployeeCount int    `json:"employee_count,omitempty"`
	FoundedYear   int    `json:"founded_year,omitempty"`
}

// Source discovers companies from a local JSON seed list.
// The file is parsed once and cached; an fsnotify watcher marks the cache
// stale when the file changes, so edits are picked up without a restart.
type Source struct {
	config driven.ConfigStore

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	watched string
	cache   []domain.DiscoveredCompany
	loaded  bool
	stale   bool
}

// New creates a seed file source reading its path from config.
func New(config driven.ConfigStore) *Source {
	return &Source{config: config}
}

// ID returns the source type identifier.
func (s *Source) ID() string {
	return SourceID
}

// Spec returns the source descriptor.
func (s *Source) Spec() domain.SourceSpec {
	return domain.SourceSpec{
		ID:          SourceID,
		Name:        "Seed File",
		Description: "Hand-curated JSON list of companies to track",
		Confidence:  Confidence,
		ConfigKeys: []domain.ConfigKey{
			{
				Key:         "path",
				Label:       "Seed file path",
				Description: "Path to a JSON array of company records",
				Required:    true,
			},
		},
	}
}

// Capabilities returns what this source supports.
func (s *Source) Capabilities() driven.SourceCapabilities {
	return driven.SourceCapabilities{
		RequiresCredentials: false,
	}
}

// Validate checks that the seed file is configured and readable.
func (s *Source) Validate(_ context.Context) error {
	path := s.config.GetString(pathKey)
	if path == "" {
		return fmt.Errorf("seed file path not configured (%s)", pathKey)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("seed file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("seed file %s is a directory", path)
	}
	return nil
}

// Discover returns the companies listed in the seed file.
// Results are cached until the file changes on disk.
func (s *Source) Discover(ctx context.Context) ([]domain.DiscoveredCompany, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	path := s.config.GetString(pathKey)
	if path == "" {
		return nil, fmt.Errorf("seed file path not configured (%s)", pathKey)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if path != s.watched {
		s.watchLocked(path)
	}
	// Without a watcher there is no change signal; reload every run.
	if s.watcher == nil {
		s.stale = true
	}
	if s.loaded && !s.stale {
		return append([]domain.DiscoveredCompany(nil), s.cache...), nil
	}

	records, err := loadSeedFile(path)
	if err != nil {
		return nil, err
	}

	companies := make([]domain.DiscoveredCompany, 0, len(records))
	for _, rec := range records {
		company, ok := normalizeRecord(rec)
		if !ok {
			logger.Debug("Seed record %q has no usable domain, skipping", rec.Name)
			continue
		}
		companies = append(companies, company)
	}

	s.cache = companies
	s.loaded = true
	s.stale = false

	return append([]domain.DiscoveredCompany(nil), companies...), nil
}

// Close stops the file watcher.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	s.watcher = nil
	s.watched = ""
	return err
}

// watchLocked points the watcher at the given path's directory.
// Watching the directory rather than the file survives editors that
// replace the file via rename. Caller holds s.mu.
func (s *Source) watchLocked(path string) {
	if s.watcher != nil {
		_ = s.watcher.Close()
		s.watcher = nil
	}
	s.watched = path
	s.stale = true

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("Seed file watcher unavailable, falling back to per-run reload: %v", err)
		return
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		logger.Warn("Cannot watch seed file directory: %v", err)
		_ = watcher.Close()
		return
	}
	s.watcher = watcher

	go s.watchLoop(watcher, path)
}

// watchLoop marks the cache stale whenever the seed file changes.
// Exits when the watcher is closed.
func (s *Source) watchLoop(watcher *fsnotify.Watcher, path string) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Name != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				s.mu.Lock()
				s.stale = true
				s.mu.Unlock()
				logger.Debug("Seed file changed (%s), cache invalidated", event.Op)
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// loadSeedFile reads and parses the seed file.
func loadSeedFile(path string) ([]seedRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var records []seedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return records, nil
}

// normalizeRecord converts a seed entry into a DiscoveredCompany.
// Returns false when no registrable domain can be derived.
func normalizeRecord(rec seedRecord) (domain.DiscoveredCompany, bool) {
	dom := sources.RegistrableDomain(rec.Domain)
	if dom == "" {
		dom = sources.RegistrableDomain(rec.Website)
	}
	if dom == "" {
		return domain.DiscoveredCompany{}, false
	}

	website := rec.Website
	if website == "" {
		website = "https://" + dom
	}

	return domain.DiscoveredCompany{
		Name:          strings.TrimSpace(rec.Name),
		Domain:        dom,
		Website:       website,
		Description:   rec.Description,
		Industry:      rec.Industry,
		FundingStage:  domain.FundingStage(strings.ToLower(strings.TrimSpace(rec.FundingStage))),
		EmployeeCount: rec.EmployeeCount,
		FoundedYear:   rec.FoundedYear,
		Source:        SourceID,
		Confidence:    Confidence,
	}, true
}
