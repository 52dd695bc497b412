package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	configfile "github.com/hirelens-labs/hirelens/internal/adapters/driven/config/file"
	"github.com/hirelens-labs/hirelens/internal/adapters/driven/storage/postgres"
	"github.com/hirelens-labs/hirelens/internal/adapters/driven/storage/sqlite"
	"github.com/hirelens-labs/hirelens/internal/adapters/driving/cli"
	"github.com/hirelens-labs/hirelens/internal/atsprobe"
	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driven"
	"github.com/hirelens-labs/hirelens/internal/core/services"
	"github.com/hirelens-labs/hirelens/internal/metrics"
	"github.com/hirelens-labs/hirelens/internal/sources/fundingdb"
	"github.com/hirelens-labs/hirelens/internal/sources/githuborgs"
	"github.com/hirelens-labs/hirelens/internal/sources/launchdirectory"
	"github.com/hirelens-labs/hirelens/internal/sources/seedfile"
	"github.com/hirelens-labs/hirelens/internal/sources/startupjobs"
	"github.com/hirelens-labs/hirelens/internal/sources/websearch"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// A missing .env file is fine; deployments set real environment variables.
	_ = godotenv.Load()

	if err := cli.Execute(version, wire); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// wire builds the full dependency graph once the CLI has parsed flags.
// The returned cleanup closes storage after the command finishes.
func wire(configDir string, _ bool) (*cli.Dependencies, func(), error) {
	config, err := configfile.NewConfigStore(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	m := metrics.New()

	var (
		companies driven.CompanyStore
		runs      driven.RunStore
		activity  driven.JobActivityStore
		tasks     driven.SchedulerStore
		closeFn   func()
	)
	if url := config.GetString("storage.postgres_url"); url != "" {
		store, err := postgres.NewStore(context.Background(), url)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres registry: %w", err)
		}
		companies = store.CompanyStore()
		runs = store.RunStore()
		activity = store.JobActivityStore()
		tasks = store.SchedulerStore()
		closeFn = store.Close
	} else {
		store, err := sqlite.NewStore(config.GetString("storage.data_dir"))
		if err != nil {
			return nil, nil, fmt.Errorf("opening registry: %w", err)
		}
		companies = store.CompanyStore()
		runs = store.RunStore()
		activity = store.JobActivityStore()
		tasks = store.SchedulerStore()
		closeFn = func() { store.Close() }
	}

	// Sources run in registration order; discovery dedup is first-source-wins,
	// so register the most trusted directories first.
	catalog := services.NewSourceCatalog(config)
	catalog.Register(seedfile.New(config))
	catalog.Register(fundingdb.New(config))
	catalog.Register(launchdirectory.New(config))
	catalog.Register(startupjobs.New(config))
	catalog.Register(githuborgs.New(config))
	catalog.Register(websearch.New(config))

	tracker := atsprobe.NewRateTracker(
		config.GetFloat("probe.rate_per_second"),
		config.GetInt("probe.burst"),
	)
	fetcher := atsprobe.NewFetcher(tracker, m)
	prober := atsprobe.NewVendorBoardProber(tracker)

	discovery := services.NewDiscoveryService(catalog, m)
	detector := services.NewDetectorService(fetcher, m, config.GetInt("probe.concurrency"))
	harvester := services.NewHarvestService(prober)
	scoring := services.NewScoringService(activity)
	priority := services.NewPriorityService(companies, scoring, m)
	orchestrator := services.NewOrchestrator(
		discovery, detector, harvester, priority, scoring, companies, runs, m)
	registry := services.NewCompanyService(companies, scoring)
	scheduler := services.NewScheduler(schedulerConfig(config), tasks, orchestrator, priority)

	deps := &cli.Dependencies{
		Pipeline:  orchestrator,
		Priority:  priority,
		Companies: registry,
		Sources:   catalog,
		Scheduler: scheduler,
		Config:    config,
		Metrics:   m,
	}
	return deps, closeFn, nil
}

// schedulerConfig overlays file settings onto the scheduler defaults.
func schedulerConfig(config driven.ConfigStore) domain.SchedulerConfig {
	cfg := domain.DefaultSchedulerConfig()
	if _, ok := config.Get("scheduler.enabled"); ok {
		cfg.Enabled = config.GetBool("scheduler.enabled")
	}
	for _, id := range []string{domain.TaskIDDiscovery, domain.TaskIDPriorityRefresh} {
		task := cfg.TaskConfigs[id]
		if _, ok := config.Get("scheduler." + id + ".enabled"); ok {
			task.Enabled = config.GetBool("scheduler." + id + ".enabled")
		}
		if hours := config.GetInt("scheduler." + id + ".interval_hours"); hours > 0 {
			task.Interval = time.Duration(hours) * time.Hour
		}
		cfg.TaskConfigs[id] = task
	}
	return cfg
}
