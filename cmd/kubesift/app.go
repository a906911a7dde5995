package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mhoran/kubesift/internal/backend"
	"github.com/mhoran/kubesift/internal/config"
	"github.com/mhoran/kubesift/internal/db"
	"github.com/mhoran/kubesift/internal/extract"
	"github.com/mhoran/kubesift/internal/history"
	"github.com/mhoran/kubesift/internal/notify"
	"github.com/mhoran/kubesift/internal/pipeline"
)

// app bundles the wired collaborators every command needs.
type app struct {
	cfg      *config.Config
	source   *extract.KubectlSource
	store    *history.Store
	runner   *pipeline.Runner
	coord    *pipeline.Coordinator
	notifier *notify.Notifier
}

// loadApp loads the config and wires the pipeline against the configured
// store, cluster source, and backend gateway.
func loadApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	database, err := db.Open(db.Options{
		Driver: cfg.Store.Driver,
		Path:   cfg.Store.Path,
		DSN:    cfg.Store.DSN,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}
	store := history.NewStore(database)

	source := extract.NewKubectlSource(extract.Opts{
		ListTimeout: time.Duration(cfg.Timeouts.ExtractListSec) * time.Second,
		LogsTimeout: time.Duration(cfg.Timeouts.ExtractLogsSec) * time.Second,
	})
	gateway := backend.NewGateway(backend.GatewayOpts{
		SimpleTimeout:   time.Duration(cfg.Timeouts.SimpleSec) * time.Second,
		FullScanTimeout: time.Duration(cfg.Timeouts.FullScanSec) * time.Second,
	})

	runner := pipeline.NewRunner(source, gateway, store)
	return &app{
		cfg:    cfg,
		source: source,
		store:  store,
		runner: runner,
		coord:  pipeline.NewCoordinator(runner, cfg.Batch.Workers),
		notifier: notify.New(notify.Opts{
			BotToken: os.Getenv("SLACK_BOT_TOKEN"),
			Channel:  cfg.Notify.SlackChannel,
		}),
	}, nil
}

// requestDefaults seeds a pipeline request from the configured backend
// defaults. Flags override individual fields afterwards.
func (a *app) requestDefaults() pipeline.Request {
	return pipeline.Request{
		Namespace:     "default",
		Kubeconfig:    a.cfg.Kubeconfig,
		AnalysisMode:  a.cfg.Backend.Mode,
		Provider:      a.cfg.Backend.Provider,
		Model:         a.cfg.Backend.Model,
		APIBaseURL:    a.cfg.Backend.APIBaseURL,
		MaxIterations: a.cfg.Backend.MaxIterations,
		ReduceConfig:  &a.cfg.Reduce,
	}
}

// watchRequests expands the configured watch targets into pipeline
// requests.
func (a *app) watchRequests() ([]pipeline.Request, error) {
	if len(a.cfg.Watch.Components) == 0 {
		return nil, fmt.Errorf("watch.components is empty; nothing to analyze")
	}
	requests := make([]pipeline.Request, 0, len(a.cfg.Watch.Components))
	for _, target := range a.cfg.Watch.Components {
		req := a.requestDefaults()
		req.ComponentType = target.ComponentType
		req.ComponentName = target.ComponentName
		if target.Namespace != "" {
			req.Namespace = target.Namespace
		}
		requests = append(requests, req)
	}
	return requests, nil
}
