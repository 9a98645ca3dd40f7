// Package app wires the engine with its event buses, metrics sinks,
// evaluation archive and MQTT transport.
package app

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/kilianp07/compstation/api"
	"github.com/kilianp07/compstation/api/evaluations"
	"github.com/kilianp07/compstation/api/stations"
	"github.com/kilianp07/compstation/config"
	"github.com/kilianp07/compstation/core/evallog"
	"github.com/kilianp07/compstation/core/events"
	"github.com/kilianp07/compstation/core/factory"
	coremetrics "github.com/kilianp07/compstation/core/metrics"
	"github.com/kilianp07/compstation/core/metrics/fuel"
	coremon "github.com/kilianp07/compstation/core/monitoring"
	"github.com/kilianp07/compstation/infra/logger"
	inframetrics "github.com/kilianp07/compstation/infra/metrics"
	"github.com/kilianp07/compstation/infra/monitoring"
	"github.com/kilianp07/compstation/infra/mqtt"
	"github.com/kilianp07/compstation/internal/batch"
	"github.com/kilianp07/compstation/internal/eventbus"
	"github.com/kilianp07/compstation/jobs/fuelkpi"
)

const (
	busBuffer       = 1024
	collectorDrain  = 5 * time.Second
	monitoringFlush = 2 * time.Second
)

// App owns the long-lived components shared by every command.
type App struct {
	Engine *Engine

	cfg       *config.Config
	evals     *eventbus.TypedBus[events.EvaluationEvent]
	batches   *eventbus.TypedBus[events.BatchEvent]
	sink      coremetrics.MetricsSink
	archive   evallog.Store
	collector <-chan struct{}
	stop      context.CancelFunc
	log       logger.Logger
}

// New configures logging and monitoring, loads the stations and starts the
// metrics collector.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := logger.Configure(cfg.Logging); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, err
	}
	coremon.Init(mon)

	eng, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	sink, err := coremetrics.NewMetricsSink(sinkConfigs(cfg.Metrics))
	if err != nil {
		return nil, err
	}
	archive, err := evallog.New(cfg.Archive)
	if err != nil {
		closeSink(sink)
		return nil, fmt.Errorf("archive: %w", err)
	}

	if err := backfillFuel(ctx, sink, archive); err != nil {
		closeSink(sink)
		_ = archive.Close()
		return nil, fmt.Errorf("fuel backfill: %w", err)
	}

	// The collector outlives ctx so that events published while shutting
	// down are still recorded; Close drains it.
	cctx, stop := context.WithCancel(context.WithoutCancel(ctx))
	a := &App{
		Engine:  eng,
		cfg:     cfg,
		evals:   eventbus.NewTypedWithBuffer[events.EvaluationEvent](busBuffer),
		batches: eventbus.NewTypedWithBuffer[events.BatchEvent](busBuffer),
		sink:    sink,
		archive: archive,
		stop:    stop,
		log:     logger.New("app"),
	}
	a.collector = inframetrics.StartEventCollector(cctx, a.evals, a.batches, sink)
	a.log.Infof("loaded %d stations from %s", len(eng.Catalog.IDs()), cfg.StationFile)
	return a, nil
}

// backfillFuel rebuilds an in-memory fuel aggregate from the archive so the
// daily figures survive restarts. Persistent stores are left alone.
func backfillFuel(ctx context.Context, sink coremetrics.MetricsSink, archive evallog.Store) error {
	fs := findFuelSink(sink)
	if fs == nil {
		return nil
	}
	mem, ok := fs.Store().(*fuel.MemoryStore)
	if !ok {
		return nil
	}
	feasible := true
	recs, err := archive.Query(ctx, evallog.Query{Feasible: &feasible})
	if err != nil {
		return err
	}
	n, err := fuelkpi.Backfill(mem, recs)
	if n > 0 {
		logger.New("app").Infof("backfilled %d archived evaluations into the fuel aggregate", n)
	}
	return err
}

// sinkConfigs injects the configured emission factor into fuel sinks that
// do not set their own.
func sinkConfigs(mc coremetrics.Config) []factory.ModuleConfig {
	out := make([]factory.ModuleConfig, len(mc.Sinks))
	for i, s := range mc.Sinks {
		out[i] = s
		if s.Type != "fuel" {
			continue
		}
		conf := maps.Clone(s.Conf)
		if conf == nil {
			conf = map[string]any{}
		}
		if _, ok := conf["emission_factor"]; !ok {
			conf["emission_factor"] = mc.EmissionFactor
		}
		out[i].Conf = conf
	}
	return out
}

// Runner returns a batch runner publishing on the app's buses and writing
// to its archive. A zero workers count keeps the configured value.
func (a *App) Runner(workers int) *batch.Runner {
	bc := a.cfg.Batch
	if workers > 0 {
		bc.Workers = workers
	}
	return batch.NewRunner(a.Engine, a.Engine, bc,
		batch.WithEvents(a.evals),
		batch.WithBatchEvents(a.batches),
		batch.WithArchive(a.archive),
		batch.WithLogger(logger.New("batch")),
	)
}

// Evaluate runs a single job as a one-job batch.
func (a *App) Evaluate(ctx context.Context, job batch.Job) (batch.Outcome, error) {
	outcomes, _, err := a.Runner(1).Run(ctx, []batch.Job{job})
	if err != nil {
		return batch.Outcome{}, err
	}
	return outcomes[0], nil
}

// History queries the evaluation archive.
func (a *App) History(ctx context.Context, q evallog.Query) ([]evallog.Record, error) {
	return a.archive.Query(ctx, q)
}

// Handler serves the Prometheus registry on /metrics and the HTTP API
// under /api.
func (a *App) Handler() http.Handler {
	mux := inframetrics.Handler(prometheus.DefaultGatherer)
	guard := a.apiGuard()
	mux.Handle("GET /api/stations", guard(stations.NewListHandler(a.Engine.Catalog)))
	mux.Handle("GET /api/evaluations", guard(evaluations.NewHistoryHandler(a.archive)))
	mux.Handle("POST /api/evaluate", guard(evaluations.NewEvaluateHandler(a)))
	if fs := findFuelSink(a.sink); fs != nil {
		mux.Handle("GET /api/stations/{id}/fuel", guard(stations.NewFuelHandler(fs.Store(), fs.EmissionFactor())))
	}
	return mux
}

// apiGuard wraps API handlers with authentication and, when configured, a
// per-client rate limit. The limiter is shared by every route.
func (a *App) apiGuard() func(http.Handler) http.Handler {
	ac := a.cfg.API
	var limiter *api.IPRateLimiter
	if ac.RateLimit > 0 {
		limiter = api.NewIPRateLimiter(rate.Limit(ac.RateLimit), ac.Burst)
	}
	return func(h http.Handler) http.Handler {
		if ac.JWTSecret != "" {
			h = api.JWT([]byte(ac.JWTSecret), h)
		} else {
			h = api.Bearer(ac.Token, h)
		}
		if limiter != nil {
			h = limiter.Middleware(h)
		}
		return h
	}
}

func findFuelSink(s coremetrics.MetricsSink) *inframetrics.FuelSink {
	switch v := s.(type) {
	case *inframetrics.FuelSink:
		return v
	case *coremetrics.MultiSink:
		for _, inner := range v.Sinks {
			if fs := findFuelSink(inner); fs != nil {
				return fs
			}
		}
	}
	return nil
}

// Serve answers MQTT evaluation requests and, when a port is configured,
// serves Handler until ctx is canceled.
func (a *App) Serve(ctx context.Context) error {
	if port := a.cfg.Metrics.PrometheusPort; port != "" {
		go func() {
			if err := inframetrics.Serve(ctx, ":"+port, a.Handler()); err != nil {
				a.log.Errorf("http server: %v", err)
			}
		}()
	}
	svc, err := mqtt.NewService(a.cfg.MQTT, a.Engine, a.Engine,
		mqtt.WithEvents(a.evals),
		mqtt.WithArchive(a.archive),
	)
	if err != nil {
		return fmt.Errorf("mqtt service: %w", err)
	}
	a.log.Infof("serving requests on %s", a.cfg.MQTT.TopicPrefix)
	<-ctx.Done()
	svc.Close()
	return nil
}

// Close drains the collector and releases the sinks and the archive.
func (a *App) Close() error {
	a.evals.Close()
	a.batches.Close()
	select {
	case <-a.collector:
	case <-time.After(collectorDrain):
		a.log.Warnf("metrics collector did not drain within %s", collectorDrain)
	}
	a.stop()
	if n := a.evals.Dropped(); n > 0 {
		a.log.Warnf("dropped %d evaluation events", n)
	}
	closeSink(a.sink)
	err := a.archive.Close()
	coremon.Flush(monitoringFlush)
	return err
}

func closeSink(s coremetrics.MetricsSink) {
	if c, ok := s.(interface{ Close() }); ok {
		c.Close()
	}
}
