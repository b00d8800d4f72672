package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/philiph/xmlsig/internal/adapters/driven/algorithm"
	"github.com/philiph/xmlsig/internal/adapters/driven/c14n"
	"github.com/philiph/xmlsig/internal/adapters/driven/config"
	"github.com/philiph/xmlsig/internal/adapters/driven/metrics"
	"github.com/philiph/xmlsig/internal/adapters/driven/resolver"
	"github.com/philiph/xmlsig/internal/adapters/driven/transform"
	"github.com/philiph/xmlsig/internal/core/ports"
	"github.com/philiph/xmlsig/internal/core/xmldsig"
)

// App holds what the subcommands of one invocation share: the loaded
// settings, the logger and the resources to release afterwards.
type App struct {
	streams  Streams
	opts     *globalOptions
	logger   *zap.Logger
	settings config.Settings

	registry *prometheus.Registry
	closers  []io.Closer
}

func (a *App) setup(ctx context.Context) error {
	a.logger = newLogger(a.streams.Err, a.opts.verbose)
	settings, err := settingsFor(ctx, a.opts.configPath, a.logger)
	if err != nil {
		return err
	}
	if a.opts.insecure {
		settings.Validation.SecureValidation = false
	}
	a.settings = settings
	if settings.Metrics || a.opts.metricsFile != "" {
		a.registry = prometheus.NewRegistry()
	}
	return nil
}

// Logger returns the invocation logger, or a no-op logger before setup.
func (a *App) Logger() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

// Settings returns the effective settings.
func (a *App) Settings() config.Settings { return a.settings }

// Engine builds an engine from the settings. Resolver caches created here
// are released by Close.
func (a *App) Engine(ctx context.Context) (*xmldsig.Engine, error) {
	resolvers, err := a.resolvers(ctx)
	if err != nil {
		return nil, err
	}
	var recorder ports.MetricsRecorder = metrics.NewNoopMetricsRecorder()
	if a.registry != nil {
		recorder = metrics.NewPrometheusMetricsRecorderWithRegistry(a.registry)
	}

	canon := c14n.NewRegistry()
	return xmldsig.New(transform.NewRegistry(canon), algorithm.NewRegistry(), canon,
		xmldsig.WithConfig(a.settings.Validation),
		xmldsig.WithResolvers(resolvers...),
		xmldsig.WithLogger(a.Logger()),
		xmldsig.WithMetricsRecorder(recorder),
	)
}

// resolvers returns the same-document resolver followed by the external
// resolvers the settings enable.
func (a *App) resolvers(ctx context.Context) ([]ports.ResourceResolver, error) {
	rs := a.settings.Resolvers
	ttl, err := rs.CacheDuration()
	if err != nil {
		return nil, err
	}

	out := []ports.ResourceResolver{resolver.NewFragment()}
	var external []ports.ResourceResolver
	if rs.File {
		external = append(external, resolver.NewFile())
	}
	if rs.HTTP {
		var opts []resolver.HTTPOption
		if rs.MaxResourceSize > 0 {
			opts = append(opts, resolver.WithMaxResourceSize(rs.MaxResourceSize))
		}
		external = append(external, resolver.NewHTTP(opts...))
	}
	for _, r := range external {
		if ttl > 0 {
			cached, err := a.cached(ctx, r, ttl)
			if err != nil {
				return nil, err
			}
			r = cached
		}
		out = append(out, r)
	}
	return out, nil
}

func (a *App) cached(ctx context.Context, inner ports.ResourceResolver, ttl time.Duration) (ports.ResourceResolver, error) {
	var opts []resolver.CacheOption
	if size := a.settings.Resolvers.MaxResourceSize; size > 0 {
		opts = append(opts, resolver.WithMaxEntrySize(int(size)))
	}
	c, err := resolver.NewCaching(ctx, inner, ttl, a.Logger(), opts...)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, c)
	return c, nil
}

// Close writes the metrics file, when one was requested, and releases
// resolver caches.
func (a *App) Close() error {
	var errs []error
	if a.registry != nil {
		if a.opts.metricsFile != "" {
			if err := prometheus.WriteToTextfile(a.opts.metricsFile, a.registry); err != nil {
				errs = append(errs, fmt.Errorf("write metrics file: %w", err))
			}
		} else {
			a.logMetrics()
		}
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// logMetrics logs every counter gathered during the run.
func (a *App) logMetrics() {
	families, err := a.registry.Gather()
	if err != nil {
		a.Logger().Warn("gather metrics", zap.Error(err))
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fields := []zap.Field{zap.String("metric", mf.GetName())}
			for _, lp := range m.GetLabel() {
				fields = append(fields, zap.String(lp.GetName(), lp.GetValue()))
			}
			fields = append(fields, zap.Float64("value", m.GetCounter().GetValue()))
			a.Logger().Info("metric", fields...)
		}
	}
}
