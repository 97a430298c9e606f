package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/pheonix/internal/model"
	"github.com/nao1215/pheonix/internal/normalize"
	"github.com/nao1215/pheonix/internal/provider"
)

// NormalizerName is the provider name used for input that fails
// normalization.
const NormalizerName = "normalizer"

const (
	// DefaultTimeout bounds each provider call.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency is the number of providers run at once.
	DefaultConcurrency = 8
)

// Quota limits how often a provider may be called.
type Quota interface {
	// Take records one call to provider and reports whether the call is
	// allowed. An error means the quota could not be consulted.
	Take(ctx context.Context, provider string) (bool, error)
}

// Observer receives a notification for every provider call and analysis.
type Observer interface {
	ObserveProvider(provider string, status model.Status, elapsed time.Duration)
	ObserveAnalysis(kind model.Kind, elapsed time.Duration)
}

// Aggregator fans an identifier out to the providers of its kind.
type Aggregator struct {
	registry    *Registry
	timeout     time.Duration
	concurrency int
	quota       Quota
	observer    Observer
	logger      *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithTimeout sets the per-provider timeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithConcurrency sets the number of providers run at once.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithQuota sets the call quota.
func WithQuota(q Quota) Option {
	return func(a *Aggregator) {
		a.quota = q
	}
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(a *Aggregator) {
		a.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// New creates an Aggregator over registry.
func New(registry *Registry, opts ...Option) *Aggregator {
	a := &Aggregator{
		registry:    registry,
		timeout:     DefaultTimeout,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Registry returns the provider registry.
func (a *Aggregator) Registry() *Registry {
	return a.registry
}

// ProviderNames returns the names of the providers registered for kind.
func (a *Aggregator) ProviderNames(kind model.Kind) []string {
	return a.registry.Names(kind)
}

// Analyze normalizes raw as kind and runs the enabled providers of kind.
// An empty enabled list runs every provider. Analyze never returns an
// error: every failure is recorded in the report.
func (a *Aggregator) Analyze(ctx context.Context, kind model.Kind, raw string, enabled []string) *model.AggregateReport {
	report := model.NewAggregateReport(kind, raw)
	defer func() {
		report.FinishedAt = time.Now()
		if a.observer != nil {
			a.observer.ObserveAnalysis(kind, report.Duration())
		}
	}()

	id, err := normalize.Normalize(raw, kind)
	if err != nil {
		a.logger.Debug("input failed normalization", "kind", kind, "error", err)
		report.Results = append(report.Results, model.Failure(NormalizerName, model.StatusInvalidFormat, err))
		return report
	}
	report.Identifier = id

	// A number that parses but is not valid stops the analysis.
	if id.Kind == model.KindPhone && !id.Phone.Valid {
		a.logger.Debug("phone number is not valid", "reason", id.Phone.Reason)
		report.Results = append(report.Results, provider.Validity(id.Phone))
		return report
	}

	providers := a.selectProviders(kind, enabled)
	report.Results = a.run(ctx, id, providers)
	return report
}

// AnalyzeAll analyzes every input with at most concurrency analyses at
// once. Reports are returned in input order.
func (a *Aggregator) AnalyzeAll(ctx context.Context, kind model.Kind, inputs []string, enabled []string, concurrency int) []*model.AggregateReport {
	reports := make([]*model.AggregateReport, len(inputs))
	if concurrency <= 0 {
		concurrency = 1
	}

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, input := range inputs {
		g.Go(func() error {
			a.logger.Info("analyzing", "kind", kind, "index", i+1, "total", len(inputs))
			reports[i] = a.Analyze(ctx, kind, input, enabled)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // Tasks never return errors

	return reports
}

// selectProviders filters the registry by enabled names, keeping the
// declared order. Unknown names are logged and ignored.
func (a *Aggregator) selectProviders(kind model.Kind, enabled []string) []provider.Provider {
	all := a.registry.Providers(kind)
	if len(enabled) == 0 {
		return all
	}

	names := a.registry.Names(kind)
	for _, name := range enabled {
		if !slices.Contains(names, name) {
			a.logger.Warn("ignoring unknown provider", "provider", name, "kind", kind)
		}
	}

	selected := make([]provider.Provider, 0, len(all))
	for _, p := range all {
		if slices.Contains(enabled, p.Name()) {
			selected = append(selected, p)
		}
	}
	return selected
}

// run calls every provider concurrently and stores each result at the
// provider's index.
func (a *Aggregator) run(ctx context.Context, id *model.Identifier, providers []provider.Provider) []model.ProviderResult {
	results := make([]model.ProviderResult, len(providers))

	// No shared cancellation: one provider's failure must not cancel another.
	var g errgroup.Group
	g.SetLimit(a.concurrency)

	for i, p := range providers {
		g.Go(func() error {
			results[i] = a.call(ctx, p, id)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // Tasks never return errors

	return results
}

// call runs one provider under the quota and the per-provider timeout.
func (a *Aggregator) call(ctx context.Context, p provider.Provider, id *model.Identifier) model.ProviderResult {
	name := p.Name()
	start := time.Now()

	res, ok := a.checkQuota(ctx, name)
	if ok {
		res = a.invoke(ctx, p, id)
	}

	res.Provider = name
	res = res.WithElapsed(time.Since(start))

	a.logger.Debug("provider finished",
		"provider", name,
		"status", res.Status,
		"elapsed", res.Elapsed,
	)
	if a.observer != nil {
		a.observer.ObserveProvider(name, res.Status, res.Elapsed)
	}
	return res
}

// checkQuota returns ok=false with a RateLimited result when the quota
// refuses the call. A quota that cannot be consulted allows the call.
func (a *Aggregator) checkQuota(ctx context.Context, name string) (model.ProviderResult, bool) {
	if a.quota == nil {
		return model.ProviderResult{}, true
	}
	allowed, err := a.quota.Take(ctx, name)
	if err != nil {
		a.logger.Warn("usage quota unavailable", "provider", name, "error", err)
		return model.ProviderResult{}, true
	}
	if !allowed {
		return model.Failuref(name, model.StatusRateLimited, "daily limit reached for %s", name), false
	}
	return model.ProviderResult{}, true
}

var errTimeout = errors.New("provider timed out")

// invoke calls the provider in its own goroutine so that an adapter that
// ignores its context still cannot hold up the report.
func (a *Aggregator) invoke(parent context.Context, p provider.Provider, id *model.Identifier) model.ProviderResult {
	ctx, cancel := context.WithTimeout(parent, a.timeout)
	defer cancel()

	done := make(chan model.ProviderResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				a.logger.Error("provider panicked", "provider", p.Name(), "panic", r)
				done <- model.Failuref(p.Name(), model.StatusNetworkError, "panic: %v", r)
			}
		}()
		done <- p.Query(ctx, id)
	}()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		err := ctx.Err()
		if parent.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s", errTimeout, a.timeout)
		}
		return model.Failure(p.Name(), model.StatusNetworkError, err)
	}
}
