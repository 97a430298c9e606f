package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/proxy"

	"github.com/nao1215/pheonix/internal/aggregate"
	"github.com/nao1215/pheonix/internal/config"
	"github.com/nao1215/pheonix/internal/metrics"
	"github.com/nao1215/pheonix/internal/provider"
	"github.com/nao1215/pheonix/internal/sites"
	"github.com/nao1215/pheonix/internal/tor"
	"github.com/nao1215/pheonix/internal/usage"
)

// mxTorReason is reported by the mx provider while traffic goes through Tor.
const mxTorReason = "MX lookups are disabled while routing through Tor"

// app holds everything an analysis needs. Close releases it.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	aggregator *aggregate.Aggregator
	store      *usage.Store
	metrics    *metrics.Metrics

	embedded *tor.EmbeddedTor
	geolite  *provider.GeoLite
}

// newApp wires transport, providers, the usage store and metrics from cfg.
// Metrics are registered with reg.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close() //nolint:errcheck // the setup error is returned instead
		}
	}()

	httpClient, dialer, err := a.setupTransport(ctx)
	if err != nil {
		return nil, err
	}

	set, err := a.buildProviders(httpClient, dialer)
	if err != nil {
		return nil, err
	}

	if a.store, err = openStore(cfg); err != nil {
		return nil, err
	}
	logger.Debug("database opened", "path", a.store.Path())

	a.metrics = metrics.New(reg)
	a.aggregator = aggregate.New(aggregate.NewDefaultRegistry(set),
		aggregate.WithTimeout(cfg.Timeout),
		aggregate.WithConcurrency(cfg.Concurrency),
		aggregate.WithQuota(a.store),
		aggregate.WithObserver(a.metrics),
		aggregate.WithLogger(logger),
	)
	return a, nil
}

// setupTransport returns the HTTP client and WHOIS dialer for cfg. Without
// Tor the client dials directly and the dialer is nil.
func (a *app) setupTransport(ctx context.Context) (*http.Client, proxy.Dialer, error) {
	cfg := a.cfg
	switch {
	case cfg.UseTor:
		client, err := a.startEmbeddedTor(ctx)
		if err != nil {
			return nil, nil, err
		}
		return client.NewHTTPClient(), client.Dialer(), nil
	case cfg.TorProxyAddress != "":
		client, err := tor.NewClient(cfg.TorProxyAddress, cfg.Timeout)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Tor client: %w", err)
		}
		if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
			return nil, nil, fmt.Errorf("tor proxy check failed: %w (make sure Tor is running at %s)",
				status.Error(), cfg.TorProxyAddress)
		}
		a.logger.Info("Tor proxy connection verified", "address", cfg.TorProxyAddress)
		return client.NewHTTPClient(), client.Dialer(), nil
	default:
		return &http.Client{Timeout: cfg.Timeout}, nil, nil
	}
}

// startEmbeddedTor starts an embedded Tor daemon using tornago.
func (a *app) startEmbeddedTor(ctx context.Context) (*tor.Client, error) {
	a.logger.Warn("starting embedded Tor daemon, this may take 1-3 minutes")

	a.embedded = tor.NewEmbeddedTor(tor.WithStartupTimeout(a.cfg.TorStartupTimeout))
	if err := a.embedded.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start embedded Tor: %w", err)
	}
	a.logger.Info("embedded Tor daemon started",
		"socksAddr", a.embedded.SocksAddr(),
		"controlAddr", a.embedded.ControlAddr(),
	)

	client, err := a.embedded.NewClient(a.cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create Tor client: %w", err)
	}
	if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
		return nil, fmt.Errorf("embedded Tor proxy check failed: %w", status.Error())
	}
	return client, nil
}

// buildProviders creates one instance of every provider. Providers whose
// keys or databases are missing are still registered and report
// Unconfigured.
func (a *app) buildProviders(httpClient *http.Client, dialer proxy.Dialer) (aggregate.Set, error) {
	cfg := a.cfg
	file := cfg.File
	keys := file.ResolvedKeys()

	catalog, err := sites.Load(file.Catalog)
	if err != nil {
		return aggregate.Set{}, err
	}
	checker := sites.NewChecker(httpClient,
		sites.WithRate(cfg.RateLimit),
		sites.WithLogger(a.logger),
	)

	// Each API gets its own limiter.
	api := func() *provider.HTTPClient {
		return provider.NewHTTPClient(httpClient,
			provider.WithRateLimit(cfg.RateLimit),
			provider.WithAgent(cfg.UserAgent),
		)
	}

	whoisOpts := []provider.WhoisOption{provider.WithWhoisTimeout(cfg.Timeout)}
	if dialer != nil {
		whoisOpts = append(whoisOpts, provider.WithWhoisDialer(dialer))
	}

	mxOpts := []provider.MXOption{provider.WithResolver(file.DNS.Resolver)}
	if cfg.TorEnabled() {
		mxOpts = append(mxOpts, provider.WithMXDisabled(mxTorReason))
	}

	a.geolite, err = provider.OpenGeoLite(file.GeoLite.City, file.GeoLite.ASN)
	if err != nil {
		return aggregate.Set{}, err
	}

	return aggregate.Set{
		Phone:     provider.NewPhone(),
		Geocode:   provider.NewGeocode(api(), file.Endpoints.OpenCage, keys.OpenCage),
		Presence:  provider.NewPresence(checker, catalog),
		Links:     provider.NewLinks(),
		Whois:     provider.NewWhois(whoisOpts...),
		Breach:    provider.NewBreach(api(), file.Endpoints.HIBP, keys.HIBP),
		MX:        provider.NewMX(mxOpts...),
		Usernames: provider.NewUsernames(checker, catalog),
		IPGeo:     provider.NewIPGeo(api(), file.Endpoints.Geoapify, keys.Geoapify),
		GeoLite:   a.geolite,
	}, nil
}

// Close releases the database, the GeoLite readers and the Tor daemon.
func (a *app) Close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.geolite != nil {
		errs = append(errs, a.geolite.Close())
	}
	if a.embedded != nil {
		a.logger.Info("stopping embedded Tor daemon")
		errs = append(errs, a.embedded.Stop())
	}
	return errors.Join(errs...)
}
