package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/adwizard"
	"github.com/aretw0/adwizard/internal/config"
	"github.com/aretw0/adwizard/pkg/adapters/gateway"
	"github.com/aretw0/adwizard/pkg/adapters/generator"
	httpAdapter "github.com/aretw0/adwizard/pkg/adapters/http"
	"github.com/aretw0/adwizard/pkg/adapters/loam"
	"github.com/aretw0/adwizard/pkg/catalog"
	"github.com/aretw0/adwizard/pkg/adapters/process"
	"github.com/aretw0/adwizard/pkg/notify"
	"github.com/aretw0/adwizard/pkg/observability"
	"github.com/aretw0/adwizard/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Stack is a fully wired Wizard plus the adapters that front-ends share with it.
type Stack struct {
	Wizard      *adwizard.Wizard
	Catalog     ports.TemplateCatalog
	Streams     *httpAdapter.StreamManager
	Gateway     *gateway.Client
	Registry    *prometheus.Registry
	Persistence *Persistence
}

// Close stops generation runs and releases the store.
func (s *Stack) Close() error {
	werr := s.Wizard.Close()
	if err := s.Persistence.Close(); err != nil {
		return err
	}
	return werr
}

// OpenCatalog picks the template source: built-in when path is empty, a Loam
// repository when path is a directory, a templates.yaml file otherwise.
func OpenCatalog(path string) (ports.TemplateCatalog, error) {
	if path == "" {
		return catalog.Builtin(), nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	if info.IsDir() {
		return loam.Open(path)
	}
	return catalog.FromFile(path)
}

// NewGenerator returns the local command generator when cfg.Command is set,
// otherwise the HTTP generator configured by cfg on top of the
// ADWIZARD_GENERATOR_* environment.
func NewGenerator(cfg config.UpstreamConfig) ports.Generator {
	if len(cfg.Command) > 0 && !cfg.Mock {
		return process.NewGenerator(cfg.Command[0], cfg.Command[1:])
	}
	g := generator.NewHTTPFromEnv(cfg.Timeout)
	if cfg.URL != "" {
		g.BaseURL = cfg.URL
	}
	if cfg.APIKey != "" {
		g.APIKey = cfg.APIKey
	}
	g.Mock = g.Mock || cfg.Mock
	return g
}

// NewGateway returns the LLM gateway client configured by cfg on top of the
// ADWIZARD_GATEWAY_* environment.
func NewGateway(cfg config.UpstreamConfig) *gateway.Client {
	c := gateway.NewClientFromEnv(cfg.Timeout)
	if cfg.URL != "" {
		c.BaseURL = cfg.URL
	}
	if cfg.APIKey != "" {
		c.APIKey = cfg.APIKey
	}
	if cfg.Model != "" {
		c.Model = cfg.Model
	}
	c.Mock = c.Mock || cfg.Mock
	return c
}

// BuildStack wires every adapter selected by cfg into a Wizard.
// Notifications go to the log and to the session's live event streams.
func BuildStack(cfg config.Config, logger *slog.Logger, extra ...adwizard.Option) (*Stack, error) {
	cat, err := OpenCatalog(cfg.Templates)
	if err != nil {
		return nil, err
	}

	persistence, err := OpenPersistence(cfg.Store)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	streams := httpAdapter.NewStreamManager(logger)
	gw := NewGateway(cfg.Gateway)

	opts := []adwizard.Option{
		adwizard.WithLogger(logger),
		adwizard.WithCatalog(cat),
		adwizard.WithStore(persistence.Store),
		adwizard.WithKeyValueStore(persistence.KV),
		adwizard.WithGenerator(NewGenerator(cfg.Generator)),
		adwizard.WithAnalyzer(gw),
		adwizard.WithNotifier(notify.Multi{
			notify.LogNotifier{Logger: logger},
			notify.StreamNotifier{Publisher: streams},
		}),
		adwizard.WithGenerationTimeout(cfg.GenerationTimeout),
		adwizard.WithLifecycleHooks(observability.LoggingHooks(logger)),
		adwizard.WithLifecycleHooks(metrics.Hooks()),
		adwizard.WithChangeListener(streams.Listener()),
	}
	if persistence.Locker != nil {
		opts = append(opts, adwizard.WithLocker(persistence.Locker))
	}
	opts = append(opts, extra...)

	w, err := adwizard.New(opts...)
	if err != nil {
		_ = persistence.Close()
		return nil, fmt.Errorf("error initializing wizard: %w", err)
	}

	return &Stack{
		Wizard:      w,
		Catalog:     cat,
		Streams:     streams,
		Gateway:     gw,
		Registry:    registry,
		Persistence: persistence,
	}, nil
}
