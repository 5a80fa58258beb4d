package wire

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/completion"
	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/config"
	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/fileaccess"
	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/fixer"
	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/registrar"
	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/transport"
)

// App holds the wired components.
type App struct {
	Config    *config.Config
	Files     *fileaccess.Accessor
	Client    *completion.Client
	Registry  *prometheus.Registry
	Fixer     *fixer.Service
	HTTP      *transport.HTTPServer
	Registrar *registrar.ToolRegistrar
}

func provideFileAccessor(cfg *config.Config, logger zerolog.Logger) (*fileaccess.Accessor, error) {
	return fileaccess.New(cfg.RootDir, fileaccess.Options{IgnoreFile: cfg.IgnoreFilePath()}, logger)
}

func provideCompletionClient(cfg *config.Config, logger zerolog.Logger) (*completion.Client, func(), error) {
	client, err := completion.New(completion.Options{
		BaseURL:        cfg.BaseURL,
		APIKey:         cfg.APIKey,
		FolderID:       cfg.FolderID,
		ModelURI:       cfg.ModelURI,
		Temperature:    cfg.Temperature,
		MaxTokens:      cfg.MaxTokens,
		ConnectTimeout: cfg.ConnectTimeout.Duration,
		RequestTimeout: cfg.RequestTimeout.Duration,
		IdleTimeout:    cfg.IdleTimeout.Duration,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func provideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func provideMetrics(reg *prometheus.Registry) *fixer.Metrics {
	return fixer.NewMetrics(reg)
}

func provideFixer(cfg *config.Config, files *fileaccess.Accessor, client *completion.Client, metrics *fixer.Metrics, logger zerolog.Logger) *fixer.Service {
	return fixer.New(files, client, cfg.MaxChars, metrics, logger)
}

func provideHTTPServer(cfg *config.Config, svc *fixer.Service, reg *prometheus.Registry, logger zerolog.Logger) *transport.HTTPServer {
	httpCfg := transport.HTTPConfig{
		Addr:        cfg.HTTPAddr(),
		CORSOrigins: cfg.CORSOrigins,
		// Leave headroom over the completion budget for reading and encoding.
		WriteTimeout: cfg.RequestTimeout.Duration + cfg.ConnectTimeout.Duration,
	}
	if cfg.MetricsEnabled {
		httpCfg.Gatherer = reg
	}
	return transport.NewHTTPServer(svc, httpCfg, logger)
}

func provideToolRegistrar(svc *fixer.Service, logger zerolog.Logger) *registrar.ToolRegistrar {
	return registrar.NewToolRegistrar(svc, logger)
}
