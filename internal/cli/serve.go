package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tcschm/puppeteer-mcp/internal/config"
	"github.com/tcschm/puppeteer-mcp/internal/logger"
	"github.com/tcschm/puppeteer-mcp/internal/mcpserver"
	"github.com/tcschm/puppeteer-mcp/internal/metrics"
	"github.com/tcschm/puppeteer-mcp/internal/observability"
	"github.com/tcschm/puppeteer-mcp/internal/tracing"
	"github.com/tcschm/puppeteer-mcp/pkg/browser"
	"github.com/tcschm/puppeteer-mcp/pkg/browsertools"
	"github.com/tcschm/puppeteer-mcp/pkg/toolexecutor"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP on stdin/stdout (the default)",
	Long: `Serve the browser tools over MCP on stdin/stdout until input ends or
SIGINT/SIGTERM arrives. The browser is launched on the first tool call.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, serveIO{in: os.Stdin, out: os.Stdout}, browser.NewRodLauncher(), config.NewEnvironment())
}

// loadConfig reads the config file and applies command line overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Enabled = metricsAddr != ""
		cfg.Metrics.Addr = metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type serveIO struct {
	in  io.Reader
	out io.Writer
	log io.Writer
}

// serve wires the server together and runs it until input ends or ctx is
// done. The browser session is always closed before returning.
func serve(ctx context.Context, cfg *config.Config, sio serveIO, launcher browser.Launcher, env browser.EnvSource) error {
	lg, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		File:      cfg.Logging.File,
		Output:    sio.log,
		Redaction: cfg.Logging.Redaction,
		MaxSize:   cfg.Logging.MaxSize,
		MaxAge:    cfg.Logging.MaxAge,
		Compress:  cfg.Logging.Compress,
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer lg.Close()

	if cfg.Tracing.Enabled {
		if err := tracing.Init(cfg.Tracing.ServiceName, version); err != nil {
			return fmt.Errorf("failed to set up tracing: %w", err)
		}
		defer func() {
			if err := tracing.Shutdown(context.Background()); err != nil {
				log.Warn().Err(err).Msg("Failed to flush traces")
			}
		}()
	}

	m := metrics.NewMetrics()
	if cfg.Metrics.Enabled {
		stopMetrics, err := serveMetrics(cfg.Metrics.Addr, m)
		if err != nil {
			return err
		}
		defer stopMetrics()
	}

	var audit *observability.AuditLogger
	if cfg.Audit.Enabled {
		audit, err = observability.OpenAuditLogger(cfg.Audit.File)
		if err != nil {
			return fmt.Errorf("failed to open audit log: %w", err)
		}
		defer audit.Close()
	}
	recorder := observability.NewRecorder(m, audit)

	srv := mcpserver.New(sio.out, mcpserver.WithServerInfo("puppeteer-mcp", version))

	controller := browser.NewController(launcher, env,
		browser.WithObserver(srv),
		browser.WithRecorder(recorder),
	)

	registry, err := toolexecutor.NewRegistry(browsertools.All()...)
	if err != nil {
		return fmt.Errorf("failed to register tools: %w", err)
	}

	dispatcher := toolexecutor.NewDispatcher(registry, controller, toolexecutor.NewArtifactStore(),
		toolexecutor.WithNotifier(srv),
		toolexecutor.WithCallRecorder(recorder),
	)
	srv.Bind(dispatcher, controller)

	log.Info().
		Int("tools", registry.Len()).
		Bool("in_container", env.InContainer()).
		Msg("Starting puppeteer-mcp")

	serveErr := srv.Serve(ctx, sio.in)

	closeCtx, cancel := context.WithTimeout(tracing.Detach(ctx), shutdownTimeout)
	defer cancel()
	if err := controller.Close(closeCtx); err != nil {
		log.Warn().Err(err).Msg("Failed to close browser on shutdown")
	}

	if serveErr != nil {
		log.Error().Err(serveErr).Msg("MCP transport failed")
		return serveErr
	}
	log.Info().Msg("Shut down")
	return nil
}

// serveMetrics exposes m on addr and returns a function that stops it
func serveMetrics(addr string, m *metrics.Metrics) (func(), error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to serve metrics on %s: %w", addr, err)
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server stopped")
		}
	}()

	log.Info().Str("addr", addr).Msg("Serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to stop metrics server")
		}
	}, nil
}
