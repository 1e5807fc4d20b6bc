package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-drift/arbor/pkg/config"
	"github.com/go-drift/arbor/pkg/core"
	"github.com/go-drift/arbor/pkg/errors"
	"github.com/go-drift/arbor/pkg/loader"
	"github.com/go-drift/arbor/pkg/stylesheet"
)

// session is the engine state shared by the document commands: resolved
// configuration, logger, arena and the optional metrics endpoint.
type session struct {
	cfg     *config.Resolved
	logger  *slog.Logger
	arena   *core.Arena
	metrics *http.Server
}

// openSession resolves configuration, installs logging and error handling,
// loads the configured style sheets plus extra, and starts the metrics
// endpoint when one is configured.
func openSession(extra []string) (*session, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if globals.logLevel != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(globals.logLevel)); err != nil {
			return nil, fmt.Errorf("invalid --log-level: %w", err)
		}
	}
	if globals.metricsAddr != "" {
		cfg.MetricsAddr = globals.metricsAddr
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	errors.SetHandler(&errors.LogHandler{Logger: logger, Verbose: cfg.Verbose})

	styles := core.NewStyleRegistry()
	for _, path := range append(cfg.Styles, extra...) {
		defined, err := stylesheet.LoadFile(path, styles)
		if err != nil {
			return nil, fmt.Errorf("failed to load style sheet: %w", err)
		}
		logger.Debug("style sheet loaded", slog.String("path", path), slog.Int("styles", len(defined)))
	}

	factories := core.NewFactories()
	if err := core.RegisterDefaults(factories); err != nil {
		return nil, err
	}

	s := &session{
		cfg:    cfg,
		logger: logger,
		arena: core.NewArena(
			core.WithLogger(logger),
			core.WithStyles(styles),
			core.WithFactories(factories),
			core.WithWindow(cfg.Window),
		),
	}
	if cfg.MetricsAddr != "" {
		s.metrics = serveMetrics(cfg.MetricsAddr, logger)
	}
	return s, nil
}

func resolveConfig() (*config.Resolved, error) {
	if globals.configPath != "" {
		cfg, err := config.Load(globals.configPath)
		if err != nil {
			return nil, err
		}
		return cfg.Resolve(filepath.Dir(globals.configPath))
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := config.FindProjectRoot(cwd)
	if err != nil {
		root = cwd
	}
	return config.Resolve(root)
}

func serveMetrics(addr string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("serving metrics", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	return srv
}

// load builds the document at path and renders it.
func (s *session) load(path string) (*core.Element, error) {
	root, err := loader.LoadFile(s.arena, path)
	if err != nil {
		return nil, err
	}
	if err := s.arena.Render(root); err != nil {
		return root, fmt.Errorf("render failed: %w", err)
	}
	return root, nil
}

func (s *session) Close() {
	errors.SetHandler(nil)
	if s.metrics == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.metrics.Shutdown(ctx); err != nil {
		s.logger.Warn("metrics server shutdown", slog.Any("error", err))
	}
}

// docFlags holds the flags shared by the document commands.
type docFlags struct {
	styles []string
	rest   []string
}

// parseDocFlags extracts repeated --style FILE flags and returns the
// remaining arguments; unknown flags are returned to the caller.
func parseDocFlags(args []string) (docFlags, error) {
	var f docFlags
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--style":
			if i+1 >= len(args) {
				return f, fmt.Errorf("--style requires a file path")
			}
			f.styles = append(f.styles, args[i+1])
			i++
		default:
			f.rest = append(f.rest, args[i])
		}
	}
	return f, nil
}
