package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ironsheep/raster-tools-mcp/internal/config"
	"github.com/ironsheep/raster-tools-mcp/internal/engine"
	"github.com/ironsheep/raster-tools-mcp/internal/logging"
	"github.com/ironsheep/raster-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var job string
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("raster-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		case "run":
			if len(os.Args) != 3 {
				fmt.Fprintln(os.Stderr, "Usage: raster-tools-mcp run <job.yaml>")
				os.Exit(2)
			}
			job = os.Args[2]
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
			usage()
			os.Exit(2)
		}
	}

	env, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "raster-tools-mcp: %v\n", err)
		os.Exit(1)
	}

	// stdout is for the MCP protocol
	logger := logging.New(os.Stderr, env.Logging())
	engine.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metrics *engine.Metrics
	if env.MetricsAddr != "" {
		if metrics, err = engine.NewMetrics(prometheus.DefaultRegisterer); err != nil {
			logger.Error("failed to register metrics", slog.String("error", err.Error()))
			os.Exit(1)
		}
		go serveMetrics(env.MetricsAddr, logger)
	}

	if job != "" {
		err = runJob(ctx, job, env, metrics, logger)
	} else {
		logger.Debug("starting server",
			slog.String("version", Version),
			slog.String("built", BuildTime),
			slog.String("commit", GitCommit))
		server.Version = Version
		srv := server.New(
			server.WithEnv(env),
			server.WithLogger(logger),
			server.WithMetrics(metrics),
		)
		err = srv.Run(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("exiting", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runJob executes one filtering job file outside of MCP.
func runJob(ctx context.Context, path string, env *config.Env, metrics *engine.Metrics, logger *slog.Logger) error {
	job, err := config.LoadJob(path)
	if err != nil {
		return err
	}
	unit, err := job.Unit()
	if err != nil {
		return err
	}
	opts, err := job.Options(env)
	if err != nil {
		return err
	}
	if metrics != nil {
		opts = append(opts, engine.WithMetrics(metrics))
	}
	rep, err := engine.Run(ctx, job.Input, job.Output, unit, opts...)
	if err != nil {
		return err
	}
	logger.Info("job done",
		slog.String("output", job.Output),
		slog.Int("items", rep.Items),
		slog.Duration("duration", rep.Duration))
	return nil
}

func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("serving metrics", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server stopped", slog.String("error", err.Error()))
	}
}

func usage() {
	fmt.Println("raster-tools-mcp - MCP server for windowed raster processing")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  raster-tools-mcp               Serve MCP over stdin/stdout")
	fmt.Println("  raster-tools-mcp run <job>     Run a YAML filtering job and exit")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  RASTERTOOLS_MAXWORKERS=N       Default worker count (default: one per CPU)")
	fmt.Println("  RASTERTOOLS_NOTQDM=true        Disable progress logging")
	fmt.Println("  RASTERTOOLS_LOG_LEVEL=debug    debug, info, warn or error")
	fmt.Println("  RASTERTOOLS_LOG_FORMAT=json    text or json")
	fmt.Println("  RASTERTOOLS_METRICS_ADDR=:9090 Serve Prometheus metrics on /metrics")
	fmt.Println()
	fmt.Println("Configure the server in your MCP client (e.g., Claude Desktop).")
}
