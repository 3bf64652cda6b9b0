// Package main is the entry point for the depth aggregation engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/fd1az/depth-aggregator/business/depth/app"
	"github.com/fd1az/depth-aggregator/business/depth/bus"
	"github.com/fd1az/depth-aggregator/business/depth/infra/binance"
	"github.com/fd1az/depth-aggregator/business/depth/infra/bitstamp"
	"github.com/fd1az/depth-aggregator/business/depth/infra/console"
	"github.com/fd1az/depth-aggregator/business/depth/publisher"
	"github.com/fd1az/depth-aggregator/internal/apm"
	"github.com/fd1az/depth-aggregator/internal/config"
	"github.com/fd1az/depth-aggregator/internal/health"
	"github.com/fd1az/depth-aggregator/internal/httpclient"
	"github.com/fd1az/depth-aggregator/internal/logger"
	"github.com/fd1az/depth-aggregator/internal/metrics"
	"github.com/fd1az/depth-aggregator/internal/supervisor"
	"github.com/fd1az/depth-aggregator/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("depth-aggregator %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	tuiMode := !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	var log logger.LoggerInterface
	if tuiMode {
		log = logger.New(io.Discard, logLevel, cfg.App.Name, nil)
	} else {
		log = logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
		log.Info(ctx, "starting depth aggregation engine",
			"version", version,
			"environment", cfg.App.Environment,
			"trading_pair", cfg.App.TradingPair,
		)
	}

	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(apm.ZipkinProvider, log))
		log.Info(ctx, "tracing initialized", "provider", "zipkin", "endpoint", cfg.Telemetry.OTLPEndpoint)

		metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		)

		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	healthServer := health.NewServer(8081, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", 8081)
	}
	defer healthServer.Stop(ctx)

	eventBus := bus.New(cfg.Bus.Capacity)
	agg := app.New()
	pub := publisher.New(agg, cfg.Publisher.Interval)

	rest, err := httpclient.NewInstrumentedClient()
	if err != nil {
		return fmt.Errorf("failed to create REST fallback client: %w", err)
	}

	binanceCfg := binance.Config{
		WebSocketURL: cfg.Binance.WebSocketURL,
		RESTBaseURL:  cfg.Binance.RESTBaseURL,
		Symbol:       cfg.App.BinanceSymbol(),
		DepthSpeedMs: cfg.Binance.DepthSpeedMs,
		QtyDecimals:  cfg.Binance.QtyDecimals,
		StaleTimeout: cfg.Binance.StaleTimeout,
	}
	bitstampCfg := bitstamp.Config{
		WebSocketURL: cfg.Bitstamp.WebSocketURL,
		ChannelPair:  cfg.App.BitstampChannelSuffix(),
		QtyDecimals:  cfg.Bitstamp.QtyDecimals,
	}
	if tuiMode {
		binanceCfg.OnStatus = func(connected bool) {
			ui.Send(ui.ConnectionStatusMsg{Name: "binance", Connected: connected})
		}
		bitstampCfg.OnStatus = func(connected bool) {
			ui.Send(ui.ConnectionStatusMsg{Name: "bitstamp", Connected: connected})
		}
		log = newTUILogger(log)
	}

	binanceAdapter := binance.New(binanceCfg, eventBus, log, rest)
	bitstampAdapter := bitstamp.New(bitstampCfg, eventBus, log)

	adapters := map[string]supervisor.Adapter{
		"binance":  binanceAdapter,
		"bitstamp": bitstampAdapter,
	}

	super := supervisor.New(eventBus, agg, pub, adapters, log, healthServer)
	sink := make(chan publisher.Snapshot, 1)

	if tuiMode {
		return runTUI(ctx, super, sink)
	}

	reporter := console.NewReporter()
	reporter.Start(ctx)
	defer reporter.Stop()
	return runCLI(ctx, super, sink, reporter, log)
}

// runTUI starts the supervisor in the background, bridges Snapshot Publisher
// ticks onto the running Bubble Tea program, and blocks on the program until
// the user quits or ctx is cancelled.
func runTUI(ctx context.Context, super *supervisor.Supervisor, sink chan publisher.Snapshot) error {
	program := tea.NewProgram(ui.New(), tea.WithAltScreen())
	ui.Program = program

	done := make(chan struct{})
	go func() {
		super.Run(ctx, sink)
		close(done)
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				program.Send(tea.Quit())
				return
			case snap, ok := <-sink:
				if !ok {
					return
				}
				ui.Send(ui.SnapshotMsg{Snapshot: snap})
			}
		}
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	<-done
	return nil
}

func runCLI(ctx context.Context, super *supervisor.Supervisor, sink chan publisher.Snapshot, reporter *console.Reporter, log logger.LoggerInterface) error {
	log.Info(ctx, "all components started, aggregating depth")

	done := make(chan struct{})
	go func() {
		super.Run(ctx, sink)
		close(done)
	}()

	reporter.Run(ctx, sink)
	<-done

	log.Info(ctx, "shutdown complete")
	return nil
}
