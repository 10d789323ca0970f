// Command hakuna-bridge polls the Hakuna time-tracking API and exposes the
// user's timer and overtime/vacation balances to a home automation host.
//
// It offers:
//   - REST API and Server-Sent Events for the current snapshot
//   - start / stop / cancel actions on the remote timer
//   - mDNS advertisement of the API
//   - an interactive console
//   - protocol capture files for hakuna-log
//
// Usage:
//
//	hakuna-bridge [flags]
//
// Flags:
//
//	-config string      Configuration file (.yaml, .yml or .toml)
//	-listen string      HTTP listen address (overrides http.listen)
//	-log-level string   Log level: debug, info, warn, error
//	-log-format string  Log format: text, json
//	-capture string     Protocol capture file (overrides log.capture_file)
//	-discover           Advertise the API via mDNS
//	-browse             List bridges on the network and exit
//	-interactive        Start the interactive console
//	-version            Show version information
//
// The API token is read from api.token or HAKUNA_API_TOKEN.
//
// Examples:
//
//	# Run with a config file
//	hakuna-bridge -config /etc/hakuna/bridge.yaml
//
//	# Token from the environment, console attached
//	HAKUNA_API_TOKEN=... hakuna-bridge -interactive
//
//	# Capture every API exchange for later analysis
//	hakuna-bridge -config bridge.toml -capture bridge.hlog
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/hakuna-bridge/hakuna-go/cmd/hakuna-bridge/interactive"
	"github.com/hakuna-bridge/hakuna-go/pkg/config"
	"github.com/hakuna-bridge/hakuna-go/pkg/coordinator"
	"github.com/hakuna-bridge/hakuna-go/pkg/discovery"
	"github.com/hakuna-bridge/hakuna-go/pkg/hakuna"
	"github.com/hakuna-bridge/hakuna-go/pkg/log"
	"github.com/hakuna-bridge/hakuna-go/pkg/version"
)

// Build information - set at build time via ldflags
var (
	BuildDate = "dev"
	GitCommit = "unknown"
)

// traceLimit bounds the events kept for the console's trace command.
const traceLimit = 500

var (
	configPath  = flag.String("config", "", "Configuration file (.yaml, .yml or .toml)")
	listen      = flag.String("listen", "", "HTTP listen address (overrides http.listen)")
	logLevel    = flag.String("log-level", "", "Log level: debug, info, warn, error")
	logFormat   = flag.String("log-format", "", "Log format: text, json")
	captureFile = flag.String("capture", "", "Protocol capture file (overrides log.capture_file)")
	discover    = flag.Bool("discover", false, "Advertise the API via mDNS")
	browse      = flag.Bool("browse", false, "List bridges on the network and exit")
	interact    = flag.Bool("interactive", false, "Start the interactive console")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if *showVersion {
		fmt.Printf("hakuna-bridge %s (API %s, built %s, commit %s)\n",
			version.Current, version.APIVersion, BuildDate, GitCommit)
		return 0
	}

	if *browse {
		return runBrowse()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration:\n%v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The console owns the terminal once it exists; logs go through its
	// writer from then on.
	var (
		console *interactive.Console
		trace   *log.MemoryLogger
		logOut  = &redirectWriter{w: os.Stderr}
	)
	if *interact {
		trace = log.NewMemoryLogger(traceLimit)
	}

	level, _ := cfg.SlogLevel()
	logger := newLogger(logOut, cfg.Log.Format, level)

	capture, closeCapture, err := newCapture(cfg, trace, logger, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeCapture()

	coord, err := newCoordinator(cfg, capture, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer coord.Close()

	if *interact {
		console, err = interactive.New(coord, trace)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		logOut.Redirect(console.Stdout())
	}

	logger.Info("hakuna bridge starting",
		"version", version.Current,
		"api", cfg.API.BaseURL,
		"interval", cfg.Polling.Interval.Duration)

	if err := checkToken(ctx, coord, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if _, err := coord.StartPolling(ctx); err != nil {
		logger.Warn("initial refresh failed", "error", err)
	}

	srv := NewServer(coord, ServerConfig{
		Listen:    cfg.HTTP.Listen,
		Version:   version.Current,
		KeepAlive: 30 * time.Second,
		Logger:    logger,
	})
	ln, err := srv.Listen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()
	logger.Info("HTTP API listening", "addr", ln.Addr().String(), "path", APIPath)

	var advertiser *discovery.Advertiser
	if cfg.Discovery.Enabled || *discover {
		advertiser = discovery.NewAdvertiser(discovery.AdvertiserConfig{})
		info := bridgeInfo(cfg, ln.Addr())
		if err := advertiser.Advertise(ctx, info); err != nil {
			logger.Warn("mDNS advertisement failed", "error", err)
			advertiser = nil
		} else {
			logger.Info("advertising via mDNS", "instance", info.Instance, "service", discovery.ServiceType, "port", info.Port)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if console != nil {
		go console.Run(runCtx, cancel)
	}

	code := 0
	select {
	case <-runCtx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			logger.Error("HTTP server failed", "error", err)
			code = 1
		}
	}

	if advertiser != nil {
		_ = advertiser.Stop()
	}
	// Close first so open event streams end before the server drains.
	_ = coord.Close()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", "error", err)
	}
	return code
}

func applyFlags(cfg *config.Config) {
	if *listen != "" {
		cfg.HTTP.Listen = *listen
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *captureFile != "" {
		cfg.Log.CaptureFile = *captureFile
	}
}

// redirectWriter forwards writes to a replaceable writer.
type redirectWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (r *redirectWriter) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.w.Write(p)
}

// Redirect sends later writes to w.
func (r *redirectWriter) Redirect(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w = w
}

func newLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newCapture combines the configured capture sinks. The returned close
// function flushes the capture file.
func newCapture(cfg *config.Config, trace *log.MemoryLogger, logger *slog.Logger, level slog.Level) (log.Logger, func(), error) {
	var (
		loggers []log.Logger
		file    *log.FileLogger
	)
	if cfg.Log.CaptureFile != "" {
		var err error
		file, err = log.NewFileLogger(cfg.Log.CaptureFile)
		if err != nil {
			return nil, nil, fmt.Errorf("capture file: %w", err)
		}
		loggers = append(loggers, file)
	}
	if trace != nil {
		loggers = append(loggers, trace)
	}
	if level <= slog.LevelDebug {
		loggers = append(loggers, log.NewSlogAdapter(logger))
	}

	closeFn := func() {
		if file != nil {
			if err := file.Close(); err != nil {
				logger.Warn("closing capture file", "error", err)
				return
			}
			logger.Info("capture file written", "path", cfg.Log.CaptureFile, "events", file.Written())
		}
	}

	switch len(loggers) {
	case 0:
		return nil, closeFn, nil
	case 1:
		return loggers[0], closeFn, nil
	default:
		return log.NewMultiLogger(loggers...), closeFn, nil
	}
}

func newCoordinator(cfg *config.Config, capture log.Logger, logger *slog.Logger) (*coordinator.Coordinator, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	opts.ProtocolLogger = capture
	opts.Logger = logger
	opts.ErrorSink = coordinator.SinkFuncs{
		OnSoftFailure: func(err error) {
			logger.Warn("refresh failed", "outcome", hakuna.Outcome(err), "retry_after", coordinator.RetryAfter(err))
		},
		OnReauthRequired: func(err error) {
			logger.Error("Hakuna rejected the API token; update it and reconfigure", "error", err)
		},
	}

	coord, err := coordinator.New(cfg.Settings(), opts)
	if err != nil {
		return nil, err
	}
	coord.OnHealthChange(func(from, to coordinator.Health) {
		logger.Info("health changed", "from", from, "to", to)
	})
	return coord, nil
}

// checkToken pings the API once. A rejected token is fatal; anything else
// is left to the regular refresh cycle.
func checkToken(ctx context.Context, coord *coordinator.Coordinator, logger *slog.Logger) error {
	pingCtx, cancel := context.WithTimeout(ctx, hakuna.DefaultTimeout)
	defer cancel()
	err := coord.Client().Ping(pingCtx)
	switch {
	case err == nil:
		logger.Debug("API token accepted")
		return nil
	case errors.Is(err, hakuna.ErrAuth):
		return fmt.Errorf("API token rejected: %w", err)
	default:
		logger.Warn("token check failed, continuing", "error", err)
		return nil
	}
}

func bridgeInfo(cfg *config.Config, addr net.Addr) discovery.BridgeInfo {
	info := discovery.BridgeInfo{
		Instance: cfg.Discovery.Instance,
		Version:  version.Current,
		Path:     APIPath,
	}
	if tcp, ok := addr.(*net.TCPAddr); ok {
		info.Port = uint16(tcp.Port)
	}
	if u, err := url.Parse(cfg.API.BaseURL); err == nil {
		info.Upstream = u.Host
	}
	if info.Instance == "" {
		info.Instance = defaultInstance()
	}
	return info
}

func defaultInstance() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "hakuna-bridge"
	}
	host, _, _ = strings.Cut(host, ".")
	name := "hakuna-bridge-" + host
	if len(name) > discovery.MaxInstanceNameLen {
		name = name[:discovery.MaxInstanceNameLen]
	}
	return name
}

func runBrowse() int {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	services, err := discovery.Browse(ctx, discovery.BrowserConfig{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: browse: %v\n", err)
		return 1
	}
	found := 0
	for svc := range services {
		found++
		addr := svc.Host
		if len(svc.Addresses) > 0 {
			addr = svc.Addresses[0]
		}
		fmt.Printf("%s\thttp://%s%s\tversion %s\tupstream %s\n",
			svc.InstanceName, net.JoinHostPort(addr, fmt.Sprint(svc.Port)), svc.Path, svc.Version, svc.Upstream)
	}
	if found == 0 {
		fmt.Println("No bridges found")
	}
	return 0
}
