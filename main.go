package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smazurov/doorlight/cmd"
	"github.com/smazurov/doorlight/internal/api"
	"github.com/smazurov/doorlight/internal/config"
	"github.com/smazurov/doorlight/internal/events"
	"github.com/smazurov/doorlight/internal/led"
	"github.com/smazurov/doorlight/internal/logging"
	"github.com/smazurov/doorlight/internal/relay"
	"github.com/smazurov/doorlight/internal/systemd"
	"github.com/smazurov/doorlight/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"doorlight.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Indicator settings
	IndicatorDriver    string `help:"Indicator output driver (auto, periph, rpio, sysfs, noop)" default:"auto" toml:"indicator.driver" env:"INDICATOR_DRIVER"`
	IndicatorPin       string `help:"Indicator pin or on-board LED name" default:"GPIO2" toml:"indicator.pin" env:"INDICATOR_PIN"`
	IndicatorActiveLow bool   `help:"Indicator lights when driven low" default:"false" toml:"indicator.active_low" env:"INDICATOR_ACTIVE_LOW"`
	IndicatorCapacity  int    `help:"Indicator action queue depth" default:"8" toml:"indicator.capacity" env:"INDICATOR_CAPACITY"`
	IndicatorTickMs    int    `help:"Indicator scheduler tick in milliseconds" default:"10" toml:"indicator.tick_ms" env:"INDICATOR_TICK_MS"`

	// Relay (door sensor) settings
	RelayEnabled  bool   `help:"Watch the door relay input" default:"true" toml:"relay.enabled" env:"RELAY_ENABLED"`
	RelayPin      string `help:"Door relay input pin" default:"GPIO20" toml:"relay.pin" env:"RELAY_PIN"`
	RelaySettleMs int    `help:"Minimum time between door events in milliseconds" default:"500" toml:"relay.settle_ms" env:"RELAY_SETTLE_MS"`
	RelayPollMs   int    `help:"Edge wait timeout in milliseconds" default:"1000" toml:"relay.poll_ms" env:"RELAY_POLL_MS"`

	// Metrics settings
	MetricsEnabled bool `help:"Serve Prometheus metrics on /metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`

	// Logging settings
	LoggingLevel  string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:   opts.LoggingLevel,
			Format:  opts.LoggingFormat,
			Modules: config.LoadLoggingConfig(opts.Config).Modules,
		})
		logger := logging.GetLogger("main")

		var d *daemon
		hooks.OnStart(func() {
			logger.Info("Starting doorlight", "version", version.Short(), "config", opts.Config)
			d = newDaemon(opts, logger)
			if err := d.run(); err != nil {
				logger.Error("Failed to start HTTP server", "error", err)
				d.stop()
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			if d != nil {
				d.stop()
			}
		})
	})

	cli.Root().Use = "doorlight"
	cli.Root().Version = version.Short()
	cli.Root().AddCommand(cmd.CreateBlinkCmd())
	cli.Root().AddCommand(cmd.CreatePinsCmd())

	cli.Run()
}

// daemon holds everything the root command runs.
type daemon struct {
	opts      *Options
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	eventBus  *events.Bus
	indicator led.Indicator
	manager   *led.Manager
	monitor   *relay.Monitor
	watcher   *config.Watcher[led.Patterns]
	server    *api.Server
}

func newDaemon(opts *Options, logger *slog.Logger) *daemon {
	ctx, cancel := context.WithCancel(context.Background())
	d := &daemon{
		opts:     opts,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		eventBus: events.New(),
	}

	cfg := led.DefaultConfig()
	cfg.Capacity = opts.IndicatorCapacity
	cfg.TickQuantum = time.Duration(opts.IndicatorTickMs) * time.Millisecond
	registry := led.NewRegistry(cfg, led.WithLogger(logging.GetLogger("led")))
	d.indicator = d.startIndicator(registry)

	d.manager = led.NewManager(d.indicator, d.eventBus, logging.GetLogger("led"))
	patterns, err := config.LoadPatterns(opts.Config)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("No config file, using default LED patterns", "config", opts.Config)
	case err != nil:
		logger.Warn("Invalid LED patterns, using defaults", "error", err)
	default:
		d.manager.SetPatterns(patterns)
	}

	if opts.RelayEnabled {
		d.monitor = d.startRelay()
	}

	apiOpts := &api.Options{
		AuthUsername:    opts.AuthUsername,
		AuthPassword:    opts.AuthPassword,
		Indicator:       d.indicator,
		IndicatorConfig: registry.Config(),
		Status:          d.manager,
		EventBus:        d.eventBus,
		History:         logging.GetHistory(),
	}
	if d.monitor != nil {
		apiOpts.Door = d.monitor
		apiOpts.DoorPin = opts.RelayPin
	}
	if opts.MetricsEnabled {
		apiOpts.PrometheusHandler = promhttp.Handler()
	}
	d.server = api.NewServer(apiOpts)

	d.watcher = config.NewConfigWatcher(opts.Config, config.LoadPatterns, logging.GetLogger("config"),
		config.WithErrorHandler[led.Patterns](func(err error) {
			logger.Warn("Ignoring invalid config reload", "error", err)
		}))
	d.watcher.OnReload(d.reload)

	return d
}

// startIndicator opens the configured pin, falling back to a logging-only
// pin so status tracking and the API keep working without LED hardware.
func (d *daemon) startIndicator(registry *led.Registry) led.Indicator {
	ledLogger := logging.GetLogger("led")
	activeLevel := !d.opts.IndicatorActiveLow

	pin, err := openPin(d.opts.IndicatorDriver, d.opts.IndicatorPin, ledLogger)
	if err == nil {
		var h led.Handle
		if h, err = registry.Init(pin, activeLevel); err == nil {
			d.logger.Info("Indicator started", "driver", d.opts.IndicatorDriver, "pin", pin.Name(), "active_low", d.opts.IndicatorActiveLow)
			return registry.Bind(h)
		}
	}

	d.logger.Error("Indicator unavailable, continuing without LED output",
		"driver", d.opts.IndicatorDriver, "pin", d.opts.IndicatorPin, "error", err)
	return fallbackIndicator(registry, d.opts.IndicatorPin, activeLevel, d.logger)
}

var openPin = led.OpenPin

// fallbackIndicator binds a noop pin. A failure here leaves the returned
// indicator inert, which the API reports as missing.
func fallbackIndicator(registry *led.Registry, name string, activeLevel bool, logger *slog.Logger) led.Indicator {
	pin, err := openPin(led.DriverNoop, name, logging.GetLogger("led"))
	if err != nil {
		logger.Error("Noop indicator unavailable", "pin", name, "error", err)
		return registry.Bind(led.Handle{})
	}
	h, err := registry.Init(pin, activeLevel)
	if err != nil {
		logger.Error("Noop indicator failed to start", "pin", name, "error", err)
	}
	return registry.Bind(h)
}

func (d *daemon) startRelay() *relay.Monitor {
	input, err := relay.OpenInput(d.opts.RelayPin)
	if err != nil {
		d.logger.Error("Door relay unavailable", "pin", d.opts.RelayPin, "error", err)
		return nil
	}
	return relay.NewMonitor(input, d.eventBus, relay.Config{
		Settle:       time.Duration(d.opts.RelaySettleMs) * time.Millisecond,
		PollInterval: time.Duration(d.opts.RelayPollMs) * time.Millisecond,
	}, logging.GetLogger("relay"))
}

// reload applies an edited config file: the pattern table and log levels.
// Structural settings (pins, port) need a restart.
func (d *daemon) reload(patterns led.Patterns) {
	d.manager.SetPatterns(patterns)

	levels := config.LoadLoggingConfig(d.opts.Config)
	logging.UpdateLevels(levels)
	d.logger.Info("Config reloaded", "statuses", len(patterns), "level", levels.Level)
}

// run starts the background workers and blocks serving HTTP.
func (d *daemon) run() error {
	d.manager.Start()

	if d.monitor != nil {
		go func() {
			if err := d.monitor.Run(d.ctx); err != nil && !errors.Is(err, context.Canceled) {
				d.logger.Error("Door relay monitor stopped", "error", err)
			}
		}()
	}

	if err := d.watcher.Start(); err != nil {
		d.logger.Warn("Config hot-reload disabled", "error", err)
	}

	go systemd.Watchdog(d.ctx, logging.GetLogger("systemd"))
	systemd.Ready(logging.GetLogger("systemd"))
	systemd.Status(logging.GetLogger("systemd"), "listening on "+d.opts.Port)

	if err := d.server.Start(d.opts.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (d *daemon) stop() {
	d.logger.Info("Shutting down")
	systemd.Stopping(logging.GetLogger("systemd"))

	if err := d.server.Stop(); err != nil {
		d.logger.Error("Error stopping HTTP server", "error", err)
	}
	if err := d.watcher.Stop(); err != nil {
		d.logger.Warn("Error stopping config watcher", "error", err)
	}
	d.cancel()
	d.manager.Stop()
	d.indicator.Close()
}
