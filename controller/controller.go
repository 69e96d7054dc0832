// Package controller assembles the command pipeline and runs it.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"traffic-lights/buttons"
	"traffic-lights/config"
	"traffic-lights/dispatch"
	"traffic-lights/heartbeat"
	"traffic-lights/lights"
	"traffic-lights/logging"
	"traffic-lights/metrics"
	"traffic-lights/poll"
	"traffic-lights/queue"
	"traffic-lights/telemetry"
	"traffic-lights/timer"
	"traffic-lights/types"
	"traffic-lights/work"
)

// Option customises a Controller.
type Option func(*Controller)

// WithDriver replaces the driver selected by the configuration.
func WithDriver(d lights.Driver) Option {
	return func(c *Controller) { c.driver = d }
}

// WithInput reads commands from src instead of the configured serial port.
func WithInput(src poll.ByteSource) Option {
	return func(c *Controller) { c.source = src }
}

// Controller owns every component of one running instance.
type Controller struct {
	cfg    config.Config
	node   string
	logger *slog.Logger

	debug      *types.DebugFlag
	queue      *queue.Queue
	work       *work.Queue
	bus        *telemetry.Bus
	aggregator *telemetry.Aggregator
	timer      *timer.Scheduler
	driver     lights.Driver
	resources  []*dispatch.Resource
	dispatcher *dispatch.Dispatcher
	buttons    *buttons.Bank
	edges      *buttons.SysfsEdges
	source     poll.ByteSource
	input      *poll.Input
	metrics    *metrics.Metrics
}

// New builds the pipeline described by cfg. Nothing runs until Run.
func New(cfg config.Config, opts ...Option) (*Controller, error) {
	c := &Controller{
		cfg:    cfg,
		node:   cfg.NodeName(),
		logger: logging.GetLogger("controller"),
		debug:  types.NewDebugFlag(cfg.Debug),
	}
	for _, opt := range opts {
		opt(c)
	}

	queueLogger := logging.GetLogger("queue")
	c.queue = queue.New(cfg.Queue.Limit, logging.Verbose(queueLogger, c.debug))
	c.work = work.NewQueue(cfg.Work.Depth, logging.GetLogger("work"))

	c.bus = telemetry.NewBus()
	c.aggregator = telemetry.NewAggregator(c.bus, c.debug, logging.GetLogger("telemetry"))

	initial, err := types.ParseColor(cfg.Timer.InitialColor)
	if err != nil {
		return nil, fmt.Errorf("timer: %w", err)
	}
	c.timer = timer.New(initial, c.queue, c.work, c.debug, logging.GetLogger("timer"))

	if c.driver == nil {
		if c.driver, err = newDriver(cfg); err != nil {
			return nil, err
		}
	}
	wiring, err := wiringFor(cfg)
	if err != nil {
		return nil, err
	}

	gate := dispatch.NewGate()
	lightsLogger := logging.GetLogger("lights")
	for _, color := range types.Colors {
		c.resources = append(c.resources, dispatch.NewResource(
			color, wiring.Pins(color), c.driver, cfg.OnDuration(), gate, c.bus, lightsLogger))
	}
	c.dispatcher = dispatch.New(dispatch.Config{
		Source:    c.queue,
		Gate:      gate,
		Resources: c.resources,
		Timer:     c.timer,
		Debug:     c.debug,
		Events:    c.bus,
		Logger:    logging.GetLogger("dispatch"),
	})

	c.metrics = metrics.New(c.node)
	c.dispatcher.OnDispatch(c.metrics.ObserveCommand)
	c.aggregator.OnTotal(c.metrics.ObserveTotal)
	c.metrics.WatchQueue(c.queue.Stats)
	c.metrics.WatchTimer(c.timer.Delay, c.timer.Armed)
	c.metrics.WatchWork(c.work.Refused)

	buttonLogger := logging.GetLogger("buttons")
	c.buttons = buttons.NewBank(c.queue, c.work, c.debug, buttonLogger)
	if cfg.Buttons.Enabled {
		interval := time.Duration(cfg.Buttons.PollIntervalMS) * time.Millisecond
		c.edges = buttons.NewSysfsEdges(interval, buttonLogger)
		if err := c.buttons.Attach(c.edges, cfg.ButtonLines()); err != nil {
			return nil, err
		}
	}

	if c.source == nil && cfg.Serial.Enabled {
		if c.source, err = poll.OpenSerial(cfg.Serial.Port, cfg.Serial.Baud); err != nil {
			return nil, fmt.Errorf("serial input: %w", err)
		}
	}
	if c.source != nil {
		interval := time.Duration(cfg.Serial.PollIntervalMS) * time.Millisecond
		c.input = poll.NewInput(c.source, c.queue, interval, c.debug, logging.GetLogger("serial"))
		c.input.OnRejected(c.metrics.ObserveRejected)
	}
	return c, nil
}

func newDriver(cfg config.Config) (lights.Driver, error) {
	switch cfg.Lights.Driver {
	case config.DriverTower:
		return lights.NewTowerLight(cfg.Lights.Port, cfg.Lights.Baud, logging.GetLogger("lights"))
	case config.DriverSysfs:
		return lights.NewSysfsLight(cfg.SysfsLEDs()), nil
	case config.DriverMemory:
		return lights.NewMemory(logging.GetLogger("lights")), nil
	default:
		return nil, fmt.Errorf("%w: unknown light driver %q", config.ErrInvalid, cfg.Lights.Driver)
	}
}

// wiringFor defaults the tower driver to its dedicated yellow lamp.
func wiringFor(cfg config.Config) (lights.Wiring, error) {
	if cfg.Lights.Wiring == "" && cfg.Lights.Driver == config.DriverTower {
		return lights.TowerWiring(), nil
	}
	return lights.WiringByName(cfg.Lights.Wiring)
}

// Status returns the current heartbeat snapshot.
func (c *Controller) Status() heartbeat.Status {
	stats := c.queue.Stats()
	return heartbeat.Status{
		Node:        c.node,
		QueueDepth:  stats.Depth,
		Dropped:     stats.Dropped,
		TimerTarget: c.timer.Target(),
		TimerDelay:  c.timer.Delay(),
		TimerArmed:  c.timer.Armed(),
		Debug:       c.debug.Enabled(),
	}
}

// Run starts every task and blocks until ctx is done. All outputs are off
// when it returns.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("Starting traffic lights",
		"node", c.node,
		"driver", c.cfg.Lights.Driver,
		"on_duration", c.cfg.OnDuration(),
		"serial", c.input != nil,
		"buttons", c.edges != nil,
		"debug", c.debug.Enabled())

	c.clearOutputs()

	c.aggregator.Start()
	defer c.aggregator.Stop()
	unsubscribe := c.metrics.Attach(c.bus)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	spawn := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	spawn(func() { c.work.Run(ctx) })
	for _, r := range c.resources {
		spawn(func() { r.Run(ctx) })
	}
	if c.edges != nil {
		spawn(func() { c.edges.Run(ctx) })
	}
	if c.input != nil {
		spawn(func() {
			if err := c.input.Run(ctx); err != nil {
				c.logger.Error("Serial input stopped", "error", err)
			}
		})
	}
	if interval := c.cfg.HeartbeatInterval(); interval > 0 {
		spawn(func() { heartbeat.Run(ctx, interval, c.Status, logging.GetLogger("heartbeat")) })
	}
	if addr := c.cfg.Metrics.Addr; addr != "" {
		spawn(func() {
			if err := metrics.Serve(ctx, addr, c.metrics.Registry, logging.GetLogger("metrics")); err != nil {
				c.logger.Error("Metrics server stopped", "error", err)
			}
		})
	}

	err := c.dispatcher.Run(ctx)

	cancel()
	c.queue.Close()
	c.timer.Stop()
	wg.Wait()
	if c.source != nil {
		if cerr := c.source.Close(); cerr != nil {
			c.logger.Warn("Failed to close input", "error", cerr)
		}
	}
	c.clearOutputs()
	c.logger.Info("Traffic lights stopped")
	return err
}

func (c *Controller) clearOutputs() {
	if err := c.driver.Clear(); err != nil {
		c.logger.Warn("Failed to clear outputs", "error", err)
	}
}
