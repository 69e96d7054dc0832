package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"traffic-lights/config"
	"traffic-lights/controller"
	"traffic-lights/logging"
	"traffic-lights/poll"
)

type runOptions struct {
	configPath  string
	serialPort  string
	lightDriver string
	metricsAddr string
	debug       bool
	stdin       bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the controller until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts, cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd, cfg, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "Path to configuration file")
	flags.StringVar(&opts.serialPort, "serial-port", "", "Serial port for command input")
	flags.StringVar(&opts.lightDriver, "light-driver", "", "Output driver (tower, sysfs, memory)")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Listen address for /metrics (empty disables)")
	flags.BoolVar(&opts.debug, "debug", false, "Start with verbose logging enabled")
	flags.BoolVar(&opts.stdin, "stdin", false, "Read commands from standard input instead of a serial port")
	return cmd
}

// loadConfig resolves the configuration with precedence flags > env > file.
func loadConfig(opts runOptions, flags *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}
	applyFlags(&cfg, opts, flags)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func applyFlags(cfg *config.Config, opts runOptions, flags *pflag.FlagSet) {
	if flags.Changed("serial-port") {
		cfg.Serial.Port = opts.serialPort
	}
	if flags.Changed("light-driver") {
		cfg.Lights.Driver = opts.lightDriver
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = opts.metricsAddr
	}
	if flags.Changed("debug") {
		cfg.Debug = opts.debug
	}
	if opts.stdin {
		cfg.Serial.Enabled = false
	}
}

func run(cmd *cobra.Command, cfg config.Config, opts runOptions) error {
	logging.Initialize(cfg.Logging)
	logger := logging.GetLogger("main")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var ctrlOpts []controller.Option
	if opts.stdin {
		ctrlOpts = append(ctrlOpts, controller.WithInput(poll.NewReaderSource(cmd.InOrStdin())))
	}
	c, err := controller.New(cfg, ctrlOpts...)
	if err != nil {
		logger.Error("Failed to start controller", "error", err)
		return err
	}

	if _, err := os.Stat(opts.configPath); err == nil {
		w := config.NewWatcher(opts.configPath, 0, logging.GetLogger("config"))
		w.OnReload(func(next config.Config) {
			logging.Reload(next.Logging)
		})
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Warn("Config watcher stopped", "error", err)
			}
		}()
	}

	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Controller failed", "error", err)
		return err
	}
	return nil
}
