package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/klabast/wb-services/route-reservations/internal/app"
)

type serveOptions struct {
	configFile string
	port       int
	dataFile   string
	weekday    string
	logFormat  string
	debug      bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the reservation server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}

	opts.addFlags(cmd)
	return cmd
}

func (o *serveOptions) addFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.configFile, "config", "c", "", "Config file (.hcl or .yaml)")
	f.IntVarP(&o.port, "port", "p", app.DefaultPort, "Port to listen on")
	f.StringVar(&o.dataFile, "data", "", "Reservation data file (default ./reservations.json)")
	f.StringVar(&o.weekday, "weekday", "", "Weekday reservations must fall on (default friday)")
	f.StringVar(&o.logFormat, "log-format", "", "Log format: text or json")
	f.BoolVar(&o.debug, "debug", false, "Enable debug logging")
}

// resolve layers defaults, config file, environment and explicit flags
func (o serveOptions) resolve(cmd *cobra.Command) (app.Config, error) {
	cfg := app.DefaultConfig()

	if o.configFile != "" {
		if err := app.LoadConfigFile(o.configFile, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = o.port
	}
	if o.dataFile != "" {
		cfg.DataFile = o.dataFile
	}
	if o.weekday != "" {
		cfg.Weekday = o.weekday
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
	if o.debug {
		cfg.Debug = true
	}
	return cfg, nil
}

func runServer(ctx context.Context, cfg app.Config) error {
	logger := app.NewLogger(os.Stderr, cfg.LogFormat, cfg.Debug)

	rules, err := cfg.Validate()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	secret, err := app.LoadAdminSecret(cfg, logger)
	if err != nil {
		return err
	}

	store := app.NewStore(cfg.DataFile, logger)
	broadcaster := app.NewBroadcaster(cfg.SubscriberBuf, logger)
	svc := app.NewService(rules, store, broadcaster, logger)
	server := app.NewServer(svc, secret, cfg.AllowOrigin, logger)

	logger.Info("starting route reservations",
		"url", fmt.Sprintf("http://localhost:%d", cfg.Port),
		"data_file", store.Path(),
		"weekday", rules.Weekday.String(),
		"route_types", rules.RouteTypes)

	return server.Run(ctx, fmt.Sprintf(":%d", cfg.Port))
}
