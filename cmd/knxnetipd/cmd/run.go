package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hausnet/knxnetip/address"
	"github.com/hausnet/knxnetip/internal/api/monitor"
	"github.com/hausnet/knxnetip/internal/infrastructure/config"
	"github.com/hausnet/knxnetip/internal/infrastructure/database"
	"github.com/hausnet/knxnetip/internal/infrastructure/influxdb"
	"github.com/hausnet/knxnetip/internal/infrastructure/logging"
	"github.com/hausnet/knxnetip/internal/infrastructure/mqtt"
	"github.com/hausnet/knxnetip/telegram"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the knxnetipd daemon",
	Long:  "Connects to the KNX bus, and starts whichever of the MQTT bridge, InfluxDB historian, and monitor API are enabled in the configuration.",
	RunE:  runDaemon,
}

func init() {
	RootCmd.AddCommand(runCmd)
}

// busClient is the surface routing.Client and tunnel.Client both satisfy;
// the daemon wires against this instead of either concrete type so the
// choice of transport is a config setting, not a code path.
type busClient interface {
	Subscribe(id any) <-chan telegram.Telegram
	Unsubscribe(id any)
	GetGroupAddresses() map[string]string
	AddGroupAddress(ga address.GroupAddress, dptName string)
	RemoveGroupAddress(ga address.GroupAddress)
	ReadGroupAddress(ctx context.Context, ga address.GroupAddress) (any, error)
	WriteGroupAddress(ga address.GroupAddress, value any) error
	Close() error
}

func runDaemon(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return run(ctx)
}

// run wires every daemon component and blocks until ctx is cancelled. It is
// separated from runDaemon so tests can drive it with a cancellable context
// instead of relying on OS signals.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting knxnetipd", "version", version, "commit", commit, "build_date", date)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "site", cfg.Site.ID)

	db, err := database.Open(database.Config{
		Path:        cfg.Cache.StatePath,
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		return fmt.Errorf("opening cache state database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing cache state database", "error", closeErr)
		}
	}()

	if err := db.EnsureCacheStateTable(ctx); err != nil {
		return fmt.Errorf("preparing cache state table: %w", err)
	}

	addressCache, err := loadCache(ctx, db, cfg)
	if err != nil {
		return err
	}
	log.Info("address cache loaded", "addresses", len(addressCache.ConfiguredAddresses()))

	bus, err := dialBus(cfg, log)
	if err != nil {
		return fmt.Errorf("connecting to bus: %w", err)
	}
	defer func() {
		if closeErr := bus.Close(); closeErr != nil {
			log.Error("error closing bus client", "error", closeErr)
		}
	}()
	log.Info("bus client connected")

	if cfg.Cache.HydrateOnStart {
		hydrateCtx, hydrateCancel := context.WithTimeout(ctx, hydrateTimeout(cfg))
		addressCache.HydrateOnStart(hydrateCtx, bus, addressCache.ConfiguredAddresses(), log.Logger)
		hydrateCancel()
		log.Info("cache hydration complete")
	}

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to mqtt: %w", err)
		}
		defer func() {
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing mqtt client", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)

		bridge := mqtt.NewBridge(mqttClient, bus, cfg.MQTT.Broker.ClientID, log.Logger)
		if err := bridge.Start(ctx); err != nil {
			return fmt.Errorf("starting mqtt bridge: %w", err)
		}
		defer bridge.Close()
		log.Info("mqtt bridge started", "client_id", cfg.MQTT.Broker.ClientID)
	} else {
		log.Info("mqtt disabled")
	}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to influxdb: %w", err)
		}
		defer func() {
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing influxdb client", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("influxdb write error", "error", err)
		})
		log.Info("influxdb historian connected", "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("influxdb disabled")
	}

	if cfg.Monitor.Enabled {
		monitorServer, err := monitor.New(monitor.Deps{
			Config:  cfg.Monitor,
			Logger:  log,
			Cache:   addressCache,
			Bus:     bus,
			Version: version,
		})
		if err != nil {
			return fmt.Errorf("creating monitor api: %w", err)
		}
		if err := monitorServer.Start(ctx); err != nil {
			return fmt.Errorf("starting monitor api: %w", err)
		}
		defer func() {
			if closeErr := monitorServer.Close(); closeErr != nil {
				log.Error("error closing monitor api", "error", closeErr)
			}
		}()
		log.Info("monitor api started", "host", cfg.Monitor.Host, "port", cfg.Monitor.Port)
	} else {
		log.Info("monitor api disabled")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runCacheUpdater(gctx, addressCache, bus, influxClient) })
	if persistInterval := time.Duration(cfg.Cache.PersistEvery) * time.Second; persistInterval > 0 {
		g.Go(func() error { return runCachePersistLoop(gctx, db, addressCache, persistInterval, log) })
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	if err := g.Wait(); err != nil {
		log.Error("background task error", "error", err)
	}

	if err := persistCache(context.Background(), db, addressCache); err != nil {
		log.Error("final cache persist failed", "error", err)
	}

	log.Info("knxnetipd stopped")
	return nil
}

// hydrateTimeout bounds HydrateOnStart proportionally to the number of
// configured addresses, since each is a serial read_group_address round
// trip through the bus client.
func hydrateTimeout(cfg *config.Config) time.Duration {
	perRead := time.Duration(cfg.Cache.ReadTimeout) * time.Millisecond
	if perRead <= 0 {
		perRead = 5 * time.Second
	}
	n := len(cfg.Routing.GroupAddresses)
	if n == 0 {
		n = 1
	}
	return perRead * time.Duration(n)
}
