package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/hausnet/knxnetip/address"
	"github.com/hausnet/knxnetip/cache"
	"github.com/hausnet/knxnetip/internal/infrastructure/config"
	"github.com/hausnet/knxnetip/internal/infrastructure/database"
	"github.com/hausnet/knxnetip/internal/infrastructure/influxdb"
	"github.com/hausnet/knxnetip/internal/infrastructure/logging"
	"github.com/hausnet/knxnetip/routing"
	"github.com/hausnet/knxnetip/telegram"
	"github.com/hausnet/knxnetip/tunnel"
)

// loadCache builds the address cache from the configured group addresses
// and restores any previously persisted values from the cache state
// database, so a restart does not briefly forget every last-known value.
func loadCache(ctx context.Context, db *database.DB, cfg *config.Config) (*cache.Cache, error) {
	c, err := cache.New(cfg.Routing.GroupAddresses)
	if err != nil {
		return nil, fmt.Errorf("building address cache: %w", err)
	}

	records, err := db.LoadCacheState(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading persisted cache state: %w", err)
	}

	snapshots := make([]cache.Snapshot, 0, len(records))
	for _, r := range records {
		ga, err := address.ParseGroupAddress(r.Address)
		if err != nil {
			continue
		}
		var value any
		if err := json.Unmarshal(r.ValueJSON, &value); err != nil {
			continue
		}
		snapshots = append(snapshots, cache.Snapshot{Address: ga, Value: value, UpdatedAt: r.UpdatedAt})
	}
	c.LoadHydrationState(snapshots)

	return c, nil
}

// dialBus connects whichever bus transport is enabled in the configuration.
// Tunnelling is preferred when both are enabled, since a gateway that
// supports both usually only has the bandwidth for one active client.
func dialBus(cfg *config.Config, log *logging.Logger) (busClient, error) {
	switch {
	case cfg.Tunnel.Enabled:
		return dialTunnel(cfg, log)
	case cfg.Routing.Enabled:
		return dialRouting(cfg, log)
	default:
		return nil, fmt.Errorf("no bus transport enabled: set routing.enabled or tunnel.enabled")
	}
}

func dialRouting(cfg *config.Config, log *logging.Logger) (busClient, error) {
	source, err := address.ParseIndividualAddress(cfg.Routing.SourceAddress)
	if err != nil {
		return nil, fmt.Errorf("parsing routing source address: %w", err)
	}

	rc := routing.Config{
		AllowUnknownGPA: cfg.Routing.AllowUnknownGPA,
		GroupAddresses:  cfg.Routing.GroupAddresses,
		SourceAddress:   source,
		ReadTimeout:     time.Duration(cfg.Cache.ReadTimeout) * time.Millisecond,
		Logger:          log.Logger,
		Port:            cfg.Routing.MulticastPort,
	}
	if cfg.Routing.LocalIP != "" {
		rc.LocalIP = net.ParseIP(cfg.Routing.LocalIP)
	}
	if cfg.Routing.MulticastIP != "" {
		rc.MulticastIP = net.ParseIP(cfg.Routing.MulticastIP)
	}

	client, err := routing.Dial(rc)
	if err != nil {
		return nil, fmt.Errorf("dialing routing client: %w", err)
	}
	return client, nil
}

func dialTunnel(cfg *config.Config, log *logging.Logger) (busClient, error) {
	source, err := address.ParseIndividualAddress(cfg.Tunnel.SourceAddress)
	if err != nil {
		return nil, fmt.Errorf("parsing tunnel source address: %w", err)
	}

	gateway, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", cfg.Tunnel.GatewayHost, cfg.Tunnel.GatewayPort))
	if err != nil {
		return nil, fmt.Errorf("resolving tunnel gateway address: %w", err)
	}

	client, err := tunnel.Dial(tunnel.Config{
		GatewayAddr:     gateway,
		AllowUnknownGPA: cfg.Tunnel.AllowUnknownGPA,
		// Group addresses are configured once, under routing, and reused for
		// tunnelling: a site has one address list regardless of which
		// transport reaches the gateway.
		GroupAddresses: cfg.Routing.GroupAddresses,
		SourceAddress:   source,
		ReadTimeout:     time.Duration(cfg.Cache.ReadTimeout) * time.Millisecond,
		Logger:          log.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("dialing tunnel client: %w", err)
	}
	return client, nil
}

// runCacheUpdater mirrors every group_write/group_response telegram into
// the cache and, when an historian is configured, into InfluxDB. One
// subscriber drives both rather than each opening its own, since both
// consumers are cheap and read-only.
func runCacheUpdater(ctx context.Context, c *cache.Cache, bus busClient, influxClient *influxdb.Client) error {
	subID := new(int)
	telegrams := bus.Subscribe(subID)
	defer bus.Unsubscribe(subID)

	for {
		select {
		case t, ok := <-telegrams:
			if !ok {
				return nil
			}
			if t.Kind == telegram.GroupRead {
				continue
			}
			c.RecordReceive(t.Destination, t.Value, time.Now())
			if influxClient != nil {
				dpt, _ := c.DPT(t.Destination)
				influxClient.WriteTelegram(t.Destination.String(), dpt, t.Source.String(), t.Value)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// runCachePersistLoop periodically flushes the cache to the cache state
// database, bounding how much history a crash between flushes can lose.
func runCachePersistLoop(ctx context.Context, db *database.DB, c *cache.Cache, interval time.Duration, log *logging.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := persistCache(ctx, db, c); err != nil {
				log.Error("periodic cache persist failed", "error", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// persistCache writes the current cache snapshot to the cache state table,
// replacing its previous contents.
func persistCache(ctx context.Context, db *database.DB, c *cache.Cache) error {
	snapshot := c.Snapshot()
	records := make([]database.CacheStateRecord, 0, len(snapshot))
	for _, s := range snapshot {
		valueJSON, err := json.Marshal(s.Value)
		if err != nil {
			continue
		}
		records = append(records, database.CacheStateRecord{
			Address:   s.Address.String(),
			ValueJSON: valueJSON,
			UpdatedAt: s.UpdatedAt,
		})
	}
	return db.SaveCacheState(ctx, records)
}
