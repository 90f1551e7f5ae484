package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/hausnet/knxnetip/address"
)

// Reader is the subset of a routing or tunnel client's API the cache needs
// to hydrate itself by reading the bus at startup.
type Reader interface {
	ReadGroupAddress(ctx context.Context, ga address.GroupAddress) (any, error)
}

// HydrateOnStart issues a read_group_address for each of gas through r,
// storing the result on success and logging (never failing the whole
// startup) on error or timeout.
func (c *Cache) HydrateOnStart(ctx context.Context, r Reader, gas []address.GroupAddress, logger *slog.Logger) {
	for _, ga := range gas {
		if !c.Configured(ga) {
			logger.Warn("hydrate: group address not configured, skipping", slog.String("ga", ga.String()))
			continue
		}
		value, err := r.ReadGroupAddress(ctx, ga)
		if err != nil {
			logger.Info("hydrate: read failed, leaving value absent", slog.String("ga", ga.String()), slog.Any("error", err))
			continue
		}
		c.RecordReceive(ga, value, time.Now())
	}
}

// ConfiguredAddresses returns every group address currently in the cache,
// for callers that want to hydrate "all configured" rather than an
// explicit list.
func (c *Cache) ConfiguredAddresses() []address.GroupAddress {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]address.GroupAddress, 0, len(c.entries))
	for ga := range c.entries {
		out = append(out, ga)
	}
	return out
}
