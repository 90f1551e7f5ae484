package cmd

import (
	"testing"
	"time"

	"github.com/hausnet/knxnetip/internal/infrastructure/config"
)

func TestHydrateTimeout_ScalesWithAddressCount(t *testing.T) {
	cfg := &config.Config{
		Cache: config.CacheConfig{ReadTimeout: 100},
		Routing: config.RoutingConfig{
			GroupAddresses: map[string]string{"1/1/1": "1.001", "1/1/2": "1.001", "1/1/3": "1.001"},
		},
	}

	got := hydrateTimeout(cfg)
	want := 300 * time.Millisecond
	if got != want {
		t.Errorf("hydrateTimeout() = %v, want %v", got, want)
	}
}

func TestHydrateTimeout_DefaultsWhenUnconfigured(t *testing.T) {
	cfg := &config.Config{}

	got := hydrateTimeout(cfg)
	want := 5 * time.Second
	if got != want {
		t.Errorf("hydrateTimeout() = %v, want %v", got, want)
	}
}
