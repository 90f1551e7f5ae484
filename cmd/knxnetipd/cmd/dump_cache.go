package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hausnet/knxnetip/internal/infrastructure/config"
	"github.com/hausnet/knxnetip/internal/infrastructure/database"
)

var dumpCacheCmd = &cobra.Command{
	Use:   "dump-cache",
	Short: "Print the persisted address-value cache as JSON",
	Long:  "Reads the cache_state table directly, without starting the daemon, and writes its contents to stdout as JSON.",
	RunE:  runDumpCache,
}

func init() {
	RootCmd.AddCommand(dumpCacheCmd)
}

type dumpCacheRecord struct {
	Address   string          `json:"address"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt int64           `json:"updated_at"`
}

func runDumpCache(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := database.Open(database.Config{
		Path:        cfg.Cache.StatePath,
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		return fmt.Errorf("opening cache state database: %w", err)
	}
	defer db.Close() //nolint:errcheck // Read-only tool exiting immediately after

	ctx := context.Background()
	if err := db.EnsureCacheStateTable(ctx); err != nil {
		return err
	}

	records, err := db.LoadCacheState(ctx)
	if err != nil {
		return err
	}

	out := make([]dumpCacheRecord, 0, len(records))
	for _, r := range records {
		out = append(out, dumpCacheRecord{
			Address:   r.Address,
			Value:     json.RawMessage(r.ValueJSON),
			UpdatedAt: r.UpdatedAt,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
