// Package factory builds the runtime adapters selected by config.
package factory

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mycelian/travelmap/internal/config"
	"github.com/mycelian/travelmap/internal/localstate"
	"github.com/mycelian/travelmap/internal/storage"
	"github.com/mycelian/travelmap/internal/storage/sqlite"
)

// NewSlot returns the durable slot selected by cfg.StorageDriver.
func NewSlot(cfg *config.Config, log zerolog.Logger) (storage.Slot, error) {
	switch cfg.StorageDriver {
	case "memory":
		log.Debug().Str("driver", cfg.StorageDriver).Msg("using in-memory slot; nothing will survive a restart")
		return storage.NewMemory(), nil
	case "file", "":
		path, err := localstate.JSONPath(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("driver", "file").Str("path", path).Msg("opening slot")
		return storage.NewFile(path)
	case "sqlite":
		path, err := localstate.DBPath(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("driver", "sqlite").Str("path", path).Str("key", cfg.StorageKey).Msg("opening slot")
		return sqlite.NewSlot(path, cfg.StorageKey)
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER: %s", cfg.StorageDriver)
	}
}
