package factory

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/mycelian/travelmap/internal/config"
	"github.com/mycelian/travelmap/internal/storage"
	"github.com/mycelian/travelmap/internal/storage/sqlite"
)

func TestNewSlot_Drivers(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]any{
		"memory": &storage.Memory{},
		"file":   &storage.File{},
		"sqlite": &sqlite.Slot{},
	}
	for driver, want := range cases {
		cfg := config.NewForTesting()
		cfg.StorageDriver = driver
		cfg.DataDir = dir

		slot, err := NewSlot(cfg, zerolog.Nop())
		if err != nil {
			t.Fatalf("NewSlot(%s): %v", driver, err)
		}
		switch want.(type) {
		case *storage.Memory:
			if _, ok := slot.(*storage.Memory); !ok {
				t.Fatalf("driver %s: got %T", driver, slot)
			}
		case *storage.File:
			if _, ok := slot.(*storage.File); !ok {
				t.Fatalf("driver %s: got %T", driver, slot)
			}
		case *sqlite.Slot:
			if _, ok := slot.(*sqlite.Slot); !ok {
				t.Fatalf("driver %s: got %T", driver, slot)
			}
		}
		_ = slot.Close()
	}
}

func TestNewSlot_Unsupported(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.StorageDriver = "indexeddb"
	if _, err := NewSlot(cfg, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestNewGeocoderAndCodec(t *testing.T) {
	cfg := config.NewForTesting()
	geo, err := NewGeocoder(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewGeocoder: %v", err)
	}
	defer geo.Close()
	if geo.Busy() {
		t.Fatalf("fresh geocoder reports busy")
	}
	if geo.BreakerState() != "closed" {
		t.Fatalf("breaker = %s, want closed", geo.BreakerState())
	}

	cfg.GeocoderURL = " "
	if _, err := NewGeocoder(cfg, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for blank geocoder url")
	}

	if NewCodec(config.NewForTesting(), zerolog.Nop()) == nil {
		t.Fatalf("NewCodec returned nil")
	}
}
