package config

import (
	"errors"
	"testing"

	restorehq "github.com/eugener/restorehq/internal"
	"github.com/eugener/restorehq/internal/area"
)

func TestBootstrap(t *testing.T) {
	t.Parallel()

	off := false
	cfg := &Config{Areas: []AreaEntry{
		{Name: "Brisbane", Postcode: "4000"},
		{Name: "Toowong", Postcode: " 4066 ", Active: &off},
		{Name: "Brisbane City", Postcode: "4000"}, // duplicate, skipped
	}}
	reg := area.NewRegistry()
	if err := Bootstrap(cfg, reg); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	if reg.Len() != 2 {
		t.Fatalf("len = %d, want 2", reg.Len())
	}
	if !reg.IsServiced("4000") {
		t.Error("4000 should be serviced")
	}
	if reg.IsServiced("4066") {
		t.Error("4066 seeded inactive but serviced")
	}
	a, ok := reg.FindByPostcode("4000")
	if !ok || a.Name != "Brisbane" {
		t.Errorf("4000 = %+v, want first entry kept", a)
	}
}

func TestBootstrapInvalidEntry(t *testing.T) {
	t.Parallel()

	cfg := &Config{Areas: []AreaEntry{{Name: "Nowhere", Postcode: "ABCD"}}}
	err := Bootstrap(cfg, area.NewRegistry())
	if !errors.Is(err, restorehq.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestBootstrapDefaults(t *testing.T) {
	t.Parallel()

	cfg := Default()
	reg := area.NewRegistry()
	if err := Bootstrap(cfg, reg); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if reg.Len() != len(cfg.Areas) {
		t.Errorf("len = %d, want %d", reg.Len(), len(cfg.Areas))
	}
}
