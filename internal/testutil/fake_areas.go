package testutil

import (
	"testing"

	"github.com/eugener/restorehq/internal/area"
)

// SeedAreas returns a registry holding the given postcode -> name pairs, all
// active, in the order given.
func SeedAreas(t testing.TB, pairs ...string) *area.Registry {
	t.Helper()
	if len(pairs)%2 != 0 {
		t.Fatal("SeedAreas: pairs must be postcode, name")
	}
	reg := area.NewRegistry()
	for i := 0; i < len(pairs); i += 2 {
		if _, err := reg.Create(pairs[i+1], pairs[i], true); err != nil {
			t.Fatalf("seed %s: %v", pairs[i], err)
		}
	}
	return reg
}
