package config

import (
	"errors"
	"fmt"
	"log/slog"

	restorehq "github.com/eugener/restorehq/internal"
	"github.com/eugener/restorehq/internal/area"
)

// Bootstrap seeds the area registry from the config. Duplicate postcodes
// are skipped with a warning; any other invalid entry is an error.
func Bootstrap(cfg *Config, reg *area.Registry) error {
	for _, a := range cfg.Areas {
		created, err := reg.Create(a.Name, a.Postcode, a.IsActive())
		if errors.Is(err, restorehq.ErrConflict) {
			slog.Warn("skipping duplicate area", "name", a.Name, "postcode", a.Postcode)
			continue
		}
		if err != nil {
			return fmt.Errorf("seed area %q: %w", a.Name, err)
		}
		slog.Debug("bootstrapped area", "name", created.Name, "postcode", created.Postcode, "active", created.Active)
	}
	slog.Info("service areas loaded", "count", reg.Len())
	return nil
}
