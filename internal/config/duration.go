package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sweeney/button-handler/internal/logic"
)

// ParseDurationField parses a Go duration string. Empty means zero.
func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: invalid duration %q: %v", logic.ErrConfig, path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s: duration must be >= 0", logic.ErrConfig, path)
	}
	return d, nil
}

// parseTicksOrDefault parses raw as a duration in ticks, keeping def when raw is empty.
func parseTicksOrDefault(path, raw string, def logic.Ticks) (logic.Ticks, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	t, err := logic.TicksFromDuration(d)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
