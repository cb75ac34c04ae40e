package weathersdk

import (
	"fmt"
	"strings"
)

// Mode selects how an SDK instance keeps cached weather current.
type Mode int

const (
	// OnDemand refreshes a city only when a caller requests it and the
	// cached entry is missing or stale.
	OnDemand Mode = iota

	// Polling additionally revalidates every cached city in the background
	// at a fixed interval.
	Polling
)

// String returns the configuration-file spelling of the mode.
func (m Mode) String() string {
	switch m {
	case OnDemand:
		return "on_demand"
	case Polling:
		return "polling"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on_demand", "ondemand", "on-demand":
		return OnDemand, nil
	case "polling":
		return Polling, nil
	}
	return OnDemand, fmt.Errorf("unknown mode %q (want on_demand or polling)", s)
}
