package reconcile

import (
	"fmt"
	"strings"
)

// StalePolicy decides whether a revision at or below the applied revision
// of an item still advances that item by one. It is only consulted for such
// stale revisions; in-order and out-of-order revisions never reach it.
type StalePolicy func(applied, revision uint32) bool

// AdvanceOnStale counts a stale revision as the next revision.
//
// The source history contains items where the same revision number was
// recorded for two distinct edits. Counting the duplicate as the next
// revision keeps repaired data consistent with what earlier runs produced.
// This is an observed property of the data, not a guarantee of the remote API.
func AdvanceOnStale(applied, revision uint32) bool {
	return true
}

// IgnoreStale drops stale revisions without advancing the item.
func IgnoreStale(applied, revision uint32) bool {
	return false
}

// ParseStalePolicy maps a configuration value onto a policy.
// "advance" (the default when empty) selects AdvanceOnStale, "ignore" selects IgnoreStale.
func ParseStalePolicy(name string) (StalePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "advance":
		return AdvanceOnStale, nil
	case "ignore":
		return IgnoreStale, nil
	default:
		return nil, fmt.Errorf("unknown stale revision policy %q", name)
	}
}
