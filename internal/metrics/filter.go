package metrics

import (
	"sort"
	"strings"

	"github.com/testops/coverage-dashboard/internal/transform"
)

// Filter selects records by device, country and priority labels.
// Filtering is a separate stage applied upstream of aggregation; an
// empty list leaves that dimension unconstrained.
type Filter struct {
	Devices    []string `json:"devices,omitempty"`
	Countries  []string `json:"countries,omitempty"`
	Priorities []string `json:"priorities,omitempty"`
}

// IsZero reports whether the filter constrains nothing.
func (f Filter) IsZero() bool {
	return len(f.Devices) == 0 && len(f.Countries) == 0 && len(f.Priorities) == 0
}

// Apply returns the records matching the filter. The input table is
// not modified.
func (f Filter) Apply(t transform.Table) transform.Table {
	if f.IsZero() {
		return t
	}

	out := make(transform.Table, 0, len(t))
	for _, r := range t {
		if !matches(r.Device, f.Devices) {
			continue
		}
		if !matches(r.Priority, f.Priorities) {
			continue
		}
		if len(f.Countries) > 0 && !matchesAny(r.Countries, f.Countries) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Key returns a canonical string form of the filter for cache keying:
// identical selections produce identical keys regardless of order.
func (f Filter) Key() string {
	return strings.Join([]string{
		canonical(f.Devices),
		canonical(f.Countries),
		canonical(f.Priorities),
	}, "|")
}

func canonical(vals []string) string {
	if len(vals) == 0 {
		return "*"
	}
	sorted := make([]string, len(vals))
	copy(sorted, vals)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func matches(val string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if val == a {
			return true
		}
	}
	return false
}

// matchesAny reports whether any of the record's labels is selected.
// Multi-country records match when at least one member country does.
func matchesAny(vals, allowed []string) bool {
	for _, v := range vals {
		for _, a := range allowed {
			if v == a {
				return true
			}
		}
	}
	return false
}
