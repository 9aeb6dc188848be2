// Package filters implements the named boolean predicates events are
// matched against. A filter is an ordered conjunction of conditions built
// once at load time from its settings map; evaluation is read-only and safe
// for the single-consumer processing path.
package filters

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"geo-alert-engine/internal/event"
)

type condition struct {
	name  string
	check func(event.Event) bool
}

// Filter is a named predicate plus its geofence allowlist and custom
// data-bag fields. Immutable after construction.
type Filter struct {
	name         string
	kind         event.Kind
	conditions   []condition
	geofences    []string // nil means unrestricted
	customFields map[string]string
}

func (f *Filter) Name() string { return f.name }

// Geofences returns the allowlist, nil when the filter is unrestricted.
func (f *Filter) Geofences() []string { return f.geofences }

func (f *Filter) CustomFields() map[string]string { return f.customFields }

// CheckEvent evaluates every condition in order. The first failing
// condition rejects the event; rejects are normal outcomes and log at
// debug only.
func (f *Filter) CheckEvent(e event.Event) bool {
	for _, c := range f.conditions {
		if !c.check(e) {
			log.Debug().
				Str("filter", f.name).
				Str("event", e.ID()).
				Str("condition", c.name).
				Msg("event rejected by filter")
			return false
		}
		log.Trace().
			Str("filter", f.name).
			Str("event", e.ID()).
			Str("condition", c.name).
			Msg("condition passed")
	}
	return true
}

// Set is the filter collection for one event kind. Names iterate in sorted
// order so rule evaluation is deterministic.
type Set struct {
	names  []string
	byName map[string]*Filter
}

func newSet() *Set {
	return &Set{byName: make(map[string]*Filter)}
}

func (s *Set) add(f *Filter) error {
	if _, ok := s.byName[f.name]; ok {
		return fmt.Errorf("duplicate filter %q", f.name)
	}
	s.byName[f.name] = f
	s.names = append(s.names, f.name)
	sort.Strings(s.names)
	return nil
}

func (s *Set) Get(name string) (*Filter, bool) {
	f, ok := s.byName[name]
	return f, ok
}

func (s *Set) Names() []string { return s.names }

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// settings wraps the merged per-filter settings map with typed accessors.
type settings map[string]any

func (s settings) strSlice(key string) []string {
	raw, ok := s[key]
	if !ok {
		return nil
	}
	var out []string
	switch t := raw.(type) {
	case []string:
		out = append(out, t...)
	case []any:
		for _, v := range t {
			out = append(out, fmt.Sprintf("%v", v))
		}
	case string:
		out = append(out, t)
	}
	return out
}

func (s settings) intSlice(key string) []int {
	raw, ok := s[key]
	if !ok {
		return nil
	}
	var out []int
	switch t := raw.(type) {
	case []int:
		out = append(out, t...)
	case []any:
		for _, v := range t {
			switch n := v.(type) {
			case int:
				out = append(out, n)
			case float64:
				out = append(out, int(n))
			}
		}
	}
	return out
}

func (s settings) float(key string) (float64, bool) {
	raw, ok := s[key]
	if !ok {
		return 0, false
	}
	switch t := raw.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	}
	return 0, false
}

func (s settings) boolean(key string) (bool, bool) {
	b, ok := s[key].(bool)
	return b, ok
}

func (s settings) stringMap(key string) map[string]string {
	raw, ok := s[key]
	if !ok {
		return nil
	}
	out := map[string]string{}
	switch t := raw.(type) {
	case map[string]string:
		for k, v := range t {
			out[k] = v
		}
	case map[string]any:
		for k, v := range t {
			out[k] = fmt.Sprintf("%v", v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func containsInt(vals []int, v int) bool {
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}

func containsStr(vals []string, v string) bool {
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}

// rangeCheck builds a min/max condition over a numeric event attribute.
// A configured bound rejects events whose value is still unknown.
func rangeCheck(name string, s settings, minKey, maxKey string, get func(event.Event) float64) (condition, bool) {
	min, hasMin := s.float(minKey)
	max, hasMax := s.float(maxKey)
	if !hasMin && !hasMax {
		return condition{}, false
	}
	return condition{name: name, check: func(e event.Event) bool {
		v := get(e)
		if v < 0 {
			return false
		}
		if hasMin && v < min {
			return false
		}
		if hasMax && v > max {
			return false
		}
		return true
	}}, true
}
