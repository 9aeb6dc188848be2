package filters

import (
	"fmt"

	"github.com/spf13/viper"

	"geo-alert-engine/internal/event"
)

type section struct {
	Enabled       bool                      `mapstructure:"enabled"`
	IgnoreNeutral bool                      `mapstructure:"ignore_neutral"`
	Defaults      map[string]any            `mapstructure:"defaults"`
	Filters       map[string]map[string]any `mapstructure:"filters"`
}

type fileConfig struct {
	Monsters section `mapstructure:"monsters"`
	Stops    section `mapstructure:"stops"`
	Gyms     section `mapstructure:"gyms"`
	Eggs     section `mapstructure:"eggs"`
	Raids    section `mapstructure:"raids"`
	Weather  section `mapstructure:"weather"`
}

// Config is the loaded filter surface for all six kinds: per-kind
// enablement, the gym neutral-change flag, and one filter set per kind.
type Config struct {
	Enabled       map[event.Kind]bool
	IgnoreNeutral bool
	sets          map[event.Kind]*Set
}

// NewConfig builds an empty filter config for callers that assemble their
// sets programmatically.
func NewConfig() *Config {
	return &Config{
		Enabled: make(map[event.Kind]bool, 6),
		sets:    make(map[event.Kind]*Set, 6),
	}
}

// SetKind installs a kind's filter set and enablement flag.
func (c *Config) SetKind(kind event.Kind, enabled bool, set *Set) {
	c.Enabled[kind] = enabled
	c.sets[kind] = set
}

// SetFor returns the filter set for a kind, never nil.
func (c *Config) SetFor(kind event.Kind) *Set {
	if s, ok := c.sets[kind]; ok {
		return s
	}
	return newSet()
}

// NewFilter builds a single filter from already-merged settings. Exposed
// for rule-less construction in tests and embedding callers.
func NewFilter(kind event.Kind, name string, s map[string]any) (*Filter, error) {
	return build(kind, name, settings(s))
}

// BuildSet constructs the filter set for one kind, overlaying the
// section defaults under each filter's own settings. The defaults'
// custom_dts merges key-wise instead of being replaced wholesale.
func BuildSet(kind event.Kind, defaults map[string]any, raw map[string]map[string]any) (*Set, error) {
	set := newSet()
	defaultDTS := settings(defaults).stringMap("custom_dts")
	for name, own := range raw {
		merged := make(map[string]any, len(defaults)+len(own))
		for k, v := range defaults {
			if k != "custom_dts" {
				merged[k] = v
			}
		}
		for k, v := range own {
			merged[k] = v
		}
		if len(defaultDTS) > 0 {
			dts := map[string]any{}
			for k, v := range defaultDTS {
				dts[k] = v
			}
			for k, v := range settings(own).stringMap("custom_dts") {
				dts[k] = v
			}
			merged["custom_dts"] = dts
		}
		f, err := build(kind, name, merged)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", name, err)
		}
		if err := set.add(f); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// Load reads the filter file (yaml or json) and builds every kind's set.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read filter file: %w", err)
	}
	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("decode filter file: %w", err)
	}

	cfg := &Config{
		Enabled:       make(map[event.Kind]bool, 6),
		IgnoreNeutral: fc.Gyms.IgnoreNeutral,
		sets:          make(map[event.Kind]*Set, 6),
	}
	for _, entry := range []struct {
		kind event.Kind
		sec  section
	}{
		{event.KindMonster, fc.Monsters},
		{event.KindStop, fc.Stops},
		{event.KindGym, fc.Gyms},
		{event.KindEgg, fc.Eggs},
		{event.KindRaid, fc.Raids},
		{event.KindWeather, fc.Weather},
	} {
		set, err := BuildSet(entry.kind, entry.sec.Defaults, entry.sec.Filters)
		if err != nil {
			return nil, fmt.Errorf("%s section: %w", entry.kind, err)
		}
		cfg.Enabled[entry.kind] = entry.sec.Enabled
		cfg.sets[entry.kind] = set
	}
	return cfg, nil
}
