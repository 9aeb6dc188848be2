package manager

import (
	"fmt"

	"github.com/spf13/viper"

	"geo-alert-engine/internal/event"
)

// Rule binds a set of filter names to a set of alarm names. References are
// validated at creation; a bad rule fails the load rather than surfacing
// at dispatch time.
type Rule struct {
	Filters []string
	Alarms  []string
}

// AddRule registers a named rule for one kind. Duplicate names, unknown
// filters and unknown alarms are configuration errors.
func (m *Manager) AddRule(kind event.Kind, name string, filterNames, alarmNames []string) error {
	if _, ok := m.rules[kind][name]; ok {
		return fmt.Errorf("unable to add rule: %s rule %q already exists", kind, name)
	}
	set := m.filters.SetFor(kind)
	for _, fn := range filterNames {
		if _, ok := set.Get(fn); !ok {
			return fmt.Errorf("unable to create rule %q: no %s filter named %q", name, kind, fn)
		}
	}
	for _, an := range alarmNames {
		if _, ok := m.alarmSet[an]; !ok {
			return fmt.Errorf("unable to create rule %q: no alarm named %q", name, an)
		}
	}
	if m.rules[kind] == nil {
		m.rules[kind] = make(map[string]Rule)
	}
	m.rules[kind][name] = Rule{Filters: filterNames, Alarms: alarmNames}
	m.ruleOrder[kind] = append(m.ruleOrder[kind], name)
	return nil
}

// rulesFor returns the rule names and lookup for a kind. A kind with no
// explicit rules gets the implicit default: every filter of the kind bound
// to every configured alarm.
func (m *Manager) rulesFor(kind event.Kind) ([]string, map[string]Rule) {
	if len(m.rules[kind]) > 0 {
		return m.ruleOrder[kind], m.rules[kind]
	}
	alarmNames := make([]string, 0, len(m.alarmSet))
	for name := range m.alarmSet {
		alarmNames = append(alarmNames, name)
	}
	implicit := Rule{Filters: m.filters.SetFor(kind).Names(), Alarms: alarmNames}
	return []string{"default"}, map[string]Rule{"default": implicit}
}

type ruleFile struct {
	Rules map[string]map[string]struct {
		Filters []string `mapstructure:"filters"`
		Alarms  []string `mapstructure:"alarms"`
	} `mapstructure:"rules"`
}

var ruleSections = map[string]event.Kind{
	"monsters": event.KindMonster,
	"stops":    event.KindStop,
	"gyms":     event.KindGym,
	"eggs":     event.KindEgg,
	"raids":    event.KindRaid,
	"weather":  event.KindWeather,
}

// LoadRuleFile reads the rule file and registers every rule it declares.
func (m *Manager) LoadRuleFile(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read rule file: %w", err)
	}
	var rf ruleFile
	if err := v.Unmarshal(&rf); err != nil {
		return fmt.Errorf("decode rule file: %w", err)
	}
	for sectionName, rules := range rf.Rules {
		kind, ok := ruleSections[sectionName]
		if !ok {
			return fmt.Errorf("rule file: unknown section %q", sectionName)
		}
		for name, r := range rules {
			if err := m.AddRule(kind, name, r.Filters, r.Alarms); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadChannels reads the two-level channel map: geofence name to filter
// base name to delivery-channel identifier.
func LoadChannels(path string) (map[string]map[string]string, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read channel file: %w", err)
	}
	out := map[string]map[string]string{}
	if err := v.Unmarshal(&out); err != nil {
		return nil, fmt.Errorf("decode channel file: %w", err)
	}
	return out, nil
}
