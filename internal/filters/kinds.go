package filters

import (
	"fmt"
	"strings"

	"geo-alert-engine/internal/event"
)

// build constructs a filter for one kind from its merged settings map.
func build(kind event.Kind, name string, s settings) (*Filter, error) {
	f := &Filter{
		name:         name,
		kind:         kind,
		geofences:    s.strSlice("geofences"),
		customFields: s.stringMap("custom_dts"),
	}

	switch kind {
	case event.KindMonster:
		buildMonster(f, s)
	case event.KindStop:
		buildStop(f, s)
	case event.KindGym:
		buildGym(f, s)
	case event.KindEgg:
		buildEgg(f, s)
	case event.KindRaid:
		buildRaid(f, s)
	case event.KindWeather:
		buildWeather(f, s)
	default:
		return nil, fmt.Errorf("filter %q: unknown kind %q", name, kind)
	}
	return f, nil
}

func buildMonster(f *Filter, s settings) {
	if ids := s.intSlice("monsters"); len(ids) > 0 {
		f.conditions = append(f.conditions, condition{name: "monsters", check: func(e event.Event) bool {
			m := e.(*event.Monster)
			return containsInt(ids, m.MonsterID)
		}})
	}
	if c, ok := rangeCheck("iv", s, "min_iv", "max_iv", func(e event.Event) float64 {
		return e.(*event.Monster).IVPercent
	}); ok {
		f.conditions = append(f.conditions, c)
	}
	if c, ok := rangeCheck("cp", s, "min_cp", "max_cp", func(e event.Event) float64 {
		return float64(e.(*event.Monster).CP)
	}); ok {
		f.conditions = append(f.conditions, c)
	}
	if c, ok := rangeCheck("level", s, "min_lvl", "max_lvl", func(e event.Event) float64 {
		return float64(e.(*event.Monster).Level)
	}); ok {
		f.conditions = append(f.conditions, c)
	}
	if genders := s.intSlice("genders"); len(genders) > 0 {
		f.conditions = append(f.conditions, condition{name: "genders", check: func(e event.Event) bool {
			return containsInt(genders, e.(*event.Monster).Gender)
		}})
	}
}

func buildStop(f *Filter, s settings) {
	if lured, ok := s.boolean("lured_only"); ok && lured {
		f.conditions = append(f.conditions, condition{name: "lured_only", check: func(e event.Event) bool {
			return !e.(*event.Stop).Expiration.IsZero()
		}})
	}
	if words := s.strSlice("quest_contains"); len(words) > 0 {
		f.conditions = append(f.conditions, condition{name: "quest_contains", check: func(e event.Event) bool {
			quest := strings.ToLower(e.(*event.Stop).Quest)
			for _, w := range words {
				if strings.Contains(quest, strings.ToLower(w)) {
					return true
				}
			}
			return false
		}})
	}
}

func buildGym(f *Filter, s settings) {
	if teams := s.intSlice("teams"); len(teams) > 0 {
		f.conditions = append(f.conditions, condition{name: "teams", check: func(e event.Event) bool {
			return containsInt(teams, e.(*event.Gym).NewTeamID)
		}})
	}
	if teams := s.intSlice("old_teams"); len(teams) > 0 {
		f.conditions = append(f.conditions, condition{name: "old_teams", check: func(e event.Event) bool {
			return containsInt(teams, e.(*event.Gym).OldTeamID)
		}})
	}
}

func buildEgg(f *Filter, s settings) {
	if c, ok := rangeCheck("egg_level", s, "min_egg_lvl", "max_egg_lvl", func(e event.Event) float64 {
		return float64(e.(*event.Egg).EggLevel)
	}); ok {
		f.conditions = append(f.conditions, c)
	}
	if teams := s.intSlice("teams"); len(teams) > 0 {
		f.conditions = append(f.conditions, condition{name: "teams", check: func(e event.Event) bool {
			return containsInt(teams, e.(*event.Egg).CurrentTeamID)
		}})
	}
}

func buildRaid(f *Filter, s settings) {
	if ids := s.intSlice("monsters"); len(ids) > 0 {
		f.conditions = append(f.conditions, condition{name: "monsters", check: func(e event.Event) bool {
			return containsInt(ids, e.(*event.Raid).MonsterID)
		}})
	}
	if c, ok := rangeCheck("raid_level", s, "min_raid_lvl", "max_raid_lvl", func(e event.Event) float64 {
		return float64(e.(*event.Raid).RaidLevel)
	}); ok {
		f.conditions = append(f.conditions, c)
	}
	if teams := s.intSlice("teams"); len(teams) > 0 {
		f.conditions = append(f.conditions, condition{name: "teams", check: func(e event.Event) bool {
			return containsInt(teams, e.(*event.Raid).CurrentTeamID)
		}})
	}
}

func buildWeather(f *Filter, s settings) {
	if conds := s.strSlice("conditions"); len(conds) > 0 {
		f.conditions = append(f.conditions, condition{name: "conditions", check: func(e event.Event) bool {
			return containsStr(conds, e.(*event.Weather).Condition)
		}})
	}
	if sevs := s.strSlice("severities"); len(sevs) > 0 {
		f.conditions = append(f.conditions, condition{name: "severities", check: func(e event.Event) bool {
			return containsStr(sevs, e.(*event.Weather).Severity)
		}})
	}
}
