package filters

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geo-alert-engine/internal/event"
)

func monsterWith(id, cp int, iv float64) *event.Monster {
	m, _ := event.NewMonster(map[string]any{
		"encounter_id":   "enc-1",
		"pokemon_id":     float64(id),
		"latitude":       1.0,
		"longitude":      2.0,
		"disappear_time": float64(time.Now().Add(time.Hour).Unix()),
		"cp":             float64(cp),
		"iv":             iv,
	})
	return m
}

func TestMonsterFilter(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
		ev       *event.Monster
		want     bool
	}{
		{"no conditions passes", map[string]any{}, monsterWith(150, 100, 50), true},
		{"species allowed", map[string]any{"monsters": []any{float64(150)}}, monsterWith(150, 100, 50), true},
		{"species rejected", map[string]any{"monsters": []any{float64(150)}}, monsterWith(25, 100, 50), false},
		{"iv in range", map[string]any{"min_iv": 90.0}, monsterWith(150, 100, 95), true},
		{"iv too low", map[string]any{"min_iv": 90.0}, monsterWith(150, 100, 80), false},
		{"unknown iv fails configured bound", map[string]any{"min_iv": 0.0, "max_iv": 100.0}, monsterWith(150, 100, -1), false},
		{"cp window", map[string]any{"min_cp": 50.0, "max_cp": 150.0}, monsterWith(150, 100, 50), true},
		{"cp above window", map[string]any{"max_cp": 90.0}, monsterWith(150, 100, 50), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFilter(event.KindMonster, "t", tt.settings)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.CheckEvent(tt.ev))
		})
	}
}

func TestGymFilter(t *testing.T) {
	gym, _ := event.NewGym(map[string]any{"gym_id": "g1", "team_id": float64(2)})
	gym.OldTeamID = 1

	f, err := NewFilter(event.KindGym, "t", map[string]any{"teams": []any{float64(2)}})
	require.NoError(t, err)
	assert.True(t, f.CheckEvent(gym))

	f, err = NewFilter(event.KindGym, "t", map[string]any{"teams": []any{float64(3)}})
	require.NoError(t, err)
	assert.False(t, f.CheckEvent(gym))

	f, err = NewFilter(event.KindGym, "t", map[string]any{"old_teams": []any{float64(1)}})
	require.NoError(t, err)
	assert.True(t, f.CheckEvent(gym))
}

func TestStopFilter(t *testing.T) {
	lured, _ := event.NewStop(map[string]any{
		"pokestop_id":     "s1",
		"lure_expiration": float64(time.Now().Add(time.Hour).Unix()),
		"quest":           "Catch 5 water types",
	})
	bare, _ := event.NewStop(map[string]any{"pokestop_id": "s2"})

	f, err := NewFilter(event.KindStop, "t", map[string]any{"lured_only": true})
	require.NoError(t, err)
	assert.True(t, f.CheckEvent(lured))
	assert.False(t, f.CheckEvent(bare))

	f, err = NewFilter(event.KindStop, "t", map[string]any{"quest_contains": []any{"water"}})
	require.NoError(t, err)
	assert.True(t, f.CheckEvent(lured))
	assert.False(t, f.CheckEvent(bare))
}

func TestWeatherFilter(t *testing.T) {
	w, _ := event.NewWeather(map[string]any{"s2_cell_id": "c1", "condition": "RAIN", "severity": "EXTREME"})

	f, err := NewFilter(event.KindWeather, "t", map[string]any{"conditions": []any{"RAIN", "WINDY"}})
	require.NoError(t, err)
	assert.True(t, f.CheckEvent(w))

	f, err = NewFilter(event.KindWeather, "t", map[string]any{"conditions": []any{"CLOUDY"}})
	require.NoError(t, err)
	assert.False(t, f.CheckEvent(w))

	f, err = NewFilter(event.KindWeather, "t", map[string]any{"severities": []any{"EXTREME"}})
	require.NoError(t, err)
	assert.True(t, f.CheckEvent(w))
}

func TestRaidAndEggFilters(t *testing.T) {
	raid, _ := event.NewRaid(map[string]any{
		"gym_id":     "g1",
		"pokemon_id": float64(384),
		"level":      float64(5),
		"end":        float64(time.Now().Add(time.Hour).Unix()),
	})
	f, err := NewFilter(event.KindRaid, "t", map[string]any{"min_raid_lvl": 4.0})
	require.NoError(t, err)
	assert.True(t, f.CheckEvent(raid))

	egg, _ := event.NewEgg(map[string]any{
		"gym_id": "g1",
		"level":  float64(3),
		"start":  float64(time.Now().Add(time.Hour).Unix()),
	})
	f, err = NewFilter(event.KindEgg, "t", map[string]any{"min_egg_lvl": 4.0})
	require.NoError(t, err)
	assert.False(t, f.CheckEvent(egg))
}

func TestBuildSet_DefaultsOverlay(t *testing.T) {
	defaults := map[string]any{
		"min_iv":     50.0,
		"custom_dts": map[string]any{"team": "blue", "tag": "base"},
	}
	raw := map[string]map[string]any{
		"strict": {"min_iv": 90.0, "custom_dts": map[string]any{"tag": "strict"}},
		"loose":  {},
	}

	set, err := BuildSet(event.KindMonster, defaults, raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"loose", "strict"}, set.Names())

	strict, ok := set.Get("strict")
	require.True(t, ok)
	// Filter settings override the section default; default custom_dts
	// merge under the filter's own keys.
	assert.False(t, strict.CheckEvent(monsterWith(150, 100, 80)))
	assert.True(t, strict.CheckEvent(monsterWith(150, 100, 95)))
	assert.Equal(t, map[string]string{"team": "blue", "tag": "strict"}, strict.CustomFields())

	loose, ok := set.Get("loose")
	require.True(t, ok)
	assert.True(t, loose.CheckEvent(monsterWith(150, 100, 60)))
	assert.Equal(t, map[string]string{"team": "blue", "tag": "base"}, loose.CustomFields())
}

func TestFilterGeofences(t *testing.T) {
	f, err := NewFilter(event.KindMonster, "t", map[string]any{"geofences": []any{"Lake", "City"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Lake", "City"}, f.Geofences())

	f, err = NewFilter(event.KindMonster, "t", map[string]any{})
	require.NoError(t, err)
	assert.Nil(t, f.Geofences())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filters.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
monsters:
  enabled: true
  defaults:
    min_iv: 50
  filters:
    rare:
      monsters: [150, 151]
gyms:
  enabled: true
  ignore_neutral: true
  filters:
    takeover: {}
weather:
  enabled: false
  filters: {}
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Enabled[event.KindMonster])
	assert.True(t, cfg.Enabled[event.KindGym])
	assert.False(t, cfg.Enabled[event.KindWeather])
	assert.False(t, cfg.Enabled[event.KindStop])
	assert.True(t, cfg.IgnoreNeutral)

	rare, ok := cfg.SetFor(event.KindMonster).Get("rare")
	require.True(t, ok)
	assert.True(t, rare.CheckEvent(monsterWith(150, 100, 80)))
	assert.False(t, rare.CheckEvent(monsterWith(25, 100, 80)))
	assert.False(t, rare.CheckEvent(monsterWith(150, 100, 30)), "section default applies")

	assert.Equal(t, 0, cfg.SetFor(event.KindWeather).Len())
	assert.Equal(t, 0, cfg.SetFor(event.KindStop).Len())
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func BenchmarkCheckEvent(b *testing.B) {
	f, _ := NewFilter(event.KindMonster, "bench", map[string]any{
		"monsters": []any{float64(150), float64(151)},
		"min_iv":   80.0,
		"min_cp":   100.0,
	})
	ev := monsterWith(150, 500, 91)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f.CheckEvent(ev)
	}
}
