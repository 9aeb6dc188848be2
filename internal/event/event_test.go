package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvelope_Routing(t *testing.T) {
	future := float64(time.Now().Add(time.Hour).Unix())

	tests := []struct {
		name string
		typ  string
		msg  map[string]any
		want Kind
	}{
		{"pokemon", "pokemon", map[string]any{
			"encounter_id": "e1", "pokemon_id": 150.0, "disappear_time": future,
		}, KindMonster},
		{"monster alias", "monster", map[string]any{
			"encounter_id": "e1", "pokemon_id": 150.0, "disappear_time": future,
		}, KindMonster},
		{"pokestop", "pokestop", map[string]any{"pokestop_id": "s1"}, KindStop},
		{"gym", "gym", map[string]any{"gym_id": "g1"}, KindGym},
		{"gym_details alias", "gym_details", map[string]any{"id": "g1"}, KindGym},
		{"raid with boss", "raid", map[string]any{
			"gym_id": "g1", "pokemon_id": 384.0, "end": future,
		}, KindRaid},
		{"raid without boss is egg", "raid", map[string]any{
			"gym_id": "g1", "start": future,
		}, KindEgg},
		{"egg", "egg", map[string]any{"gym_id": "g1", "start": future}, KindEgg},
		{"weather", "weather", map[string]any{"s2_cell_id": "c1"}, KindWeather},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := FromEnvelope(tt.typ, tt.msg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.Kind())
		})
	}
}

func TestFromEnvelope_Errors(t *testing.T) {
	future := float64(time.Now().Add(time.Hour).Unix())

	tests := []struct {
		name string
		typ  string
		msg  map[string]any
	}{
		{"unsupported type", "mystery", map[string]any{}},
		{"monster missing encounter_id", "pokemon", map[string]any{
			"pokemon_id": 150.0, "disappear_time": future,
		}},
		{"monster missing disappear_time", "pokemon", map[string]any{
			"encounter_id": "e1", "pokemon_id": 150.0,
		}},
		{"stop missing id", "pokestop", map[string]any{}},
		{"gym missing id", "gym", map[string]any{}},
		{"raid missing end", "raid", map[string]any{"gym_id": "g1", "pokemon_id": 5.0}},
		{"egg missing hatch", "egg", map[string]any{"gym_id": "g1"}},
		{"weather missing cell", "weather", map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnvelope(tt.typ, tt.msg)
			assert.Error(t, err)
		})
	}
}

func TestScratch_StartsAtSentinels(t *testing.T) {
	m, err := NewMonster(map[string]any{
		"encounter_id":   "e1",
		"pokemon_id":     150.0,
		"disappear_time": float64(time.Now().Add(time.Hour).Unix()),
	})
	require.NoError(t, err)

	s := m.Scratch()
	assert.Equal(t, UnknownDist, s.Distance)
	assert.Equal(t, UnknownStr, s.Bearing)
	assert.Equal(t, UnknownStr, s.Geofence)
	assert.Equal(t, UnknownStr, s.ChannelID)
}

func TestDataBag_StandardFieldsWinOverCustom(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m, err := NewMonster(map[string]any{
		"encounter_id":   "e1",
		"pokemon_id":     150.0,
		"latitude":       10.0,
		"longitude":      20.0,
		"disappear_time": float64(now.Add(90 * time.Second).Unix()),
		"cp":             1500.0,
	})
	require.NoError(t, err)
	m.Scratch().CustomFields = map[string]string{
		"cp":   "overridden",
		"team": "mystic",
	}

	bag := m.DataBag(now, time.UTC, "metric")
	assert.Equal(t, "1500", bag["cp"], "standard field wins on collision")
	assert.Equal(t, "mystic", bag["team"], "non-colliding custom field survives")
	assert.Equal(t, "1m 30s", bag["time_left"])
	assert.Equal(t, "10.00000", bag["lat_5"])
}

func TestDataBag_UnknownDistance(t *testing.T) {
	g, err := NewGym(map[string]any{"gym_id": "g1"})
	require.NoError(t, err)

	bag := g.DataBag(time.Now(), time.UTC, "metric")
	assert.Equal(t, UnknownStr, bag["distance"])
	assert.Equal(t, UnknownStr, bag["geofence"])
	assert.Equal(t, UnknownStr, bag["gym_name"])
	assert.Equal(t, "-1", bag["new_team_id"])
}

func TestWeather_CellParsing(t *testing.T) {
	w, err := NewWeather(map[string]any{
		"s2_cell_id": "c1",
		"coords": []any{
			[]any{1.0, 2.0},
			[]any{3.0, 4.0},
			"garbage",
			[]any{5.0},
		},
	})
	require.NoError(t, err)

	// Malformed vertices are dropped, valid ones kept in order.
	require.Len(t, w.Cell, 2)
	assert.Equal(t, 1.0, w.Cell[0].Lat)
	assert.Equal(t, 4.0, w.Cell[1].Lng)
}

func TestAsHelpers(t *testing.T) {
	assert.Equal(t, 7, asInt("7", 0))
	assert.Equal(t, 3, asInt(3.9, 0))
	assert.Equal(t, 5, asInt(nil, 5))
	assert.InDelta(t, 1.5, asFloat("1.5", 0), 1e-9)
	assert.Equal(t, "fallback", asString("", "fallback"))
	assert.Equal(t, "12345", asString(12345.0, ""))
	assert.True(t, asTime(nil).IsZero())
	assert.True(t, asTime(-5.0).IsZero())
	assert.Equal(t, int64(100), asTime(100.0).Unix())
}
