package event

import (
	"fmt"
	"strconv"
	"time"

	"geo-alert-engine/internal/geo"
)

// Monster is a creature spawn with a hard disappear time.
type Monster struct {
	EncounterID   string
	MonsterID     int
	Lat, Lng      float64
	DisappearTime time.Time
	CP            int
	Level         int
	IVPercent     float64
	Gender        int

	scratch Scratch
}

func NewMonster(data map[string]any) (*Monster, error) {
	encID := asString(data["encounter_id"], "")
	if encID == "" {
		return nil, fmt.Errorf("monster payload missing encounter_id")
	}
	m := &Monster{
		EncounterID:   encID,
		MonsterID:     asInt(data["pokemon_id"], 0),
		Lat:           asFloat(data["latitude"], 0),
		Lng:           asFloat(data["longitude"], 0),
		DisappearTime: asTime(data["disappear_time"]),
		CP:            asInt(data["cp"], -1),
		Level:         asInt(data["pokemon_level"], -1),
		IVPercent:     asFloat(data["iv"], -1),
		Gender:        asInt(data["gender"], 0),
		scratch:       newScratch(),
	}
	if m.MonsterID <= 0 {
		return nil, fmt.Errorf("monster payload missing pokemon_id")
	}
	if m.DisappearTime.IsZero() {
		return nil, fmt.Errorf("monster %s missing disappear_time", encID)
	}
	return m, nil
}

func (m *Monster) Kind() Kind                      { return KindMonster }
func (m *Monster) ID() string                      { return m.EncounterID }
func (m *Monster) Coordinates() (float64, float64) { return m.Lat, m.Lng }
func (m *Monster) Scratch() *Scratch               { return &m.scratch }

func (m *Monster) DataBag(now time.Time, loc *time.Location, units string) map[string]string {
	dts := overlay(&m.scratch)
	left, h12, h24 := geo.TimeStrings(m.DisappearTime, loc, now)

	dts["encounter_id"] = m.EncounterID
	dts["monster_id"] = strconv.Itoa(m.MonsterID)
	dts["monster_name"] = m.scratch.DisplayName
	dts["time_left"] = left
	dts["12h_time"] = h12
	dts["24h_time"] = h24
	dts["cp"] = strconv.Itoa(m.CP)
	dts["level"] = strconv.Itoa(m.Level)
	dts["iv"] = fmt.Sprintf("%.1f", m.IVPercent)
	dts["gender"] = strconv.Itoa(m.Gender)
	baseBag(dts, m, units)
	return dts
}
