package event

import (
	"fmt"
	"strconv"
	"time"

	"geo-alert-engine/internal/geo"
)

// Raid is an active timed facility battle with a boss monster.
type Raid struct {
	GymID          string
	GymName        string
	GymDescription string
	GymImage       string
	Lat, Lng       float64
	RaidEnd        time.Time
	MonsterID      int
	RaidLevel      int
	CP             int
	QuickMove      string
	ChargeMove     string
	CurrentTeamID  int

	scratch Scratch
}

func NewRaid(data map[string]any) (*Raid, error) {
	id := asString(data["gym_id"], "")
	if id == "" {
		return nil, fmt.Errorf("raid payload missing gym_id")
	}
	r := &Raid{
		GymID:          id,
		GymName:        asString(data["name"], UnknownStr),
		GymDescription: asString(data["description"], UnknownStr),
		GymImage:       asString(data["url"], UnknownStr),
		Lat:            asFloat(data["latitude"], 0),
		Lng:            asFloat(data["longitude"], 0),
		RaidEnd:        asTime(data["end"]),
		MonsterID:      asInt(data["pokemon_id"], 0),
		RaidLevel:      asInt(data["level"], 0),
		CP:             asInt(data["cp"], -1),
		QuickMove:      asString(data["move_1"], UnknownStr),
		ChargeMove:     asString(data["move_2"], UnknownStr),
		CurrentTeamID:  asInt(data["team_id"], UnknownTeam),
		scratch:        newScratch(),
	}
	if r.RaidEnd.IsZero() {
		return nil, fmt.Errorf("raid %s missing end time", id)
	}
	return r, nil
}

func (r *Raid) Kind() Kind                      { return KindRaid }
func (r *Raid) ID() string                      { return r.GymID }
func (r *Raid) Coordinates() (float64, float64) { return r.Lat, r.Lng }
func (r *Raid) Scratch() *Scratch               { return &r.scratch }

func (r *Raid) DataBag(now time.Time, loc *time.Location, units string) map[string]string {
	dts := overlay(&r.scratch)
	left, h12, h24 := geo.TimeStrings(r.RaidEnd, loc, now)

	dts["gym_id"] = r.GymID
	dts["gym_name"] = r.GymName
	dts["gym_description"] = r.GymDescription
	dts["gym_image"] = r.GymImage
	dts["monster_id"] = strconv.Itoa(r.MonsterID)
	dts["monster_name"] = r.scratch.DisplayName
	dts["raid_level"] = strconv.Itoa(r.RaidLevel)
	dts["cp"] = strconv.Itoa(r.CP)
	dts["quick_move"] = r.QuickMove
	dts["charge_move"] = r.ChargeMove
	dts["team_id"] = strconv.Itoa(r.CurrentTeamID)
	dts["raid_time_left"] = left
	dts["12h_raid_end"] = h12
	dts["24h_raid_end"] = h24
	baseBag(dts, r, units)
	return dts
}
