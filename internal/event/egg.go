package event

import (
	"fmt"
	"strconv"
	"time"

	"geo-alert-engine/internal/geo"
)

// Egg is a timed facility battle that has not hatched yet.
type Egg struct {
	GymID          string
	GymName        string
	GymDescription string
	GymImage       string
	Lat, Lng       float64
	HatchTime      time.Time
	EggLevel       int
	CurrentTeamID  int

	scratch Scratch
}

func NewEgg(data map[string]any) (*Egg, error) {
	id := asString(data["gym_id"], "")
	if id == "" {
		return nil, fmt.Errorf("egg payload missing gym_id")
	}
	e := &Egg{
		GymID:          id,
		GymName:        asString(data["name"], UnknownStr),
		GymDescription: asString(data["description"], UnknownStr),
		GymImage:       asString(data["url"], UnknownStr),
		Lat:            asFloat(data["latitude"], 0),
		Lng:            asFloat(data["longitude"], 0),
		HatchTime:      asTime(data["start"]),
		EggLevel:       asInt(data["level"], 0),
		CurrentTeamID:  asInt(data["team_id"], UnknownTeam),
		scratch:        newScratch(),
	}
	if e.HatchTime.IsZero() {
		return nil, fmt.Errorf("egg %s missing hatch time", id)
	}
	return e, nil
}

func (e *Egg) Kind() Kind                      { return KindEgg }
func (e *Egg) ID() string                      { return e.GymID }
func (e *Egg) Coordinates() (float64, float64) { return e.Lat, e.Lng }
func (e *Egg) Scratch() *Scratch               { return &e.scratch }

func (e *Egg) DataBag(now time.Time, loc *time.Location, units string) map[string]string {
	dts := overlay(&e.scratch)
	left, h12, h24 := geo.TimeStrings(e.HatchTime, loc, now)

	dts["gym_id"] = e.GymID
	dts["gym_name"] = e.GymName
	dts["gym_description"] = e.GymDescription
	dts["gym_image"] = e.GymImage
	dts["egg_level"] = strconv.Itoa(e.EggLevel)
	dts["team_id"] = strconv.Itoa(e.CurrentTeamID)
	dts["hatch_time_left"] = left
	dts["12h_hatch_time"] = h12
	dts["24h_hatch_time"] = h24
	baseBag(dts, e, units)
	return dts
}
