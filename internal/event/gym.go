package event

import (
	"fmt"
	"strconv"
	"time"
)

// Gym is a facility-control change. OldTeamID is scratch: the processor
// resolves it from the cache before change detection.
type Gym struct {
	GymID          string
	GymName        string
	GymDescription string
	GymImage       string
	Lat, Lng       float64
	NewTeamID      int
	OldTeamID      int

	scratch Scratch
}

func NewGym(data map[string]any) (*Gym, error) {
	id := asString(data["gym_id"], asString(data["id"], ""))
	if id == "" {
		return nil, fmt.Errorf("gym payload missing gym_id")
	}
	return &Gym{
		GymID:          id,
		GymName:        asString(data["name"], UnknownStr),
		GymDescription: asString(data["description"], UnknownStr),
		GymImage:       asString(data["url"], UnknownStr),
		Lat:            asFloat(data["latitude"], 0),
		Lng:            asFloat(data["longitude"], 0),
		NewTeamID:      asInt(data["team_id"], UnknownTeam),
		OldTeamID:      UnknownTeam,
		scratch:        newScratch(),
	}, nil
}

func (g *Gym) Kind() Kind                      { return KindGym }
func (g *Gym) ID() string                      { return g.GymID }
func (g *Gym) Coordinates() (float64, float64) { return g.Lat, g.Lng }
func (g *Gym) Scratch() *Scratch               { return &g.scratch }

func (g *Gym) DataBag(_ time.Time, _ *time.Location, units string) map[string]string {
	dts := overlay(&g.scratch)

	dts["gym_id"] = g.GymID
	dts["gym_name"] = g.GymName
	dts["gym_description"] = g.GymDescription
	dts["gym_image"] = g.GymImage
	dts["new_team_id"] = strconv.Itoa(g.NewTeamID)
	dts["old_team_id"] = strconv.Itoa(g.OldTeamID)
	baseBag(dts, g, units)
	return dts
}
