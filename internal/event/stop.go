package event

import (
	"fmt"
	"time"

	"geo-alert-engine/internal/geo"
)

// Stop is a point-of-interest update, optionally carrying a lure expiration
// and a quest/reward pair.
type Stop struct {
	StopID     string
	StopName   string
	URL        string
	Lat, Lng   float64
	Expiration time.Time // zero when not lured
	Quest      string
	Reward     string

	scratch Scratch
}

func NewStop(data map[string]any) (*Stop, error) {
	id := asString(data["pokestop_id"], "")
	if id == "" {
		return nil, fmt.Errorf("stop payload missing pokestop_id")
	}
	return &Stop{
		StopID:     id,
		StopName:   asString(data["name"], UnknownStr),
		URL:        asString(data["url"], ""),
		Lat:        asFloat(data["latitude"], 0),
		Lng:        asFloat(data["longitude"], 0),
		Expiration: asTime(data["lure_expiration"]),
		Quest:      asString(data["quest"], ""),
		Reward:     asString(data["reward"], ""),
		scratch:    newScratch(),
	}, nil
}

func (s *Stop) Kind() Kind                      { return KindStop }
func (s *Stop) ID() string                      { return s.StopID }
func (s *Stop) Coordinates() (float64, float64) { return s.Lat, s.Lng }
func (s *Stop) Scratch() *Scratch               { return &s.scratch }

func (s *Stop) DataBag(now time.Time, loc *time.Location, units string) map[string]string {
	dts := overlay(&s.scratch)
	left, h12, h24 := geo.TimeStrings(s.Expiration, loc, now)

	dts["stop_id"] = s.StopID
	dts["stop_name"] = s.StopName
	dts["stop_url"] = s.URL
	dts["time_left"] = left
	dts["12h_time"] = h12
	dts["24h_time"] = h24
	dts["quest"] = s.Quest
	dts["reward"] = s.Reward
	baseBag(dts, s, units)
	return dts
}
