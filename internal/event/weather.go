package event

import (
	"fmt"
	"time"

	"geo-alert-engine/internal/geofence"
)

// Weather is an area weather state for one map cell. The cell footprint is
// the polygon used for geofence overlap tests.
type Weather struct {
	CellID     string
	Lat, Lng   float64
	Condition  string
	Severity   string
	DayOrNight string
	Cell       []geofence.Point

	scratch Scratch
}

func NewWeather(data map[string]any) (*Weather, error) {
	id := asString(data["s2_cell_id"], asString(data["cell_id"], ""))
	if id == "" {
		return nil, fmt.Errorf("weather payload missing cell id")
	}
	w := &Weather{
		CellID:     id,
		Lat:        asFloat(data["latitude"], 0),
		Lng:        asFloat(data["longitude"], 0),
		Condition:  asString(data["condition"], UnknownStr),
		Severity:   asString(data["severity"], ""),
		DayOrNight: asString(data["day_or_night"], ""),
		scratch:    newScratch(),
	}
	if verts, ok := data["coords"].([]any); ok {
		for _, v := range verts {
			pair, ok := v.([]any)
			if !ok || len(pair) != 2 {
				continue
			}
			w.Cell = append(w.Cell, geofence.Point{
				Lat: asFloat(pair[0], 0),
				Lng: asFloat(pair[1], 0),
			})
		}
	}
	return w, nil
}

func (w *Weather) Kind() Kind                      { return KindWeather }
func (w *Weather) ID() string                      { return w.CellID }
func (w *Weather) Coordinates() (float64, float64) { return w.Lat, w.Lng }
func (w *Weather) Scratch() *Scratch               { return &w.scratch }

func (w *Weather) DataBag(_ time.Time, _ *time.Location, units string) map[string]string {
	dts := overlay(&w.scratch)

	dts["cell_id"] = w.CellID
	dts["condition"] = w.Condition
	dts["condition_name"] = w.scratch.DisplayName
	dts["severity"] = w.Severity
	dts["day_or_night"] = w.DayOrNight
	baseBag(dts, w, units)
	return dts
}
