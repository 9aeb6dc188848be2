// Package event defines the six inbound event kinds, their upstream payload
// parsing, and the data-bag generation used for notification rendering.
package event

import (
	"fmt"
	"time"

	"geo-alert-engine/internal/geo"
)

// Kind tags the closed set of event variants.
type Kind string

const (
	KindMonster Kind = "monster"
	KindStop    Kind = "stop"
	KindGym     Kind = "gym"
	KindEgg     Kind = "egg"
	KindRaid    Kind = "raid"
	KindWeather Kind = "weather"
)

// Sentinels for fields the processor has not populated yet.
const (
	UnknownStr  = "unknown"
	UnknownDist = -1.0
	UnknownTeam = -1
)

// Scratch carries the processing-scratch fields the engine fills in during
// evaluation. They start at their sentinels and are only meaningful once a
// processor has run.
type Scratch struct {
	Distance     float64
	Bearing      string
	Geofence     string
	GeofenceList []string
	ChannelID    string
	CustomFields map[string]string
	DisplayName  string
}

func newScratch() Scratch {
	return Scratch{
		Distance:  UnknownDist,
		Bearing:   UnknownStr,
		Geofence:  UnknownStr,
		ChannelID: UnknownStr,
	}
}

// Event is the closed interface over the six kinds. Payload fields are
// immutable after parse; only Scratch is written by the engine.
type Event interface {
	Kind() Kind
	ID() string
	Coordinates() (lat, lng float64)
	Scratch() *Scratch

	// DataBag renders the key/value structure handed to alarms.
	DataBag(now time.Time, loc *time.Location, units string) map[string]string
}

// FromEnvelope builds an event from one decoded upstream webhook envelope.
// Raid payloads without a monster id are still incubating and become eggs.
func FromEnvelope(typ string, msg map[string]any) (Event, error) {
	switch typ {
	case "pokemon", "monster":
		return NewMonster(msg)
	case "pokestop", "stop":
		return NewStop(msg)
	case "gym", "gym_details":
		return NewGym(msg)
	case "raid":
		if asInt(msg["pokemon_id"], 0) > 0 {
			return NewRaid(msg)
		}
		return NewEgg(msg)
	case "egg":
		return NewEgg(msg)
	case "weather":
		return NewWeather(msg)
	default:
		return nil, fmt.Errorf("unsupported event type %q", typ)
	}
}

// baseBag fills the location fields shared by every kind.
func baseBag(dts map[string]string, e Event, units string) {
	lat, lng := e.Coordinates()
	s := e.Scratch()

	dts["lat"] = fmt.Sprintf("%f", lat)
	dts["lng"] = fmt.Sprintf("%f", lng)
	dts["lat_5"] = fmt.Sprintf("%.5f", lat)
	dts["lng_5"] = fmt.Sprintf("%.5f", lng)
	dts["gmaps"] = geo.GMapsLink(lat, lng)
	dts["applemaps"] = geo.AppleMapsLink(lat, lng)
	dts["geofence"] = s.Geofence
	dts["channel_id"] = s.ChannelID
	dts["direction"] = s.Bearing
	if s.Distance >= 0 {
		dts["distance"] = geo.DistanceString(s.Distance, units)
	} else {
		dts["distance"] = UnknownStr
	}
}

// overlay copies the matched filter's custom fields in first so standard
// fields win on key collision, as the original rendering did.
func overlay(s *Scratch) map[string]string {
	dts := make(map[string]string, len(s.CustomFields)+24)
	for k, v := range s.CustomFields {
		dts[k] = v
	}
	return dts
}

func asString(v any, def string) string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return def
		}
		return t
	case float64:
		return fmt.Sprintf("%v", t)
	default:
		return def
	}
}

func asFloat(v any, def float64) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		var f float64
		if _, err := fmt.Sscanf(t, "%f", &f); err == nil {
			return f
		}
	}
	return def
}

func asInt(v any, def int) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case string:
		var i int
		if _, err := fmt.Sscanf(t, "%d", &i); err == nil {
			return i
		}
	}
	return def
}

// asTime interprets an epoch-seconds payload field, zero when absent.
func asTime(v any) time.Time {
	sec := asFloat(v, 0)
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(int64(sec), 0).UTC()
}
