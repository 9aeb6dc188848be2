// Package geo holds the pure coordinate math used when enriching events:
// geodesic distance, cardinal bearing, and the map-link / display helpers
// that end up in outbound data bags.
package geo

import (
	"fmt"
	"math"
	"time"
)

const earthRadiusKm = 6371.0

var cardinals = []string{"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW"}

// Distance returns the haversine distance between two points. The unit of
// the result is meters for metric and yards for imperial, matching the
// granularity the display strings are built from.
func Distance(lat1, lng1, lat2, lng2 float64, units string) float64 {
	rLat1, rLat2 := radians(lat1), radians(lat2)
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	km := 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	if units == "imperial" {
		return km * 1093.6133 // yards
	}
	return km * 1000 // meters
}

// Bearing returns the 16-wind cardinal direction from the reference point
// toward the event location.
func Bearing(fromLat, fromLng, toLat, toLng float64) string {
	dLng := radians(toLng - fromLng)
	y := math.Sin(dLng) * math.Cos(radians(toLat))
	x := math.Cos(radians(fromLat))*math.Sin(radians(toLat)) -
		math.Sin(radians(fromLat))*math.Cos(radians(toLat))*math.Cos(dLng)
	deg := math.Mod(degrees(math.Atan2(y, x))+360, 360)
	idx := int(math.Mod(deg/22.5+0.5, 16))
	return cardinals[idx]
}

// DistanceString renders a distance for humans, switching to the large unit
// past one of it.
func DistanceString(dist float64, units string) string {
	if units == "imperial" {
		if dist >= 1760 { // yards per mile
			return fmt.Sprintf("%.1fmi", dist/1760)
		}
		return fmt.Sprintf("%.0fyd", dist)
	}
	if dist >= 1000 {
		return fmt.Sprintf("%.1fkm", dist/1000)
	}
	return fmt.Sprintf("%.0fm", dist)
}

func GMapsLink(lat, lng float64) string {
	return fmt.Sprintf("https://maps.google.com/maps?q=%f,%f", lat, lng)
}

func AppleMapsLink(lat, lng float64) string {
	return fmt.Sprintf("https://maps.apple.com/maps?daddr=%f,%f", lat, lng)
}

// TimeStrings returns the remaining-time, 12h and 24h representations of t
// in the given location.
func TimeStrings(t time.Time, loc *time.Location, now time.Time) (left, h12, h24 string) {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	remaining := t.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	m := int(remaining.Minutes())
	s := int(remaining.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, s),
		local.Format("3:04:05 PM"),
		local.Format("15:04:05")
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }
