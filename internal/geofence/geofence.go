// Package geofence provides named geographic regions with point-containment
// and cell-overlap tests, plus the loader for the `[name]` / `lat,lng`
// boundary file format.
package geofence

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}

// Geofence is a named polygon. Names may encode a parent area with a hyphen
// ("City-Downtown"); see FamilyToken.
type Geofence struct {
	name   string
	points []Point

	minLat, maxLat float64
	minLng, maxLng float64
}

func New(name string, points []Point) (*Geofence, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("geofence %q needs at least 3 vertices, got %d", name, len(points))
	}
	gf := &Geofence{name: name, points: points,
		minLat: points[0].Lat, maxLat: points[0].Lat,
		minLng: points[0].Lng, maxLng: points[0].Lng}
	for _, p := range points[1:] {
		if p.Lat < gf.minLat {
			gf.minLat = p.Lat
		}
		if p.Lat > gf.maxLat {
			gf.maxLat = p.Lat
		}
		if p.Lng < gf.minLng {
			gf.minLng = p.Lng
		}
		if p.Lng > gf.maxLng {
			gf.maxLng = p.Lng
		}
	}
	return gf, nil
}

func (g *Geofence) Name() string { return g.name }

// Contains reports whether the point falls inside the polygon (ray casting
// with a bounding-box short circuit).
func (g *Geofence) Contains(lat, lng float64) bool {
	if lat < g.minLat || lat > g.maxLat || lng < g.minLng || lng > g.maxLng {
		return false
	}
	inside := false
	n := len(g.points)
	j := n - 1
	for i := 0; i < n; i++ {
		pi, pj := g.points[i], g.points[j]
		if (pi.Lng > lng) != (pj.Lng > lng) &&
			lat < (pj.Lat-pi.Lat)*(lng-pi.Lng)/(pj.Lng-pi.Lng)+pi.Lat {
			inside = !inside
		}
		j = i
	}
	return inside
}

// Overlaps reports whether a weather-cell footprint touches this fence.
// Any cell corner inside the fence, or any fence vertex inside the cell's
// bounding box, counts as overlap.
func (g *Geofence) Overlaps(cell []Point) bool {
	if len(cell) == 0 {
		return false
	}
	for _, c := range cell {
		if g.Contains(c.Lat, c.Lng) {
			return true
		}
	}
	minLat, maxLat := cell[0].Lat, cell[0].Lat
	minLng, maxLng := cell[0].Lng, cell[0].Lng
	for _, c := range cell[1:] {
		if c.Lat < minLat {
			minLat = c.Lat
		}
		if c.Lat > maxLat {
			maxLat = c.Lat
		}
		if c.Lng < minLng {
			minLng = c.Lng
		}
		if c.Lng > maxLng {
			maxLng = c.Lng
		}
	}
	for _, p := range g.points {
		if p.Lat >= minLat && p.Lat <= maxLat && p.Lng >= minLng && p.Lng <= maxLng {
			return true
		}
	}
	return false
}

// FamilyToken returns the area-family token derived from a hyphenated name:
// the segment after the first hyphen ("City-Downtown" -> "Downtown").
// Empty when the name has no hyphen.
func FamilyToken(name string) string {
	if i := strings.Index(name, "-"); i >= 0 {
		parts := strings.Split(name, "-")
		return parts[1]
	}
	return ""
}

// LastToken returns the final hyphen segment of a name, or the whole name
// when it has no hyphen. Weather accumulation dedups on this token.
func LastToken(name string) string {
	parts := strings.Split(name, "-")
	return parts[len(parts)-1]
}

// Set is an ordered collection of geofences. Iteration order is the order
// fences were added, which makes match-mode lookups deterministic.
type Set struct {
	names  []string
	byName map[string]*Geofence
}

func NewSet() *Set {
	return &Set{byName: make(map[string]*Geofence)}
}

func (s *Set) Add(gf *Geofence) error {
	if _, ok := s.byName[gf.Name()]; ok {
		return fmt.Errorf("duplicate geofence %q", gf.Name())
	}
	s.names = append(s.names, gf.Name())
	s.byName[gf.Name()] = gf
	return nil
}

func (s *Set) Get(name string) (*Geofence, bool) {
	gf, ok := s.byName[name]
	return gf, ok
}

func (s *Set) Names() []string { return s.names }

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// LoadFile parses a boundary file of `[name]` section headers followed by
// one `lat,lng` vertex per line. Blank lines and `#` comments are ignored.
func LoadFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geofence file: %w", err)
	}
	defer f.Close()

	set := NewSet()
	var name string
	var points []Point

	flush := func() error {
		if name == "" {
			return nil
		}
		gf, err := New(name, points)
		if err != nil {
			return err
		}
		return set.Add(gf)
	}

	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			if err := flush(); err != nil {
				return nil, err
			}
			name = strings.TrimSpace(line[1 : len(line)-1])
			points = nil
			continue
		}
		parts := strings.SplitN(line, ",", 2)
		if len(parts) != 2 || name == "" {
			return nil, fmt.Errorf("geofence file line %d: malformed vertex %q", lineNo, line)
		}
		lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("geofence file line %d: malformed vertex %q", lineNo, line)
		}
		points = append(points, Point{Lat: lat, Lng: lng})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read geofence file: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return set, nil
}
