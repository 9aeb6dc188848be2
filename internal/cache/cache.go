// Package cache is the per-manager TTL/state store: expiration entries used
// to suppress repeat notifications, and latest-known-value slots for
// facility metadata and cell weather. It is owned by the single worker loop
// and needs no internal locking on the processing path.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"geo-alert-engine/internal/observability"
)

// Snapshot is the serializable cache state handed to persistence backends.
type Snapshot struct {
	Expirations map[string]time.Time `json:"expirations"`
	GymNames    map[string]string    `json:"gym_names"`
	GymDescs    map[string]string    `json:"gym_descs"`
	GymImages   map[string]string    `json:"gym_images"`
	GymTeams    map[string]int       `json:"gym_teams"`
	CellWeather map[string]string    `json:"cell_weather"`
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		Expirations: map[string]time.Time{},
		GymNames:    map[string]string{},
		GymDescs:    map[string]string{},
		GymImages:   map[string]string{},
		GymTeams:    map[string]int{},
		CellWeather: map[string]string{},
	}
}

// normalize backfills nil maps after deserialization from older snapshots.
func (s *Snapshot) normalize() {
	if s.Expirations == nil {
		s.Expirations = map[string]time.Time{}
	}
	if s.GymNames == nil {
		s.GymNames = map[string]string{}
	}
	if s.GymDescs == nil {
		s.GymDescs = map[string]string{}
	}
	if s.GymImages == nil {
		s.GymImages = map[string]string{}
	}
	if s.GymTeams == nil {
		s.GymTeams = map[string]int{}
	}
	if s.CellWeather == nil {
		s.CellWeather = map[string]string{}
	}
}

// Store is the persistence contract: Load returns the stored snapshot for
// the manager name or a fresh one, Save flushes the current state.
type Store interface {
	Load(ctx context.Context, name string) (*Snapshot, error)
	Save(ctx context.Context, name string, snap *Snapshot) error
}

const unknownTeam = -1

// Cache wraps a snapshot with the typed operations the processors use.
type Cache struct {
	name  string
	store Store
	snap  *Snapshot
}

// New loads or creates the named cache through the given store.
func New(ctx context.Context, name string, store Store) (*Cache, error) {
	snap, err := store.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load cache %q: %w", name, err)
	}
	if snap == nil {
		snap = NewSnapshot()
	}
	snap.normalize()
	return &Cache{name: name, store: store, snap: snap}, nil
}

// Expiration returns the live suppression entry for (kind, id). An entry
// whose stored time has passed counts as absent and will be replaced by the
// next SetExpiration.
func (c *Cache) Expiration(kind, id string, now time.Time) (time.Time, bool) {
	t, ok := c.snap.Expirations[kind+":"+id]
	if !ok || !t.After(now) {
		return time.Time{}, false
	}
	return t, true
}

func (c *Cache) SetExpiration(kind, id string, t time.Time) {
	c.snap.Expirations[kind+":"+id] = t
}

// GymName records the observed name when known and returns the latest
// known value. Same read-modify-write shape for description and image.
func (c *Cache) GymName(id, observed string) string {
	return c.latest(c.snap.GymNames, id, observed)
}

func (c *Cache) GymDesc(id, observed string) string {
	return c.latest(c.snap.GymDescs, id, observed)
}

func (c *Cache) GymImage(id, observed string) string {
	return c.latest(c.snap.GymImages, id, observed)
}

func (c *Cache) latest(m map[string]string, id, observed string) string {
	if observed != "" && observed != "unknown" {
		m[id] = observed
		return observed
	}
	if v, ok := m[id]; ok {
		return v
	}
	return "unknown"
}

// GymTeam returns the last observed controlling team, or -1 when never seen.
func (c *Cache) GymTeam(id string) int {
	if t, ok := c.snap.GymTeams[id]; ok {
		return t
	}
	return unknownTeam
}

func (c *Cache) SetGymTeam(id string, team int) {
	c.snap.GymTeams[id] = team
}

// CellWeather returns the last observed condition for a cell, "" when
// never seen. Weather slots are overwritten, never swept.
func (c *Cache) CellWeather(cellID string) string {
	return c.snap.CellWeather[cellID]
}

func (c *Cache) SetCellWeather(cellID, condition string) {
	c.snap.CellWeather[cellID] = condition
}

// Clean drops expiration entries whose stored time is in the past.
// Latest-value slots are never swept.
func (c *Cache) Clean(now time.Time) int {
	removed := 0
	for k, t := range c.snap.Expirations {
		if !t.After(now) {
			delete(c.snap.Expirations, k)
			removed++
		}
	}
	observability.CacheEntries.Set(float64(len(c.snap.Expirations)))
	return removed
}

// CleanAndSave is the periodic sweep-and-persist: drop dead entries, then
// flush the snapshot through the store.
func (c *Cache) CleanAndSave(ctx context.Context, now time.Time) {
	start := time.Now()
	removed := c.Clean(now)
	if err := c.store.Save(ctx, c.name, c.snap); err != nil {
		log.Error().Err(err).Str("cache", c.name).Msg("cache persist failed")
	}
	observability.SweepDuration.Observe(time.Since(start).Seconds())
	log.Debug().Str("cache", c.name).Int("removed", removed).Msg("cache sweep complete")
}
