package manager

import (
	"strings"

	"github.com/rs/zerolog/log"

	"geo-alert-engine/internal/event"
	"geo-alert-engine/internal/geo"
	"geo-alert-engine/internal/geofence"
)

// enrichDistance fills distance and bearing from the reference location.
func (m *Manager) enrichDistance(e event.Event) {
	if !m.hasLocation {
		return
	}
	lat, lng := e.Coordinates()
	s := e.Scratch()
	s.Distance = geo.Distance(m.lat, m.lng, lat, lng, m.units)
	s.Bearing = geo.Bearing(m.lat, m.lng, lat, lng)
}

// matchGeofences runs match mode: first containing fence wins, and the
// event's geofence list gains the fence name, the "All" sentinel, and the
// derived family token for hyphenated names. With no fences configured the
// gate fails closed.
func (m *Manager) matchGeofences(e event.Event) bool {
	if m.geofences.Len() == 0 {
		return false
	}
	lat, lng := e.Coordinates()
	s := e.Scratch()
	for _, name := range m.geofences.Names() {
		gf, _ := m.geofences.Get(name)
		if !gf.Contains(lat, lng) {
			continue
		}
		log.Debug().Str("event", e.ID()).Str("geofence", name).Msg("event inside geofence")
		s.GeofenceList = append(s.GeofenceList, name, "All")
		if fam := geofence.FamilyToken(name); fam != "" {
			s.GeofenceList = append(s.GeofenceList, fam)
		}
		return true
	}
	return false
}

// checkFilterGeofences is the filter-restricted check used by the gym
// processor: no constraint on either side passes, a literal "all"
// allowlist expands to every configured fence.
func (m *Manager) checkFilterGeofences(f interface{ Geofences() []string }, e event.Event) bool {
	targets := f.Geofences()
	if m.geofences.Len() == 0 || targets == nil {
		return true
	}
	if len(targets) == 1 && strings.EqualFold(targets[0], "all") {
		targets = m.geofences.Names()
	}
	lat, lng := e.Coordinates()
	for _, name := range targets {
		gf, ok := m.geofences.Get(name)
		if !ok {
			log.Error().Str("geofence", name).Msg("cannot check geofence: does not exist")
			continue
		}
		if gf.Contains(lat, lng) {
			e.Scratch().Geofence = name
			return true
		}
	}
	log.Debug().Str("event", e.ID()).Msg("event rejected: not in filter geofences")
	return false
}

// matchWeatherGeofences accumulates every fence whose footprint the cell
// overlaps, skipping fences whose area family is already covered, and
// appends the "All" sentinel only when something matched.
func (m *Manager) matchWeatherGeofences(w *event.Weather) bool {
	if m.geofences.Len() == 0 {
		return false
	}
	s := w.Scratch()
	for _, name := range m.geofences.Names() {
		gf, _ := m.geofences.Get(name)
		if contains(s.GeofenceList, geofence.LastToken(name)) {
			log.Debug().Str("cell", w.CellID).Str("geofence", name).
				Msg("weather cell already matched parent area")
			continue
		}
		if !gf.Overlaps(w.Cell) {
			continue
		}
		s.GeofenceList = append(s.GeofenceList, name)
		if fam := geofence.FamilyToken(name); fam != "" {
			s.GeofenceList = append(s.GeofenceList, fam)
		}
	}
	if len(s.GeofenceList) == 0 {
		return false
	}
	s.GeofenceList = append(s.GeofenceList, "All")
	return true
}

// resolveChannel looks up the delivery channel for a (geofence, filter)
// pair. The filter's base name is its leading hyphen segment. The channel
// map is keyed lowercase (viper folds config keys), so both lookups fold
// too. Absence at either level is a soft failure.
func (m *Manager) resolveChannel(e event.Event, filterName, geofenceName string) bool {
	base := strings.ToLower(strings.SplitN(filterName, "-", 2)[0])
	byFence, ok := m.channels[strings.ToLower(geofenceName)]
	if !ok {
		return false
	}
	id, ok := byFence[base]
	if !ok {
		return false
	}
	e.Scratch().ChannelID = id
	return true
}

// runRules evaluates every applicable rule for a per-geofence kind: each
// passing filter dispatches once per geofence name on the event that
// resolves a channel.
func (m *Manager) runRules(e event.Event) bool {
	notified := false
	kind := e.Kind()
	names, rules := m.rulesFor(kind)
	set := m.filters.SetFor(kind)
	s := e.Scratch()

	for _, rName := range names {
		rule := rules[rName]
		for _, fName := range rule.Filters {
			f, ok := set.Get(fName)
			if !ok {
				continue
			}
			if !f.CheckEvent(e) {
				continue
			}
			for _, gfName := range s.GeofenceList {
				if !m.resolveChannel(e, fName, gfName) {
					log.Debug().Str("event", e.ID()).Str("geofence", gfName).
						Str("filter", fName).Msg("no channel configured; skipping")
					continue
				}
				s.CustomFields = f.CustomFields()
				if _, ok := m.geofences.Get(gfName); ok {
					s.Geofence = gfName
				} else {
					s.Geofence = s.GeofenceList[0]
				}
				if !m.quiet {
					log.Info().Str("event", e.ID()).Str("kind", string(kind)).
						Str("rule", rName).Str("filter", fName).
						Str("geofence", gfName).Str("channel", s.ChannelID).
						Msg("notification triggered")
				}
				m.dispatch(e, rule.Alarms)
				notified = true
			}
		}
	}
	return notified
}

func (m *Manager) processMonster(mon *event.Monster) bool {
	if !m.filters.Enabled[event.KindMonster] {
		log.Debug().Str("event", mon.ID()).Msg("monster ignored: notifications disabled")
		return false
	}
	mon.Scratch().DisplayName = m.locale.MonsterName(mon.MonsterID)

	now := m.nowFn()
	if _, seen := m.cache.Expiration("monster", mon.EncounterID, now); seen {
		log.Debug().Str("event", mon.ID()).Msg("monster skipped: previously processed")
		return false
	}
	m.cache.SetExpiration("monster", mon.EncounterID, mon.DisappearTime)

	if left := mon.DisappearTime.Sub(now); left < m.timeLimit {
		log.Debug().Str("event", mon.ID()).Dur("remaining", left).
			Msg("monster skipped: not enough time remaining")
		return false
	}
	m.enrichDistance(mon)
	if !m.matchGeofences(mon) {
		log.Debug().Str("event", mon.ID()).Msg("monster skipped: not in any geofence")
		return false
	}
	return m.runRules(mon)
}

func (m *Manager) processStop(stop *event.Stop) bool {
	if !m.filters.Enabled[event.KindStop] {
		log.Debug().Str("event", stop.ID()).Msg("stop ignored: notifications disabled")
		return false
	}
	m.enrichDistance(stop)
	if !m.matchGeofences(stop) {
		log.Debug().Str("event", stop.ID()).Msg("stop skipped: not in any geofence")
		return false
	}
	return m.runRules(stop)
}

func (m *Manager) processGym(gym *event.Gym) bool {
	// Facility metadata and team state feed later battle events, so the
	// cache updates run before any gate can drop this event.
	gym.GymName = m.cache.GymName(gym.GymID, gym.GymName)
	gym.GymDescription = m.cache.GymDesc(gym.GymID, gym.GymDescription)
	gym.GymImage = m.cache.GymImage(gym.GymID, gym.GymImage)

	if m.filters.IgnoreNeutral && gym.NewTeamID == 0 {
		log.Debug().Str("event", gym.ID()).Msg("gym update skipped: new team is neutral")
		return false
	}
	gym.OldTeamID = m.cache.GymTeam(gym.GymID)
	m.cache.SetGymTeam(gym.GymID, gym.NewTeamID)

	if !m.filters.Enabled[event.KindGym] {
		log.Debug().Str("event", gym.ID()).Msg("gym ignored: notifications disabled")
		return false
	}
	if gym.NewTeamID == gym.OldTeamID {
		log.Debug().Str("event", gym.ID()).Msg("gym update skipped: no team change")
		return false
	}
	m.enrichDistance(gym)
	if !m.matchGeofences(gym) {
		log.Debug().Str("event", gym.ID()).Msg("gym skipped: not in any geofence")
		return false
	}

	notified := false
	names, rules := m.rulesFor(event.KindGym)
	set := m.filters.SetFor(event.KindGym)
	for _, rName := range names {
		rule := rules[rName]
		for _, fName := range rule.Filters {
			f, ok := set.Get(fName)
			if !ok {
				continue
			}
			if !f.CheckEvent(gym) || !m.checkFilterGeofences(f, gym) {
				continue
			}
			gym.Scratch().CustomFields = f.CustomFields()
			if !m.quiet {
				log.Info().Str("event", gym.ID()).Str("rule", rName).
					Str("filter", fName).Msg("gym notification triggered")
			}
			m.dispatch(gym, rule.Alarms)
			notified = true
			break // one notification per rule
		}
	}
	return notified
}

func (m *Manager) processEgg(egg *event.Egg) bool {
	egg.GymName = m.cache.GymName(egg.GymID, egg.GymName)
	egg.GymDescription = m.cache.GymDesc(egg.GymID, egg.GymDescription)
	egg.GymImage = m.cache.GymImage(egg.GymID, egg.GymImage)
	if egg.CurrentTeamID == event.UnknownTeam {
		egg.CurrentTeamID = m.cache.GymTeam(egg.GymID)
	}

	if !m.filters.Enabled[event.KindEgg] {
		log.Debug().Str("event", egg.ID()).Msg("egg ignored: notifications disabled")
		return false
	}
	now := m.nowFn()
	if _, seen := m.cache.Expiration("egg", egg.GymID, now); seen {
		log.Debug().Str("event", egg.ID()).Msg("egg skipped: previously processed")
		return false
	}
	m.cache.SetExpiration("egg", egg.GymID, egg.HatchTime)

	if left := egg.HatchTime.Sub(now); left < m.timeLimit {
		log.Debug().Str("event", egg.ID()).Dur("remaining", left).
			Msg("egg skipped: not enough time remaining")
		return false
	}
	m.enrichDistance(egg)
	if !m.matchGeofences(egg) {
		log.Debug().Str("event", egg.ID()).Msg("egg skipped: not in any geofence")
		return false
	}
	return m.runRules(egg)
}

func (m *Manager) processRaid(raid *event.Raid) bool {
	raid.GymName = m.cache.GymName(raid.GymID, raid.GymName)
	raid.GymDescription = m.cache.GymDesc(raid.GymID, raid.GymDescription)
	raid.GymImage = m.cache.GymImage(raid.GymID, raid.GymImage)
	if raid.CurrentTeamID == event.UnknownTeam {
		raid.CurrentTeamID = m.cache.GymTeam(raid.GymID)
	}
	raid.Scratch().DisplayName = m.locale.MonsterName(raid.MonsterID)

	if !m.filters.Enabled[event.KindRaid] {
		log.Debug().Str("event", raid.ID()).Msg("raid ignored: notifications disabled")
		return false
	}
	now := m.nowFn()
	if _, seen := m.cache.Expiration("raid", raid.GymID, now); seen {
		log.Debug().Str("event", raid.ID()).Msg("raid skipped: previously processed")
		return false
	}
	m.cache.SetExpiration("raid", raid.GymID, raid.RaidEnd)

	if left := raid.RaidEnd.Sub(now); left < m.timeLimit {
		log.Debug().Str("event", raid.ID()).Dur("remaining", left).
			Msg("raid skipped: not enough time remaining")
		return false
	}
	m.enrichDistance(raid)
	if !m.matchGeofences(raid) {
		log.Debug().Str("event", raid.ID()).Msg("raid skipped: not in any geofence")
		return false
	}
	return m.runRules(raid)
}

func (m *Manager) processWeather(w *event.Weather) bool {
	if !m.filters.Enabled[event.KindWeather] {
		log.Debug().Str("event", w.ID()).Msg("weather ignored: notifications disabled")
		return false
	}
	w.Scratch().DisplayName = m.locale.WeatherName(w.Condition)

	if m.cache.CellWeather(w.CellID) == w.Condition {
		log.Debug().Str("cell", w.CellID).Str("condition", w.Condition).
			Msg("weather skipped: condition unchanged")
		return false
	}
	m.cache.SetCellWeather(w.CellID, w.Condition)

	if !m.matchWeatherGeofences(w) {
		log.Debug().Str("event", w.ID()).Msg("weather skipped: no geofence overlap")
		return false
	}
	return m.runRules(w)
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
