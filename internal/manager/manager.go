// Package manager is the event-processing engine: a single worker loop
// drains the inbound queue, routes each event to its kind's processor, and
// fans matched notifications out to the configured alarms.
package manager

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"geo-alert-engine/internal/alarms"
	"geo-alert-engine/internal/cache"
	"geo-alert-engine/internal/event"
	"geo-alert-engine/internal/filters"
	"geo-alert-engine/internal/geofence"
	"geo-alert-engine/internal/gmaps"
	"geo-alert-engine/internal/observability"
)

// Locale resolves display names for notification text. The identity
// default keeps locale content out of the engine.
type Locale interface {
	MonsterName(id int) string
	WeatherName(condition string) string
}

type defaultLocale struct{}

func (defaultLocale) MonsterName(id int) string { return "#" + strconv.Itoa(id) }

func (defaultLocale) WeatherName(condition string) string { return condition }

// Options carries everything a Manager needs at construction. Filters,
// geofences, alarms and channels are immutable once handed over.
type Options struct {
	Name      string
	Units     string // "metric" | "imperial"
	Language  string
	Timezone  *time.Location
	TimeLimit time.Duration
	Quiet     bool

	// Reference location; HasLocation false skips distance enrichment.
	HasLocation bool
	Lat, Lng    float64

	Filters   *filters.Config
	Geofences *geofence.Set
	Alarms    map[string]alarms.Alarm
	Channels  map[string]map[string]string // geofence -> filter base -> channel id
	Cache     *cache.Cache
	Locale    Locale
	GMaps     gmaps.Service

	QueueSize      int
	JoinTimeout    time.Duration
	DequeueTimeout time.Duration
	SweepInterval  time.Duration
}

// Manager owns the queue, the rule tables, and the worker goroutine.
// All mutable state is confined to the worker; the alarm set and channel
// map are read-only after construction and safe for fan-out reads.
type Manager struct {
	name      string
	units     string
	language  string
	tz        *time.Location
	timeLimit time.Duration
	quiet     bool

	hasLocation bool
	lat, lng    float64

	filters   *filters.Config
	geofences *geofence.Set
	alarmSet  map[string]alarms.Alarm
	channels  map[string]map[string]string
	cache     *cache.Cache
	locale    Locale

	gmapsSvc    gmaps.Service
	reverseGeo  bool
	travelModes []string

	rules     map[event.Kind]map[string]Rule
	ruleOrder map[event.Kind][]string

	queue          chan event.Event
	stopFlag       atomic.Bool
	done           chan struct{}
	joinTimeout    time.Duration
	dequeueTimeout time.Duration
	sweepInterval  time.Duration

	nowFn func() time.Time
}

func New(opts Options) (*Manager, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("manager needs a name")
	}
	if opts.Filters == nil {
		return nil, fmt.Errorf("manager %q needs a filter config", opts.Name)
	}
	if opts.Cache == nil {
		return nil, fmt.Errorf("manager %q needs a cache", opts.Name)
	}
	if opts.Timezone == nil {
		opts.Timezone = time.UTC
	}
	if opts.Locale == nil {
		opts.Locale = defaultLocale{}
	}
	if opts.Geofences == nil {
		opts.Geofences = geofence.NewSet()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1024
	}
	if opts.JoinTimeout <= 0 {
		opts.JoinTimeout = 20 * time.Second
	}
	if opts.DequeueTimeout <= 0 {
		opts.DequeueTimeout = 5 * time.Second
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 5 * time.Minute
	}
	if !opts.HasLocation {
		log.Warn().Str("manager", opts.Name).
			Msg("no reference location set; distance fields will stay unknown")
	}

	m := &Manager{
		name:           opts.Name,
		units:          opts.Units,
		language:       opts.Language,
		tz:             opts.Timezone,
		timeLimit:      opts.TimeLimit,
		quiet:          opts.Quiet,
		hasLocation:    opts.HasLocation,
		lat:            opts.Lat,
		lng:            opts.Lng,
		filters:        opts.Filters,
		geofences:      opts.Geofences,
		alarmSet:       opts.Alarms,
		channels:       opts.Channels,
		cache:          opts.Cache,
		locale:         opts.Locale,
		gmapsSvc:       opts.GMaps,
		rules:          make(map[event.Kind]map[string]Rule),
		ruleOrder:      make(map[event.Kind][]string),
		queue:          make(chan event.Event, opts.QueueSize),
		done:           make(chan struct{}),
		joinTimeout:    opts.JoinTimeout,
		dequeueTimeout: opts.DequeueTimeout,
		sweepInterval:  opts.SweepInterval,
		nowFn:          func() time.Time { return time.Now().UTC() },
	}
	log.Info().Str("manager", m.name).Msg("manager created")
	return m, nil
}

func (m *Manager) Name() string { return m.name }

// EnableReverseGeocode turns on reverse-geocoding enrichment.
func (m *Manager) EnableReverseGeocode() error {
	if m.gmapsSvc == nil {
		return fmt.Errorf("cannot enable reverse geocoding: no geocoding service configured")
	}
	m.reverseGeo = true
	return nil
}

// EnableDistanceMatrix turns on travel-distance enrichment for one mode.
func (m *Manager) EnableDistanceMatrix(mode string) error {
	if m.gmapsSvc == nil {
		return fmt.Errorf("cannot enable distance matrix: no geocoding service configured")
	}
	if !m.hasLocation {
		return fmt.Errorf("cannot enable distance matrix: no reference location set")
	}
	if !gmaps.TravelModes[mode] {
		return fmt.Errorf("cannot enable distance matrix: %q is not a valid mode", mode)
	}
	for _, m2 := range m.travelModes {
		if m2 == mode {
			return nil
		}
	}
	m.travelModes = append(m.travelModes, mode)
	return nil
}

// Enqueue hands an event to the worker without blocking the producer.
// A full queue drops the event with a warning.
func (m *Manager) Enqueue(e event.Event) {
	select {
	case m.queue <- e:
		observability.QueueDepth.Set(float64(len(m.queue)))
	default:
		log.Warn().Str("manager", m.name).Str("event", e.ID()).
			Msg("inbound queue full; event dropped")
	}
}

// Start launches the worker goroutine.
func (m *Manager) Start() {
	go m.run()
}

// Stop raises the shutdown flag. The worker observes it only once the
// queue has drained, so every already-queued event is still processed.
func (m *Manager) Stop() {
	log.Info().Str("manager", m.name).Int("queued", len(m.queue)).
		Msg("manager shutting down")
	m.stopFlag.Store(true)
}

// Join waits for the worker to finish, up to the configured join timeout.
func (m *Manager) Join() {
	select {
	case <-m.done:
		log.Info().Str("manager", m.name).Msg("manager stopped")
	case <-time.After(m.joinTimeout):
		log.Warn().Str("manager", m.name).
			Msg("manager could not be stopped in time; abandoning worker")
	}
}

func (m *Manager) run() {
	defer close(m.done)

	for name, a := range m.alarmSet {
		if err := a.Connect(); err != nil {
			log.Error().Err(err).Str("alarm", name).Msg("alarm connect failed")
			continue
		}
		if err := a.StartupMessage(); err != nil {
			log.Error().Err(err).Str("alarm", name).Msg("alarm startup message failed")
		}
	}

	ctx := context.Background()
	lastClean := m.nowFn()
	for {
		if m.nowFn().Sub(lastClean) > m.sweepInterval {
			m.cache.CleanAndSave(ctx, m.nowFn())
			lastClean = m.nowFn()
		}

		select {
		case e := <-m.queue:
			observability.QueueDepth.Set(float64(len(m.queue)))
			m.safeProcess(e)
		case <-time.After(m.dequeueTimeout):
			if m.stopFlag.Load() && len(m.queue) == 0 {
				m.cache.CleanAndSave(ctx, m.nowFn())
				return
			}
		}
	}
}

// safeProcess routes one event to its processor. A failure inside
// processing is logged and never aborts the loop.
func (m *Manager) safeProcess(e event.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("manager", m.name).Str("event", e.ID()).
				Interface("panic", r).Msg("error during event processing")
			observability.EventsTotal.WithLabelValues(string(e.Kind()), "error").Inc()
		}
	}()

	log.Debug().Str("event", e.ID()).Str("kind", string(e.Kind())).Msg("processing event")

	var notified bool
	switch ev := e.(type) {
	case *event.Monster:
		notified = m.processMonster(ev)
	case *event.Stop:
		notified = m.processStop(ev)
	case *event.Gym:
		notified = m.processGym(ev)
	case *event.Egg:
		notified = m.processEgg(ev)
	case *event.Raid:
		notified = m.processRaid(ev)
	case *event.Weather:
		notified = m.processWeather(ev)
	default:
		log.Error().Str("event", e.ID()).Msgf("unsupported event type %T", e)
		observability.EventsTotal.WithLabelValues("unknown", "error").Inc()
		return
	}

	outcome := "dropped"
	if notified {
		outcome = "notified"
	}
	observability.EventsTotal.WithLabelValues(string(e.Kind()), outcome).Inc()
}
