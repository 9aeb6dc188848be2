package manager

import (
	"sync"

	"github.com/rs/zerolog/log"

	"geo-alert-engine/internal/event"
	"geo-alert-engine/internal/observability"
)

// dispatch builds the outbound data bag for a matched event and delivers
// it to every alarm bound by the rule. Each delivery runs as its own
// goroutine; the call returns once all of them finish, and a failure in
// one never reaches its siblings.
func (m *Manager) dispatch(e event.Event, alarmNames []string) {
	bag := e.DataBag(m.nowFn(), m.tz, m.units)

	// Weather describes an area, not a point; street addresses and travel
	// times are meaningless for a cell.
	if m.gmapsSvc != nil && e.Kind() != event.KindWeather {
		lat, lng := e.Coordinates()
		if m.reverseGeo {
			for k, v := range m.gmapsSvc.ReverseGeocode(lat, lng, m.language) {
				bag[k] = v
			}
		}
		for _, mode := range m.travelModes {
			for k, v := range m.gmapsSvc.DistanceMatrix(mode, lat, lng, m.lat, m.lng, m.language, m.units) {
				bag[k] = v
			}
		}
	}

	var wg sync.WaitGroup
	for _, name := range alarmNames {
		alarm, ok := m.alarmSet[name]
		if !ok {
			log.Error().Str("alarm", name).Msg("alarm not found")
			continue
		}
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Error().Str("alarm", name).Interface("panic", r).
						Msg("alarm delivery panicked")
				}
			}()
			if err := alarm.Deliver(e.Kind(), bag); err != nil {
				log.Error().Err(err).Str("alarm", name).Str("event", e.ID()).
					Msg("alarm delivery failed")
				return
			}
			observability.NotificationsTotal.WithLabelValues(name, string(e.Kind())).Inc()
		}(name)
	}
	wg.Wait()
}
