// Package alarms defines the notification sink contract and the factory
// that builds configured sinks from the alarm file. Concrete delivery
// targets are deliberately thin; the engine neither retries nor times out
// on their behalf.
package alarms

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"geo-alert-engine/internal/event"
)

// Alarm is an opaque named sink. Connect and StartupMessage run once when
// the worker starts; Deliver is invoked once per matched event, possibly
// concurrently with other alarms but never concurrently with itself for
// the same match.
type Alarm interface {
	Connect() error
	StartupMessage() error
	Deliver(kind event.Kind, bag map[string]string) error
}

type alarmFile struct {
	Alarms map[string]map[string]any `mapstructure:"alarms"`
}

// Load reads the alarm file and builds every active alarm. Inactive
// entries are skipped, unknown types fail the load.
func Load(path string) (map[string]Alarm, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read alarm file: %w", err)
	}
	var af alarmFile
	if err := v.Unmarshal(&af); err != nil {
		return nil, fmt.Errorf("decode alarm file: %w", err)
	}

	out := make(map[string]Alarm, len(af.Alarms))
	for name, settings := range af.Alarms {
		active, _ := settings["active"].(bool)
		if !active {
			log.Debug().Str("alarm", name).Msg("alarm not activated")
			continue
		}
		a, err := factory(name, settings)
		if err != nil {
			return nil, fmt.Errorf("alarm %q: %w", name, err)
		}
		out[name] = a
	}
	log.Info().Int("count", len(out)).Msg("active alarms loaded")
	return out, nil
}

func factory(name string, settings map[string]any) (Alarm, error) {
	typ, _ := settings["type"].(string)
	switch typ {
	case "webhook":
		url, _ := settings["url"].(string)
		if url == "" {
			return nil, fmt.Errorf("webhook alarm needs a url")
		}
		startup, _ := settings["startup_message"].(bool)
		return NewWebhook(name, url, startup), nil
	default:
		return nil, fmt.Errorf("unknown alarm type %q", typ)
	}
}
