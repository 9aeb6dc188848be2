package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration (file + env overrides)
type Config struct {
	Server struct {
		Addr     string `mapstructure:"addr"`
		LogLevel string `mapstructure:"log_level"`
	} `mapstructure:"server"`

	Manager struct {
		Name          string   `mapstructure:"name"`
		Location      string   `mapstructure:"location"` // "lat,lng" or empty
		Units         string   `mapstructure:"units"`    // "metric" | "imperial"
		Locale        string   `mapstructure:"locale"`
		Timezone      string   `mapstructure:"timezone"`
		TimeLimit     int      `mapstructure:"time_limit"` // min seconds remaining
		Quiet         bool     `mapstructure:"quiet"`
		FilterFile    string   `mapstructure:"filter_file"`
		GeofenceFile  string   `mapstructure:"geofence_file"`
		AlarmFile     string   `mapstructure:"alarm_file"`
		ChannelFile   string   `mapstructure:"channel_file"`
		RuleFile      string   `mapstructure:"rule_file"`
		QueueSize     int      `mapstructure:"queue_size"`
		GMapsKey      string   `mapstructure:"gmaps_key"`
		ReverseGeo    bool     `mapstructure:"gmaps_reverse_geocode"`
		TravelModes   []string `mapstructure:"gmaps_distance_matrix"`
		JoinTimeoutMS int      `mapstructure:"join_timeout_ms"`
	} `mapstructure:"manager"`

	Cache struct {
		Backend string `mapstructure:"backend"` // "mem" | "file" | "postgres"
		Dir     string `mapstructure:"dir"`     // file backend snapshot dir
	} `mapstructure:"cache"`

	Postgres struct {
		Host         string `mapstructure:"host"`
		Port         int    `mapstructure:"port"`
		User         string `mapstructure:"user"`
		Password     string `mapstructure:"password"`
		DBName       string `mapstructure:"db_name"`
		SSLMode      string `mapstructure:"ssl_mode"`
		MaxOpenConns int    `mapstructure:"max_open_conns"`
		MaxIdleConns int    `mapstructure:"max_idle_conns"`
	} `mapstructure:"postgres"`
}

func Load() Config {
	v := viper.New()
	v.SetConfigName("application")
	v.SetConfigType("yaml")
	v.AddConfigPath("configs")
	_ = v.ReadInConfig() // optional; env can fully configure

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Errorf("unable to decode config: %w", err))
	}
	validate(&cfg)
	return cfg
}

func validate(c *Config) {
	if c.Server.Addr == "" {
		c.Server.Addr = ":4000"
	}
	if c.Manager.Name == "" {
		c.Manager.Name = "default"
	}
	if c.Manager.Units == "" {
		c.Manager.Units = "metric"
	}
	if c.Manager.Locale == "" {
		c.Manager.Locale = "en"
	}
	if c.Manager.Timezone == "" {
		c.Manager.Timezone = "UTC"
	}
	if c.Manager.QueueSize <= 0 {
		c.Manager.QueueSize = 1024
	}
	if c.Manager.JoinTimeoutMS <= 0 {
		c.Manager.JoinTimeoutMS = 20000
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "mem"
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = "cache"
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.SSLMode == "" {
		c.Postgres.SSLMode = "disable"
	}
	if c.Postgres.MaxOpenConns == 0 {
		c.Postgres.MaxOpenConns = 10
	}
	if c.Postgres.MaxIdleConns == 0 {
		c.Postgres.MaxIdleConns = 10
	}
}

// ParsedLocation returns the configured reference location, or ok=false when
// no location is set. Distance and bearing fields stay unknown without one.
func (c Config) ParsedLocation() (lat, lng float64, ok bool) {
	loc := strings.TrimSpace(c.Manager.Location)
	if loc == "" || strings.EqualFold(loc, "none") {
		return 0, 0, false
	}
	parts := strings.SplitN(loc, ",", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lat, lng, true
}

func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Postgres.User,
		c.Postgres.Password,
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.DBName,
		c.Postgres.SSLMode,
	)
}

func (c Config) JoinTimeout() time.Duration {
	return time.Duration(c.Manager.JoinTimeoutMS) * time.Millisecond
}
