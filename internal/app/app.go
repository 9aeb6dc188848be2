// Package app wires configuration, storage, the manager, and the ingest
// server into a running process.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"geo-alert-engine/internal/alarms"
	"geo-alert-engine/internal/api"
	"geo-alert-engine/internal/cache"
	"geo-alert-engine/internal/config"
	"geo-alert-engine/internal/filters"
	"geo-alert-engine/internal/geofence"
	"geo-alert-engine/internal/gmaps"
	"geo-alert-engine/internal/manager"
	"geo-alert-engine/internal/storage"
)

func Run(cfg config.Config) {
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mgr, closeStore, err := buildManager(rootCtx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init manager")
	}
	defer closeStore()

	mgr.Start()

	h := api.NewIngestHandler(mgr)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.Router(h),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("ingest server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server crashed")
		}
	}()

	waitForSignal()
	log.Info().Msg("shutdown...")

	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx) // stop intake first so the queue can drain

	mgr.Stop()
	mgr.Join()
}

// buildManager assembles the engine from the configured files. Any
// malformed rule, filter, or alarm fails construction; the process refuses
// to start on a broken configuration.
func buildManager(ctx context.Context, cfg config.Config) (*manager.Manager, func(), error) {
	filterCfg, err := filters.Load(cfg.Manager.FilterFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load filters: %w", err)
	}

	fences := geofence.NewSet()
	if cfg.Manager.GeofenceFile != "" {
		fences, err = geofence.LoadFile(cfg.Manager.GeofenceFile)
		if err != nil {
			return nil, nil, fmt.Errorf("load geofences: %w", err)
		}
	}

	alarmSet, err := alarms.Load(cfg.Manager.AlarmFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load alarms: %w", err)
	}

	channels := map[string]map[string]string{}
	if cfg.Manager.ChannelFile != "" {
		channels, err = manager.LoadChannels(cfg.Manager.ChannelFile)
		if err != nil {
			return nil, nil, fmt.Errorf("load channels: %w", err)
		}
	}

	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	c, err := cache.New(ctx, cfg.Manager.Name, store)
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	tz, err := time.LoadLocation(cfg.Manager.Timezone)
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("load timezone: %w", err)
	}

	lat, lng, hasLoc := cfg.ParsedLocation()

	var gsvc gmaps.Service
	if cfg.Manager.GMapsKey != "" {
		gsvc = gmaps.NewClient(cfg.Manager.GMapsKey)
	}

	mgr, err := manager.New(manager.Options{
		Name:        cfg.Manager.Name,
		Units:       cfg.Manager.Units,
		Language:    cfg.Manager.Locale,
		Timezone:    tz,
		TimeLimit:   time.Duration(cfg.Manager.TimeLimit) * time.Second,
		Quiet:       cfg.Manager.Quiet,
		HasLocation: hasLoc,
		Lat:         lat,
		Lng:         lng,
		Filters:     filterCfg,
		Geofences:   fences,
		Alarms:      alarmSet,
		Channels:    channels,
		Cache:       c,
		GMaps:       gsvc,
		QueueSize:   cfg.Manager.QueueSize,
		JoinTimeout: cfg.JoinTimeout(),
	})
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	if cfg.Manager.RuleFile != "" {
		if err := mgr.LoadRuleFile(cfg.Manager.RuleFile); err != nil {
			closeStore()
			return nil, nil, fmt.Errorf("load rules: %w", err)
		}
	}
	if cfg.Manager.ReverseGeo {
		if err := mgr.EnableReverseGeocode(); err != nil {
			closeStore()
			return nil, nil, err
		}
	}
	for _, mode := range cfg.Manager.TravelModes {
		if err := mgr.EnableDistanceMatrix(mode); err != nil {
			closeStore()
			return nil, nil, err
		}
	}
	return mgr, closeStore, nil
}

func buildStore(ctx context.Context, cfg config.Config) (cache.Store, func(), error) {
	switch cfg.Cache.Backend {
	case "mem":
		return storage.NewMem(), func() {}, nil
	case "file":
		fs, err := storage.NewFile(cfg.Cache.Dir)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	case "postgres":
		ps, err := storage.NewPostgres(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return ps, ps.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

func waitForSignal() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
