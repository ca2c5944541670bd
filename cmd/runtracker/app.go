package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/goodtune/runtracker/internal/config"
	"github.com/goodtune/runtracker/internal/geo"
	"github.com/goodtune/runtracker/internal/history"
	"github.com/goodtune/runtracker/internal/location"
	"github.com/goodtune/runtracker/internal/mapview"
	"github.com/goodtune/runtracker/internal/notification"
	"github.com/goodtune/runtracker/internal/permission"
	"github.com/goodtune/runtracker/internal/present"
	"github.com/goodtune/runtracker/internal/storage"
	"github.com/goodtune/runtracker/internal/storage/bolt"
	"github.com/goodtune/runtracker/internal/storage/memory"
	storageredis "github.com/goodtune/runtracker/internal/storage/redis"
	"github.com/goodtune/runtracker/internal/tracking"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app is the tracking session and everything observing it, wired from
// configuration. serve and run share it.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	store       storage.Store
	redis       *redis.Client // location provider client, nil unless source is redis
	hub         *tracking.Hub
	controller  *tracking.Controller
	accumulator *tracking.Accumulator
	feed        *location.Feed
	push        *location.Push
	view        *mapview.View
	notifier    *notification.Notifier
	presenter   *present.Presenter
	recorder    *history.Recorder
	pruner      *history.PruneScheduler

	samples chan geo.Point
	route   chan geo.Point

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// newApp builds the application. in and out are used by the permission
// prompt and the result presenter.
func newApp(cfg *config.Config, in io.Reader, out io.Writer, logger zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.store = store

	provider, err := a.openProvider()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize location provider: %w", err)
	}

	gate, err := openGate(cfg.Permission, in, out, logger)
	if err != nil {
		a.closeResources()
		return nil, err
	}

	pruner, err := history.NewPruneScheduler(store.Results(), cfg.Storage.PruneTime, cfg.Storage.RetentionDays, logger)
	if err != nil {
		a.closeResources()
		return nil, fmt.Errorf("failed to initialize prune scheduler: %w", err)
	}
	a.pruner = pruner

	a.hub = tracking.NewHub(cfg.Tracking.EventBuffer, logger)
	state := tracking.NewState(a.hub, tracking.RealClock{})

	a.samples = make(chan geo.Point, cfg.Tracking.EventBuffer)
	a.route = make(chan geo.Point, cfg.Tracking.EventBuffer)
	a.feed = location.NewFeed(provider, a.samples, location.FeedConfig{
		FastestInterval: config.Duration(cfg.Location.FastestInterval),
	}, nil, logger)

	a.controller = tracking.NewController(state, a.feed, gate, tracking.Config{
		CountdownTicks:    cfg.Tracking.CountdownTicks,
		CountdownInterval: config.Duration(cfg.Tracking.CountdownInterval),
	}, logger)
	a.accumulator = tracking.NewAccumulator(state, logger)

	a.view = mapview.NewView(mapview.Config{
		FollowZoom:    cfg.Map.FollowZoom,
		BoundsPadding: cfg.Map.BoundsPadding,
	}, logger)
	a.notifier = notification.NewNotifier(logger)
	a.presenter = present.NewPresenter(out, config.Duration(cfg.Tracking.ResultsDelay), logger)
	a.recorder = history.NewRecorder(store.Results(), logger)

	return a, nil
}

// start subscribes the observers and starts the background goroutines. All
// subscriptions exist before start returns, so no session event is missed.
func (a *app) start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)

	observers := []struct {
		name string
		run  func(context.Context, *tracking.Subscription)
	}{
		{"map-view", a.view.Run},
		{"notification", a.notifier.Run},
		{"presenter", a.presenter.Run},
		{"history", a.recorder.Run},
	}
	for _, o := range observers {
		sub := a.hub.Subscribe(o.name)
		run := o.run
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			run(ctx, sub)
		}()
	}

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.forward(ctx)
	}()
	go func() {
		defer a.wg.Done()
		_ = a.accumulator.Run(ctx, a.route)
	}()

	a.pruner.Start()
}

// forward moves samples from the feed to the accumulator, updating the map's
// last known location on the way.
func (a *app) forward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case p := <-a.samples:
			a.view.ObserveLocation(p)
			select {
			case a.route <- p:
			case <-ctx.Done():
				return
			}
		}
	}
}

// close stops the session, the observers and the scheduler, then releases
// storage and connections.
func (a *app) close() {
	if err := a.controller.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close session controller")
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.hub.Close()
	a.wg.Wait()
	a.pruner.Stop()
	a.closeResources()
}

func (a *app) closeResources() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close location redis client")
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close storage")
	}
}

func (a *app) openProvider() (location.Provider, error) {
	cfg := a.cfg.Location

	switch cfg.Source {
	case "replay":
		points, err := location.LoadReplayFile(cfg.ReplayFile)
		if err != nil {
			return nil, err
		}
		a.logger.Info().
			Str("file", cfg.ReplayFile).
			Int("points", len(points)).
			Msg("Replay route loaded")
		return location.NewReplay(points, config.Duration(cfg.Interval)), nil

	case "redis":
		client, err := storageredis.NewClient(a.cfg.Storage.Redis)
		if err != nil {
			return nil, err
		}
		a.redis = client
		return location.NewRedis(client, locationChannel(cfg), a.logger), nil

	case "push", "":
		a.push = location.NewPush(cfg.PushBacklog)
		return a.push, nil

	default:
		return nil, fmt.Errorf("unsupported location source: %s", cfg.Source)
	}
}

func openGate(cfg config.PermissionConfig, in io.Reader, out io.Writer, logger zerolog.Logger) (tracking.PermissionGate, error) {
	if cfg.Mode == "prompt" {
		return permission.NewPrompt(in, out, cfg.MaxDenials, logger), nil
	}
	status, err := permission.ParseStatus(cfg.Mode)
	if err != nil {
		return nil, err
	}
	return permission.NewStatic(status), nil
}

func openStorage(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "memory", "":
		return memory.Open(cfg.CacheSize)
	case "bolt":
		return bolt.Open(cfg.Path)
	case "redis":
		return storageredis.Open(cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// locationChannel is the redis channel named by cfg, derived from the device
// unless set explicitly.
func locationChannel(cfg config.LocationConfig) string {
	if cfg.Channel != "" {
		return cfg.Channel
	}
	return location.ChannelName(cfg.Device)
}
