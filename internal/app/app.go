// Package app wires the camera, hand tracker, capture engine and the
// surfaces that present and store its translations.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/clock"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/interpret"
	"github.com/ayusman/mudra/internal/lang"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/sensor"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tracker"
)

// shutdownTimeout bounds the HTTP server drain on Stop.
const shutdownTimeout = 5 * time.Second

// Listener is told about control changes made through any surface, so
// the tray and the HTTP API stay in agreement.
type Listener interface {
	SetPaused(paused bool)
	SetLanguage(name string)
}

// Deps replaces collaborators. Nil fields are built from the config.
type Deps struct {
	Camera      capture.Camera
	Detector    detector.Detector
	Interpreter interpret.Interpreter
	Clock       clock.Clock
	Logger      zerolog.Logger

	// Presenters receive engine events after the built-in ones.
	Presenters []engine.Presenter
	Listeners  []Listener
}

// App is the running mudra process.
type App struct {
	cfg     config.Config
	log     zerolog.Logger
	clock   clock.Clock
	store   *store.Store
	camera  capture.Camera
	detect  detector.Detector
	tracker *tracker.Tracker
	engine  *engine.Engine
	metrics *metrics.Metrics
	events  *server.EventHub
	server  *server.Server
	plugins *plugin.Manager
	sink    *plugin.Sink
	history *History

	listeners []Listener

	mu      sync.Mutex
	stopCh  chan struct{}
	done    chan struct{}
	stopped bool
}

// New builds the application from cfg. The camera is not opened until
// Start.
func New(cfg config.Config, deps Deps) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	log := deps.Logger

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &App{
		cfg:       cfg,
		log:       log.With().Str("component", "app").Logger(),
		clock:     clk,
		store:     st,
		metrics:   metrics.New(),
		listeners: deps.Listeners,
	}

	if err := a.restoreSettings(); err != nil {
		st.Close()
		return nil, err
	}

	a.camera = deps.Camera
	if a.camera == nil {
		a.camera = capture.NewCamera(a.cfg.Camera.Device)
	}
	a.camera.SetFPS(a.cfg.Camera.FPS)

	sensorCfg := a.cfg.Sensor
	a.detect = deps.Detector
	if a.detect == nil && sensorCfg.Source == sensor.SourceLandmarks {
		mp, err := detector.NewMediaPipeDetector(a.cfg.Detector, log)
		if err != nil {
			a.log.Warn().Err(err).Msg("MediaPipe not available, falling back to frame differencing")
			sensorCfg.Source = sensor.SourceFrameDiff
		} else {
			a.detect = mp
			a.log.Info().Msg("using MediaPipe hand detection")
		}
	}
	a.tracker = tracker.New(sensorCfg, a.camera, a.detect, clk, log)

	interp := deps.Interpreter
	if interp == nil {
		interp, err = interpret.New(a.cfg.Interpreter, clk)
		if err != nil {
			a.closeResources()
			return nil, fmt.Errorf("interpreter: %w", err)
		}
	}

	a.events = server.NewEventHub(func() engine.Status { return a.engine.Status() }, log)
	a.history = NewHistory(st, a.cfg.Store.MaxHistory, log)
	presenters := engine.Presenters{a.events, a.history}

	if a.cfg.Plugins.Enabled {
		a.plugins = plugin.NewManager(a.cfg.Plugins.Dir)
		if err := a.plugins.Discover(); err != nil {
			a.log.Warn().Err(err).Str("dir", a.cfg.Plugins.Dir).Msg("plugin discovery failed")
		}
		for dir, err := range a.plugins.Skipped() {
			a.log.Warn().Err(err).Str("dir", dir).Msg("plugin skipped")
		}
		for _, p := range a.plugins.List() {
			a.log.Info().Str("plugin", p.Manifest.Name).Str("version", p.Manifest.Version).Msg("plugin loaded")
		}
		a.sink = plugin.NewSink(a.plugins, plugin.NewExecutor(a.cfg.Plugins.Timeout), log)
		presenters = append(presenters, a.sink)
	}
	presenters = append(presenters, deps.Presenters...)

	a.engine, err = engine.New(a.cfg.Engine, engine.Deps{
		Frames:      a.tracker,
		Interpreter: interp,
		Presenter:   presenters,
		Clock:       clk,
		Logger:      log,
		Metrics:     a.metrics,
	})
	if err != nil {
		a.closeResources()
		return nil, err
	}

	a.server = server.New(server.Config{
		StaticDir:  a.cfg.Server.StaticDir,
		Controller: a,
		Store:      st,
		Preview:    a.tracker,
		Events:     a.events,
		Metrics:    a.metrics.Handler(),
		Logger:     log,
	})

	return a, nil
}

// restoreSettings applies persisted choices over the config file. The
// configured language is normalized to its English name.
func (a *App) restoreSettings() error {
	l, err := lang.Resolve(a.cfg.Engine.Language)
	if err != nil {
		return fmt.Errorf("engine language: %w", err)
	}
	a.cfg.Engine.Language = l.Name

	settings := a.store.Settings()
	if v, err := settings.Get(store.SettingLanguage); err == nil {
		if l, err := lang.Resolve(v); err == nil {
			a.cfg.Engine.Language = l.Name
		} else {
			a.log.Warn().Str("language", v).Msg("ignoring stored language")
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("read language setting: %w", err)
	}

	if v, err := settings.Get(store.SettingCameraDevice); err == nil {
		if device, err := strconv.Atoi(v); err == nil && device >= 0 {
			a.cfg.Camera.Device = device
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("read camera setting: %w", err)
	}
	return nil
}

// Start opens the camera, starts the pipeline and, when enabled, the HTTP
// server.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return errors.New("app already stopped")
	}
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done)

	if a.cfg.Server.Enabled {
		go func() {
			if err := a.server.ListenAndServe(a.cfg.Server.Addr); err != nil {
				a.log.Error().Err(err).Str("addr", a.cfg.Server.Addr).Msg("http server failed")
			}
		}()
	}

	a.log.Info().
		Int("camera", a.camera.Device()).
		Str("language", a.engine.Language()).
		Dur("tick", a.cfg.Pipeline.Tick).
		Msg("pipeline started")
	return nil
}

// Stop halts the pipeline and releases every resource. It is safe to call
// more than once.
func (a *App) Stop() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	stopCh, done := a.stopCh, a.done
	a.stopCh = nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-done
	}

	a.engine.Close()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Error().Err(err).Msg("http shutdown")
	}

	a.closeResources()
	a.log.Info().Msg("pipeline stopped")
}

func (a *App) closeResources() {
	if a.sink != nil {
		a.sink.Close()
	}
	if a.history != nil {
		a.history.Close()
	}
	if a.tracker != nil {
		a.tracker.Close()
	}
	if a.camera != nil {
		if err := a.camera.Close(); err != nil {
			a.log.Error().Err(err).Msg("close camera")
		}
	}
	if a.detect != nil {
		if err := a.detect.Close(); err != nil {
			a.log.Error().Err(err).Msg("close detector")
		}
	}
	if err := a.store.Close(); err != nil {
		a.log.Error().Err(err).Msg("close store")
	}
}

// Handler exposes the HTTP API without listening.
func (a *App) Handler() http.Handler {
	return a.server
}

// Engine returns the capture engine.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Store returns the history database.
func (a *App) Store() *store.Store {
	return a.store
}

// Status implements api.Controller.
func (a *App) Status() engine.Status {
	return a.engine.Status()
}

// Pause implements api.Controller.
func (a *App) Pause() {
	a.engine.Pause()
	for _, l := range a.listeners {
		l.SetPaused(true)
	}
}

// Resume implements api.Controller.
func (a *App) Resume() {
	a.engine.Resume()
	for _, l := range a.listeners {
		l.SetPaused(false)
	}
}

// SetLanguage switches the target language and remembers it.
func (a *App) SetLanguage(l lang.Language) error {
	if err := a.engine.SetLanguage(l.Name); err != nil {
		return err
	}
	if err := a.store.Settings().Set(store.SettingLanguage, l.Name); err != nil {
		return fmt.Errorf("save language: %w", err)
	}
	for _, ln := range a.listeners {
		ln.SetLanguage(l.Name)
	}
	return nil
}

// NextCamera moves capture to the next device, wrapping to device 0 when
// the next one cannot be opened, and remembers the choice.
func (a *App) NextCamera() (int, error) {
	current := a.camera.Device()
	next := current + 1

	if err := a.camera.SwitchDevice(next); err != nil {
		a.log.Debug().Err(err).Int("device", next).Msg("camera unavailable, wrapping")
		if current == 0 {
			return current, fmt.Errorf("switch camera: %w", err)
		}
		next = 0
		if err := a.camera.SwitchDevice(next); err != nil {
			return current, fmt.Errorf("switch camera: %w", err)
		}
	}

	a.tracker.Reset()
	if err := a.store.Settings().Set(store.SettingCameraDevice, strconv.Itoa(next)); err != nil {
		a.log.Error().Err(err).Msg("save camera device")
	}
	a.log.Info().Int("device", next).Msg("camera switched")
	return next, nil
}
