// Package app wires hand detection, classification and word composition
// into recognition sessions.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/yubimoji/internal/capture"
	"github.com/ayusman/yubimoji/internal/classifier"
	"github.com/ayusman/yubimoji/internal/detector"
	"github.com/ayusman/yubimoji/internal/event"
	"github.com/ayusman/yubimoji/internal/logging"
	"github.com/ayusman/yubimoji/internal/speech"
	"github.com/ayusman/yubimoji/internal/word"
)

// LocalSessionID identifies the session fed by the local camera.
const LocalSessionID = "local"

// ErrNoCamera is returned by Start when the App has no camera or detector.
var ErrNoCamera = errors.New("camera pipeline not configured")

// Config holds configuration options for the application.
type Config struct {
	Predictor         classifier.Predictor
	Dictionary        *word.Dictionary
	RequestsPerSecond float64
	Threshold         float64

	// Camera and Detector drive the local pipeline. Both are optional;
	// without them only remote sessions are available.
	Camera   capture.Camera
	Detector detector.Detector

	Speaker    speech.Speaker
	SpeakWords bool
	Logger     *slog.Logger
}

// App owns the local recognition session and the camera pipeline feeding it.
type App struct {
	config  Config
	logger  *slog.Logger
	session *Session

	mu      sync.RWMutex
	enabled bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	clock   *capture.FrameClock

	landmarkMu        sync.RWMutex
	landmarkObservers []event.LandmarkObserver

	frameMu     sync.RWMutex
	latestFrame []byte
}

// New creates an App and its local session.
func New(config Config) (*App, error) {
	if config.Predictor == nil {
		return nil, errors.New("app requires a classifier")
	}
	logger := logging.OrNop(config.Logger)

	session, err := NewSession(SessionConfig{
		ID:                LocalSessionID,
		Predictor:         config.Predictor,
		Dictionary:        config.Dictionary,
		RequestsPerSecond: config.RequestsPerSecond,
		Threshold:         config.Threshold,
		Logger:            logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create local session: %w", err)
	}
	if config.Speaker != nil {
		session.AddObserver(speech.NewAnnouncer(config.Speaker, config.SpeakWords))
	}

	return &App{
		config:  config,
		logger:  logging.NewComponentLogger(logger, "app"),
		session: session,
		clock:   capture.NewFrameClock(time.Now()),
	}, nil
}

// Session returns the local session.
func (a *App) Session() *Session {
	return a.session
}

// NewSession creates an independent session sharing the App's classifier
// and dictionary. The caller owns it and must Close it.
func (a *App) NewSession(id string) (*Session, error) {
	return NewSession(SessionConfig{
		ID:                id,
		Predictor:         a.config.Predictor,
		Dictionary:        a.config.Dictionary,
		RequestsPerSecond: a.config.RequestsPerSecond,
		Threshold:         a.config.Threshold,
		Logger:            a.config.Logger,
	})
}

// Dictionary returns the dictionary shared by all sessions.
func (a *App) Dictionary() *word.Dictionary {
	return a.config.Dictionary
}

// AddObserver registers obs on the local session.
func (a *App) AddObserver(obs event.Observer) {
	a.session.AddObserver(obs)
}

// AddLandmarkObserver registers obs for every processed camera frame.
func (a *App) AddLandmarkObserver(obs event.LandmarkObserver) {
	if obs == nil {
		return
	}
	a.landmarkMu.Lock()
	defer a.landmarkMu.Unlock()
	a.landmarkObservers = append(a.landmarkObservers, obs)
}

// SetEnabled pauses or resumes recognition on the local camera.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether recognition is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// HasCamera reports whether the local pipeline can run.
func (a *App) HasCamera() bool {
	return a.config.Camera != nil && a.config.Detector != nil
}

// Running reports whether the camera pipeline is active.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// LatestFrame returns the most recent camera frame as JPEG.
func (a *App) LatestFrame() ([]byte, bool) {
	a.frameMu.RLock()
	defer a.frameMu.RUnlock()
	return a.latestFrame, len(a.latestFrame) > 0
}

// Start opens the camera and begins the detection pipeline.
func (a *App) Start() error {
	if !a.HasCamera() {
		return ErrNoCamera
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.config.Camera.Open(); err != nil {
		return err
	}

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	a.logger.Info("detection pipeline started", "fps", a.config.Camera.FPS())
	return nil
}

// Stop halts the detection pipeline and releases the camera.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh

	if err := a.config.Camera.Close(); err != nil {
		a.logger.Warn("error closing camera", "error", err)
	}
	a.logger.Info("detection pipeline stopped")
}

// Close stops the pipeline, closes the local session and the detector.
func (a *App) Close() error {
	a.Stop()

	var errs []error
	if err := a.session.Close(); err != nil && !errors.Is(err, ErrSessionClosed) {
		errs = append(errs, err)
	}
	if a.config.Detector != nil {
		if err := a.config.Detector.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close detector: %w", err))
		}
	}
	return errors.Join(errs...)
}
