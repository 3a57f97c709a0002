// Package app provides the main application logic for the FormCoach exercise evaluation system.
package app

import (
	"errors"
	"log"
	"sync"

	"github.com/ayusman/formcoach/internal/capture"
	"github.com/ayusman/formcoach/internal/exercise"
	"github.com/ayusman/formcoach/internal/feedback"
	"github.com/ayusman/formcoach/internal/pose"
	"github.com/ayusman/formcoach/internal/session"
	"github.com/ayusman/formcoach/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate when no motion is detected.
	IdleFPS = 5
	// ActiveFPS is the frame rate during active coaching.
	ActiveFPS = 15
	// IdleTimeoutMs is the time in milliseconds to wait before switching back to idle mode.
	IdleTimeoutMs = 2000
)

// settingActiveExercise is the settings key the current exercise
// selection is persisted under.
const settingActiveExercise = "active_exercise"

// Config holds configuration options for the application.
type Config struct {
	Store         *store.Store
	PluginDir     string
	CameraID      int
	MotionThresh  float64
	Exercise      string
	MinConfidence float64
}

// App is the main application that orchestrates pose estimation, form
// evaluation and feedback dispatch over the live camera feed.
type App struct {
	config     Config
	camera     capture.Camera
	motion     *capture.MotionDetector
	estimator  pose.Estimator
	tracker    *session.Tracker
	plugins    *feedback.Manager
	dispatcher *feedback.Dispatcher
	enabled    bool
	mu         sync.RWMutex
	stopCh     chan struct{}
	latest     session.Update
	hasLatest  bool
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	motionThreshold := config.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = 2.0 // Default threshold: 2% pixel change
	}

	manager := feedback.NewManager(config.PluginDir)
	executor := feedback.NewExecutor(feedback.DefaultTimeoutMs)

	a := &App{
		config:     config,
		camera:     capture.NewCamera(config.CameraID),
		motion:     capture.NewMotionDetector(motionThreshold),
		plugins:    manager,
		dispatcher: feedback.NewDispatcher(manager, executor, feedback.DefaultCooldown),
		enabled:    false,
		stopCh:     nil,
	}

	// Try MediaPipe first, fall back to mock estimator
	estimatorConfig := pose.DefaultConfig()
	if config.MinConfidence > 0 {
		estimatorConfig.MinConfidence = config.MinConfidence
	}
	if mp, err := pose.NewMediaPipeEstimator(estimatorConfig); err == nil {
		a.estimator = mp
		log.Println("Using MediaPipe pose estimation")
	} else {
		log.Printf("MediaPipe not available (%v), using mock estimator", err)
		a.estimator = pose.NewMockEstimator()
	}

	name := config.Exercise
	if name == "" {
		name = "squat"
	}
	ex, err := a.buildExercise(name)
	if err != nil {
		log.Printf("Unknown exercise %q, coaching squat instead", name)
		ex, _ = exercise.Get("squat")
	}
	a.tracker = session.NewTracker(ex)

	return a
}

// SetEnabled enables or disables coaching.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether coaching is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetEstimator sets the pose estimator implementation to use.
func (a *App) SetEstimator(e pose.Estimator) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.estimator = e
}

// SetCamera replaces the capture source. Call before Start; a running
// pipeline keeps reading from the camera it was started with.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// SetExercise switches coaching to the named exercise. The tracker
// restarts from the exercise's initial state and cue cooldowns clear.
// The selection is persisted so the next run resumes it.
func (a *App) SetExercise(name string) error {
	ex, err := a.buildExercise(name)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.tracker = session.NewTracker(ex)
	a.hasLatest = false
	a.mu.Unlock()

	a.dispatcher.Reset()

	if a.config.Store != nil {
		if err := a.config.Store.Settings().Set(settingActiveExercise, ex.Name()); err != nil {
			log.Printf("Failed to persist exercise selection: %v", err)
		}
	}

	log.Printf("Coaching exercise: %s", ex.Name())
	return nil
}

// LoadActiveExercise restores the exercise selection persisted by a
// previous run. Without a store, or before any selection was saved,
// the configured exercise stays.
func (a *App) LoadActiveExercise() error {
	if a.config.Store == nil {
		return nil
	}

	name, err := a.config.Store.Settings().Get(settingActiveExercise)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := a.SetExercise(name); err != nil {
		log.Printf("Ignoring persisted exercise %q: %v", name, err)
	}
	return nil
}

// buildExercise resolves the evaluator for an exercise name, applying
// the exercise's default threshold profile when the store has one.
func (a *App) buildExercise(name string) (exercise.Exercise, error) {
	if a.config.Store != nil {
		profile, err := a.config.Store.Profiles().GetDefault(name)
		if err != nil {
			log.Printf("Failed to load default profile for %s: %v", name, err)
		} else if profile != nil {
			ex, err := exercise.WithParams(name, profile.Params)
			if err == nil {
				return ex, nil
			}
			log.Printf("Ignoring default profile %s: %v", profile.Name, err)
		}
	}
	return exercise.Get(name)
}

// DiscoverPlugins scans the plugin directory and loads available feedback plugins.
func (a *App) DiscoverPlugins() error {
	return a.plugins.Discover()
}

// Start begins the coaching pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	// Open the camera
	if err := a.camera.Open(); err != nil {
		return err
	}

	// Set initial FPS to idle mode
	a.camera.SetFPS(IdleFPS)

	// Create stop channel and start the pipeline
	a.stopCh = make(chan struct{})
	go a.runPipeline()

	log.Println("Coaching pipeline started")
	return nil
}

// Stop halts the coaching pipeline and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Signal the pipeline to stop
	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}

	// Close the camera
	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	// Close motion detector
	a.motion.Close()

	// Close the pose estimator if set
	if a.estimator != nil {
		if err := a.estimator.Close(); err != nil {
			log.Printf("Error closing estimator: %v", err)
		}
	}

	log.Println("Coaching pipeline stopped")
}

// Latest returns the most recent pipeline update. The second return
// is false until the pipeline has evaluated a frame for the current
// exercise.
func (a *App) Latest() (session.Update, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest, a.hasLatest
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// MotionDetector returns the motion detector instance.
func (a *App) MotionDetector() *capture.MotionDetector {
	return a.motion
}

// Tracker returns the tracker for the current exercise.
func (a *App) Tracker() *session.Tracker {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tracker
}

// Exercise returns the name of the exercise being coached.
func (a *App) Exercise() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tracker.Exercise().Name()
}

// PluginManager returns the feedback plugin manager.
func (a *App) PluginManager() *feedback.Manager {
	return a.plugins
}

// Estimator returns the pose estimator.
func (a *App) Estimator() pose.Estimator {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.estimator
}
