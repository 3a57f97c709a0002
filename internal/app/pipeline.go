package app

import (
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/formcoach/internal/session"
)

// runPipeline is the main coaching loop that processes frames from the camera.
// It manages the state transitions between idle and active modes based on motion detection.
//
// Pipeline logic:
// 1. Start in idle mode (idleFPS=5)
// 2. On motion detected, switch to active mode (activeFPS=15)
// 3. Run pose estimation
// 4. Advance the exercise phase tracker and evaluate form
// 5. Publish the result for the dashboard broadcast
// 6. Dispatch form issues to feedback plugins off the frame path
// 7. After 2s no motion, switch back to idle mode
func (a *App) runPipeline() {
	// Track whether we're in active mode
	activeMode := false

	// Track the last motion detection time
	lastMotionTime := time.Now()

	// Frame interval based on current FPS
	frameInterval := time.Second / time.Duration(IdleFPS)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			// Skip processing if coaching is disabled
			if !a.IsEnabled() {
				continue
			}

			// Read a frame from the camera
			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			// Step 1: Motion detection
			motionDetected, _ := a.motion.Detect(frame)

			if motionDetected {
				lastMotionTime = time.Now()

				// Switch to active mode if not already
				if !activeMode {
					activeMode = true
					a.camera.SetFPS(ActiveFPS)
					frameInterval = time.Second / time.Duration(ActiveFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to active mode")
				}
			} else if activeMode {
				// Check if we should switch back to idle mode
				if time.Since(lastMotionTime) > time.Duration(IdleTimeoutMs)*time.Millisecond {
					activeMode = false
					a.camera.SetFPS(IdleFPS)
					frameInterval = time.Second / time.Duration(IdleFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to idle mode")
				}
			}

			// Skip further processing if not in active mode
			if !activeMode {
				frame.Close()
				continue
			}

			a.processFrame(frame)
		}
	}
}

// processFrame runs one camera frame through pose estimation, the
// exercise tracker and feedback dispatch. It closes the frame when done.
func (a *App) processFrame(frame *gocv.Mat) {
	// Step 2: Pose estimation
	landmarks, err := a.Estimator().Detect(frame)
	frame.Close() // Done with the frame

	if err != nil {
		log.Printf("Error estimating pose: %v", err)
		return
	}

	// Step 3: Advance the phase tracker and evaluate form
	a.mu.RLock()
	tracker := a.tracker
	a.mu.RUnlock()

	name := tracker.Exercise().Name()
	result, err := tracker.Process(landmarks)
	if err != nil {
		log.Printf("Error processing frame: %v", err)
		return
	}

	// Step 4: Publish for the dashboard broadcast. A tracker swapped
	// out mid-frame by an exercise switch drops its result.
	if !a.publish(tracker, name, result) {
		return
	}

	// Step 5: Dispatch form issues to feedback plugins. Plugins run
	// synchronously inside Dispatch, so it goes off the frame path.
	if result.Evaluation != nil && len(result.Evaluation.Issues) > 0 {
		go a.dispatcher.Dispatch(name, string(result.Phase), result.Evaluation.Issues)
	}
}

// publish records the result as the latest update for the dashboard
// broadcast. It reports false if the tracker was superseded.
func (a *App) publish(tracker *session.Tracker, exercise string, r session.Result) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.tracker != tracker {
		return false
	}

	a.latest = session.Update{
		Exercise:  exercise,
		Result:    r,
		Timestamp: time.Now().UnixMilli(),
	}
	a.hasLatest = true
	return true
}
