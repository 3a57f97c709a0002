package pose

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// serviceIdleTimeout is how long the Python sidecar may sit unused
// before it is stopped. The next Detect restarts it.
const serviceIdleTimeout = 30 * time.Second

// MediaPipeEstimator implements Estimator using a Python MediaPipe
// Pose sidecar. Frames go out as length-prefixed JPEG on stdin and
// come back as one JSON line of landmarks per frame.
type MediaPipeEstimator struct {
	config Config

	mu        sync.Mutex
	svc       *poseService
	idleTimer *time.Timer
}

// NewMediaPipeEstimator creates a new MediaPipe pose estimator.
// The sidecar is started lazily on first detection, but a missing
// service script fails here rather than mid-workout.
func NewMediaPipeEstimator(config Config) (*MediaPipeEstimator, error) {
	if findPoseScript() == "" {
		return nil, fmt.Errorf("pose_service.py not found")
	}
	return &MediaPipeEstimator{config: config}, nil
}

// Detect analyzes a frame and returns the detected pose landmarks.
func (e *MediaPipeEstimator) Detect(frame *gocv.Mat) (Frame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.svc == nil {
		svc, err := startPoseService(e.config)
		if err != nil {
			return nil, err
		}
		e.svc = svc
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	line, err := e.svc.roundTrip(buf.GetBytes())
	if err != nil {
		// A dead sidecar cannot recover mid-stream. Drop it so the
		// next Detect starts a fresh one.
		e.stopLocked()
		return nil, err
	}

	var response struct {
		Landmarks Frame `json:"landmarks"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if !response.Landmarks.Empty() && !response.Landmarks.Valid() {
		return nil, fmt.Errorf("malformed landmark set: %d points", len(response.Landmarks))
	}

	e.armIdleStop()
	return response.Landmarks, nil
}

// Close shuts down the sidecar if it is running.
func (e *MediaPipeEstimator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopLocked()
}

// stopLocked stops the sidecar and disarms the idle timer.
// Callers hold e.mu.
func (e *MediaPipeEstimator) stopLocked() error {
	if e.idleTimer != nil {
		e.idleTimer.Stop()
		e.idleTimer = nil
	}
	if e.svc == nil {
		return nil
	}
	err := e.svc.stop()
	e.svc = nil
	return err
}

// armIdleStop schedules a shutdown after serviceIdleTimeout, replacing
// any previous schedule. Callers hold e.mu.
func (e *MediaPipeEstimator) armIdleStop() {
	if e.idleTimer != nil {
		e.idleTimer.Stop()
	}
	e.idleTimer = time.AfterFunc(serviceIdleTimeout, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.stopLocked()
	})
}

// poseService is a running sidecar process with its two pipes.
type poseService struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
}

// startPoseService launches the Python process, preferring the
// project's virtualenv interpreter when one exists.
func startPoseService(config Config) (*poseService, error) {
	script := findPoseScript()
	if script == "" {
		return nil, fmt.Errorf("pose_service.py not found")
	}

	python := findVenvPython()
	if python == "" {
		python = "python3"
	}

	cmd := exec.Command(python, script,
		fmt.Sprintf("--min-confidence=%g", config.MinConfidence),
		fmt.Sprintf("--min-tracking=%g", config.MinTrackingConf),
		fmt.Sprintf("--model-complexity=%d", config.ModelComplexity),
	)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start pose service: %w", err)
	}

	return &poseService{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
	}, nil
}

// roundTrip sends one JPEG frame and reads the one-line JSON reply.
// The frame travels as a 4-byte big-endian length followed by the data.
func (s *poseService) roundTrip(jpeg []byte) ([]byte, error) {
	packet := make([]byte, 4+len(jpeg))
	binary.BigEndian.PutUint32(packet, uint32(len(jpeg)))
	copy(packet[4:], jpeg)

	if _, err := s.stdin.Write(packet); err != nil {
		return nil, fmt.Errorf("write frame: %w", err)
	}

	line, err := s.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return line, nil
}

// stop closes stdin, which tells the sidecar to exit, and reaps it.
func (s *poseService) stop() error {
	s.stdin.Close()
	return s.cmd.Wait()
}

// findPoseScript probes the usual install locations for the sidecar
// script: the working directory during development, next to the
// binary, and the per-user install.
func findPoseScript() string {
	return firstExisting(
		"scripts/pose_service.py",
		"../scripts/pose_service.py",
		filepath.Join(execDir(), "scripts/pose_service.py"),
		filepath.Join(os.Getenv("HOME"), ".formcoach/scripts/pose_service.py"),
	)
}

// findVenvPython looks for a virtualenv interpreter near the project
// or the per-user install. Empty means fall back to python3 on PATH.
func findVenvPython() string {
	return firstExisting(
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir(), "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".formcoach/venv/bin/python"),
	)
}

func execDir() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(execPath)
}

// firstExisting returns the first path that exists, made absolute
// when possible.
func firstExisting(paths ...string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}
