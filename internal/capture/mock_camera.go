package capture

import (
	"io"
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera replays a fixed frame sequence in place of a real
// device. It honors SetFPS immediately, so tests can observe the
// pipeline switching cadence between idle and active.
type MockCamera struct {
	mu     sync.Mutex
	frames []*gocv.Mat
	next   int
	loop   bool
	open   bool
	fps    int
}

// NewMockCamera wraps the given recording. With loop set, playback
// wraps around instead of running dry.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{
		frames: frames,
		loop:   loop,
		fps:    DefaultFPS,
	}
}

// Open starts playback from the first frame.
func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	c.next = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

// ReadFrame returns a copy of the next recorded frame. A non-looping
// camera reports io.EOF once the recording is exhausted.
func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return nil, ErrCameraNotOpen
	}
	if len(c.frames) == 0 {
		return nil, io.EOF
	}
	if c.next >= len(c.frames) {
		if !c.loop {
			return nil, io.EOF
		}
		c.next = 0
	}

	// Callers close the Mats they receive, so hand out a copy and
	// keep the recording intact.
	frame := c.frames[c.next].Clone()
	c.next++
	return &frame, nil
}

// SetFPS changes the reported rate. Non-positive values are ignored.
func (c *MockCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// SetFrames swaps in a new recording and restarts playback.
func (c *MockCamera) SetFrames(frames []*gocv.Mat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = frames
	c.next = 0
}
