// Package server provides the HTTP server for the FormCoach exercise evaluation system.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ayusman/formcoach/internal/capture"
	"gocv.io/x/gocv"
)

// streamInterval paces the MJPEG stream at roughly 15 FPS, matching
// the pipeline's active capture cadence.
const streamInterval = 66 * time.Millisecond

// StreamHandler serves an MJPEG preview of the camera feed so the
// dashboard can show the subject next to the live evaluation.
type StreamHandler struct {
	camera capture.Camera
}

// NewStreamHandler creates a new StreamHandler with the given camera.
func NewStreamHandler(camera capture.Camera) *StreamHandler {
	return &StreamHandler{camera: camera}
}

// ServeHTTP streams JPEG frames in a multipart response until the
// client disconnects. Read failures back off briefly and the stream
// carries on; a camera that recovers resumes the preview.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, _ := w.(http.Flusher)

	for {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		frame, err := h.camera.ReadFrame()
		if err != nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		err = writeJPEGPart(w, frame)
		frame.Close()
		if err != nil {
			return
		}

		if flusher != nil {
			flusher.Flush()
		}

		time.Sleep(streamInterval)
	}
}

// writeJPEGPart encodes one frame and writes it as a multipart chunk.
func writeJPEGPart(w http.ResponseWriter, frame *gocv.Mat) error {
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		// Encoding failures are transient; skip the frame.
		return nil
	}
	defer buf.Close()

	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", buf.Len()); err != nil {
		return err
	}
	if _, err := w.Write(buf.GetBytes()); err != nil {
		return err
	}
	_, err = fmt.Fprint(w, "\r\n")
	return err
}
