// Package main provides a spoken feedback plugin.
// It reads form cues aloud using say on macOS or espeak elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the feedback dispatcher.
type Request struct {
	Exercise string   `json:"exercise"`
	Phase    string   `json:"phase"`
	Issues   []string `json:"issues"`
}

// Response represents the output to the feedback dispatcher.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func main() {
	// Read request from stdin
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	// Nothing to say for a clean frame
	if len(req.Issues) == 0 {
		writeSuccessResponse()
		return
	}

	if err := speak(strings.Join(req.Issues, ". ")); err != nil {
		writeErrorResponse(fmt.Sprintf("speech failed: %v", err))
		return
	}

	// Write success response
	writeSuccessResponse()
}

// speak pronounces the text with the platform speech tool.
func speak(text string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("say", text)
	default:
		cmd = exec.Command("espeak", text)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	resp := Response{
		Success: true,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
