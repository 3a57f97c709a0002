package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Executor runs feedback plugins as child processes. Plugins read one
// JSON Request on stdin and answer with one JSON Response on stdout.
type Executor struct {
	timeoutMs int
}

// NewExecutor creates a new Executor with the given timeout in milliseconds.
func NewExecutor(timeoutMs int) *Executor {
	return &Executor{timeoutMs: timeoutMs}
}

// Execute delivers req to the plugin and parses its reply. The plugin
// runs from its own directory and is killed once the timeout elapses,
// so a wedged cue backend cannot stall the dispatcher.
func (e *Executor) Execute(plugin *Plugin, req *Request) (*Response, error) {
	timeout := time.Duration(e.timeoutMs) * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	name := plugin.Manifest.Name
	cmd := exec.CommandContext(ctx, plugin.Executable)
	cmd.Dir = plugin.Path
	cmd.Stdin = bytes.NewReader(payload)

	out, err := cmd.Output()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("plugin %s hit the %dms timeout", name, e.timeoutMs)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("plugin %s failed: %w, stderr: %s", name, err, exitErr.Stderr)
		}
		return nil, fmt.Errorf("plugin %s failed: %w", name, err)
	}

	var response Response
	if err := json.Unmarshal(out, &response); err != nil {
		return nil, fmt.Errorf("plugin %s wrote an unparseable response %q: %w", name, out, err)
	}
	return &response, nil
}
