package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"time"

	"github.com/pkg/errors"
)

// ErrTimeout is returned when a plugin runs longer than the executor allows.
var ErrTimeout = errors.New("plugin execution timeout")

// Executor runs one plugin process per request.
type Executor struct {
	timeout time.Duration
}

// NewExecutor creates an Executor that kills plugins after timeout.
func NewExecutor(timeout time.Duration) *Executor {
	return &Executor{timeout: timeout}
}

// Execute starts plugin, writes req to its stdin and parses its stdout as a
// Response. The plugin's manifest config is attached to the request.
func (e *Executor) Execute(ctx context.Context, plugin *Plugin, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, plugin.Executable)
	cmd.Dir = plugin.Path

	if req.Config == nil {
		req.Config = plugin.Manifest.Config
	}
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "marshal request")
	}
	cmd.Stdin = bytes.NewReader(reqJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, errors.Wrapf(ErrTimeout, "%s after %s", plugin.Manifest.Name, e.timeout)
	}

	if err != nil {
		if s := stderr.String(); s != "" {
			return nil, errors.Wrapf(err, "plugin %s failed, stderr: %s", plugin.Manifest.Name, s)
		}
		return nil, errors.Wrapf(err, "plugin %s failed", plugin.Manifest.Name)
	}

	var response Response
	if err := json.Unmarshal(stdout.Bytes(), &response); err != nil {
		return nil, errors.Wrapf(err, "parse response of %s, stdout: %s", plugin.Manifest.Name, stdout.String())
	}

	return &response, nil
}
