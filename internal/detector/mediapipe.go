package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

const (
	scriptName = "mediapipe_service.py"

	// idleShutdown stops the Python process after this long without frames.
	idleShutdown = 30 * time.Second
)

// ErrScriptNotFound is returned when the MediaPipe service script cannot be located.
var ErrScriptNotFound = errors.New(scriptName + " not found")

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess
// running both the hand and pose solutions.
//
// Frames are written to the process as a 4 byte big-endian length followed by
// JPEG data; the process answers with one JSON line per frame.
type MediaPipeDetector struct {
	config    Config
	script    string
	logger    *zap.Logger
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config, logger *zap.Logger) (*MediaPipeDetector, error) {
	script := config.Script
	if script == "" {
		script = findMediaPipeScript()
	}
	if script == "" {
		return nil, ErrScriptNotFound
	}
	if _, err := os.Stat(script); err != nil {
		return nil, errors.Wrapf(err, "stat %s", script)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MediaPipeDetector{
		config: config,
		script: script,
		logger: logger,
	}, nil
}

// Detect analyzes a frame and returns the detected hands and pose.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) (*Observation, error) {
	if frame == nil || frame.Empty() {
		return &Observation{}, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, errors.Wrap(err, "encode frame")
	}
	defer buf.Close()

	data := buf.GetBytes()

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		return nil, errors.Wrap(err, "write length")
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, errors.Wrap(err, "write data")
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	obs, err := parseResponse(line)
	if err != nil {
		return nil, err
	}

	d.resetIdleTimer()

	return obs, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	python := d.config.Python
	if python == "" {
		python = findVenvPython()
	}
	if python == "" {
		python = "python3"
	}

	d.cmd = exec.Command(python, d.script,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return errors.Wrap(err, "create stdin pipe")
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "create stdout pipe")
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return errors.Wrap(err, "start mediapipe service")
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	d.logger.Info("mediapipe service started",
		zap.String("python", python),
		zap.String("script", d.script),
		zap.Int("pid", d.cmd.Process.Pid),
	)

	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	d.logger.Info("mediapipe service stopped")
	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.shutdown(); err != nil {
			d.logger.Warn("idle shutdown", zap.Error(err))
		}
	})
}

func findMediaPipeScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", scriptName),
		filepath.Join("..", "scripts", scriptName),
		filepath.Join(execDir, "scripts", scriptName),
		filepath.Join(os.Getenv("HOME"), ".orion", "scripts", scriptName),
	}

	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".orion/venv/bin/python"),
	}

	return firstExisting(candidates)
}

func firstExisting(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}

// jsonHand and jsonPose mirror the JSON emitted by the Python service.
type jsonHand struct {
	Points     []jsonPoint `json:"points"`
	Handedness string      `json:"handedness"`
	Score      float64     `json:"score"`
}

type jsonPose struct {
	Points []jsonPoint `json:"points"`
	Score  float64     `json:"score"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type jsonResponse struct {
	Hands []jsonHand `json:"hands"`
	Pose  *jsonPose  `json:"pose"`
	Error string     `json:"error,omitempty"`
}

// parseResponse decodes one service response line. Hands without exactly
// NumLandmarks points and partial poses are dropped.
func parseResponse(line []byte) (*Observation, error) {
	var resp jsonResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, errors.Wrap(err, "parse response")
	}
	if resp.Error != "" {
		return nil, errors.Errorf("mediapipe service: %s", resp.Error)
	}

	obs := &Observation{
		Hands: make([]HandLandmarks, 0, len(resp.Hands)),
	}
	for _, h := range resp.Hands {
		if len(h.Points) != NumLandmarks {
			continue
		}
		lm := HandLandmarks{
			Handedness: ParseSide(h.Handedness),
			Score:      h.Score,
		}
		for i, p := range h.Points {
			lm.Points[i] = Point3D{X: p.X, Y: p.Y, Z: p.Z}
		}
		obs.Hands = append(obs.Hands, lm)
	}

	if resp.Pose != nil && len(resp.Pose.Points) == NumPoseLandmarks {
		pose := &PoseLandmarks{Score: resp.Pose.Score}
		for i, p := range resp.Pose.Points {
			pose.Points[i] = Point3D{X: p.X, Y: p.Y, Z: p.Z}
		}
		obs.Pose = pose
	}

	return obs, nil
}
