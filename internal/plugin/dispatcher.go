package plugin

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/orion/internal/tracking"
)

// Dispatcher defaults
const (
	DefaultTimeout     = 5 * time.Second
	DefaultAimInterval = 200 * time.Millisecond
	DefaultQueueSize   = 16
)

// Config configures plugin discovery and dispatch.
type Config struct {
	Dir         string        `yaml:"dir"`
	Timeout     time.Duration `yaml:"timeout"`
	AimInterval time.Duration `yaml:"aim_interval"`
	QueueSize   int           `yaml:"queue_size"`

	// Smoothing filters the aim end point before it is sent.
	Smoothing bool `yaml:"smoothing"`
}

// Dispatcher delivers tracker events to subscribed plugins from a single
// worker goroutine. The pipeline never waits on a plugin: when the queue is
// full the event is dropped.
type Dispatcher struct {
	manager     *Manager
	executor    *Executor
	logger      *zap.Logger
	aimInterval time.Duration

	queue chan *Request
	done  chan struct{}

	mu       sync.Mutex
	lastAim  time.Time
	smoother *Smoother
	closed   bool
}

// NewDispatcher discovers plugins in config.Dir and starts the worker.
func NewDispatcher(config Config, logger *zap.Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.AimInterval <= 0 {
		config.AimInterval = DefaultAimInterval
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultQueueSize
	}

	manager := NewManager(config.Dir, logger)
	if err := manager.Discover(); err != nil {
		return nil, err
	}

	d := &Dispatcher{
		manager:     manager,
		executor:    NewExecutor(config.Timeout),
		logger:      logger,
		aimInterval: config.AimInterval,
		queue:       make(chan *Request, config.QueueSize),
		done:        make(chan struct{}),
	}
	if config.Smoothing {
		d.smoother = NewSmoother()
	}
	go d.run()
	return d, nil
}

// Manager returns the plugin manager.
func (d *Dispatcher) Manager() *Manager {
	return d.manager
}

// Transition queues a transition event. Every transition starts a new
// smoothed track.
func (d *Dispatcher) Transition(t tracking.Transition) {
	d.mu.Lock()
	if d.smoother != nil {
		d.smoother.Reset()
	}
	d.mu.Unlock()

	d.enqueue(TransitionRequest(t))
}

// Aim queues an aim event for a tracked frame, at most once per aim
// interval. Frames without arm geometry are ignored. With smoothing on,
// every frame feeds the filter, including throttled ones.
func (d *Dispatcher) Aim(out tracking.Output, width, height int) {
	req := AimRequest(out, width, height)
	if req == nil {
		return
	}

	d.mu.Lock()
	if d.smoother != nil {
		end, err := d.smoother.Smooth(req.Aim.End)
		if err != nil {
			d.logger.Debug("aim smoothing failed", zap.Error(err))
			d.smoother.Reset()
		}
		req.Aim.End = end
	}
	if !d.lastAim.IsZero() && req.At.Sub(d.lastAim) < d.aimInterval {
		d.mu.Unlock()
		return
	}
	d.lastAim = req.At
	d.mu.Unlock()

	d.enqueue(req)
}

func (d *Dispatcher) enqueue(req *Request) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	select {
	case d.queue <- req:
	default:
		d.logger.Debug("plugin queue full, dropping event", zap.String("event", string(req.Event)))
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for req := range d.queue {
		for _, p := range d.manager.Subscribers(req.Event) {
			// Each plugin gets its own copy so config injection does not leak.
			r := *req
			resp, err := d.executor.Execute(context.Background(), p, &r)
			if err != nil {
				d.logger.Warn("plugin failed", zap.String("plugin", p.Manifest.Name), zap.Error(err))
				continue
			}
			if !resp.Success {
				d.logger.Warn("plugin reported error", zap.String("plugin", p.Manifest.Name), zap.String("error", resp.Error))
			}
		}
	}
}

// Close stops accepting events and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
}

// TransitionRequest builds the request announcing t.
func TransitionRequest(t tracking.Transition) *Request {
	return &Request{
		Event:  EventTransition,
		State:  t.To.String(),
		Side:   string(t.Side),
		Reason: string(t.Reason),
		At:     t.At,
	}
}

// AimRequest builds the aim request for out, or nil when out carries no arm.
func AimRequest(out tracking.Output, width, height int) *Request {
	if out.State != tracking.Tracking || out.Arm == nil {
		return nil
	}
	arm := out.Arm
	return &Request{
		Event: EventAim,
		State: out.State.String(),
		Side:  string(out.Side),
		Aim: &Aim{
			Shoulder: arm.Shoulder,
			Elbow:    arm.Elbow,
			Wrist:    arm.Wrist,
			Vector:   arm.Vector,
			End:      arm.AimEnd,
			Angle:    arm.Angle(),
		},
		Width:  width,
		Height: height,
		At:     out.Timestamp,
	}
}
