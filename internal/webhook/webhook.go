// Package webhook posts tracker transitions to external HTTP endpoints.
package webhook

import (
	"context"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/ayusman/orion/internal/tracking"
)

// Defaults
const (
	DefaultTimeout   = 5 * time.Second
	DefaultQueueSize = 32
)

// Config lists the endpoints that receive transitions.
type Config struct {
	URLs    []string      `yaml:"urls"`
	Timeout time.Duration `yaml:"timeout"`
}

// Event is the JSON body of every post.
type Event struct {
	From   string    `json:"from"`
	To     string    `json:"to"`
	Reason string    `json:"reason"`
	Side   string    `json:"side,omitempty"`
	At     time.Time `json:"at"`
}

// NewEvent converts a transition to its wire form.
func NewEvent(t tracking.Transition) Event {
	return Event{
		From:   t.From.String(),
		To:     t.To.String(),
		Reason: string(t.Reason),
		Side:   string(t.Side),
		At:     t.At,
	}
}

// Notifier posts transitions in order from one goroutine. Posting never
// blocks the caller; events are dropped when the queue is full.
type Notifier struct {
	urls   []string
	client *resty.Client
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	queue  chan Event
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

// New starts a Notifier. It returns nil when config has no URLs.
func New(config Config, logger *zap.Logger) *Notifier {
	if len(config.URLs) == 0 {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	n := &Notifier{
		urls:   append([]string(nil), config.URLs...),
		client: resty.New().SetTimeout(config.Timeout),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		queue:  make(chan Event, DefaultQueueSize),
		done:   make(chan struct{}),
	}
	go n.run()
	return n
}

// Transition queues t for every endpoint.
func (n *Notifier) Transition(t tracking.Transition) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}

	select {
	case n.queue <- NewEvent(t):
	default:
		n.logger.Warn("webhook queue full, dropping transition", zap.String("reason", string(t.Reason)))
	}
}

// Aim is a no-op; only transitions are posted.
func (n *Notifier) Aim(tracking.Output, int, int) {}

func (n *Notifier) run() {
	defer close(n.done)
	for event := range n.queue {
		for _, url := range n.urls {
			n.post(url, event)
		}
	}
}

func (n *Notifier) post(url string, event Event) {
	resp, err := n.client.R().
		SetContext(n.ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(event).
		Post(url)
	if err != nil {
		n.logger.Warn("webhook request failed", zap.String("url", url), zap.Error(err))
		return
	}
	if resp.IsError() {
		n.logger.Warn("webhook rejected event",
			zap.String("url", url),
			zap.String("status", resp.Status()),
			zap.String("body", resp.String()),
		)
	}
}

// Close delivers queued events and stops the worker. Requests still running
// after ctx is done are cancelled.
func (n *Notifier) Close(ctx context.Context) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	close(n.queue)
	n.mu.Unlock()

	select {
	case <-n.done:
	case <-ctx.Done():
		n.cancel()
		<-n.done
	}
	n.cancel()
}
