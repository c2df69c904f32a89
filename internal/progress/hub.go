package progress

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Config controls subscriber buffering for the Hub.
//   - BufferSize: size of each subscriber channel (default 256).
//   - Logger: optional structured logger used for warnings.
type Config struct {
	BufferSize int
	Logger     *zap.Logger
}

const (
	defaultBufferSize = 256
	dropLogInterval   = 5 * time.Second
)

// Hub fans Event streams out to subscribers. It is safe for concurrent use by
// multiple goroutines and never blocks publishers.
type Hub struct {
	cfg         Config
	logger      *zap.Logger
	dropLimiter rateLimiter
	dropped     atomic.Int64
	closed      atomic.Bool

	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	ch chan Event
}

// NewHub initializes a Hub ready to accept subscribers and events.
func NewHub(cfg Config) *Hub {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		cfg:         cfg,
		logger:      logger,
		dropLimiter: rateLimiter{interval: dropLogInterval},
		subs:        make(map[*subscriber]struct{}),
	}
}

// Subscribe registers an observer and returns its event channel plus a cancel
// function. Cancel is idempotent; the channel is closed once removed.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, h.cfg.BufferSize)}

	h.mu.Lock()
	if h.closed.Load() {
		h.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			_, ok := h.subs[sub]
			delete(h.subs, sub)
			h.mu.Unlock()
			if ok {
				close(sub.ch)
			}
		})
	}
	return sub.ch, cancel
}

// Publish delivers evt to every subscriber. It never blocks; a subscriber
// whose buffer is full misses the event and a rate-limited warning is logged.
func (h *Hub) Publish(evt Event) {
	if h == nil || h.closed.Load() {
		return
	}
	if err := evt.Validate(); err != nil {
		h.logger.Debug("discarding invalid event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.ch <- evt:
		default:
			h.dropped.Add(1)
			if h.dropLimiter.Allow(time.Now()) {
				count := h.dropped.Swap(0)
				h.logger.Warn("events dropped due to slow subscriber", zap.Int64("dropped", count))
			}
		}
	}
}

// Subscribers reports the current observer count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close removes and closes every subscriber channel. Publishing after Close
// is a no-op; Close is safe to call multiple times.
func (h *Hub) Close() {
	if !h.closed.CompareAndSwap(false, true) {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.ch)
	}
}

type rateLimiter struct {
	interval time.Duration
	last     atomic.Int64
}

func (r *rateLimiter) Allow(now time.Time) bool {
	if r == nil || r.interval <= 0 {
		return true
	}
	nano := now.UnixNano()
	last := r.last.Load()
	if nano-last < r.interval.Nanoseconds() {
		return false
	}
	return r.last.CompareAndSwap(last, nano)
}
