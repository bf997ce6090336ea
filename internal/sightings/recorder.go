package sightings

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultSinkTimeout bounds a single sink write.
const DefaultSinkTimeout = 5 * time.Second

// Recorder hands sightings to a sink on a background goroutine. Record never
// blocks: when the queue is full the sighting is dropped and counted.
type Recorder struct {
	sink    Sink
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Sighting
	done   chan struct{}

	recorded atomic.Int64
	dropped  atomic.Int64
	failed   atomic.Int64
}

// NewRecorder starts a recorder with room for bufferSize queued sightings.
func NewRecorder(sink Sink, bufferSize int, logger *slog.Logger) *Recorder {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	r := &Recorder{
		sink:    sink,
		logger:  logger,
		timeout: DefaultSinkTimeout,
		queue:   make(chan Sighting, bufferSize),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// Record queues s. It reports false when s was dropped because the queue
// is full or the recorder is closed.
func (r *Recorder) Record(s Sighting) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.dropped.Add(1)
		return false
	}

	select {
	case r.queue <- s:
		return true
	default:
		r.dropped.Add(1)
		return false
	}
}

func (r *Recorder) run() {
	defer close(r.done)

	for s := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		err := r.sink.Record(ctx, s)
		cancel()

		if err != nil {
			r.failed.Add(1)
			r.logger.Warn("Failed to record sighting",
				slog.String("id", s.ID.String()),
				slog.Any("error", err))
			continue
		}
		r.recorded.Add(1)
	}
}

// Close stops accepting sightings and waits until the queue is drained or
// ctx is done.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats are the recorder counters.
type Stats struct {
	Recorded int64 `json:"recorded"`
	Dropped  int64 `json:"dropped"`
	Failed   int64 `json:"failed"`
	Queued   int   `json:"queued"`
}

// Stats returns a snapshot of the counters.
func (r *Recorder) Stats() Stats {
	return Stats{
		Recorded: r.recorded.Load(),
		Dropped:  r.dropped.Load(),
		Failed:   r.failed.Load(),
		Queued:   len(r.queue),
	}
}
