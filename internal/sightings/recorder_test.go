package sightings

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/unklstewy/nearest-aircraft/pkg/nearest"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// memorySink collects sightings.
type memorySink struct {
	mu  sync.Mutex
	got []Sighting
}

func (m *memorySink) Record(ctx context.Context, s Sighting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.got = append(m.got, s)
	return nil
}

func (m *memorySink) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.got)
}

// TestRecorder tests the asynchronous recorder.
func TestRecorder(t *testing.T) {
	t.Run("Close drains the queue", func(t *testing.T) {
		sink := &memorySink{}
		r := NewRecorder(sink, 16, discard)

		for i := 0; i < 10; i++ {
			if !r.Record(New(nearest.Observer{}, 5, foundResult())) {
				t.Fatalf("Sighting %d was dropped", i)
			}
		}
		if err := r.Close(context.Background()); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if sink.len() != 10 {
			t.Errorf("Expected 10 sightings, got %d", sink.len())
		}
		if st := r.Stats(); st.Recorded != 10 || st.Dropped != 0 {
			t.Errorf("Unexpected stats %+v", st)
		}
	})

	t.Run("Full queue drops instead of blocking", func(t *testing.T) {
		started := make(chan struct{}, 1)
		release := make(chan struct{})
		blocking := SinkFunc(func(ctx context.Context, s Sighting) error {
			select {
			case started <- struct{}{}:
			default:
			}
			<-release
			return nil
		})
		r := NewRecorder(blocking, 1, discard)

		r.Record(Sighting{})
		<-started // worker is busy with the first sighting

		if !r.Record(Sighting{}) {
			t.Error("Expected second sighting to be queued")
		}

		done := make(chan bool)
		go func() { done <- r.Record(Sighting{}) }()
		select {
		case queued := <-done:
			if queued {
				t.Error("Expected third sighting to be dropped")
			}
		case <-time.After(time.Second):
			t.Fatal("Record blocked on a full queue")
		}

		close(release)
		r.Close(context.Background())

		if st := r.Stats(); st.Recorded != 2 || st.Dropped != 1 {
			t.Errorf("Unexpected stats %+v", st)
		}
	})

	t.Run("Sink failures are counted", func(t *testing.T) {
		failing := SinkFunc(func(ctx context.Context, s Sighting) error {
			return errors.New("insert failed")
		})
		r := NewRecorder(failing, 4, discard)
		r.Record(Sighting{})
		r.Record(Sighting{})
		r.Close(context.Background())

		if st := r.Stats(); st.Failed != 2 || st.Recorded != 0 {
			t.Errorf("Unexpected stats %+v", st)
		}
	})

	t.Run("Record after close is dropped", func(t *testing.T) {
		r := NewRecorder(&memorySink{}, 4, discard)
		r.Close(context.Background())
		r.Close(context.Background())

		if r.Record(Sighting{}) {
			t.Error("Expected record after close to be dropped")
		}
		if r.Stats().Dropped != 1 {
			t.Errorf("Expected 1 dropped, got %d", r.Stats().Dropped)
		}
	})

	t.Run("Close honours the context", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		stuck := SinkFunc(func(ctx context.Context, s Sighting) error {
			<-release
			return nil
		})
		r := NewRecorder(stuck, 1, discard)
		r.Record(Sighting{})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := r.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Expected deadline exceeded, got: %v", err)
		}
	})
}
