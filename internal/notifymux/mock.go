package notifymux

import (
	"bytes"
	"io"
	"sync"
	"time"

	"github.com/banshee-data/velocity.trainer/internal/sensors"
	"github.com/banshee-data/velocity.trainer/internal/timeutil"
)

const (
	mockWarmup   = 500 * time.Millisecond
	mockInterval = time.Second
)

// MockPort implements Porter for dev mode. Reads return lines produced by a
// sensors.MockSensors generator; writes are recorded.
type MockPort struct {
	r    *io.PipeReader
	done chan struct{}
	once sync.Once

	mu      sync.Mutex
	written bytes.Buffer
}

func (m *MockPort) Read(p []byte) (int, error) { return m.r.Read(p) }

func (m *MockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written.Write(p)
}

// Written returns every command written to the port.
func (m *MockPort) Written() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written.String()
}

// Close stops the generator and unblocks readers.
func (m *MockPort) Close() error {
	m.once.Do(func() { close(m.done) })
	return m.r.Close()
}

// NewMockMux creates a Mux fed by simulated sensors. After a 500ms warm-up it
// emits one heart rate, power and cadence notification every second, encoded
// with profile. The clock drives both delays.
func NewMockMux(profile sensors.Profile, seed int64, clock timeutil.Clock) *Mux[*MockPort] {
	r, w := io.Pipe()
	port := &MockPort{r: r, done: make(chan struct{})}
	go generate(w, sensors.NewMockSensors(profile, seed), clock, port.done)
	return NewMux(port)
}

func generate(w *io.PipeWriter, gen *sensors.MockSensors, clock timeutil.Clock, done <-chan struct{}) {
	defer w.Close()

	select {
	case <-clock.After(mockWarmup):
	case <-done:
		return
	}

	ticker := clock.NewTicker(mockInterval)
	defer ticker.Stop()
	for {
		for _, n := range gen.Next() {
			if _, err := io.WriteString(w, FormatLine(n)+"\n"); err != nil {
				return
			}
		}
		select {
		case <-ticker.C():
		case <-done:
			return
		}
	}
}
