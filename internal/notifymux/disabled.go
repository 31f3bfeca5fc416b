package notifymux

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/banshee-data/velocity.trainer/internal/sensors"
)

// DisabledMux is a no-op NotificationMux used when no sensor source is
// configured. It tracks subscribers so their channels are closed on
// Unsubscribe or Close, letting readers unblock during shutdown.
type DisabledMux struct {
	mu          sync.Mutex
	subscribers map[string]chan sensors.Notification
	closing     bool
}

func NewDisabledMux() *DisabledMux {
	return &DisabledMux{
		subscribers: make(map[string]chan sensors.Notification),
	}
}

func (d *DisabledMux) Subscribe() (string, chan sensors.Notification) {
	id := uuid.NewString()
	ch := make(chan sensors.Notification)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closing {
		// already closing: hand back a closed channel so callers don't block
		close(ch)
		return id, ch
	}
	d.subscribers[id] = ch
	return id, ch
}

func (d *DisabledMux) Unsubscribe(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ch, ok := d.subscribers[id]; ok {
		close(ch)
		delete(d.subscribers, id)
	}
}

func (d *DisabledMux) Initialize() error { return nil }

func (d *DisabledMux) Monitor(ctx context.Context) error { <-ctx.Done(); return ctx.Err() }

func (d *DisabledMux) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closing {
		return nil
	}
	d.closing = true
	for id, ch := range d.subscribers {
		close(ch)
		delete(d.subscribers, id)
	}
	return nil
}

var (
	_ NotificationMux = (*DisabledMux)(nil)
	_ NotificationMux = (*Mux[*MockPort])(nil)
	_ NotificationMux = (*Mux[FixturePort])(nil)
)
