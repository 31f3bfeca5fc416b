// Package notifymux multiplexes a stream of sensor notifications, read as
// text lines from a BLE bridge, a recorded fixture or the built-in mock,
// to any number of subscribers.
package notifymux

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/banshee-data/velocity.trainer/internal/monitoring"
	"github.com/banshee-data/velocity.trainer/internal/sensors"
)

var ErrWriteFailed = fmt.Errorf("failed to write to bridge port")

// subscriberBuffer is the number of notifications a subscriber may fall
// behind before live notifications are dropped for it.
const subscriberBuffer = 16

// Characteristics is the set of characteristics a trainer session asks the
// bridge to notify on.
var Characteristics = []sensors.Characteristic{
	sensors.HeartRateMeasurement,
	sensors.CyclingPowerMeasurement,
	sensors.CSCMeasurement,
}

// Mux is a generic notification multiplexer that allows multiple clients to
// subscribe to notifications from a single bridge port.
type Mux[T Porter] struct {
	port         T
	subscribers  map[string]chan sensors.Notification
	subscriberMu sync.Mutex
	commandMu    sync.Mutex
	closing      bool
	closingMu    sync.Mutex

	// lossless makes Monitor wait for slow subscribers instead of skipping
	// them. Used for recorded fixtures, where every frame matters.
	lossless bool
}

// NotificationMux defines the interface shared by every notification source.
type NotificationMux interface {
	// Subscribe creates a new channel for receiving notifications. The ID is
	// used to identify the channel when unsubscribing.
	Subscribe() (string, chan sensors.Notification)
	// Unsubscribe removes a channel from the list of subscribers and closes it.
	Unsubscribe(string)
	// Initialize asks the source to start notifying on Characteristics.
	Initialize() error
	// Monitor reads notifications and sends them to subscribers until the
	// context is cancelled or the source is exhausted.
	Monitor(context.Context) error
	// Close closes all subscribed channels and the underlying port.
	Close() error
}

// NewMux creates a Mux reading notification lines from port.
func NewMux[T Porter](port T) *Mux[T] {
	return &Mux[T]{
		port:        port,
		subscribers: make(map[string]chan sensors.Notification),
	}
}

func (s *Mux[T]) Subscribe() (string, chan sensors.Notification) {
	id := uuid.NewString()
	ch := make(chan sensors.Notification, subscriberBuffer)
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	s.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber from the mux.
//
// A lossless subscriber must keep draining its channel until Unsubscribe
// returns, otherwise Monitor holds the subscriber lock until its context ends.
func (s *Mux[T]) Unsubscribe(id string) {
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}

// Initialize asks the bridge to enable notifications for every
// characteristic in Characteristics, one "notify <uuid16>" command each.
func (s *Mux[T]) Initialize() error {
	for _, c := range Characteristics {
		command := fmt.Sprintf("notify %04x", uint16(c))
		if err := s.SendCommand(command); err != nil {
			return fmt.Errorf("failed to enable %s notifications: %w", c, err)
		}
	}
	return nil
}

// SendCommand writes a newline terminated command to the bridge.
func (s *Mux[T]) SendCommand(command string) error {
	s.commandMu.Lock()
	defer s.commandMu.Unlock()
	if !strings.HasSuffix(command, "\n") {
		command += "\n"
	}
	n, err := s.port.Write([]byte(command))
	if err != nil {
		return err
	}
	if n != len(command) {
		return ErrWriteFailed
	}
	return nil
}

// Monitor reads lines from the port, parses them into notifications and fans
// them out to subscribers. Lines that do not parse are logged and skipped.
// It returns nil when the port reaches EOF.
func (s *Mux[T]) Monitor(ctx context.Context) error {
	if s.isClosing() {
		return nil
	}
	scan := bufio.NewScanner(s.port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// the blocking scan.Scan runs on its own goroutine so the loop below can
	// still observe cancellation.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			if !ok {
				select {
				case err := <-scanErrChan:
					return err
				default:
					return nil
				}
			}
			if s.isClosing() {
				return nil
			}

			n, ok, err := ParseLine(line)
			if err != nil {
				monitoring.Logf("notifymux: skipping line: %v", err)
				continue
			}
			if !ok {
				continue
			}
			if err := s.publish(ctx, n); err != nil {
				return err
			}
		}
	}
}

func (s *Mux[T]) isClosing() bool {
	s.closingMu.Lock()
	defer s.closingMu.Unlock()
	return s.closing
}

func (s *Mux[T]) publish(ctx context.Context, n sensors.Notification) error {
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	for _, ch := range s.subscribers {
		if s.lossless {
			select {
			case ch <- n:
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		select {
		case ch <- n:
		default:
			// slow subscriber: skip rather than block the reader
		}
	}
	return nil
}

func (s *Mux[T]) Close() error {
	s.closingMu.Lock()
	s.closing = true
	s.closingMu.Unlock()

	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	return s.port.Close()
}
