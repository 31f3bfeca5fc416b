package notifymux

import (
	"fmt"
	"os"
)

// FixturePort replays a recorded notification file. Commands written to it
// are discarded.
type FixturePort struct {
	*os.File
}

func (f FixturePort) Write(p []byte) (int, error) { return len(p), nil }

// NewFixtureMux creates a Mux replaying the notification lines in path.
// Every line reaches every subscriber; Monitor returns nil at end of file.
func NewFixtureMux(path string) (*Mux[FixturePort], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture: %w", err)
	}
	m := NewMux(FixturePort{File: f})
	m.lossless = true
	return m, nil
}
