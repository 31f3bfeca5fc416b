package notifymux

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledMux_UnsubscribeClosesChannel(t *testing.T) {
	d := NewDisabledMux()
	id, ch := d.Subscribe()

	d.Unsubscribe(id)
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}
}

func TestDisabledMux_CloseClosesAllChannels(t *testing.T) {
	d := NewDisabledMux()
	_, a := d.Subscribe()
	_, b := d.Subscribe()

	require.NoError(t, d.Close())
	require.NoError(t, d.Close(), "Close is idempotent")

	_, ok := <-a
	assert.False(t, ok)
	_, ok = <-b
	assert.False(t, ok)

	// subscribing after close yields a closed channel
	_, c := d.Subscribe()
	_, ok = <-c
	assert.False(t, ok)
}

func TestDisabledMux_Monitor(t *testing.T) {
	d := NewDisabledMux()
	require.NoError(t, d.Initialize())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := d.Monitor(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}
