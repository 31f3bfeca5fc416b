package trainer

import (
	"time"

	"github.com/banshee-data/velocity.trainer/internal/sensors"
)

// Update is published after every reading that changed the rider state.
type Update struct {
	Time         time.Time      `json:"time"`
	Source       sensors.Metric `json:"source"` // metric that triggered the update
	BPM          uint16         `json:"bpm"`
	Watts        int16          `json:"watts"`
	RPM          float64        `json:"rpm"`
	TargetSpeed  float64        `json:"target_speed"` // m/s
	Acceleration float64        `json:"acceleration"` // m/s²
}

// Observer receives session updates. OnUpdate runs on the session's
// goroutine and must not block.
type Observer interface {
	OnUpdate(Update)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Update)

func (f ObserverFunc) OnUpdate(u Update) { f(u) }

// ChannelObserver delivers updates on C. When C is full the oldest pending
// update is discarded, so a slow consumer always sees the latest state.
type ChannelObserver struct {
	C chan Update
}

// NewChannelObserver returns a ChannelObserver buffering up to size updates.
// Sizes below 1 are raised to 1.
func NewChannelObserver(size int) *ChannelObserver {
	if size < 1 {
		size = 1
	}
	return &ChannelObserver{C: make(chan Update, size)}
}

func (o *ChannelObserver) OnUpdate(u Update) {
	for {
		select {
		case o.C <- u:
			return
		default:
		}
		select {
		case <-o.C:
		default:
		}
	}
}
