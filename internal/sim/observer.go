package sim

import (
	"sync/atomic"

	"github.com/san-kum/ballpit/internal/physics"
)

type Update struct {
	BodyID   int
	Color    physics.Color
	Position physics.Vector
}

// ChannelObserver moves position notifications off the simulation's critical path.
// OnPosition never blocks: when the buffer is full the update is dropped and
// counted. A single consumer reads Updates.
type ChannelObserver struct {
	ch       chan Update
	received atomic.Uint64
	dropped  atomic.Uint64
}

func NewChannelObserver(size int) *ChannelObserver {
	if size <= 0 {
		size = 256
	}
	return &ChannelObserver{ch: make(chan Update, size)}
}

// OnPosition has the PositionFunc signature; pass it to Body.Subscribe or
// WithPositionObserver.
func (o *ChannelObserver) OnPosition(b *Body, pos physics.Vector) {
	o.received.Add(1)
	select {
	case o.ch <- Update{BodyID: b.ID(), Color: b.Color(), Position: pos}:
	default:
		o.dropped.Add(1)
	}
}

func (o *ChannelObserver) Updates() <-chan Update { return o.ch }
func (o *ChannelObserver) Received() uint64       { return o.received.Load() }
func (o *ChannelObserver) Dropped() uint64        { return o.dropped.Load() }
