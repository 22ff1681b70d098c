package events

import (
	"github.com/gxo-labs/deepclone/pkg/deepclone/v1/events"
	clonelog "github.com/gxo-labs/deepclone/pkg/deepclone/v1/log"
)

// ChannelEventBus implements events.Bus over a buffered channel. Emit never
// blocks: when the buffer is full the event is dropped and a warning logged.
type ChannelEventBus struct {
	channel chan events.Event
	log     clonelog.Logger
}

// NewChannelEventBus creates a bus with the given buffer size (100 when
// non-positive). It panics if log is nil.
func NewChannelEventBus(bufferSize int, log clonelog.Logger) *ChannelEventBus {
	const defaultBufferSize = 100
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if log == nil {
		panic("ChannelEventBus requires a non-nil logger")
	}
	bus := &ChannelEventBus{
		channel: make(chan events.Event, bufferSize),
		log:     log.With("component", "ChannelEventBus"),
	}
	bus.log.Debugf("ChannelEventBus initialized with buffer size %d", bufferSize)
	return bus
}

// Emit sends an event onto the buffered channel without blocking.
func (c *ChannelEventBus) Emit(event events.Event) {
	select {
	case c.channel <- event:
	default:
		c.log.Warnf("Event channel buffer full, dropping event type '%s'", event.Type)
	}
}

// GetChannel returns the read side of the bus for in-process consumers.
func (c *ChannelEventBus) GetChannel() <-chan events.Event {
	return c.channel
}

// Close closes the channel, telling consumers no more events will arrive.
func (c *ChannelEventBus) Close() {
	c.log.Debugf("Closing ChannelEventBus channel.")
	close(c.channel)
}

var _ events.Bus = (*ChannelEventBus)(nil)
