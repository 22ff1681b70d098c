package events

import (
	"context"

	"github.com/gxo-labs/deepclone/internal/metrics"
	"github.com/gxo-labs/deepclone/pkg/deepclone/v1/events"
	clonelog "github.com/gxo-labs/deepclone/pkg/deepclone/v1/log"
)

// MetricsEventListener drains a ChannelEventBus and turns clone events into
// Prometheus counter increments.
type MetricsEventListener struct {
	bus      *ChannelEventBus
	log      clonelog.Logger
	counters *metrics.CloneCounters
}

// NewMetricsEventListener creates a new listener. All dependencies are required.
func NewMetricsEventListener(bus *ChannelEventBus, counters *metrics.CloneCounters, log clonelog.Logger) *MetricsEventListener {
	if bus == nil || counters == nil || log == nil {
		panic("MetricsEventListener requires a non-nil ChannelEventBus, CloneCounters, and Logger")
	}
	return &MetricsEventListener{
		bus:      bus,
		log:      log.With("component", "MetricsEventListener"),
		counters: counters,
	}
}

// Start consumes events until the bus is closed or ctx is done. Run it in
// its own goroutine.
func (l *MetricsEventListener) Start(ctx context.Context) {
	l.log.Debugf("Starting metrics event listener...")
	for {
		select {
		case event, ok := <-l.bus.GetChannel():
			if !ok {
				l.log.Debugf("Event bus channel closed, stopping listener.")
				return
			}
			l.handleEvent(event)
		case <-ctx.Done():
			l.log.Debugf("Context cancelled, stopping metrics event listener.")
			return
		}
	}
}

func (l *MetricsEventListener) handleEvent(event events.Event) {
	switch event.Type {
	case events.CloneStarted:
		l.counters.ObjectsCloned.Inc()
	case events.FieldCloned:
		l.counters.FieldsCloned.Inc()
	}
}
