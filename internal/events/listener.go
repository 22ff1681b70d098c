package events

import (
	"reflect"
	"time"

	v1 "github.com/gxo-labs/deepclone/pkg/deepclone/v1"
	"github.com/gxo-labs/deepclone/pkg/deepclone/v1/events"
	clonelog "github.com/gxo-labs/deepclone/pkg/deepclone/v1/log"
)

// LogListener writes every allocated clone and every deep-copied field to
// a logger at DEBUG. Useful when tracking down what a clone call touches.
type LogListener struct {
	log clonelog.Logger
}

// NewLogListener panics if log is nil.
func NewLogListener(log clonelog.Logger) *LogListener {
	if log == nil {
		panic("LogListener requires a non-nil logger")
	}
	return &LogListener{log: log.With("component", "LogListener")}
}

func (l *LogListener) CloneStarted(t reflect.Type) {
	l.log.Debugf("clone>%s", t)
}

func (l *LogListener) FieldCloned(owner reflect.Type, field v1.FieldInfo) {
	l.log.Debugf("cloned field>%s.%s (%s)", owner, field.Name, field.Type)
}

// BusListener forwards clone notifications onto an events.Bus.
type BusListener struct {
	bus events.Bus
}

func NewBusListener(bus events.Bus) *BusListener {
	if bus == nil {
		bus = NewNoOpEventBus()
	}
	return &BusListener{bus: bus}
}

func (l *BusListener) CloneStarted(t reflect.Type) {
	l.bus.Emit(events.Event{
		Type:      events.CloneStarted,
		Timestamp: time.Now(),
		TypeName:  t.String(),
	})
}

func (l *BusListener) FieldCloned(owner reflect.Type, field v1.FieldInfo) {
	l.bus.Emit(events.Event{
		Type:      events.FieldCloned,
		Timestamp: time.Now(),
		TypeName:  owner.String(),
		FieldName: field.Name,
	})
}

// MultiListener fans notifications out to several listeners in order.
type MultiListener []v1.Listener

func (m MultiListener) CloneStarted(t reflect.Type) {
	for _, l := range m {
		l.CloneStarted(t)
	}
}

func (m MultiListener) FieldCloned(owner reflect.Type, field v1.FieldInfo) {
	for _, l := range m {
		l.FieldCloned(owner, field)
	}
}

var (
	_ v1.Listener = (*LogListener)(nil)
	_ v1.Listener = (*BusListener)(nil)
	_ v1.Listener = MultiListener(nil)
)
