package events_test

import (
	"bytes"
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/gxo-labs/deepclone/internal/events"
	"github.com/gxo-labs/deepclone/internal/logger"
	"github.com/gxo-labs/deepclone/internal/metrics"
	v1 "github.com/gxo-labs/deepclone/pkg/deepclone/v1"
	cloneevents "github.com/gxo-labs/deepclone/pkg/deepclone/v1/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name string
}

var (
	itemType  = reflect.TypeOf(item{})
	nameField = v1.FieldInfo{Name: "Name", Type: reflect.TypeOf(""), Owner: itemType}
)

type countingListener struct {
	mu      sync.Mutex
	started int
	fields  int
}

func (l *countingListener) CloneStarted(reflect.Type) {
	l.mu.Lock()
	l.started++
	l.mu.Unlock()
}

func (l *countingListener) FieldCloned(reflect.Type, v1.FieldInfo) {
	l.mu.Lock()
	l.fields++
	l.mu.Unlock()
}

func TestChannelEventBus_DropsWhenFull(t *testing.T) {
	var logs bytes.Buffer
	bus := events.NewChannelEventBus(1, logger.NewLogger("warn", "text", &logs))

	bus.Emit(cloneevents.Event{Type: cloneevents.CloneStarted})
	bus.Emit(cloneevents.Event{Type: cloneevents.PlanResolved})
	assert.Contains(t, logs.String(), "dropping event type 'PlanResolved'")

	ev := <-bus.GetChannel()
	assert.Equal(t, cloneevents.CloneStarted, ev.Type)
	bus.Close()
	_, ok := <-bus.GetChannel()
	assert.False(t, ok)
}

func TestChannelEventBus_RequiresLogger(t *testing.T) {
	assert.Panics(t, func() { events.NewChannelEventBus(0, nil) })
	assert.Panics(t, func() { events.NewLogListener(nil) })
}

func TestBusListener(t *testing.T) {
	bus := events.NewChannelEventBus(4, logger.NewDiscardLogger())
	l := events.NewBusListener(bus)

	l.CloneStarted(itemType)
	l.FieldCloned(itemType, nameField)
	bus.Close()

	var got []cloneevents.Event
	for ev := range bus.GetChannel() {
		got = append(got, ev)
	}
	require.Len(t, got, 2)
	assert.Equal(t, cloneevents.CloneStarted, got[0].Type)
	assert.Equal(t, "events_test.item", got[0].TypeName)
	assert.Equal(t, cloneevents.FieldCloned, got[1].Type)
	assert.Equal(t, "Name", got[1].FieldName)
	assert.False(t, got[1].Timestamp.IsZero())

	assert.NotPanics(t, func() { events.NewBusListener(nil).CloneStarted(itemType) })
	events.NewNoOpEventBus().Emit(cloneevents.Event{})
}

func TestMultiListener(t *testing.T) {
	a, b := &countingListener{}, &countingListener{}
	m := events.MultiListener{a, b}
	m.CloneStarted(itemType)
	m.FieldCloned(itemType, nameField)
	m.FieldCloned(itemType, nameField)

	for _, l := range []*countingListener{a, b} {
		assert.Equal(t, 1, l.started)
		assert.Equal(t, 2, l.fields)
	}
}

func TestLogListener(t *testing.T) {
	var logs bytes.Buffer
	l := events.NewLogListener(logger.NewLogger("debug", "text", &logs))
	l.CloneStarted(itemType)
	l.FieldCloned(itemType, nameField)

	assert.Contains(t, logs.String(), "clone>events_test.item")
	assert.Contains(t, logs.String(), "cloned field>events_test.item.Name (string)")
	assert.Contains(t, logs.String(), "component=LogListener")
}

func TestMetricsEventListener_StopsOnContext(t *testing.T) {
	provider := metrics.NewPrometheusRegistryProvider()
	counters, err := metrics.NewCloneCounters(provider.Registry())
	require.NoError(t, err)
	bus := events.NewChannelEventBus(8, logger.NewDiscardLogger())
	listener := events.NewMetricsEventListener(bus, counters, logger.NewDiscardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		listener.Start(ctx)
	}()

	bus.Emit(cloneevents.Event{Type: cloneevents.CloneStarted})
	bus.Emit(cloneevents.Event{Type: cloneevents.CloneFailed})
	require.Eventually(t, func() bool { return len(bus.GetChannel()) == 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener did not stop after cancel")
	}
	assert.Panics(t, func() { events.NewMetricsEventListener(nil, counters, logger.NewDiscardLogger()) })
}
