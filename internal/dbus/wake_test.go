package dbus

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	godbus "github.com/godbus/dbus/v5"
)

type fakeBus struct {
	matches  [][]godbus.MatchOption
	adds     int
	failAt   int
	signals  []chan<- *godbus.Signal
	removed  int
	unsigned int
}

func (b *fakeBus) AddMatchSignal(options ...godbus.MatchOption) error {
	b.adds++
	if b.adds == b.failAt {
		return errors.New("access denied")
	}
	b.matches = append(b.matches, options)
	return nil
}

func (b *fakeBus) RemoveMatchSignal(options ...godbus.MatchOption) error {
	for i, m := range b.matches {
		if reflect.DeepEqual(m, options) {
			b.matches = append(b.matches[:i], b.matches[i+1:]...)
			b.removed++
			return nil
		}
	}
	return errors.New("no such match")
}

func (b *fakeBus) Signal(ch chan<- *godbus.Signal) {
	b.signals = append(b.signals, ch)
}

func (b *fakeBus) RemoveSignal(chan<- *godbus.Signal) {
	b.unsigned++
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pending(m *WakeMonitor) int {
	return len(m.wake)
}

func TestWakeMonitor_Handle(t *testing.T) {
	m := newWakeMonitor(discardLogger())

	m.handle(&godbus.Signal{Name: sigPrepareForSleep, Body: []any{true}})
	if pending(m) != 0 {
		t.Fatal("going to sleep queued a wake")
	}

	m.handle(&godbus.Signal{Name: sigPrepareForShutdown, Body: []any{false}})
	m.handle(&godbus.Signal{Name: sigPrepareForSleep, Body: []any{"false"}})
	m.handle(&godbus.Signal{Name: sigPrepareForSleep})
	m.handle(nil)
	if pending(m) != 0 {
		t.Fatal("unrelated or malformed signal queued a wake")
	}

	m.handle(&godbus.Signal{Name: sigPrepareForSleep, Body: []any{false}})
	m.handle(&godbus.Signal{Name: sigPrepareForSleep, Body: []any{false}})
	if pending(m) != 1 {
		t.Fatalf("pending wakes = %d, want 1", pending(m))
	}

	select {
	case <-m.Wake():
	default:
		t.Fatal("Wake() not readable after resume")
	}
}

func TestWakeMonitor_ListenStopsWhenBusClosesChannel(t *testing.T) {
	m := newWakeMonitor(discardLogger())
	ch := make(chan *godbus.Signal)
	close(ch)

	done := make(chan struct{})
	go func() {
		m.listen(ch)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("listen() still running after its signal channel was closed")
	}
}

func TestWakeMonitor_CloseStopsListen(t *testing.T) {
	m := newWakeMonitor(discardLogger())
	done := make(chan struct{})
	go func() {
		m.listen(make(chan *godbus.Signal))
		close(done)
	}()

	m.Close()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("listen() still running after Close()")
	}
}

func TestStartWakeMonitor_CloseRemovesMatchRules(t *testing.T) {
	bus := &fakeBus{}
	m, err := startWakeMonitor(bus, discardLogger())
	if err != nil {
		t.Fatalf("startWakeMonitor() error = %v", err)
	}
	if len(bus.matches) != 2 || len(bus.signals) != 1 {
		t.Fatalf("matches = %d, signal channels = %d, want 2 and 1", len(bus.matches), len(bus.signals))
	}

	m.Close()
	if len(bus.matches) != 0 {
		t.Fatalf("%d match rules left after Close()", len(bus.matches))
	}
	if bus.unsigned != 1 {
		t.Fatalf("RemoveSignal called %d times, want 1", bus.unsigned)
	}
}

func TestStartWakeMonitor_MatchFailureUndoesEarlierRules(t *testing.T) {
	bus := &fakeBus{failAt: 2}
	if _, err := startWakeMonitor(bus, discardLogger()); err == nil {
		t.Fatal("startWakeMonitor() error = nil, want match error")
	}
	if len(bus.matches) != 0 || bus.removed != 1 {
		t.Fatalf("matches = %d, removed = %d, want 0 and 1", len(bus.matches), bus.removed)
	}
	if len(bus.signals) != 0 {
		t.Fatal("signal channel registered after a failed start")
	}
}
