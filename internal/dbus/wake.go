package dbus

import (
	"fmt"
	"log/slog"

	godbus "github.com/godbus/dbus/v5"
)

const (
	loginIface            = "org.freedesktop.login1.Manager"
	sigPrepareForSleep    = loginIface + ".PrepareForSleep"
	sigPrepareForShutdown = loginIface + ".PrepareForShutdown"
)

// WakeMonitor listens for systemd-logind sleep signals on the system bus and
// reports every resume on Wake.
type WakeMonitor struct {
	bus     signalBus
	signals chan *godbus.Signal
	done    chan struct{}
	wake    chan struct{}
	log     *slog.Logger
}

// signalBus is the part of *godbus.Conn the monitor uses.
type signalBus interface {
	AddMatchSignal(options ...godbus.MatchOption) error
	RemoveMatchSignal(options ...godbus.MatchOption) error
	Signal(ch chan<- *godbus.Signal)
	RemoveSignal(ch chan<- *godbus.Signal)
}

func matchRules() [][]godbus.MatchOption {
	var rules [][]godbus.MatchOption
	for _, member := range []string{"PrepareForSleep", "PrepareForShutdown"} {
		rules = append(rules, []godbus.MatchOption{
			godbus.WithMatchInterface(loginIface),
			godbus.WithMatchMember(member),
		})
	}
	return rules
}

func NewWakeMonitor(logger *slog.Logger) (*WakeMonitor, error) {
	conn, err := godbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}
	return startWakeMonitor(conn, logger)
}

func startWakeMonitor(bus signalBus, logger *slog.Logger) (*WakeMonitor, error) {
	rules := matchRules()
	for i, rule := range rules {
		if err := bus.AddMatchSignal(rule...); err != nil {
			for _, added := range rules[:i] {
				bus.RemoveMatchSignal(added...)
			}
			return nil, fmt.Errorf("match signal: %w", err)
		}
	}

	m := newWakeMonitor(logger)
	m.bus = bus
	m.signals = make(chan *godbus.Signal, 16)
	bus.Signal(m.signals)
	go m.listen(m.signals)
	return m, nil
}

func newWakeMonitor(logger *slog.Logger) *WakeMonitor {
	return &WakeMonitor{
		done: make(chan struct{}),
		wake: make(chan struct{}, 1),
		log:  logger,
	}
}

// Wake receives a value each time the system resumes. Wakes that arrive while
// one is already pending are merged.
func (m *WakeMonitor) Wake() <-chan struct{} {
	return m.wake
}

// Close stops the monitor and drops its match rules.
func (m *WakeMonitor) Close() {
	close(m.done)
	if m.bus == nil {
		return
	}
	m.bus.RemoveSignal(m.signals)
	for _, rule := range matchRules() {
		if err := m.bus.RemoveMatchSignal(rule...); err != nil {
			m.log.Debug("remove match rule", "err", err)
		}
	}
}

// listen returns when the monitor is closed or the bus closes ch.
func (m *WakeMonitor) listen(ch <-chan *godbus.Signal) {
	for {
		select {
		case sig, ok := <-ch:
			if !ok {
				m.log.Warn("system bus closed, wake sampling stopped")
				return
			}
			m.handle(sig)
		case <-m.done:
			return
		}
	}
}

func (m *WakeMonitor) handle(sig *godbus.Signal) {
	if sig == nil || len(sig.Body) < 1 {
		return
	}
	active, ok := sig.Body[0].(bool)
	if !ok {
		return
	}

	switch sig.Name {
	case sigPrepareForShutdown:
		if active {
			m.log.Info("system preparing for shutdown")
		}
	case sigPrepareForSleep:
		if active {
			m.log.Info("system going to sleep")
			return
		}
		m.log.Info("system woke up")
		select {
		case m.wake <- struct{}{}:
		default:
		}
	}
}
