package dbus

import (
	"fmt"

	godbus "github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/cptspacemanspiff/battery-log/internal/batterylog"
	"github.com/cptspacemanspiff/battery-log/internal/collector"
)

const (
	busName    = "org.gnome.BatteryLog"
	objPath    = "/org/gnome/BatteryLog"
	ifaceName  = "org.gnome.BatteryLog"
	signalName = ifaceName + ".ReadingLogged"
)

const introspectXML = `
<node>
  <interface name="` + ifaceName + `">
    <signal name="ReadingLogged">
      <arg type="s" name="timestamp"/>
      <arg type="i" name="percentage"/>
      <arg type="i" name="status"/>
      <arg type="s" name="label"/>
    </signal>
  </interface>
` + introspect.IntrospectDataString + `
</node>`

type emitter interface {
	Emit(path godbus.ObjectPath, name string, values ...any) error
}

// Publisher announces every logged reading on the session bus.
type Publisher struct {
	conn   emitter
	closer func() error
}

// Connect registers the publisher on the session bus.
func Connect() (*Publisher, error) {
	conn, err := godbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}

	if err := conn.Export(introspect.Introspectable(introspectXML), objPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("export introspection: %w", err)
	}

	reply, err := conn.RequestName(busName, godbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("request name: %w", err)
	}
	if reply != godbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, fmt.Errorf("name %s already taken", busName)
	}

	return &Publisher{conn: conn, closer: conn.Close}, nil
}

// Notify emits ReadingLogged for r.
func (p *Publisher) Notify(r collector.Reading) error {
	err := p.conn.Emit(objPath, signalName,
		r.Timestamp.Local().Format(batterylog.TimestampLayout),
		int32(r.Percentage),
		int32(r.Status),
		r.Status.String(),
	)
	if err != nil {
		return fmt.Errorf("emit %s: %w", signalName, err)
	}
	return nil
}

// Close releases the bus connection.
func (p *Publisher) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}
