package collector

import (
	"context"
	"fmt"
	"time"
)

// Status is the closed set of battery states recorded in the log.
// The integer values are the on-disk encoding and must not change.
type Status int

const (
	StatusUnknown Status = iota
	StatusDischarging
	StatusACAttached
	StatusCharging
	StatusCharged
)

var statusLabels = [...]string{
	StatusUnknown:     "Unknown",
	StatusDischarging: "Discharging",
	StatusACAttached:  "AC Attached",
	StatusCharging:    "Charging",
	StatusCharged:     "Charged",
}

// Statuses lists every status in code order.
func Statuses() []Status {
	return []Status{StatusUnknown, StatusDischarging, StatusACAttached, StatusCharging, StatusCharged}
}

// Valid reports whether s is one of the known codes.
func (s Status) Valid() bool {
	return s >= StatusUnknown && s <= StatusCharged
}

func (s Status) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusLabels[s]
}

// ParseStatusCode converts a logged integer back into a Status.
func ParseStatusCode(code int) (Status, error) {
	s := Status(code)
	if !s.Valid() {
		return StatusUnknown, fmt.Errorf("status code %d out of range 0-%d", code, int(StatusCharged))
	}
	return s, nil
}

// Reading is one sampled battery state.
type Reading struct {
	Timestamp  time.Time
	Percentage int
	Status     Status
}

// Source produces a single Reading per call. An error means no reading is
// available for this tick.
type Source interface {
	Collect(ctx context.Context) (*Reading, error)
}
