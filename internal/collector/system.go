package collector

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/distatus/battery"
)

// SystemSource reads battery state through the platform battery API.
type SystemSource struct {
	getAll func() ([]*battery.Battery, error)
	now    func() time.Time
}

func NewSystemSource() *SystemSource {
	return &SystemSource{getAll: battery.GetAll, now: time.Now}
}

// Collect sums charge over all batteries and takes the state of the first.
func (s *SystemSource) Collect(_ context.Context) (*Reading, error) {
	batteries, err := s.getAll()
	if len(batteries) == 0 {
		if err != nil {
			return nil, fmt.Errorf("get batteries: %w", err)
		}
		return nil, ErrNoBattery
	}

	var full, current float64
	for _, bat := range batteries {
		if bat == nil {
			continue
		}
		full += bat.Full
		current += bat.Current
	}
	if full <= 0 {
		return nil, fmt.Errorf("%w: battery reports zero full capacity", ErrUnparsable)
	}

	pct := int(math.Round(current / full * 100))
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}

	var status Status
	if batteries[0] != nil {
		status = systemStatus(batteries[0].State.Raw)
	}
	return &Reading{Timestamp: s.now(), Percentage: pct, Status: status}, nil
}

func systemStatus(state battery.AgnosticState) Status {
	switch state {
	case battery.Discharging, battery.Empty:
		return StatusDischarging
	case battery.Idle:
		return StatusACAttached
	case battery.Charging:
		return StatusCharging
	case battery.Full:
		return StatusCharged
	default:
		return StatusUnknown
	}
}
