package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var sysfsRoot = "/sys"

// ErrNoBattery is returned when no battery device can be found.
var ErrNoBattery = fmt.Errorf("no battery found")

var sysfsStatuses = map[string]Status{
	"Discharging":  StatusDischarging,
	"Not charging": StatusACAttached,
	"Charging":     StatusCharging,
	"Full":         StatusCharged,
}

// SysfsSource reads battery info from /sys/class/power_supply/BAT*.
type SysfsSource struct {
	now func() time.Time
}

func NewSysfsSource() *SysfsSource {
	return &SysfsSource{now: time.Now}
}

func (s *SysfsSource) Collect(_ context.Context) (*Reading, error) {
	matches, err := filepath.Glob(filepath.Join(sysfsRoot, "class/power_supply/BAT*"))
	if err != nil {
		return nil, fmt.Errorf("glob battery: %w", err)
	}
	if len(matches) == 0 {
		return nil, ErrNoBattery
	}

	data, err := os.ReadFile(filepath.Join(matches[0], "uevent"))
	if err != nil {
		return nil, fmt.Errorf("read uevent: %w", err)
	}

	props := parseUevent(string(data))
	capacity, err := strconv.Atoi(props["POWER_SUPPLY_CAPACITY"])
	if err != nil || capacity < 0 || capacity > 100 {
		return nil, fmt.Errorf("%w: capacity %q", ErrUnparsable, props["POWER_SUPPLY_CAPACITY"])
	}

	status := sysfsStatuses[props["POWER_SUPPLY_STATUS"]]

	// Some firmware reports "Discharging" at full capacity while on AC power.
	if status == StatusDischarging && capacity >= 100 && isACOnline() {
		status = StatusACAttached
	}

	return &Reading{Timestamp: s.now(), Percentage: capacity, Status: status}, nil
}

// isACOnline checks if any AC adapter is online.
func isACOnline() bool {
	matches, err := filepath.Glob(filepath.Join(sysfsRoot, "class/power_supply/AC*/online"))
	if err != nil {
		return false
	}
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err == nil && strings.TrimSpace(string(data)) == "1" {
			return true
		}
	}
	return false
}

func parseUevent(data string) map[string]string {
	props := make(map[string]string)
	for _, line := range strings.Split(data, "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			props[k] = v
		}
	}
	return props
}
