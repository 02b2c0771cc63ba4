package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultPMSetCommand is the macOS battery status query.
var DefaultPMSetCommand = []string{"pmset", "-g", "batt"}

const internalBatteryMarker = "InternalBattery"

var (
	ErrNoBatteryLine = errors.New("no InternalBattery line in output")
	ErrUnparsable    = errors.New("battery line does not match <percent>%; <status>;")
)

// Matches e.g. "85%; charging;" and "100%; AC attached;".
var pmsetPattern = regexp.MustCompile(`(\d+)%; ([^;]+);`)

var pmsetKeywords = map[string]Status{
	"discharging": StatusDischarging,
	"AC attached": StatusACAttached,
	"charging":    StatusCharging,
	"charged":     StatusCharged,
}

// ParsePMSet extracts the charge percentage and status from `pmset -g batt`
// output. ok is false when there is no InternalBattery line or the line does
// not carry a "<N>%; <keyword>;" segment. Unknown keywords map to
// StatusUnknown.
func ParsePMSet(output string) (percentage int, status Status, ok bool) {
	percentage, status, err := parsePMSet(output)
	return percentage, status, err == nil
}

func parsePMSet(output string) (int, Status, error) {
	var line string
	for _, l := range strings.Split(strings.TrimSpace(output), "\n") {
		if strings.Contains(l, internalBatteryMarker) {
			line = l
			break
		}
	}
	if line == "" {
		return 0, StatusUnknown, ErrNoBatteryLine
	}

	m := pmsetPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, StatusUnknown, ErrUnparsable
	}
	pct, err := strconv.Atoi(m[1])
	if err != nil || pct > 100 {
		return 0, StatusUnknown, ErrUnparsable
	}

	status, known := pmsetKeywords[strings.TrimSpace(m[2])]
	if !known {
		status = StatusUnknown
	}
	return pct, status, nil
}

// Runner executes an external command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// PMSetSource reads battery state by running a pmset-style command.
type PMSetSource struct {
	command []string
	run     Runner
	now     func() time.Time
}

// NewPMSetSource returns a source running command, or DefaultPMSetCommand
// when command is empty.
func NewPMSetSource(command []string) *PMSetSource {
	if len(command) == 0 {
		command = DefaultPMSetCommand
	}
	return &PMSetSource{command: command, run: execRunner, now: time.Now}
}

// Collect runs the command once. A launch failure or non-zero exit is
// returned as an error and produces no reading.
func (p *PMSetSource) Collect(ctx context.Context) (*Reading, error) {
	out, err := p.run(ctx, p.command[0], p.command[1:]...)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", strings.Join(p.command, " "), err)
	}
	pct, status, err := parsePMSet(string(out))
	if err != nil {
		return nil, err
	}
	return &Reading{Timestamp: p.now(), Percentage: pct, Status: status}, nil
}
