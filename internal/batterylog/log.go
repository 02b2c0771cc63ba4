// Package batterylog reads and writes the append-only CSV battery log.
package batterylog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/cptspacemanspiff/battery-log/internal/collector"
)

// TimestampLayout is ISO-8601 local time with microseconds and no offset.
const TimestampLayout = "2006-01-02T15:04:05.000000"

var header = []string{"Timestamp", "Percentage", "Status"}

// DefaultFileName returns battery_log_<YYYYMMDD_HHMMSS>.csv for now.
func DefaultFileName(now time.Time) string {
	return fmt.Sprintf("battery_log_%s.csv", now.Format("20060102_150405"))
}

// EnsureHeader creates path with the header row. An existing file is left
// untouched.
func EnsureHeader(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create log: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	return f.Close()
}

// Append writes one row for r and closes the file before returning.
func Append(path string, r collector.Reading) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}

	w := csv.NewWriter(f)
	err = w.Write([]string{
		r.Timestamp.Local().Format(TimestampLayout),
		strconv.Itoa(r.Percentage),
		strconv.Itoa(int(r.Status)),
	})
	if err == nil {
		w.Flush()
		err = w.Error()
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("append row: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync log: %w", err)
	}
	return f.Close()
}

// ReadFile reads every reading from the log at path.
func ReadFile(path string) ([]collector.Reading, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a complete log. Any malformed row fails the whole read.
func Read(r io.Reader) ([]collector.Reading, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)

	first, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty log: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, name := range header {
		if first[i] != name {
			return nil, fmt.Errorf("unexpected header %q, want %q", first, header)
		}
	}

	var readings []collector.Reading
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		reading, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		readings = append(readings, reading)
	}
	return readings, nil
}

func parseRow(rec []string) (collector.Reading, error) {
	ts, err := ParseTimestamp(rec[0])
	if err != nil {
		return collector.Reading{}, err
	}
	pct, err := strconv.Atoi(rec[1])
	if err != nil {
		return collector.Reading{}, fmt.Errorf("percentage %q: %w", rec[1], err)
	}
	if pct < 0 || pct > 100 {
		return collector.Reading{}, fmt.Errorf("percentage %d out of range 0-100", pct)
	}
	code, err := strconv.Atoi(rec[2])
	if err != nil {
		return collector.Reading{}, fmt.Errorf("status %q: %w", rec[2], err)
	}
	status, err := collector.ParseStatusCode(code)
	if err != nil {
		return collector.Reading{}, err
	}
	return collector.Reading{Timestamp: ts, Percentage: pct, Status: status}, nil
}

// ParseTimestamp accepts ISO-8601 timestamps with or without fractional
// seconds. Timestamps without an offset are read as local time.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q is not ISO-8601", s)
	}
	return t, nil
}
