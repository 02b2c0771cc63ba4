// Package plot turns a battery log into charge and status charts.
package plot

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"os"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/cptspacemanspiff/battery-log/internal/collector"
)

// Unit is the x-axis unit in elapsed mode.
type Unit string

const (
	UnitHours   Unit = "hours"
	UnitMinutes Unit = "minutes"
	UnitSeconds Unit = "seconds"
)

// Units lists the accepted units.
func Units() []Unit {
	return []Unit{UnitHours, UnitMinutes, UnitSeconds}
}

// ParseUnit accepts exactly hours, minutes or seconds.
func ParseUnit(s string) (Unit, error) {
	switch u := Unit(s); u {
	case UnitHours, UnitMinutes, UnitSeconds:
		return u, nil
	default:
		return "", fmt.Errorf("unknown time unit %q (want hours, minutes or seconds)", s)
	}
}

// Divisor converts seconds into u.
func (u Unit) Divisor() float64 {
	switch u {
	case UnitMinutes:
		return 60
	case UnitSeconds:
		return 1
	default:
		return 3600
	}
}

func (u Unit) title() string {
	s := string(u)
	if s == "" {
		s = string(UnitHours)
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Options selects the x-axis mode and image size of each chart.
type Options struct {
	Elapsed bool
	Unit    Unit
	Width   int
	Height  int
}

func (o Options) xLabel() string {
	if o.Elapsed {
		return fmt.Sprintf("Time Elapsed (%s)", o.Unit.title())
	}
	return "Timestamp"
}

var (
	colCharge = drawing.Color{R: 77, G: 191, B: 102, A: 255}
	colStatus = drawing.Color{R: 89, G: 140, B: 230, A: 255}
	colGrid   = drawing.Color{R: 200, G: 200, B: 200, A: 255}
)

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
		DotColor:    col,
		DotWidth:    3,
	}
}

var gridStyle = chart.Style{StrokeColor: colGrid, StrokeWidth: 1}

// ElapsedValues returns each reading's distance from the earliest reading,
// in unit.
func ElapsedValues(readings []collector.Reading, unit Unit) []float64 {
	if len(readings) == 0 {
		return nil
	}
	first := readings[0].Timestamp
	for _, r := range readings[1:] {
		if r.Timestamp.Before(first) {
			first = r.Timestamp
		}
	}
	div := unit.Divisor()
	values := make([]float64, len(readings))
	for i, r := range readings {
		values[i] = r.Timestamp.Sub(first).Seconds() / div
	}
	return values
}

// BuildCharts returns the charge chart and the status chart for readings.
func BuildCharts(readings []collector.Reading, opts Options) (charge, status chart.Chart, err error) {
	if len(readings) == 0 {
		return chart.Chart{}, chart.Chart{}, fmt.Errorf("no readings to plot")
	}
	if opts.Unit == "" {
		opts.Unit = UnitHours
	}

	pcts := make([]float64, len(readings))
	codes := make([]float64, len(readings))
	for i, r := range readings {
		pcts[i] = float64(r.Percentage)
		codes[i] = float64(r.Status)
	}

	var chargeSeries, statusSeries chart.Series
	var xAxis chart.XAxis
	if opts.Elapsed {
		xs := ElapsedValues(readings, opts.Unit)
		xs, pcts, codes = padContinuous(xs, pcts, codes, 1/opts.Unit.Divisor())
		chargeSeries = chart.ContinuousSeries{Name: "Charge", XValues: xs, YValues: pcts, Style: lineStyle(colCharge)}
		statusSeries = chart.ContinuousSeries{Name: "Status", XValues: xs, YValues: codes, Style: lineStyle(colStatus)}
		xAxis = chart.XAxis{Name: opts.xLabel(), GridMajorStyle: gridStyle}
	} else {
		ts := make([]time.Time, len(readings))
		for i, r := range readings {
			ts[i] = r.Timestamp
		}
		ts, pcts, codes = padTimes(ts, pcts, codes)
		chargeSeries = chart.TimeSeries{Name: "Charge", XValues: ts, YValues: pcts, Style: lineStyle(colCharge)}
		statusSeries = chart.TimeSeries{Name: "Status", XValues: ts, YValues: codes, Style: lineStyle(colStatus)}
		xAxis = chart.XAxis{
			Name:           opts.xLabel(),
			ValueFormatter: chart.TimeValueFormatterWithFormat(timeFormat(ts)),
			GridMajorStyle: gridStyle,
		}
	}

	charge = chart.Chart{
		Title:  "Battery Charge Level",
		Width:  opts.Width,
		Height: opts.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: xAxis,
		YAxis: chart.YAxis{
			Name:           "Charge Percentage",
			Range:          &chart.ContinuousRange{Min: 0, Max: 100},
			Ticks:          percentTicks(),
			GridMajorStyle: gridStyle,
		},
		Series: []chart.Series{chargeSeries},
	}

	status = chart.Chart{
		Title:  "Battery Status Over Time",
		Width:  opts.Width,
		Height: opts.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: xAxis,
		YAxis: chart.YAxis{
			Name:           "Status",
			Range:          &chart.ContinuousRange{Min: 0, Max: float64(collector.StatusCharged)},
			Ticks:          StatusTicks(),
			GridMajorStyle: gridStyle,
		},
		Series: []chart.Series{statusSeries},
	}
	return charge, status, nil
}

// StatusTicks labels every status code with its name.
func StatusTicks() []chart.Tick {
	var ticks []chart.Tick
	for _, s := range collector.Statuses() {
		ticks = append(ticks, chart.Tick{Value: float64(s), Label: s.String()})
	}
	return ticks
}

func percentTicks() []chart.Tick {
	var ticks []chart.Tick
	for pct := 0; pct <= 100; pct += 25 {
		ticks = append(ticks, chart.Tick{Value: float64(pct), Label: fmt.Sprintf("%d%%", pct)})
	}
	return ticks
}

// timeFormat picks a tick label format that fits the span of ts.
func timeFormat(ts []time.Time) string {
	if ts[len(ts)-1].Sub(ts[0]) >= 24*time.Hour {
		return "01-02 15:04"
	}
	return "15:04:05"
}

// go-chart refuses a zero-width x range, so a log whose readings share one
// instant gets a copy of its last point one second later.
func padContinuous(xs, a, b []float64, step float64) ([]float64, []float64, []float64) {
	lo, hi := xs[0], xs[0]
	for _, x := range xs {
		lo, hi = min(lo, x), max(hi, x)
	}
	if hi > lo {
		return xs, a, b
	}
	n := len(xs) - 1
	return append(xs, xs[n]+step), append(a, a[n]), append(b, b[n])
}

func padTimes(ts []time.Time, a, b []float64) ([]time.Time, []float64, []float64) {
	for _, t := range ts[1:] {
		if !t.Equal(ts[0]) {
			return ts, a, b
		}
	}
	n := len(ts) - 1
	return append(ts, ts[n].Add(time.Second)), append(a, a[n]), append(b, b[n])
}

// RenderPNG writes c as a PNG image.
func RenderPNG(c chart.Chart, w io.Writer) error {
	if err := c.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render %q: %w", c.Title, err)
	}
	return nil
}

// Render draws c into an in-memory image.
func Render(c chart.Chart) (image.Image, error) {
	var buf bytes.Buffer
	if err := RenderPNG(c, &buf); err != nil {
		return nil, err
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", c.Title, err)
	}
	return img, nil
}

// RenderPair renders the charge and status charts for readings.
func RenderPair(readings []collector.Reading, opts Options) (charge, status image.Image, err error) {
	chargeChart, statusChart, err := BuildCharts(readings, opts)
	if err != nil {
		return nil, nil, err
	}
	if charge, err = Render(chargeChart); err != nil {
		return nil, nil, err
	}
	if status, err = Render(statusChart); err != nil {
		return nil, nil, err
	}
	return charge, status, nil
}

// RenderStacked renders both charts one above the other.
func RenderStacked(readings []collector.Reading, opts Options) (image.Image, error) {
	top, bottom, err := RenderPair(readings, opts)
	if err != nil {
		return nil, err
	}

	tb, bb := top.Bounds(), bottom.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, max(tb.Dx(), bb.Dx()), tb.Dy()+bb.Dy()))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(0, 0, tb.Dx(), tb.Dy()), top, tb.Min, draw.Over)
	draw.Draw(out, image.Rect(0, tb.Dy(), bb.Dx(), tb.Dy()+bb.Dy()), bottom, bb.Min, draw.Over)
	return out, nil
}

// WriteStackedPNG renders both charts into a PNG file at path.
func WriteStackedPNG(path string, readings []collector.Reading, opts Options) error {
	img, err := RenderStacked(readings, opts)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
