package plot

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/cptspacemanspiff/battery-log/internal/collector"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)

func twoReadings() []collector.Reading {
	return []collector.Reading{
		{Timestamp: t0, Percentage: 80, Status: collector.StatusDischarging},
		{Timestamp: t0.Add(2 * time.Hour), Percentage: 60, Status: collector.StatusCharging},
	}
}

func TestParseUnit(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Unit
	}{
		{"hours", UnitHours},
		{"minutes", UnitMinutes},
		{"seconds", UnitSeconds},
	} {
		got, err := ParseUnit(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}

	for _, bad := range []string{"days", "Minutes", " seconds", ""} {
		_, err := ParseUnit(bad)
		assert.Error(t, err, bad)
	}
}

func TestElapsedValues(t *testing.T) {
	readings := twoReadings()
	assert.Equal(t, []float64{0, 2}, ElapsedValues(readings, UnitHours))
	assert.Equal(t, []float64{0, 120}, ElapsedValues(readings, UnitMinutes))
	assert.Equal(t, []float64{0, 7200}, ElapsedValues(readings, UnitSeconds))
	assert.Nil(t, ElapsedValues(nil, UnitHours))
}

func TestElapsedValues_UnsortedUsesEarliest(t *testing.T) {
	readings := []collector.Reading{
		{Timestamp: t0.Add(time.Hour)},
		{Timestamp: t0},
	}
	assert.Equal(t, []float64{60, 0}, ElapsedValues(readings, UnitMinutes))
}

func TestBuildCharts_Elapsed(t *testing.T) {
	charge, status, err := BuildCharts(twoReadings(), Options{Elapsed: true, Unit: UnitMinutes, Width: 600, Height: 200})
	require.NoError(t, err)

	cs, ok := charge.Series[0].(chart.ContinuousSeries)
	require.True(t, ok, "charge series is %T", charge.Series[0])
	assert.Equal(t, []float64{0, 120}, cs.XValues)
	assert.Equal(t, []float64{80, 60}, cs.YValues)

	ss, ok := status.Series[0].(chart.ContinuousSeries)
	require.True(t, ok, "status series is %T", status.Series[0])
	assert.Equal(t, []float64{1, 3}, ss.YValues)

	assert.Equal(t, "Time Elapsed (Minutes)", charge.XAxis.Name)
	assert.Equal(t, "Time Elapsed (Minutes)", status.XAxis.Name)
}

func TestBuildCharts_DefaultUnitIsHours(t *testing.T) {
	charge, _, err := BuildCharts(twoReadings(), Options{Elapsed: true})
	require.NoError(t, err)
	assert.Equal(t, "Time Elapsed (Hours)", charge.XAxis.Name)
	assert.Equal(t, []float64{0, 2}, charge.Series[0].(chart.ContinuousSeries).XValues)
}

func TestBuildCharts_Absolute(t *testing.T) {
	charge, status, err := BuildCharts(twoReadings(), Options{})
	require.NoError(t, err)

	ts, ok := charge.Series[0].(chart.TimeSeries)
	require.True(t, ok, "charge series is %T", charge.Series[0])
	assert.Equal(t, []time.Time{t0, t0.Add(2 * time.Hour)}, ts.XValues)
	assert.Equal(t, "Timestamp", charge.XAxis.Name)

	assert.Equal(t, 0.0, charge.YAxis.Range.GetMin())
	assert.Equal(t, 100.0, charge.YAxis.Range.GetMax())

	labels := make([]string, 0, len(status.YAxis.Ticks))
	for _, tick := range status.YAxis.Ticks {
		labels = append(labels, tick.Label)
	}
	assert.Equal(t, []string{"Unknown", "Discharging", "AC Attached", "Charging", "Charged"}, labels)
}

func TestBuildCharts_Empty(t *testing.T) {
	_, _, err := BuildCharts(nil, Options{})
	assert.Error(t, err)
}

func TestBuildCharts_SingleReadingPadded(t *testing.T) {
	one := twoReadings()[:1]

	charge, _, err := BuildCharts(one, Options{Elapsed: true, Unit: UnitSeconds})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, charge.Series[0].(chart.ContinuousSeries).XValues)

	charge, _, err = BuildCharts(one, Options{})
	require.NoError(t, err)
	assert.Len(t, charge.Series[0].(chart.TimeSeries).XValues, 2)

	// the caller's slice is left alone
	assert.Len(t, one, 1)
}

func TestRenderPNG(t *testing.T) {
	charge, _, err := BuildCharts(twoReadings(), Options{Width: 400, Height: 200})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderPNG(charge, &buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestRenderStacked(t *testing.T) {
	img, err := RenderStacked(twoReadings(), Options{Elapsed: true, Width: 400, Height: 200})
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 400, img.Bounds().Dy())
}

func TestWriteStackedPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "battery.png")
	require.NoError(t, WriteStackedPNG(path, twoReadings()[:1], Options{Width: 300, Height: 150}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 300, cfg.Height)
}
