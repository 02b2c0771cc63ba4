package main

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"

	"github.com/cptspacemanspiff/battery-log/internal/collector"
)

var (
	colorGreenAccent = color.NRGBA{R: 77, G: 191, B: 102, A: 255}
	colorWhiteLabel  = color.NRGBA{R: 200, G: 200, B: 200, A: 255}
	colorBarBg       = color.NRGBA{R: 30, G: 30, B: 30, A: 230}
)

// logSummary is what the stats bar shows for a log.
type logSummary struct {
	Charge  string
	Status  string
	Samples string
	Span    string
}

func summarize(readings []collector.Reading) logSummary {
	if len(readings) == 0 {
		return logSummary{Charge: "--%", Status: "--", Samples: "0", Span: "--"}
	}
	first, last := readings[0].Timestamp, readings[0].Timestamp
	latest := readings[0]
	for _, r := range readings[1:] {
		if r.Timestamp.Before(first) {
			first = r.Timestamp
		}
		if !r.Timestamp.Before(last) {
			last = r.Timestamp
			latest = r
		}
	}
	return logSummary{
		Charge:  fmt.Sprintf("%d%%", latest.Percentage),
		Status:  latest.Status.String(),
		Samples: fmt.Sprintf("%d", len(readings)),
		Span:    formatSpan(last.Sub(first)),
	}
}

func formatSpan(d time.Duration) string {
	d = d.Round(time.Second)
	switch {
	case d >= time.Hour:
		return fmt.Sprintf("%dh %02dm", int(d.Hours()), int(d.Minutes())%60)
	case d >= time.Minute:
		return fmt.Sprintf("%dm %02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}

type statsBar struct {
	chargeLabel  *canvas.Text
	statusLabel  *canvas.Text
	samplesLabel *canvas.Text
	spanLabel    *canvas.Text
	container    fyne.CanvasObject
}

func newStatsBar() *statsBar {
	s := &statsBar{
		chargeLabel:  newStatText("--%"),
		statusLabel:  newStatText("--"),
		samplesLabel: newStatText("0"),
		spanLabel:    newStatText("--"),
	}

	row := container.New(layout.NewHBoxLayout(),
		container.NewVBox(newLabelText("Charge"), s.chargeLabel),
		layout.NewSpacer(),
		container.NewVBox(newLabelText("Status"), s.statusLabel),
		layout.NewSpacer(),
		container.NewVBox(newLabelText("Samples"), s.samplesLabel),
		layout.NewSpacer(),
		container.NewVBox(newLabelText("Span"), s.spanLabel),
	)

	bg := canvas.NewRectangle(colorBarBg)
	s.container = container.NewStack(bg, container.NewPadded(row))
	return s
}

func (s *statsBar) Update(sum logSummary) {
	s.chargeLabel.Text = sum.Charge
	s.statusLabel.Text = sum.Status
	s.samplesLabel.Text = sum.Samples
	s.spanLabel.Text = sum.Span
	s.chargeLabel.Refresh()
	s.statusLabel.Refresh()
	s.samplesLabel.Refresh()
	s.spanLabel.Refresh()
}

func newStatText(text string) *canvas.Text {
	t := canvas.NewText(text, colorGreenAccent)
	t.TextSize = 18
	t.TextStyle = fyne.TextStyle{Bold: true}
	return t
}

func newLabelText(text string) *canvas.Text {
	t := canvas.NewText(text, colorWhiteLabel)
	t.TextSize = 12
	return t
}
