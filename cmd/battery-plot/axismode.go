package main

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/cptspacemanspiff/battery-log/internal/plot"
)

type axisMode struct {
	Label   string
	Elapsed bool
	Unit    plot.Unit
}

var axisModes = []axisMode{
	{"Absolute", false, plot.UnitHours},
	{"Hours", true, plot.UnitHours},
	{"Minutes", true, plot.UnitMinutes},
	{"Seconds", true, plot.UnitSeconds},
}

// modeIndex finds the bar entry for the command-line choice.
func modeIndex(elapsed bool, unit plot.Unit) int {
	if !elapsed {
		return 0
	}
	for i, m := range axisModes {
		if m.Elapsed && m.Unit == unit {
			return i
		}
	}
	return 1
}

func (m axisMode) options(width, height int) plot.Options {
	return plot.Options{Elapsed: m.Elapsed, Unit: m.Unit, Width: width, Height: height}
}

func newAxisModeBar(selected int, onSelect func(int)) fyne.CanvasObject {
	buttons := make([]*widget.Button, len(axisModes))
	objects := make([]fyne.CanvasObject, len(axisModes))
	for i, m := range axisModes {
		idx := i
		btn := widget.NewButton(m.Label, func() {
			for j, b := range buttons {
				b.Importance = widget.MediumImportance
				if j == idx {
					b.Importance = widget.HighImportance
				}
				b.Refresh()
			}
			onSelect(idx)
		})
		if i == selected {
			btn.Importance = widget.HighImportance
		}
		buttons[idx] = btn
		objects[idx] = btn
	}
	row := container.New(layout.NewHBoxLayout(), objects...)
	bg := canvas.NewRectangle(colorBarBg)
	return container.NewStack(bg, container.NewPadded(row))
}
