package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"

	"github.com/cptspacemanspiff/battery-log/internal/batterylog"
	"github.com/cptspacemanspiff/battery-log/internal/collector"
	"github.com/cptspacemanspiff/battery-log/internal/config"
	"github.com/cptspacemanspiff/battery-log/internal/logging"
	"github.com/cptspacemanspiff/battery-log/internal/plot"
)

// displayScale shrinks the rendered charts to fit a typical window.
const displayScale = 0.75

// cliArgs holds the parsed command line.
type cliArgs struct {
	file       string
	elapsed    bool
	unit       string
	out        string
	configPath string
}

// parseArgs accepts flags before and after FILE.
func parseArgs(args []string, output io.Writer) (cliArgs, error) {
	var a cliArgs
	fs := flag.NewFlagSet("battery-plot", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.BoolVar(&a.elapsed, "elapsed", false, "plot time elapsed since the first reading")
	fs.BoolVar(&a.elapsed, "e", false, "shorthand for -elapsed")
	fs.StringVar(&a.unit, "unit", "", "elapsed time unit: hours, minutes or seconds")
	fs.StringVar(&a.unit, "u", "", "shorthand for -unit")
	fs.StringVar(&a.out, "out", "", "write the charts to this PNG file instead of opening a window")
	fs.StringVar(&a.configPath, "config", "", "path to config file (default $XDG_CONFIG_HOME/battery-log/config.toml)")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: battery-plot [flags] FILE")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return cliArgs{}, err
	}
	if fs.NArg() > 0 {
		a.file = fs.Arg(0)
		if err := fs.Parse(fs.Args()[1:]); err != nil {
			return cliArgs{}, err
		}
	}
	if a.file == "" {
		fs.Usage()
		return cliArgs{}, errors.New("missing log file")
	}
	if fs.NArg() != 0 {
		fs.Usage()
		return cliArgs{}, fmt.Errorf("unexpected arguments %q", fs.Args())
	}
	if a.unit != "" {
		if _, err := plot.ParseUnit(a.unit); err != nil {
			return cliArgs{}, err
		}
	}
	return a, nil
}

func main() {
	args, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(2)
	}

	logger := logging.New(os.Stderr, nil).With("topic", logging.TopicLog)

	cfg, err := config.LoadOrDefault(args.configPath)
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}
	unit := args.unit
	if unit == "" {
		unit = cfg.Plot.Unit
	}
	u, err := plot.ParseUnit(unit)
	if err != nil {
		logger.Error("invalid unit", "err", err)
		os.Exit(1)
	}

	readings, err := batterylog.ReadFile(args.file)
	if err != nil {
		logger.Error("read battery log", "path", args.file, "err", err)
		os.Exit(1)
	}
	if len(readings) == 0 {
		logger.Error("battery log has no readings", "path", args.file)
		os.Exit(1)
	}

	opts := plot.Options{Elapsed: args.elapsed, Unit: u, Width: cfg.Plot.Width, Height: cfg.Plot.Height}
	if args.out != "" {
		if err := plot.WriteStackedPNG(args.out, readings, opts); err != nil {
			logger.Error("write chart", "path", args.out, "err", err)
			os.Exit(1)
		}
		return
	}

	if err := showWindow(args.file, readings, opts); err != nil {
		logger.Error("render charts", "err", err)
		os.Exit(1)
	}
}

func showWindow(file string, readings []collector.Reading, opts plot.Options) error {
	charge, status, err := plot.RenderPair(readings, opts)
	if err != nil {
		return err
	}

	a := app.NewWithID("org.gnome.BatteryLogPlot")
	win := a.NewWindow("Battery Log: " + filepath.Base(file))

	stats := newStatsBar()
	stats.Update(summarize(readings))

	chargeImg := newChartImage(charge, opts)
	statusImg := newChartImage(status, opts)

	modeBar := newAxisModeBar(modeIndex(opts.Elapsed, opts.Unit), func(idx int) {
		mode := axisModes[idx].options(opts.Width, opts.Height)
		charge, status, err := plot.RenderPair(readings, mode)
		if err != nil {
			fyne.LogError("re-render charts", err)
			return
		}
		chargeImg.Image = charge
		statusImg.Image = status
		chargeImg.Refresh()
		statusImg.Refresh()
	})

	content := container.NewBorder(
		container.NewVBox(stats.container, modeBar),
		nil, nil, nil,
		container.NewGridWithRows(2, chargeImg, statusImg),
	)
	win.SetContent(container.NewPadded(content))
	win.Resize(fyne.NewSize(float32(opts.Width)*displayScale+32, 2*float32(opts.Height)*displayScale+160))
	win.ShowAndRun()
	return nil
}

func newChartImage(img image.Image, opts plot.Options) *canvas.Image {
	c := canvas.NewImageFromImage(img)
	c.FillMode = canvas.ImageFillContain
	c.SetMinSize(fyne.NewSize(float32(opts.Width)*displayScale, float32(opts.Height)*displayScale))
	return c
}
