package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/cptspacemanspiff/battery-log/internal/batterylog"
	"github.com/cptspacemanspiff/battery-log/internal/collector"
	"github.com/cptspacemanspiff/battery-log/internal/config"
	dbussvc "github.com/cptspacemanspiff/battery-log/internal/dbus"
	"github.com/cptspacemanspiff/battery-log/internal/logging"
	"github.com/cptspacemanspiff/battery-log/internal/sampler"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("battery-logger", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		file     string
		interval int
	)
	fs.StringVar(&file, "file", "", "CSV log to append to (default battery_log_<timestamp>.csv)")
	fs.StringVar(&file, "f", "", "shorthand for -file")
	fs.IntVar(&interval, "interval", 60, "seconds between samples")
	fs.IntVar(&interval, "i", 60, "shorthand for -interval")
	configPath := fs.String("config", "", "path to config file (default $XDG_CONFIG_HOME/battery-log/config.toml)")
	source := fs.String("source", "", "battery source: "+strings.Join(collector.SourceNames(), ", "))
	useDBus := fs.Bool("dbus", false, "emit a ReadingLogged signal on the session bus for every row")
	onWake := fs.Bool("sample-on-wake", false, "take a reading as soon as the system resumes from sleep")
	verbose := fs.Bool("verbose", false, "enable all verbose logging (equivalent to -log=all)")
	logFlag := fs.String("log", "", "comma-separated log topics: battery,log,dbus (or 'all')")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := logging.New(stderr, logging.ParseTopics(*verbose, *logFlag))
	dbusLog := logger.With("topic", logging.TopicDBus)

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		logger.Error("load config", "err", err)
		return 1
	}

	// flags only override what was given on the command line
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "interval", "i":
			cfg.Sampler.IntervalSeconds = interval
		case "source":
			cfg.Sampler.Source = *source
		case "dbus":
			cfg.Sampler.DBusSignal = *useDBus
		case "sample-on-wake":
			cfg.Sampler.SampleOnWake = *onWake
		}
	})
	if cfg, err = config.NormalizeAndValidate(cfg); err != nil {
		logger.Error("invalid settings", "err", err)
		return 1
	}

	if file == "" {
		file = filepath.Join(cfg.Sampler.LogDir, batterylog.DefaultFileName(time.Now()))
	}

	src, err := collector.NewSource(cfg.Sampler.Source, cfg.Sampler.Command)
	if err != nil {
		logger.Error("battery source", "err", err)
		return 1
	}

	var notifier sampler.Notifier
	if cfg.Sampler.DBusSignal {
		pub, err := dbussvc.Connect()
		if err != nil {
			dbusLog.Warn("D-Bus signal disabled", "err", err)
		} else {
			defer pub.Close()
			notifier = pub
			dbusLog.Info("D-Bus publisher registered", "name", "org.gnome.BatteryLog")
		}
	}

	var wake <-chan struct{}
	if cfg.Sampler.SampleOnWake {
		mon, err := dbussvc.NewWakeMonitor(dbusLog)
		if err != nil {
			dbusLog.Warn("wake monitor unavailable", "err", err)
		} else {
			defer mon.Close()
			wake = mon.Wake()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := sampler.New(sampler.Config{
		Source:   src,
		LogPath:  file,
		Interval: time.Duration(cfg.Sampler.IntervalSeconds) * time.Second,
		Out:      stdout,
		Logger:   logger,
		Notifier: notifier,
		Wake:     wake,
	})
	logger.Info("battery-logger started", "source", cfg.Sampler.Source, "file", file,
		"interval_secs", cfg.Sampler.IntervalSeconds)
	if err := s.Run(ctx); err != nil {
		logger.Error("start logging", "path", file, "err", err)
		return 1
	}
	return 0
}
