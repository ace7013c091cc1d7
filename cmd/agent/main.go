package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Hara602/fsSentry/internal/analysis"
	"github.com/Hara602/fsSentry/internal/config"
	"github.com/Hara602/fsSentry/internal/journal"
	"github.com/Hara602/fsSentry/internal/model"
	"github.com/Hara602/fsSentry/internal/monitor"
	"github.com/Hara602/fsSentry/internal/patterns"
	"github.com/Hara602/fsSentry/internal/sysutil"
	"github.com/Hara602/fsSentry/internal/watcher"
)

func main() {
	configPath := flag.String("config", "", "path to the agent config file")
	recent := flag.Int("recent", 0, "dump the last N journaled events and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	sysutil.InitLogger(cfg.LogLevel)
	defer sysutil.Log.Sync()

	if cfg.Journal != "" {
		if err := journal.InitJournal(cfg.Journal); err != nil {
			sysutil.Log.Fatal("journal init failed", zap.Error(err))
		}
		defer journal.CloseJournal()
	}

	if *recent > 0 {
		dumpRecent(*recent)
		return
	}

	sysutil.Log.Info("fsSentry agent starting")

	matcher, err := patterns.NewMatcher(cfg.Ignore)
	if err != nil {
		sysutil.Log.Fatal("bad ignore pattern", zap.Error(err))
	}

	fileMon, err := monitor.New(matcher)
	if err != nil {
		sysutil.Log.Fatal("monitor init failed", zap.Error(err))
	}
	if err := fileMon.Start(); err != nil {
		sysutil.Log.Fatal("monitor start failed", zap.Error(err))
	}
	defer fileMon.Stop()

	// Paths from the config plus anything on the command line.
	targets := append(cfg.Watch.Paths, flag.Args()...)
	if len(targets) == 0 && !cfg.Watch.Mounts {
		sysutil.Log.Fatal("nothing to watch: give paths in the config or on the command line")
	}
	for _, target := range targets {
		if err := fileMon.AddWatch(target); err != nil {
			sysutil.Log.Fatal("failed to watch path", zap.String("path", target), zap.Error(err))
		}
		sysutil.Log.Info("monitoring started", zap.String("path", target))
	}

	var mountEvents <-chan model.MountEvent
	var mountWatcher watcher.MountWatcher
	if cfg.Watch.Mounts {
		mountWatcher = watcher.New()
		mountEvents, err = mountWatcher.Start()
		if err != nil {
			sysutil.Log.Fatal("mount watcher init failed", zap.Error(err))
		}
		defer mountWatcher.Stop()
	}

	var inspector *analysis.TypeInspector
	if cfg.Inspect.Enabled {
		inspector = analysis.NewTypeInspector()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case activity := <-fileMon.Events():
			logActivity(activity)
			if err := journal.Record(activity); err != nil {
				sysutil.Log.Warn("journal write failed", zap.Error(err))
			}
			if inspector != nil && activity.Kind == model.EventChangesDoneHint {
				inspect(inspector, activity.Path, cfg.Inspect.Quarantine)
			}

		case mev := <-mountEvents:
			switch mev.Action {
			case "add":
				sysutil.Log.Info("removable media mounted",
					zap.String("mount", mev.MountPoint),
					zap.String("dev", mev.DevicePath))
				if err := fileMon.AddWatch(mev.MountPoint); err != nil {
					sysutil.Log.Error("failed to watch mount", zap.Error(err))
				}
			case "remove":
				sysutil.Log.Info("removable media removed", zap.String("dev", mev.DevicePath))
				if mev.MountPoint != "" {
					fileMon.RemoveWatch(mev.MountPoint)
				}
			}

		case <-sigCh:
			sysutil.Log.Info("shutting down")
			return
		}
	}
}

func logActivity(ev model.FileEvent) {
	fields := []zap.Field{
		zap.String("op", ev.Kind.String()),
		zap.String("file", ev.Path),
	}
	if ev.OtherPath != "" {
		fields = append(fields, zap.String("other", ev.OtherPath))
	}
	sysutil.Log.Info("file activity", fields...)
}

func inspect(inspector *analysis.TypeInspector, path string, quarantine bool) {
	result, err := inspector.Inspect(path)
	if err != nil {
		sysutil.LogSugar.Debugf("filetype inspect failed: %s: %v", path, err)
		return
	}
	if !result.IsMasquerade {
		return
	}
	sysutil.LogSugar.Warnf("masquerade file [%s] %s: %s", result.RiskLevel, path, result.Message)
	if quarantine && result.RiskLevel == "HIGH" {
		if err := os.Rename(path, path+".quarantine"); err != nil {
			sysutil.LogSugar.Errorf("quarantine failed: %s: %v", path, err)
		}
	}
}

func dumpRecent(n int) {
	entries, err := journal.Recent(n)
	if err != nil {
		sysutil.Log.Fatal("journal read failed", zap.Error(err))
	}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		line := fmt.Sprintf("%s  %-12s %s", e.TimeStamp.Format("2006-01-02 15:04:05"), e.Kind, e.Path)
		if e.OtherPath != "" {
			line += " -> " + e.OtherPath
		}
		fmt.Println(line)
	}
}
