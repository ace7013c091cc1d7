//go:build linux

package watcher

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pilebones/go-udev/netlink"
	"go.uber.org/zap"

	"github.com/Hara602/fsSentry/internal/model"
	"github.com/Hara602/fsSentry/internal/sysutil"
)

type linuxWatcher struct {
	events chan model.MountEvent
	stop   chan struct{}
}

func newWatcher() MountWatcher {
	return &linuxWatcher{
		events: make(chan model.MountEvent, 10),
		stop:   make(chan struct{}),
	}
}

func (w *linuxWatcher) Start() (<-chan model.MountEvent, error) {
	// Subscribe to kernel uevents for block devices.
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return nil, err
	}

	queue := make(chan netlink.UEvent)
	errChan := make(chan error)
	quit := conn.Monitor(queue, errChan, nil)

	go func() {
		defer conn.Close()

		// Pick up filesystems that were already mounted before we
		// started listening.
		go w.scanExistingMounts()

		for {
			select {
			case <-w.stop:
				close(quit)
				return

			case <-errChan:
				// transient netlink hiccup, keep listening
				continue

			case uevent := <-queue:
				w.handleUdevEvent(uevent)
			}
		}
	}()
	return w.events, nil
}

func (w *linuxWatcher) Stop() {
	close(w.stop)
}

func (w *linuxWatcher) handleUdevEvent(uevent netlink.UEvent) {
	if uevent.Env["SUBSYSTEM"] != "block" || uevent.Env["DEVTYPE"] != "partition" {
		return
	}
	switch uevent.Action {
	case "add":
		go w.handleAdd(uevent)
	case "remove":
		devName := devNodeOf(uevent)
		w.events <- model.MountEvent{
			Action:     "remove",
			DevicePath: devName,
			MountPoint: sysutil.MountPointOf(devName),
			TimeStamp:  time.Now(),
		}
	}
}

func (w *linuxWatcher) handleAdd(uevent netlink.UEvent) {
	devName := devNodeOf(uevent)

	if !isRemovable(devName) {
		return
	}

	// The udev event usually beats the automounter.
	mountPoint := sysutil.WaitForMount(devName)
	if mountPoint == "" {
		sysutil.LogSugar.Warn("partition appeared but never mounted", zap.String("dev", devName))
		return
	}

	w.events <- model.MountEvent{
		Action:     "add",
		DevicePath: devName,
		MountPoint: mountPoint,
		TimeStamp:  time.Now(),
	}
}

func devNodeOf(uevent netlink.UEvent) string {
	devName := uevent.Env["DEVNAME"]
	if !strings.HasPrefix(devName, "/dev") {
		devName = "/dev/" + devName
	}
	return devName
}

// isRemovable walks sysfs to find whether the partition sits on a
// removable disk.
func isRemovable(devPath string) bool {
	sysPath, err := filepath.EvalSymlinks("/sys/class/block/" + filepath.Base(devPath))
	if err != nil {
		return false
	}
	// The "removable" attribute lives on the whole disk, one level up
	// from the partition.
	b, err := os.ReadFile(filepath.Join(filepath.Dir(sysPath), "removable"))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(b)) == "1"
}

// scanExistingMounts reports removable filesystems already present in
// /proc/mounts when the watcher starts.
func (w *linuxWatcher) scanExistingMounts() {
	f, err := os.Open("/proc/mounts")
	if err != nil {
		sysutil.LogSugar.Error("failed to scan existing mounts", zap.Error(err))
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		devPath := fields[0]
		mountPoint := fields[1]

		if !strings.HasPrefix(devPath, "/dev/") || strings.HasPrefix(devPath, "/dev/loop") {
			continue
		}
		if !isRemovable(devPath) {
			continue
		}

		sysutil.Log.Info("found existing removable mount",
			zap.String("mount", mountPoint),
			zap.String("dev", devPath))
		w.events <- model.MountEvent{
			Action:     "add",
			DevicePath: devPath,
			MountPoint: mountPoint,
			TimeStamp:  time.Now(),
		}
	}
}
