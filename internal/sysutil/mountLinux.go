//go:build linux

package sysutil

import (
	"bufio"
	"os"
	"strings"
	"time"
)

// WaitForMount polls /proc/mounts until devPath shows up, for up to
// three seconds. The udev event usually fires before the desktop
// automounter has finished, so a raw sleep-and-retry is enough.
func WaitForMount(devPath string) string {
	for i := 0; i < 30; i++ {
		if mp := MountPointOf(devPath); mp != "" {
			return mp
		}
		time.Sleep(100 * time.Millisecond)
	}
	return ""
}

// MountPointOf returns the current mount point of devPath, or "".
func MountPointOf(devPath string) string {
	f, err := os.Open("/proc/mounts")
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[0] == devPath {
			return fields[1]
		}
	}
	return ""
}
