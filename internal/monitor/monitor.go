package monitor

import (
	"github.com/Hara602/fsSentry/internal/model"
	"github.com/Hara602/fsSentry/internal/patterns"
)

// FileMonitor is the consumer surface over the inotify backend.
type FileMonitor interface {
	Start() error
	Stop()
	AddWatch(path string) error // directory or single file
	RemoveWatch(path string)
	Events() <-chan model.FileEvent
}

// New builds the platform monitor. matcher may be nil when nothing is
// to be filtered out.
func New(matcher *patterns.Matcher) (FileMonitor, error) {
	return newMonitor(matcher)
}
