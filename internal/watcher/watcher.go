package watcher

import "github.com/Hara602/fsSentry/internal/model"

// MountWatcher reports removable filesystems coming and going, so the
// agent can extend monitoring onto them.
type MountWatcher interface {
	Start() (<-chan model.MountEvent, error)
	Stop()
}

func New() MountWatcher {
	return newWatcher()
}
