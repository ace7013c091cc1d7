//go:build windows

package watcher

import "github.com/Hara602/fsSentry/internal/model"

type winWatcher struct{}

func newWatcher() MountWatcher                                { return &winWatcher{} }
func (w *winWatcher) Start() (<-chan model.MountEvent, error) { return nil, nil }
func (w *winWatcher) Stop()                                   {}
