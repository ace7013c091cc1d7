//go:build windows

package monitor

import (
	"github.com/Hara602/fsSentry/internal/model"
	"github.com/Hara602/fsSentry/internal/patterns"
)

type winMonitor struct{}

func newMonitor(matcher *patterns.Matcher) (FileMonitor, error) { return &winMonitor{}, nil }
func (m *winMonitor) Start() error                              { return nil }
func (m *winMonitor) Stop()                                     {}
func (m *winMonitor) AddWatch(p string) error                   { return nil }
func (m *winMonitor) RemoveWatch(p string)                      {}
func (m *winMonitor) Events() <-chan model.FileEvent            { return nil }
