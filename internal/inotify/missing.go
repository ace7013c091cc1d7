//go:build linux

package inotify

import (
	"sync"
	"time"
)

// How often missing targets are retried.
const scanMissingInterval = 4 * time.Second

// missingList holds subs whose directory could not be watched yet and
// retries them periodically. Mutation and scanning run under the
// Helper lock; the ticker goroutine takes it for every pass.
type missingList struct {
	paths *pathTable
	cb    func(*Sub) // reappearance callback, runs under the lock

	subs  []*Sub
	stopc chan struct{}
}

func newMissingList(paths *pathTable, cb func(*Sub)) *missingList {
	return &missingList{paths: paths, cb: cb}
}

func (m *missingList) start(mu *sync.Mutex) {
	m.stopc = make(chan struct{})
	go func(stopc chan struct{}) {
		ticker := time.NewTicker(scanMissingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				mu.Lock()
				m.scanOnce()
				mu.Unlock()
			case <-stopc:
				return
			}
		}
	}(m.stopc)
}

func (m *missingList) stopScanning() {
	if m.stopc != nil {
		close(m.stopc)
		m.stopc = nil
	}
}

func (m *missingList) add(sub *Sub) {
	m.subs = append(m.subs, sub)
}

func (m *missingList) remove(sub *Sub) {
	for i, s := range m.subs {
		if s == sub {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			return
		}
	}
}

// scanOnce retries every missing sub. A sub that can be watched again
// is moved off the list first, then announced through the
// reappearance callback as a single synthetic CREATED event.
func (m *missingList) scanOnce() {
	kept := m.subs[:0]
	for _, sub := range m.subs {
		if !m.paths.startWatching(sub) {
			kept = append(kept, sub)
			continue
		}
		m.cb(sub)
	}
	// Drop stale tail references.
	for i := len(kept); i < len(m.subs); i++ {
		m.subs[i] = nil
	}
	m.subs = kept
}
