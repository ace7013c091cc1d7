//go:build linux

package monitor

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Hara602/fsSentry/internal/inotify"
	"github.com/Hara602/fsSentry/internal/model"
	"github.com/Hara602/fsSentry/internal/patterns"
	"github.com/Hara602/fsSentry/internal/sysutil"
	"go.uber.org/zap"
)

type inotifyMonitor struct {
	helper  *inotify.Helper
	matcher *patterns.Matcher
	events  chan model.FileEvent

	mu   sync.Mutex
	subs map[string]*inotify.Sub // watch target -> subscription
}

func newMonitor(matcher *patterns.Matcher) (FileMonitor, error) {
	return &inotifyMonitor{
		helper:  inotify.NewHelper(),
		matcher: matcher,
		events:  make(chan model.FileEvent, 256),
		subs:    make(map[string]*inotify.Sub),
	}, nil
}

func (m *inotifyMonitor) Start() error {
	return m.helper.Startup()
}

func (m *inotifyMonitor) Stop() {
	m.mu.Lock()
	for target, sub := range m.subs {
		m.helper.Cancel(sub)
		delete(m.subs, target)
	}
	m.mu.Unlock()
	m.helper.Shutdown()
}

// AddWatch subscribes to path. Watching a path that does not exist yet
// is fine; events start once it shows up.
func (m *inotifyMonitor) AddWatch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[abs]; ok {
		return nil
	}

	dirname, filename := splitTarget(abs)
	sink := &subSink{monitor: m, dir: dirname}
	sub := inotify.NewSub(dirname, filename, sink)
	sink.subID = sub.ID
	m.helper.Add(sub)
	m.subs[abs] = sub

	sysutil.Log.Debug("watch added",
		zap.String("target", abs), zap.String("sub", sub.ID))
	return nil
}

func (m *inotifyMonitor) RemoveWatch(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[abs]
	if !ok {
		return
	}
	m.helper.Cancel(sub)
	delete(m.subs, abs)
}

func (m *inotifyMonitor) Events() <-chan model.FileEvent { return m.events }

// splitTarget picks the watch shape: regular files are watched through
// their parent directory, everything else (directories and targets
// that do not exist yet) is watched whole.
func splitTarget(abs string) (dirname, filename string) {
	if fi, err := os.Stat(abs); err == nil && !fi.IsDir() {
		return filepath.Dir(abs), filepath.Base(abs)
	}
	return abs, ""
}

// subSink adapts one subscription's deliveries onto the shared event
// channel. HandleEvent runs under the backend lock, so it only
// resolves paths and queues; a full channel drops the event.
type subSink struct {
	monitor *inotifyMonitor
	dir     string
	subID   string
}

func (s *subSink) HandleEvent(kind model.EventKind, name, otherName, otherPath string, at time.Time) {
	path := s.dir
	if name != "" {
		path = filepath.Join(s.dir, name)
	}
	other := otherPath
	if otherName != "" {
		other = filepath.Join(s.dir, otherName)
	}

	if s.monitor.matcher != nil && s.monitor.matcher.IsIgnored(path) {
		return
	}

	ev := model.FileEvent{
		Kind:      kind,
		Path:      path,
		OtherPath: other,
		SubID:     s.subID,
		TimeStamp: at,
	}
	select {
	case s.monitor.events <- ev:
	default:
		sysutil.LogSugar.Warnf("event channel full, dropping %s %s", kind, path)
	}
}
