//go:build linux

package monitor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Hara602/fsSentry/internal/model"
	"github.com/Hara602/fsSentry/internal/patterns"
	"github.com/Hara602/fsSentry/internal/sysutil"
)

func TestMain(m *testing.M) {
	sysutil.InitLogger("error")
	os.Exit(m.Run())
}

func TestSplitTarget(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if d, f := splitTarget(dir); d != dir || f != "" {
		t.Errorf("directory: got (%q, %q)", d, f)
	}
	if d, f := splitTarget(file); d != dir || f != "f.txt" {
		t.Errorf("file: got (%q, %q)", d, f)
	}
	missing := filepath.Join(dir, "nope")
	if d, f := splitTarget(missing); d != missing || f != "" {
		t.Errorf("missing: got (%q, %q)", d, f)
	}
}

func TestSubSinkResolvesPaths(t *testing.T) {
	m := &inotifyMonitor{events: make(chan model.FileEvent, 4)}
	sink := &subSink{monitor: m, dir: "/tmp/watch", subID: "s1"}

	sink.HandleEvent(model.EventCreated, "foo.txt", "", "", time.Now())
	sink.HandleEvent(model.EventRenamed, "a", "b", "", time.Now())
	sink.HandleEvent(model.EventMovedOut, "a", "", "/tmp/other/b", time.Now())

	created := <-m.events
	if created.Path != "/tmp/watch/foo.txt" || created.OtherPath != "" {
		t.Errorf("created = %+v", created)
	}
	renamed := <-m.events
	if renamed.Path != "/tmp/watch/a" || renamed.OtherPath != "/tmp/watch/b" {
		t.Errorf("renamed = %+v", renamed)
	}
	moved := <-m.events
	if moved.Path != "/tmp/watch/a" || moved.OtherPath != "/tmp/other/b" {
		t.Errorf("moved = %+v", moved)
	}
	if created.SubID != "s1" {
		t.Errorf("sub id = %q", created.SubID)
	}
}

func TestSubSinkAppliesIgnorePatterns(t *testing.T) {
	matcher, err := patterns.NewMatcher([]string{"*.tmp"})
	if err != nil {
		t.Fatal(err)
	}
	m := &inotifyMonitor{events: make(chan model.FileEvent, 4), matcher: matcher}
	sink := &subSink{monitor: m, dir: "/tmp/watch"}

	sink.HandleEvent(model.EventCreated, "scratch.tmp", "", "", time.Now())
	sink.HandleEvent(model.EventCreated, "kept.txt", "", "", time.Now())

	select {
	case ev := <-m.events:
		if ev.Path != "/tmp/watch/kept.txt" {
			t.Fatalf("got %q, want the non-ignored path", ev.Path)
		}
	default:
		t.Fatal("the non-ignored event was not delivered")
	}
	select {
	case ev := <-m.events:
		t.Fatalf("ignored event leaked through: %+v", ev)
	default:
	}
}

// End to end through the real kernel: create a file in a watched
// directory and expect a CREATED event for its absolute path.
func TestMonitorDeliversCreate(t *testing.T) {
	m, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Start(); err != nil {
		t.Skipf("inotify unavailable: %v", err)
	}
	defer m.Stop()

	dir := t.TempDir()
	if err := m.AddWatch(dir); err != nil {
		t.Fatal(err)
	}

	target := filepath.Join(dir, "foo.txt")
	if err := os.WriteFile(target, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-m.Events():
			if ev.Kind == model.EventCreated && ev.Path == target {
				return
			}
			// writes also produce CHANGED/CHANGES_DONE, keep looking
		case <-deadline:
			t.Fatal("no CREATED event within the deadline")
		}
	}
}

// Renaming within one watched directory must surface as a single
// RENAMED event carrying both paths.
func TestMonitorDeliversRename(t *testing.T) {
	m, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Start(); err != nil {
		t.Skipf("inotify unavailable: %v", err)
	}
	defer m.Stop()

	dir := t.TempDir()
	oldPath := filepath.Join(dir, "a")
	newPath := filepath.Join(dir, "b")
	if err := os.WriteFile(oldPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := m.AddWatch(dir); err != nil {
		t.Fatal(err)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-m.Events():
			if ev.Kind == model.EventRenamed {
				if ev.Path != oldPath || ev.OtherPath != newPath {
					t.Fatalf("renamed %q -> %q, want %q -> %q", ev.Path, ev.OtherPath, oldPath, newPath)
				}
				return
			}
		case <-deadline:
			t.Fatal("no RENAMED event within the deadline")
		}
	}
}
