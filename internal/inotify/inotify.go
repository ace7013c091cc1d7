//go:build linux

package inotify

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/Hara602/fsSentry/internal/model"
)

// Sink receives translated events for one subscription.
//
// HandleEvent runs while the backend lock is held: implementations must
// queue the event and return, and must not call back into the Helper.
type Sink interface {
	HandleEvent(kind model.EventKind, name, otherName, otherPath string, at time.Time)
}

// Helper owns the whole inotify backend: the kernel reader, the
// wd->path table and the missing-path rescanner all share its lock.
//
// The kernel reader takes the lock when it dispatches events, the
// rescanner takes it for every scan pass, and every public method here
// takes it on entry. Nothing in this package runs outside of it.
type Helper struct {
	mu      sync.Mutex
	kernel  *kernel
	paths   *pathTable
	missing *missingList
	started bool
}

func NewHelper() *Helper {
	h := &Helper{}
	h.kernel = newKernel(&h.mu, h.processEvent)
	h.paths = newPathTable(h.kernel)
	h.missing = newMissingList(h.paths, h.notMissingCallback)
	return h
}

// Startup brings the backend up. The first successful call starts the
// kernel reader and the rescanner; later calls are no-ops. Failure to
// create the inotify descriptor is returned as-is and the backend
// stays down.
func (h *Helper) Startup() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.started {
		return nil
	}
	if err := h.kernel.start(); err != nil {
		return err
	}
	h.missing.start(&h.mu)
	h.started = true
	return nil
}

// Shutdown stops the rescanner and the kernel reader. Pending events
// are dropped.
func (h *Helper) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		return
	}
	h.missing.stopScanning()
	h.kernel.stop()
	h.started = false
}

// Add registers sub. If its directory cannot be watched right now the
// sub lands on the missing list instead; either way the sub is
// registered in exactly one place when Add returns.
func (h *Helper) Add(sub *Sub) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.paths.startWatching(sub) {
		h.missing.add(sub)
	}
}

// Cancel unregisters sub. Only the first call has any effect. Once
// Cancel returns no further events are delivered for the sub.
func (h *Helper) Cancel(sub *Sub) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub.cancelled {
		return
	}
	sub.cancelled = true
	h.missing.remove(sub)
	h.paths.stopWatching(sub)
}

// processEvent is the kernel reader's callback; the lock is held.
func (h *Helper) processEvent(ev *kevent) {
	h.dispatch(ev)

	// The counterpart of a cross-directory move belongs to another
	// watched directory and has to reach that directory's subs too.
	if ev.pair != nil && ev.pair.wd != ev.wd {
		h.dispatch(ev.pair)
	}

	if ev.mask&unix.IN_IGNORED != 0 {
		h.paths.dropWd(ev.wd)
	}
}

func (h *Helper) dispatch(ev *kevent) {
	dir := h.paths.dirForWd(ev.wd)
	if dir == nil {
		// watch already removed, late event
		return
	}
	for _, sub := range dir.subs {
		if !subMatches(sub, ev) {
			continue
		}
		h.deliverEvent(ev, sub, false)
	}
}

// subMatches reports whether ev concerns sub. A sub with no filename
// watches the whole directory.
func subMatches(sub *Sub, ev *kevent) bool {
	if sub.Filename == "" {
		return true
	}
	if sub.Filename == ev.name {
		return true
	}
	return ev.pair != nil && sub.Filename == ev.pair.name
}

// deliverEvent translates ev for sub and hands it to the sink.
// fileEvent marks hardlink-level events, which this backend never
// registers for; receiving one means a collaborator bug.
func (h *Helper) deliverEvent(ev *kevent, sub *Sub, fileEvent bool) {
	if fileEvent {
		panic("inotify: hardlink file events are not supported")
	}
	sev, ok := h.translate(ev)
	if !ok {
		return
	}
	sub.sink.HandleEvent(sev.Kind, sev.Name, sev.OtherName, sev.OtherPath, sev.At)
}

// Event is one translated change, names relative to the watched
// directory. OtherName is the rename counterpart; OtherPath is the
// absolute far side of a cross-directory move.
type Event struct {
	Kind      model.EventKind
	Name      string
	OtherName string
	OtherPath string
	At        time.Time
}

// translate resolves ev into a semantic event. The second return is
// false for kinds the consumer never sees (open, access, overflow...).
func (h *Helper) translate(ev *kevent) (Event, bool) {
	if ev.mask&(unix.IN_MOVED_FROM|unix.IN_MOVED_TO) != 0 {
		// Either a rename within one directory or a move between two.
		if ev.pair != nil && ev.pair.wd == ev.wd {
			return Event{
				Kind:      model.EventRenamed,
				Name:      ev.name,
				OtherName: ev.pair.name,
				At:        ev.timestamp,
			}, true
		}
		other := ""
		if ev.pair != nil {
			parent := h.paths.pathForWd(ev.pair.wd)
			other = fullpathFromEvent(ev.pair, parent, "")
		}
		return Event{
			Kind:      maskToKind(ev.mask),
			Name:      ev.name,
			OtherPath: other,
			At:        ev.timestamp,
		}, true
	}

	kind := maskToKind(ev.mask)
	if kind == model.EventIgnored {
		return Event{}, false
	}
	return Event{Kind: kind, Name: ev.name, At: ev.timestamp}, true
}

// notMissingCallback runs under the lock when a missing target shows
// up again; the rescanner has already re-registered the sub.
func (h *Helper) notMissingCallback(sub *Sub) {
	sub.sink.HandleEvent(model.EventCreated, sub.Filename, "", "", time.Now())
}

// fullpathFromEvent builds "{dir}/{name}" with filename overriding the
// event's own name; with no name at all the result keeps a trailing
// separator and denotes the directory itself.
func fullpathFromEvent(ev *kevent, dirname, filename string) string {
	switch {
	case filename != "":
		return fmt.Sprintf("%s/%s", dirname, filename)
	case ev.name != "":
		return fmt.Sprintf("%s/%s", dirname, ev.name)
	default:
		return dirname + "/"
	}
}

// maskToKind maps a single-concern inotify mask to its semantic kind.
// Unmount, delete, delete-self and move-self all collapse to DELETED,
// matching what consumers historically expect.
func maskToKind(mask uint32) model.EventKind {
	switch mask &^ unix.IN_ISDIR {
	case unix.IN_MODIFY:
		return model.EventChanged
	case unix.IN_CLOSE_WRITE:
		return model.EventChangesDoneHint
	case unix.IN_ATTRIB:
		return model.EventAttributeChanged
	case unix.IN_MOVE_SELF, unix.IN_DELETE, unix.IN_DELETE_SELF:
		return model.EventDeleted
	case unix.IN_CREATE:
		return model.EventCreated
	case unix.IN_MOVED_FROM:
		return model.EventMovedOut
	case unix.IN_MOVED_TO:
		return model.EventMovedIn
	case unix.IN_UNMOUNT:
		return model.EventUnmounted
	default:
		// IN_OPEN, IN_ACCESS, IN_CLOSE_NOWRITE, IN_Q_OVERFLOW,
		// IN_IGNORED and whatever future kernels add.
		return model.EventIgnored
	}
}
