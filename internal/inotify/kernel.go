//go:build linux

package inotify

import (
	"bytes"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Limits on how long and how far apart an IN_MOVED_FROM may wait for
// the IN_MOVED_TO carrying the same cookie before it is dispatched
// unpaired.
const (
	movePairDelay    = 10 * time.Millisecond
	movePairDistance = 100
)

// kevent is one parsed kernel notification. pair links the two halves
// of a move once the dispatcher has correlated them by cookie.
type kevent struct {
	wd        int32
	mask      uint32
	cookie    uint32
	name      string
	pair      *kevent
	timestamp time.Time
}

// kernel owns the inotify descriptor. One goroutine reads and parses
// raw records, a second one runs the pairing queue and invokes cb for
// every dispatchable event while holding the shared lock.
type kernel struct {
	mu *sync.Mutex
	cb func(*kevent)

	fd    int
	raw   chan *kevent
	stopc chan struct{}
}

func newKernel(mu *sync.Mutex, cb func(*kevent)) *kernel {
	return &kernel{mu: mu, cb: cb, fd: -1}
}

func (k *kernel) start() error {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC)
	if err != nil {
		return fmt.Errorf("inotify init failed: %w", err)
	}
	k.fd = fd
	k.raw = make(chan *kevent, 256)
	k.stopc = make(chan struct{})

	go k.readLoop()
	go k.dispatchLoop()
	return nil
}

// stop signals both goroutines and closes the descriptor; it does not
// wait for them.
func (k *kernel) stop() {
	close(k.stopc)
	unix.Close(k.fd)
	k.fd = -1
}

func (k *kernel) addWatch(path string, mask uint32) (int32, error) {
	wd, err := unix.InotifyAddWatch(k.fd, path, mask)
	if err != nil {
		return -1, fmt.Errorf("inotify add watch %s: %w", path, err)
	}
	return int32(wd), nil
}

func (k *kernel) rmWatch(wd int32) {
	// Best effort: the watch may already be gone (deleted dir, unmount).
	unix.InotifyRmWatch(k.fd, uint32(wd))
}

func (k *kernel) readLoop() {
	defer close(k.raw)

	// Room for a full batch of events with maximal names.
	buf := make([]byte, 64*(unix.SizeofInotifyEvent+unix.NAME_MAX+1))
	for {
		n, err := unix.Read(k.fd, buf)
		if err == unix.EINTR {
			continue
		}
		if err != nil || n <= 0 {
			// stop() closed the descriptor
			return
		}

		now := time.Now()
		offset := 0
		for offset+unix.SizeofInotifyEvent <= n {
			sys := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
			offset += unix.SizeofInotifyEvent

			name := ""
			if sys.Len > 0 {
				end := offset + int(sys.Len)
				name = string(bytes.TrimRight(buf[offset:end], "\x00"))
				offset = end
			}

			select {
			case k.raw <- &kevent{
				wd:        sys.Wd,
				mask:      sys.Mask,
				cookie:    sys.Cookie,
				name:      name,
				timestamp: now,
			}:
			case <-k.stopc:
				return
			}
		}
	}
}

// dispatchLoop drains the reader into a queue, holds the head back
// while it is an unpaired IN_MOVED_FROM still inside the pairing
// window, and otherwise pops it and runs the callback under the lock.
func (k *kernel) dispatchLoop() {
	var queue []*kevent
	closed := false

	for {
		if len(queue) == 0 {
			if closed {
				return
			}
			ev, ok := <-k.raw
			if !ok {
				return
			}
			queue = append(queue, ev)
		}

	drain:
		for !closed {
			select {
			case ev, ok := <-k.raw:
				if !ok {
					closed = true
				} else {
					queue = append(queue, ev)
				}
			default:
				break drain
			}
		}

		head := queue[0]
		if head.mask&unix.IN_MOVED_FROM != 0 && head.pair == nil {
			queue = tryPairHead(queue)
		}

		if wait := holdTime(head, len(queue)); !closed && wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case ev, ok := <-k.raw:
				if !ok {
					closed = true
				} else {
					queue = append(queue, ev)
				}
			case <-timer.C:
			case <-k.stopc:
				timer.Stop()
				return
			}
			timer.Stop()
			continue
		}

		queue = queue[1:]
		k.mu.Lock()
		k.cb(head)
		k.mu.Unlock()
	}
}

// holdTime reports how much longer the head event must wait for its
// counterpart; zero or less means it dispatches now.
func holdTime(head *kevent, queued int) time.Duration {
	if head.mask&unix.IN_MOVED_FROM == 0 || head.pair != nil {
		return 0
	}
	if queued > movePairDistance {
		return 0
	}
	return movePairDelay - time.Since(head.timestamp)
}

// tryPairHead links the head IN_MOVED_FROM with the first queued
// IN_MOVED_TO carrying the same cookie and removes the counterpart
// from the queue; it is delivered through head.pair instead.
func tryPairHead(queue []*kevent) []*kevent {
	head := queue[0]
	for i := 1; i < len(queue); i++ {
		cand := queue[i]
		if cand.cookie == head.cookie && cand.mask&unix.IN_MOVED_TO != 0 {
			head.pair = cand
			cand.pair = head
			return append(queue[:i], queue[i+1:]...)
		}
	}
	return queue
}
