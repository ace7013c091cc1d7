//go:build linux

package inotify

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// dirWatchMask is what every watched directory is registered for.
const dirWatchMask = unix.IN_MODIFY | unix.IN_ATTRIB |
	unix.IN_MOVED_FROM | unix.IN_MOVED_TO |
	unix.IN_DELETE | unix.IN_CREATE |
	unix.IN_DELETE_SELF | unix.IN_UNMOUNT |
	unix.IN_MOVE_SELF | unix.IN_CLOSE_WRITE

// watchedDir is one directory with a live kernel watch and the subs
// interested in it.
type watchedDir struct {
	path string
	wd   int32
	subs []*Sub
}

// pathTable maps watch descriptors to directories and back. All of its
// methods run under the Helper lock.
type pathTable struct {
	kernel *kernel
	byWd   map[int32]*watchedDir
	byPath map[string]*watchedDir
}

func newPathTable(k *kernel) *pathTable {
	return &pathTable{
		kernel: k,
		byWd:   make(map[int32]*watchedDir),
		byPath: make(map[string]*watchedDir),
	}
}

// startWatching registers sub with a kernel watch on its directory,
// sharing an existing watch when one is already live. False means the
// directory cannot be watched right now (usually: does not exist).
func (p *pathTable) startWatching(sub *Sub) bool {
	if dir, ok := p.byPath[sub.Dirname]; ok {
		dir.subs = append(dir.subs, sub)
		return true
	}

	wd, err := p.kernel.addWatch(sub.Dirname, dirWatchMask)
	if err != nil {
		return false
	}
	dir := &watchedDir{path: sub.Dirname, wd: wd, subs: []*Sub{sub}}
	p.byWd[wd] = dir
	p.byPath[sub.Dirname] = dir
	return true
}

// stopWatching removes sub; the kernel watch goes away with the last
// sub on the directory.
func (p *pathTable) stopWatching(sub *Sub) {
	dir, ok := p.byPath[sub.Dirname]
	if !ok {
		return
	}
	for i, s := range dir.subs {
		if s == sub {
			dir.subs = append(dir.subs[:i], dir.subs[i+1:]...)
			break
		}
	}
	if len(dir.subs) == 0 {
		p.kernel.rmWatch(dir.wd)
		delete(p.byWd, dir.wd)
		delete(p.byPath, dir.path)
	}
}

func (p *pathTable) dirForWd(wd int32) *watchedDir {
	return p.byWd[wd]
}

// pathForWd resolves a watch descriptor that is contractually known to
// be registered; an unknown wd here is a collaborator bug.
func (p *pathTable) pathForWd(wd int32) string {
	dir, ok := p.byWd[wd]
	if !ok {
		panic(fmt.Sprintf("inotify: no path registered for wd %d", wd))
	}
	return dir.path
}

// dropWd forgets a directory whose watch the kernel revoked
// (IN_IGNORED after a delete or unmount).
func (p *pathTable) dropWd(wd int32) {
	if dir, ok := p.byWd[wd]; ok {
		delete(p.byWd, wd)
		delete(p.byPath, dir.path)
	}
}
