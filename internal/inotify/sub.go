//go:build linux

package inotify

import (
	"strings"

	"github.com/google/uuid"
)

// Sub is one consumer subscription: a whole directory, or a single
// file within one when Filename is set. The consumer owns the Sub; the
// backend only keeps it registered while it is active.
type Sub struct {
	ID       string
	Dirname  string
	Filename string

	cancelled bool
	sink      Sink
}

func NewSub(dirname, filename string, sink Sink) *Sub {
	if len(dirname) > 1 {
		dirname = strings.TrimSuffix(dirname, "/")
	}
	return &Sub{
		ID:       uuid.NewString(),
		Dirname:  dirname,
		Filename: filename,
		sink:     sink,
	}
}
