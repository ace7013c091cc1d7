package model

import "time"

// EventKind is the semantic change kind delivered to consumers.
type EventKind int

const (
	EventIgnored EventKind = iota - 1 // sentinel, never delivered
	EventChanged
	EventChangesDoneHint
	EventAttributeChanged
	EventDeleted
	EventCreated
	EventRenamed
	EventMovedIn
	EventMovedOut
	EventUnmounted
)

func (k EventKind) String() string {
	switch k {
	case EventChanged:
		return "CHANGED"
	case EventChangesDoneHint:
		return "CHANGES_DONE"
	case EventAttributeChanged:
		return "ATTRIB"
	case EventDeleted:
		return "DELETED"
	case EventCreated:
		return "CREATED"
	case EventRenamed:
		return "RENAMED"
	case EventMovedIn:
		return "MOVED_IN"
	case EventMovedOut:
		return "MOVED_OUT"
	case EventUnmounted:
		return "UNMOUNTED"
	default:
		return "IGNORED"
	}
}

// FileEvent is one translated filesystem change.
// OtherPath carries the rename target or the far side of a
// cross-directory move, empty otherwise.
type FileEvent struct {
	Kind      EventKind
	Path      string
	OtherPath string
	SubID     string // subscription that produced the event
	TimeStamp time.Time
}

// MountEvent reports a removable filesystem appearing or going away.
type MountEvent struct {
	Action     string // "add", "remove"
	DevicePath string // e.g., /dev/sdb1
	MountPoint string // e.g., /media/usb
	TimeStamp  time.Time
}
