package model

import "testing"

func TestEventKindString(t *testing.T) {
	cases := map[EventKind]string{
		EventChanged:          "CHANGED",
		EventChangesDoneHint:  "CHANGES_DONE",
		EventAttributeChanged: "ATTRIB",
		EventDeleted:          "DELETED",
		EventCreated:          "CREATED",
		EventRenamed:          "RENAMED",
		EventMovedIn:          "MOVED_IN",
		EventMovedOut:         "MOVED_OUT",
		EventUnmounted:        "UNMOUNTED",
		EventIgnored:          "IGNORED",
		EventKind(42):         "IGNORED",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", kind, got, want)
		}
	}
}
