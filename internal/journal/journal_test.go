package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Hara602/fsSentry/internal/model"
)

func TestJournalRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "events.db")
	if err := InitJournal(dbPath); err != nil {
		t.Fatal(err)
	}
	defer CloseJournal()

	now := time.Now()
	events := []model.FileEvent{
		{Kind: model.EventCreated, Path: "/tmp/watch/foo.txt", SubID: "s1", TimeStamp: now},
		{Kind: model.EventRenamed, Path: "/tmp/watch/a", OtherPath: "/tmp/watch/b", SubID: "s1", TimeStamp: now},
		{Kind: model.EventDeleted, Path: "/tmp/watch/foo.txt", SubID: "s1", TimeStamp: now},
	}
	for _, ev := range events {
		if err := Record(ev); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := Recent(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	// newest first
	if entries[0].Kind != "DELETED" || entries[1].Kind != "RENAMED" {
		t.Fatalf("got %s, %s", entries[0].Kind, entries[1].Kind)
	}
	if entries[1].OtherPath != "/tmp/watch/b" {
		t.Fatalf("other path = %q", entries[1].OtherPath)
	}
}

func TestRecordWithoutInitIsNoop(t *testing.T) {
	CloseJournal()
	if err := Record(model.FileEvent{Kind: model.EventCreated, Path: "/x"}); err != nil {
		t.Fatal(err)
	}
}
