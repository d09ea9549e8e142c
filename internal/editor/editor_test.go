package editor

import (
	"testing"

	"github.com/RiceCakess/holoclips/internal/domain"
)

func subtitle(key string, offset float64, text string) domain.TranscriptEntry {
	return domain.TranscriptEntry{Key: key, OffsetSeconds: offset, Message: text, Parsed: text}
}

func assertOrdered(t *testing.T, entries []domain.TranscriptEntry) {
	t.Helper()
	for i := 1; i < len(entries); i++ {
		if entries[i-1].OffsetSeconds > entries[i].OffsetSeconds {
			t.Fatalf("collection out of order at %d: %v then %v",
				i, entries[i-1].OffsetSeconds, entries[i].OffsetSeconds)
		}
	}
}

func TestNewCollectionSortsInput(t *testing.T) {
	t.Parallel()

	c := NewCollection([]domain.TranscriptEntry{
		subtitle("b", 20, "second"),
		subtitle("a", 10, "first"),
	})

	got := c.Entries()
	if got[0].Key != "a" || got[1].Key != "b" {
		t.Fatalf("order=%v, want a then b", []string{got[0].Key, got[1].Key})
	}
}

func TestMergeWithSuccessor(t *testing.T) {
	t.Parallel()

	first := subtitle("a", 10, "hi")
	first.DurationMillis = domain.Millis(1000)
	c := NewCollection([]domain.TranscriptEntry{
		first,
		subtitle("b", 12, "there"),
	})

	if !c.Merge("a") {
		t.Fatal("Merge returned false with successor present")
	}

	got := c.Entries()
	if len(got) != 1 {
		t.Fatalf("len=%d, want 1 after merge", len(got))
	}
	m := got[0]
	if m.Message != "hi there" {
		t.Fatalf("Message=%q, want %q", m.Message, "hi there")
	}
	if m.Parsed != "hi there" {
		t.Fatalf("Parsed=%q, want merged text", m.Parsed)
	}
	if m.OffsetSeconds != 10 {
		t.Fatalf("OffsetSeconds=%v, want 10 (keeps earlier start)", m.OffsetSeconds)
	}
	if m.DurationMillis == nil || *m.DurationMillis != 1002 {
		t.Fatalf("DurationMillis=%v, want 1002", m.DurationMillis)
	}
}

func TestMergeDefaultsMissingDuration(t *testing.T) {
	t.Parallel()

	c := NewCollection([]domain.TranscriptEntry{
		subtitle("a", 10, "hi"),
		subtitle("b", 12, "there"),
	})

	c.Merge("a")

	got := c.Entries()
	if got[0].DurationMillis == nil || *got[0].DurationMillis != 1002 {
		t.Fatalf("DurationMillis=%v, want (12-10)+1000=1002", got[0].DurationMillis)
	}
}

func TestMergeWithoutSuccessorIsNoop(t *testing.T) {
	t.Parallel()

	c := NewCollection([]domain.TranscriptEntry{
		subtitle("a", 10, "hi"),
		subtitle("b", 12, "there"),
	})

	if c.Merge("b") {
		t.Fatal("Merge of the last entry should be a no-op")
	}
	if c.Len() != 2 {
		t.Fatalf("Len=%d, want 2 (collection unchanged)", c.Len())
	}
	got := c.Entries()
	if got[1].Message != "there" {
		t.Fatalf("last entry mutated: %q", got[1].Message)
	}
}

func TestInsertBetween(t *testing.T) {
	t.Parallel()

	c := NewCollection([]domain.TranscriptEntry{
		subtitle("a", 10, "first"),
		subtitle("b", 20, "second"),
	})

	inserted, ok := c.InsertBetween("a")
	if !ok {
		t.Fatal("InsertBetween returned false with successor present")
	}

	if inserted.OffsetSeconds != 15 {
		t.Fatalf("OffsetSeconds=%v, want midpoint 15", inserted.OffsetSeconds)
	}
	if inserted.Message != "" {
		t.Fatalf("Message=%q, want empty", inserted.Message)
	}
	if inserted.DurationMillis == nil || *inserted.DurationMillis != 3000 {
		t.Fatalf("DurationMillis=%v, want 3000", inserted.DurationMillis)
	}
	if inserted.Key == "" || inserted.Key == "a" || inserted.Key == "b" {
		t.Fatalf("Key=%q, want a fresh unique key", inserted.Key)
	}

	got := c.Entries()
	if len(got) != 3 {
		t.Fatalf("len=%d, want 3", len(got))
	}
	if got[1].Key != inserted.Key {
		t.Fatalf("middle key=%q, want inserted entry between a and b", got[1].Key)
	}
	assertOrdered(t, got)
}

func TestInsertBetweenWithoutSuccessorIsNoop(t *testing.T) {
	t.Parallel()

	c := NewCollection([]domain.TranscriptEntry{subtitle("a", 10, "only")})

	if _, ok := c.InsertBetween("a"); ok {
		t.Fatal("InsertBetween at the tail should be a no-op")
	}
	if c.Len() != 1 {
		t.Fatalf("Len=%d, want 1", c.Len())
	}
}

func TestInsertedKeysAreUnique(t *testing.T) {
	t.Parallel()

	c := NewCollection([]domain.TranscriptEntry{
		subtitle("a", 10, ""),
		subtitle("b", 20, ""),
	})

	e1, _ := c.InsertBetween("a")
	e2, _ := c.InsertBetween("a")
	if e1.Key == e2.Key {
		t.Fatalf("two inserts produced the same key %q", e1.Key)
	}
	assertOrdered(t, c.Entries())
}

func TestDelete(t *testing.T) {
	t.Parallel()

	c := NewCollection([]domain.TranscriptEntry{
		subtitle("a", 10, "first"),
		subtitle("b", 20, "second"),
		subtitle("c", 30, "third"),
	})

	if !c.Delete("b") {
		t.Fatal("Delete returned false for existing key")
	}
	got := c.Entries()
	if len(got) != 2 {
		t.Fatalf("len=%d, want 2", len(got))
	}
	if got[0].Message != "first" || got[1].Message != "third" {
		t.Fatal("neighboring entries mutated by delete")
	}

	if c.Delete("nope") {
		t.Fatal("Delete returned true for unknown key")
	}
}

func TestEditReplacesTextOnly(t *testing.T) {
	t.Parallel()

	first := subtitle("a", 10, "before")
	first.DurationMillis = domain.Millis(2500)
	c := NewCollection([]domain.TranscriptEntry{first})

	if !c.Edit("a", "after") {
		t.Fatal("Edit returned false for existing key")
	}

	got, ok := c.Get("a")
	if !ok {
		t.Fatal("entry vanished after edit")
	}
	if got.Message != "after" || got.Parsed != "after" {
		t.Fatalf("text=%q/%q, want after/after", got.Message, got.Parsed)
	}
	if got.OffsetSeconds != 10 || got.DurationMillis == nil || *got.DurationMillis != 2500 {
		t.Fatal("Edit touched offset or duration")
	}
}

func TestOperationsPreserveOrdering(t *testing.T) {
	t.Parallel()

	c := NewCollection([]domain.TranscriptEntry{
		subtitle("a", 10, "a"),
		subtitle("b", 20, "b"),
		subtitle("c", 30, "c"),
		subtitle("d", 40, "d"),
	})

	c.Merge("b")
	assertOrdered(t, c.Entries())

	c.InsertBetween("a")
	assertOrdered(t, c.Entries())

	c.Delete("a")
	assertOrdered(t, c.Entries())

	c.Edit("d", "edited")
	assertOrdered(t, c.Entries())
}
