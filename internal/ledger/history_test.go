package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func stamp(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func TestHistory_UpsertIsIdempotentByIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.tsv")
	for i, s := range []string{
		"2026-08-01T10:00:00Z",
		"2026-08-15T10:00:00Z",
		"2026-08-30T10:00:00Z",
	} {
		if err := UpsertHistory(path, "BACKUP_A", stamp(t, s)); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}
	h, err := LoadHistory(path)
	if err != nil {
		t.Fatal(err)
	}
	if h.Len() != 1 {
		t.Fatalf("entries = %d, want 1", h.Len())
	}
	if !strings.Contains(h.Render(), "2026-08-30 10:00:00") {
		t.Errorf("render lost the most recent timestamp:\n%s", h.Render())
	}
}

func TestHistory_SingleEntryHasNewestButNoOldest(t *testing.T) {
	h := NewHistory()
	h.Upsert("BACKUP_A", stamp(t, "2026-08-30T10:00:00Z"))
	out := h.Render()
	if !strings.Contains(out, "<- NEWEST") {
		t.Errorf("missing NEWEST tag:\n%s", out)
	}
	if strings.Contains(out, "<- OLDEST") {
		t.Errorf("single-entry ledger must not carry OLDEST:\n%s", out)
	}
}

func TestHistory_TagsNewestAndOldest(t *testing.T) {
	h := NewHistory()
	h.Upsert("BACKUP_B", stamp(t, "2026-08-29T10:00:00Z"))
	h.Upsert("BACKUP_A", stamp(t, "2026-08-30T10:00:00Z"))
	h.Upsert("BACKUP_C", stamp(t, "2026-08-01T10:00:00Z"))

	tagged := map[string]string{}
	for _, line := range strings.Split(h.Render(), "\n") {
		for _, tag := range []string{"<- NEWEST", "<- OLDEST"} {
			if strings.Contains(line, tag) {
				tagged[tag] = line
			}
		}
	}
	if !strings.Contains(tagged["<- NEWEST"], "BACKUP_A") {
		t.Errorf("NEWEST on wrong entry: %q", tagged["<- NEWEST"])
	}
	if !strings.Contains(tagged["<- OLDEST"], "BACKUP_C") {
		t.Errorf("OLDEST on wrong entry: %q", tagged["<- OLDEST"])
	}
	if n := strings.Count(h.Render(), "<-"); n != 2 {
		t.Errorf("tag count = %d, want exactly 2:\n%s", n, h.Render())
	}
}

func TestHistory_TimestampTieBreaksByIdentity(t *testing.T) {
	same := stamp(t, "2026-08-30T10:00:00Z")
	h := NewHistory()
	h.Upsert("BACKUP_B", same)
	h.Upsert("BACKUP_A", same)
	out := h.Render()
	// Identity-ascending scan: first of the maximum gets NEWEST, last of
	// the minimum gets OLDEST.
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "<- NEWEST") && !strings.Contains(line, "BACKUP_A") {
			t.Errorf("NEWEST tie-break not identity-ascending: %q", line)
		}
		if strings.Contains(line, "<- OLDEST") && !strings.Contains(line, "BACKUP_B") {
			t.Errorf("OLDEST tie-break not identity-ascending: %q", line)
		}
	}
}

func TestHistory_RenderSortsByIdentity(t *testing.T) {
	h := NewHistory()
	h.Upsert("BACKUP_C", stamp(t, "2026-08-01T10:00:00Z"))
	h.Upsert("BACKUP_A", stamp(t, "2026-08-02T10:00:00Z"))
	h.Upsert("BACKUP_B", stamp(t, "2026-08-03T10:00:00Z"))
	out := h.Render()
	a := strings.Index(out, "BACKUP_A")
	b := strings.Index(out, "BACKUP_B")
	c := strings.Index(out, "BACKUP_C")
	if !(a < b && b < c) {
		t.Errorf("rows not sorted by identity:\n%s", out)
	}
}

func TestParseHistory_SkipsMalformedRows(t *testing.T) {
	data := strings.Join([]string{
		"BACKUP_A\t2026-08-30T10:00:00Z",
		"garbage line with no tab",
		"BACKUP_B\tnot-a-timestamp",
		"\t2026-08-30T10:00:00Z",
		"BACKUP_C\t2026-08-29T10:00:00Z",
	}, "\n")
	h := ParseHistory([]byte(data))
	if h.Len() != 2 {
		t.Fatalf("entries = %d, want 2 (corrupt rows treated as missing)", h.Len())
	}
}

func TestUpsertHistory_ReplacesAtomicallyLeavingNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.tsv")
	if err := UpsertHistory(path, "BACKUP_A", stamp(t, "2026-08-30T10:00:00Z")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary version left behind after rename")
	}
}
