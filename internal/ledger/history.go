package ledger

import (
	"bufio"
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"
)

// Persisted row layout: identity, a tab, the timestamp in RFC3339.
const historyTimeLayout = time.RFC3339

// Rendered timestamp layout for the history table.
const historyRenderLayout = "2006-01-02 15:04:05"

// History maps each backup destination identity to its last successful
// backup time. At most one entry per identity: backing the same
// destination up again moves its timestamp, it never adds a row.
type History struct {
	entries map[string]time.Time
}

// NewHistory returns an empty History.
func NewHistory() *History {
	return &History{entries: make(map[string]time.Time)}
}

// ParseHistory loads persisted rows. Malformed rows are skipped: a
// corrupted row means a missing entry, never a failed run.
func ParseHistory(data []byte) *History {
	h := NewHistory()
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		identity, stamp, ok := strings.Cut(sc.Text(), "\t")
		if !ok || identity == "" {
			continue
		}
		ts, err := time.Parse(historyTimeLayout, strings.TrimSpace(stamp))
		if err != nil {
			continue
		}
		h.entries[identity] = ts
	}
	return h
}

// Upsert records ts as identity's last backup time, replacing any
// previous entry for that identity.
func (h *History) Upsert(identity string, ts time.Time) {
	h.entries[identity] = ts
}

// Len returns the number of recorded destinations.
func (h *History) Len() int { return len(h.entries) }

// identities returns the identities sorted ascending, the order every
// rewrite and render uses.
func (h *History) identities() []string {
	ids := make([]string, 0, len(h.entries))
	for id := range h.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// serialize produces the persisted table, sorted by identity.
func (h *History) serialize() []byte {
	var b bytes.Buffer
	for _, id := range h.identities() {
		fmt.Fprintf(&b, "%s\t%s\n", id, h.entries[id].Format(historyTimeLayout))
	}
	return b.Bytes()
}

// Render produces the human-readable table with derived NEWEST/OLDEST
// tags. NEWEST goes to the first identity (ascending) holding the maximum
// timestamp; OLDEST to the last identity holding the minimum, and only
// when two or more entries exist. Scanning the identity-sorted order makes
// timestamp ties deterministic.
func (h *History) Render() string {
	ids := h.identities()
	newest, oldest := -1, -1
	for i, id := range ids {
		ts := h.entries[id]
		if newest < 0 || ts.After(h.entries[ids[newest]]) {
			newest = i
		}
		if oldest < 0 || !ts.After(h.entries[ids[oldest]]) {
			oldest = i
		}
	}

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DESTINATION\tLAST BACKUP\t")
	for i, id := range ids {
		tag := ""
		switch {
		case i == newest:
			tag = "<- NEWEST"
		case len(ids) >= 2 && i == oldest:
			tag = "<- OLDEST"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", id, h.entries[id].Format(historyRenderLayout), tag)
	}
	tw.Flush()
	return b.String()
}

// UpsertHistory runs one locked load-mutate-write cycle against the store
// at path.
func UpsertHistory(path, identity string, ts time.Time) error {
	return withLock(path, func() error {
		data, err := readStore(path)
		if err != nil {
			return err
		}
		h := ParseHistory(data)
		h.Upsert(identity, ts)
		return writeAtomic(path, h.serialize())
	})
}

// LoadHistory reads and parses the store at path.
func LoadHistory(path string) (*History, error) {
	var h *History
	err := withLock(path, func() error {
		data, err := readStore(path)
		if err != nil {
			return err
		}
		h = ParseHistory(data)
		return nil
	})
	return h, err
}
