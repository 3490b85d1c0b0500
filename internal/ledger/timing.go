package ledger

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// TimingCap is how many attempts the timing log keeps. Appending the 11th
// drops the oldest.
const TimingCap = 10

// Entries are framed as delimited blocks, so the log is reparsed and
// rewritten in full on every append.
const timingDelim = "----- attempt -----"

const notPerformed = "not performed"

const timingTimeLayout = time.RFC3339

// Phase is a phase duration that may not have been measured: the pre-count
// only runs in progress mode and verification can be skipped entirely.
type Phase struct {
	Performed bool
	Duration  time.Duration
}

// PhaseOf wraps a measured duration.
func PhaseOf(d time.Duration) Phase {
	return Phase{Performed: true, Duration: d}
}

func (p Phase) String() string {
	if !p.Performed {
		return notPerformed
	}
	return p.Duration.Round(time.Millisecond).String()
}

func parsePhase(s string) (Phase, error) {
	if s == notPerformed {
		return Phase{}, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return Phase{}, err
	}
	return PhaseOf(d), nil
}

// TimingEntry is one backup attempt's record. Immutable once appended.
type TimingEntry struct {
	When      time.Time
	Source    string
	Dest      string
	CountDur  Phase
	CopyDur   Phase
	VerifyDur Phase
	Flags     string
	Status    string
}

func (e TimingEntry) serialize() string {
	var b strings.Builder
	fmt.Fprintln(&b, timingDelim)
	fmt.Fprintf(&b, "date: %s\n", e.When.Format(timingTimeLayout))
	fmt.Fprintf(&b, "source: %s\n", e.Source)
	fmt.Fprintf(&b, "dest: %s\n", e.Dest)
	fmt.Fprintf(&b, "count: %s\n", e.CountDur)
	fmt.Fprintf(&b, "copy: %s\n", e.CopyDur)
	fmt.Fprintf(&b, "verify: %s\n", e.VerifyDur)
	fmt.Fprintf(&b, "flags: %s\n", e.Flags)
	fmt.Fprintf(&b, "status: %s\n", e.Status)
	return b.String()
}

// parseTimingBlock rebuilds one entry from its block body. ok is false for
// malformed or partial blocks; those are treated as absent.
func parseTimingBlock(block string) (TimingEntry, bool) {
	var e TimingEntry
	seen := map[string]bool{}
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, val, found := strings.Cut(line, ": ")
		if !found {
			// Allow empty values ("flags:" with nothing after).
			key, val, found = strings.Cut(line, ":")
			if !found {
				return TimingEntry{}, false
			}
		}
		var err error
		switch key {
		case "date":
			e.When, err = time.Parse(timingTimeLayout, val)
		case "source":
			e.Source = val
		case "dest":
			e.Dest = val
		case "count":
			e.CountDur, err = parsePhase(val)
		case "copy":
			e.CopyDur, err = parsePhase(val)
		case "verify":
			e.VerifyDur, err = parsePhase(val)
		case "flags":
			e.Flags = val
		case "status":
			e.Status = val
		default:
			continue
		}
		if err != nil {
			return TimingEntry{}, false
		}
		seen[key] = true
	}
	for _, required := range []string{"date", "source", "dest", "status"} {
		if !seen[required] {
			return TimingEntry{}, false
		}
	}
	return e, true
}

// ParseTiming splits the store into blocks and keeps the well-formed ones,
// oldest first.
func ParseTiming(data []byte) []TimingEntry {
	var entries []TimingEntry
	for _, block := range strings.Split(string(data), timingDelim) {
		if strings.TrimSpace(block) == "" {
			continue
		}
		if e, ok := parseTimingBlock(block); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

func serializeTiming(entries []TimingEntry) []byte {
	var b bytes.Buffer
	for _, e := range entries {
		b.WriteString(e.serialize())
	}
	return b.Bytes()
}

// AppendTiming appends entry under the cap: existing entries beyond the
// most recent TimingCap-1 are dropped from the front first, then the new
// entry goes on the end and the whole store is rewritten.
func AppendTiming(path string, entry TimingEntry) error {
	return withLock(path, func() error {
		data, err := readStore(path)
		if err != nil {
			return err
		}
		entries := ParseTiming(data)
		if len(entries) > TimingCap-1 {
			entries = entries[len(entries)-(TimingCap-1):]
		}
		entries = append(entries, entry)
		return writeAtomic(path, serializeTiming(entries))
	})
}

// LoadTiming reads and parses the store at path, oldest first.
func LoadTiming(path string) ([]TimingEntry, error) {
	var entries []TimingEntry
	err := withLock(path, func() error {
		data, err := readStore(path)
		if err != nil {
			return err
		}
		entries = ParseTiming(data)
		return nil
	})
	return entries, err
}
