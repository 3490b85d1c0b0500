// Package progress derives a completed-file count from the mirroring
// engine's streamed output and renders it as a single in-place status line.
package progress

import (
	"regexp"
	"strings"
)

// fileLine matches the shape of the engine's per-file progress line: a
// numeric size token followed by a destination path token. Header, footer
// and statistics lines never carry a size-then-path pair, so they fail
// this match. So do lines the engine's parallel workers interleaved or
// split mid-token; those are silently undercounted. The count is an
// approximation and is presented as one.
var fileLine = regexp.MustCompile(`(?:^|\s)\d+\s+\S*[\\/]\S.*$`)

// extraMarker tags destination-only entries being deleted. Those were
// never part of the pre-counted total, so they must not advance it.
const extraMarker = "*EXTRA"

// Parser folds engine output lines into a monotonic completed-file count
// against a pre-counted total. All state is local to the instance; one
// parser serves exactly one engine run.
type Parser struct {
	total int
	count int
}

// NewParser returns a Parser expecting total files. The total comes from a
// best-effort pre-count and the engine may process more files than it
// found, so the derived percentage clamps at 100.
func NewParser(total int) *Parser {
	return &Parser{total: total}
}

// Line classifies one output line and reports whether it advanced the
// count: it does iff the line has the size-then-path shape and is not an
// extra/being-deleted entry.
func (p *Parser) Line(s string) bool {
	if !fileLine.MatchString(s) {
		return false
	}
	if strings.Contains(s, extraMarker) {
		return false
	}
	p.count++
	return true
}

// Count returns the raw matched-line counter. It can overshoot the total.
func (p *Parser) Count() int { return p.count }

// Total returns the pre-counted expected file count.
func (p *Parser) Total() int { return p.total }

// Percent returns floor(count/total*100), clamped to [0,100]. An empty
// source (total 0) reports 0 for all inputs.
func (p *Parser) Percent() int {
	if p.total <= 0 {
		return 0
	}
	pct := p.count * 100 / p.total
	if pct > 100 {
		return 100
	}
	return pct
}
