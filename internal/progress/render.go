package progress

import (
	"fmt"
	"io"
)

// Renderer writes the running count as a single overwriting status line
// instead of one line per file.
type Renderer struct {
	w io.Writer
}

// NewRenderer returns a Renderer writing to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// Update redraws the status line in place.
func (r *Renderer) Update(p *Parser) {
	fmt.Fprintf(r.w, "\r  copied %d of ~%d files (%d%%)", p.Count(), p.Total(), p.Percent())
}

// Done terminates the status line so later output starts on a fresh one.
func (r *Renderer) Done() {
	fmt.Fprintln(r.w)
}
