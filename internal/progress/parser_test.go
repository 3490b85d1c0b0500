package progress

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParser_CountsFileLines(t *testing.T) {
	p := NewParser(100)
	for i := 0; i < 100; i++ {
		line := fmt.Sprintf(`	    New File  	      %d	D:\photos\img_%04d.jpg`, 1000+i, i)
		if !p.Line(line) {
			t.Fatalf("file line not counted: %q", line)
		}
		// Interleave deletion notices; they must never advance the count.
		if i%10 == 0 {
			extra := fmt.Sprintf(`	  *EXTRA File 		  %d	D:\leftover\old_%d.tmp`, 512, i)
			if p.Line(extra) {
				t.Fatalf("extra line counted: %q", extra)
			}
		}
	}
	if p.Count() != 100 {
		t.Errorf("count = %d, want 100", p.Count())
	}
	if p.Percent() != 100 {
		t.Errorf("percent = %d, want 100", p.Percent())
	}
}

func TestParser_IgnoresHeaderFooterAndGarbledLines(t *testing.T) {
	p := NewParser(10)
	for _, line := range []string{
		"-------------------------------------------------------------------------------",
		"   ROBOCOPY     ::     Robust File Copy for Windows",
		"  Started : Saturday, August 30, 2026 10:12:44 AM",
		"    Total    Copied   Skipped  Mismatch    FAILED    Extras",
		"    Files :      312       312         0         0         0         0",
		"", // blank
		`	    New File  	      10`,        // split before the path token
		`photos\img_0001.jpg`,             // split after the size token
		"	  *EXTRA Dir  	-1	D:\\stale\\", // deletion notice
	} {
		if p.Line(line) {
			t.Errorf("non-file line counted: %q", line)
		}
	}
	if p.Count() != 0 {
		t.Errorf("count = %d, want 0", p.Count())
	}
}

func TestParser_EmptySourceReportsZero(t *testing.T) {
	p := NewParser(0)
	if p.Percent() != 0 {
		t.Fatalf("percent = %d, want 0", p.Percent())
	}
	p.Line(`	    New File  	      99	D:\surprise.txt`)
	if p.Percent() != 0 {
		t.Errorf("percent = %d after input, want 0", p.Percent())
	}
}

func TestParser_OvershootClampsAt100(t *testing.T) {
	// The engine can process files created after the pre-count snapshot.
	p := NewParser(5)
	for i := 0; i < 8; i++ {
		p.Line(fmt.Sprintf(`	    New File  	      1	D:\f%d`, i))
	}
	if p.Count() != 8 {
		t.Errorf("count = %d, want 8 (counter keeps going)", p.Count())
	}
	if p.Percent() != 100 {
		t.Errorf("percent = %d, want clamped 100", p.Percent())
	}
}

func TestParser_PercentIsMonotonic(t *testing.T) {
	p := NewParser(50)
	last := 0
	for i := 0; i < 60; i++ {
		p.Line(fmt.Sprintf(`	    New File  	      1	D:\f%d`, i))
		if pct := p.Percent(); pct < last {
			t.Fatalf("percent went backwards: %d after %d", pct, last)
		} else {
			last = pct
		}
	}
}

func TestCountFiles(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "a", "b"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"one.txt", "a/two.txt", "a/b/three.txt"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	total, err := CountFiles(root)
	if err != nil {
		t.Fatalf("CountFiles: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
}

func TestRenderer_OverwritesInPlace(t *testing.T) {
	var sb strings.Builder
	p := NewParser(2)
	r := NewRenderer(&sb)
	p.Line(`	    New File  	      1	D:\f1`)
	r.Update(p)
	p.Line(`	    New File  	      1	D:\f2`)
	r.Update(p)
	r.Done()
	out := sb.String()
	if strings.Count(out, "\r") != 2 {
		t.Errorf("expected carriage-return redraws, got %q", out)
	}
	if !strings.Contains(out, "(100%)") {
		t.Errorf("final redraw missing 100%%: %q", out)
	}
	if strings.Count(out, "\n") != 1 {
		t.Errorf("expected a single trailing newline, got %q", out)
	}
}
