package verify

import (
	"testing"

	"github.com/kebairia/mirrorctl/internal/engine"
)

func TestInterpret(t *testing.T) {
	tests := []struct {
		name     string
		exitCode int
		lines    []string
		want     Outcome
	}{
		{
			name:     "exit zero always passes",
			exitCode: 0,
			lines:    []string{`	  *EXTRA File 		  10	D:\whatever`},
			want:     Passed,
		},
		{
			name:     "extras code with a real extra file",
			exitCode: engine.ExitExtrasPresent,
			lines:    []string{`	  *EXTRA File 		  3210	D:\leftover.dat`},
			want:     DifferencesFound,
		},
		{
			name:     "extras code with a real extra dir",
			exitCode: engine.ExitExtrasPresent,
			lines:    []string{`	  *EXTRA Dir  	-1	D:\stale\`},
			want:     DifferencesFound,
		},
		{
			name:     "extras code with no marker lines is a phantom extra",
			exitCode: engine.ExitExtrasPresent,
			lines:    nil,
			want:     Passed,
		},
		{
			name:     "marker matching is case-sensitive",
			exitCode: engine.ExitExtrasPresent,
			lines:    []string{`	  *extra file 		  1	D:\x`},
			want:     Passed,
		},
		{
			name:     "unknown code is conservatively a difference",
			exitCode: 99,
			lines:    nil,
			want:     DifferencesFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Interpret(tt.exitCode, tt.lines); got != tt.want {
				t.Errorf("Interpret(%d, %d lines) = %v, want %v",
					tt.exitCode, len(tt.lines), got, tt.want)
			}
		})
	}
}

func TestExtraLines(t *testing.T) {
	lines := []string{
		"  Started : Saturday, August 30, 2026",
		`	  *EXTRA File 		  3210	D:\leftover.dat`,
		`	    New File  	      55	D:\kept.txt`,
		`	  *EXTRA Dir  	-1	D:\stale\`,
	}
	got := ExtraLines(lines)
	if len(got) != 2 {
		t.Fatalf("ExtraLines returned %d lines, want 2: %v", len(got), got)
	}
}
