package engine

import (
	"slices"
	"testing"
	"time"
)

func TestBuildArgs_MirrorRun(t *testing.T) {
	inv := Invocation{
		Source:      `C:\`,
		Dest:        `D:\`,
		LogPath:     `C:\mirrorctl\backup.log`,
		Mirror:      true,
		Threads:     8,
		Retries:     3,
		RetryWait:   5 * time.Second,
		NoProgress:  true,
		ExcludeDirs: []string{"System Volume Information", `C:\mirrorctl`},
		LineSink:    func(string) {},
	}
	args := buildArgs(inv)

	if args[0] != inv.Source || args[1] != inv.Dest {
		t.Fatalf("args start with %q %q, want source then dest", args[0], args[1])
	}
	for _, want := range []string{"/MIR", "/MT:8", "/R:3", "/W:5", "/NP", "/TEE", "/DCOPY:T"} {
		if !slices.Contains(args, want) {
			t.Errorf("args missing %q: %v", want, args)
		}
	}
	if slices.Contains(args, "/L") {
		t.Error("mirror run must not carry the list-only flag")
	}
	// Excluded dirs come after /XD, both by-name and by-path entries.
	xd := slices.Index(args, "/XD")
	if xd < 0 || xd+2 >= len(args) {
		t.Fatalf("/XD exclusions not appended: %v", args)
	}
}

func TestBuildArgs_ListOnlyRunIsSilent(t *testing.T) {
	inv := Invocation{
		Source:    `C:\`,
		Dest:      `D:\`,
		LogPath:   `C:\mirrorctl\verify.log`,
		ListOnly:  true,
		Threads:   8,
		Retries:   3,
		RetryWait: 5 * time.Second,
	}
	args := buildArgs(inv)
	if !slices.Contains(args, "/L") {
		t.Errorf("args missing /L: %v", args)
	}
	if slices.Contains(args, "/MIR") {
		t.Error("list-only run must not mirror")
	}
	if slices.Contains(args, "/TEE") {
		t.Error("nil sink must not request foreground streaming")
	}
}
