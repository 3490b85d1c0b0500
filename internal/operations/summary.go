package operations

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// maxErrorExcerpt bounds how many report lines the summary quotes; the
// full report stays on disk for forensic follow-up.
const maxErrorExcerpt = 20

// writeSummary writes the human-readable attempt summary once. The file is
// only ever touched again by appendVerifySuffix. verifyPending marks that a
// comparison pass is about to run: its outcome then belongs to the suffix,
// so the body carries no verification line of its own.
func (op *Operator) writeSummary(attempt *Attempt, workDir string, verifyPending bool) error {
	var b strings.Builder
	fmt.Fprintln(&b, "mirrorctl backup summary")
	fmt.Fprintln(&b, "========================")
	fmt.Fprintf(&b, "date:        %s\n", attempt.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "source:      %s\n", attempt.Source)
	fmt.Fprintf(&b, "destination: %s (%s)\n", attempt.Dest, attempt.DestLabel)
	fmt.Fprintf(&b, "mode:        %s\n", attempt.Mode)
	fmt.Fprintf(&b, "flags:       %s\n", attempt.Flags)
	fmt.Fprintf(&b, "exit code:   %d\n", attempt.ExitCode)
	fmt.Fprintf(&b, "count phase: %s\n", attempt.CountDur)
	fmt.Fprintf(&b, "copy phase:  %s\n", attempt.CopyDur)
	fmt.Fprintf(&b, "status:      %s\n", attempt.Status)
	fmt.Fprintf(&b, "report:      %s\n", attempt.ReportPath)
	if attempt.Status == StatusFailed && len(attempt.ErrorLines) > 0 {
		fmt.Fprintln(&b, "errors:")
		for _, line := range attempt.ErrorLines {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}
	if !verifyPending {
		fmt.Fprintf(&b, "verification: %s\n", attempt.Verification)
	}
	return os.WriteFile(filepath.Join(workDir, summaryTextName), []byte(b.String()), 0o644)
}

// appendVerifySuffix appends the verification result after the fact. The
// body written by writeSummary is never rewritten.
func (op *Operator) appendVerifySuffix(attempt *Attempt, workDir string) error {
	f, err := os.OpenFile(
		filepath.Join(workDir, summaryTextName),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY,
		0o644,
	)
	if err != nil {
		return fmt.Errorf("open summary for append: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	fmt.Fprintf(&b, "verification: %s (%s)\n", attempt.Verification, attempt.VerifyDur)
	fmt.Fprintf(&b, "verify report: %s\n", attempt.VerifyReportPath)
	if attempt.Status == StatusOKDiff && len(attempt.ErrorLines) > 0 {
		fmt.Fprintln(&b, "differences:")
		for _, line := range attempt.ErrorLines {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}
	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("append verification suffix: %w", err)
	}
	return nil
}

// Summary is the machine-readable sibling of the text summary.
type Summary struct {
	Date         time.Time `json:"date"`
	Source       string    `json:"source"`
	Destination  string    `json:"destination"`
	DestLabel    string    `json:"dest_label"`
	Mode         string    `json:"mode"`
	Flags        string    `json:"flags"`
	ExitCode     int       `json:"exit_code"`
	CountPhase   string    `json:"count_phase"`
	CopyPhase    string    `json:"copy_phase"`
	VerifyPhase  string    `json:"verify_phase"`
	Status       string    `json:"status"`
	Verification string    `json:"verification"`
	ErrorLines   []string  `json:"error_lines,omitempty"`
	ReportPath   string    `json:"report_path"`
}

// Load reads a summary JSON file into s.
func (s *Summary) Load(filePath string) error {
	jsonFile, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("couldn't open summary file %q: %w", filePath, err)
	}
	defer jsonFile.Close()
	if err := json.NewDecoder(jsonFile).Decode(s); err != nil {
		return fmt.Errorf("decode summary JSON: %w", err)
	}
	return nil
}

// Write writes s next to the text summary in dirPath.
func (s *Summary) Write(dirPath string) error {
	filePath := filepath.Join(dirPath, summaryJSONName)
	jsonFile, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("create summary file %q: %w", filePath, err)
	}
	defer jsonFile.Close()

	encoder := json.NewEncoder(jsonFile)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s); err != nil {
		return fmt.Errorf("encode summary JSON: %w", err)
	}
	return nil
}

func (op *Operator) writeSummaryJSON(attempt *Attempt, workDir string) error {
	s := Summary{
		Date:         attempt.StartedAt,
		Source:       attempt.Source,
		Destination:  attempt.Dest,
		DestLabel:    attempt.DestLabel,
		Mode:         attempt.Mode,
		Flags:        attempt.Flags,
		ExitCode:     attempt.ExitCode,
		CountPhase:   attempt.CountDur.String(),
		CopyPhase:    attempt.CopyDur.String(),
		VerifyPhase:  attempt.VerifyDur.String(),
		Status:       string(attempt.Status),
		Verification: attempt.Verification,
		ErrorLines:   attempt.ErrorLines,
		ReportPath:   attempt.ReportPath,
	}
	return s.Write(workDir)
}

// extractErrorLines pulls the engine's error lines out of the report for
// the summary's excerpt. The report can be huge; only the first few error
// lines are quoted.
func extractErrorLines(reportPath string) []string {
	f, err := os.Open(reportPath)
	if err != nil {
		return nil
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() && len(lines) < maxErrorExcerpt {
		if strings.Contains(sc.Text(), "ERROR") {
			lines = append(lines, strings.TrimSpace(sc.Text()))
		}
	}
	return lines
}
