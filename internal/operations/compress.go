package operations

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// CompressZstd compresses inputPath to inputPath+".zst" and removes the
// original. Used to archive engine report logs, which compress extremely
// well (one line per file, heavily repetitive).
func CompressZstd(inputPath string) (string, error) {
	outputPath := inputPath + ".zst"

	inFile, err := os.Open(inputPath)
	if err != nil {
		return "", fmt.Errorf("failed to open input file: %w", err)
	}
	defer inFile.Close()

	outFile, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer outFile.Close()

	writer, err := zstd.NewWriter(outFile)
	if err != nil {
		return "", fmt.Errorf("failed to create Zstandard writer: %w", err)
	}
	if _, err := io.Copy(writer, inFile); err != nil {
		writer.Close()
		return "", fmt.Errorf("failed to compress file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to flush Zstandard writer: %w", err)
	}

	if err := os.Remove(inputPath); err != nil {
		return "", fmt.Errorf("failed to remove original file: %w", err)
	}
	return outputPath, nil
}

// archiveReport compresses one report log when configured to and returns
// the path the summary documents should record: the archived name when
// compression happened, the original otherwise. Failures are logged, never
// escalated: the backup is already done.
func (op *Operator) archiveReport(path string) string {
	if !op.cfg.Backup.CompressReports || path == "" {
		return path
	}
	if _, err := os.Stat(path); err != nil {
		return path
	}
	archived, err := CompressZstd(path)
	if err != nil {
		op.log.Warn("report archive failed", "path", path, "error", err)
		return path
	}
	op.log.Debug("report archived", "path", archived)
	return archived
}
