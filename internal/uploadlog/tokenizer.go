// Package uploadlog extracts upload attempts from the service log written by
// the upload client. Each attempt starts at a banner divider followed by an
// "Uploading Content" line and is read from a bounded window of lines.
package uploadlog

import (
	"fmt"
	"iter"
	"os"
	"slices"
	"strings"

	"github.com/gyeh/testnetstats/internal/model"
)

const (
	bannerDivider = "=========================================="
	uploadMarker  = "Uploading Content"
)

// Log is a service log read fully into memory.
type Log struct {
	Path  string
	Lines []string
}

// ReadLog loads the whole file at path and splits it into lines.
func ReadLog(path string) (*Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return &Log{Path: path, Lines: SplitLines(string(data))}, nil
}

// SplitLines splits text on newlines, dropping the line terminators. A
// trailing newline does not produce an extra empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Attempts yields the attempts found in the log, in log order.
func (l *Log) Attempts(mode model.PaymentType) iter.Seq[model.UploadAttempt] {
	return Attempts(l.Lines, mode)
}

// Boundaries counts the recognized attempt banners, including those whose
// window did not yield a complete attempt.
func (l *Log) Boundaries() int {
	n := 0
	for i := range l.Lines {
		if isBoundary(l.Lines, i) {
			n++
		}
	}
	return n
}

// ParseFile reads the log at path and returns every attempt in it. The only
// error is failing to read the file; incomplete attempts are dropped.
func ParseFile(path string, mode model.PaymentType) ([]model.UploadAttempt, error) {
	l, err := ReadLog(path)
	if err != nil {
		return nil, err
	}
	return slices.Collect(l.Attempts(mode)), nil
}

// Attempts walks lines and yields one attempt per recognized banner whose
// window holds all required fields. Scanning resumes on the line after each
// banner rather than after its window, so banners inside a window are
// evaluated again on their own.
func Attempts(lines []string, mode model.PaymentType) iter.Seq[model.UploadAttempt] {
	return func(yield func(model.UploadAttempt) bool) {
		for i := range lines {
			if !isBoundary(lines, i) {
				continue
			}
			a, ok := ScanWindow(lines, i, mode)
			if !ok {
				continue
			}
			if !yield(a) {
				return
			}
		}
	}
}

func isBoundary(lines []string, i int) bool {
	return strings.Contains(lines[i], bannerDivider) &&
		i+1 < len(lines) &&
		strings.Contains(lines[i+1], uploadMarker)
}
