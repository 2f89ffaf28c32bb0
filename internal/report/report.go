// Package report prints upload attempt tables and summary statistics.
package report

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gyeh/testnetstats/internal/model"
)

// Summary holds the aggregate numbers printed under the attempts table.
type Summary struct {
	Attempts         int
	Successful       int
	Failed           int
	TotalSizeMB      float64
	TotalMinutes     float64
	TotalChunks      int64
	SuccessfulChunks int64
}

// ChunkSuccessRate returns the aggregate chunk success percentage and false
// when no attempt reported chunk counts.
func (s Summary) ChunkSuccessRate() (float64, bool) {
	if s.TotalChunks <= 0 {
		return 0, false
	}
	return float64(s.SuccessfulChunks) / float64(s.TotalChunks) * 100, true
}

// UploadSuccessRate returns the percentage of successful attempts and false
// when nothing succeeded.
func (s Summary) UploadSuccessRate() (float64, bool) {
	if s.Successful == 0 {
		return 0, false
	}
	return float64(s.Successful) / float64(s.Attempts) * 100, true
}

// Summarize computes totals over attempts. Attempts without chunk data are
// skipped in the chunk totals.
func Summarize(attempts []model.UploadAttempt) Summary {
	s := Summary{Attempts: len(attempts)}
	var sizeKB int64
	var seconds float64
	for _, a := range attempts {
		if a.Success {
			s.Successful++
		}
		sizeKB += a.SizeKB
		seconds += a.DurationSeconds
		if a.TotalChunks != nil {
			s.TotalChunks += *a.TotalChunks
		}
		if a.SuccessfulChunks != nil {
			s.SuccessfulChunks += *a.SuccessfulChunks
		}
	}
	s.Failed = s.Attempts - s.Successful
	s.TotalSizeMB = float64(sizeKB) / 1024
	s.TotalMinutes = seconds / 60
	return s
}

// FormatSizeMB renders a size in KB as megabytes with two decimals.
func FormatSizeMB(sizeKB int64) string {
	return fmt.Sprintf("%.2f", float64(sizeKB)/1024)
}

// FormatDuration renders seconds as decimal minutes ("45.23m") below an hour
// and as hours and minutes ("1h30m") from an hour up.
func FormatDuration(seconds float64) string {
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%.2fm", minutes)
	}
	whole := int64(minutes)
	return fmt.Sprintf("%dh%02dm", whole/60, whole%60)
}

// FormatChunks renders chunk counts as "successful/total", or "N/A" when unknown.
func FormatChunks(a *model.UploadAttempt) string {
	switch {
	case a.TotalChunks != nil && a.SuccessfulChunks != nil:
		return fmt.Sprintf("%d/%d", *a.SuccessfulChunks, *a.TotalChunks)
	case a.SuccessfulChunks != nil:
		return fmt.Sprintf("%d/?", *a.SuccessfulChunks)
	default:
		return "N/A"
	}
}

// ChunkRatio returns successful/total for one attempt, false when either is absent.
func ChunkRatio(a *model.UploadAttempt) (float64, bool) {
	if a.TotalChunks == nil || a.SuccessfulChunks == nil || *a.TotalChunks == 0 {
		return 0, false
	}
	return float64(*a.SuccessfulChunks) / float64(*a.TotalChunks), true
}

// DisplayName is the base name shown in tables.
func DisplayName(fileName string) string {
	if !strings.Contains(fileName, "/") {
		return fileName
	}
	return path.Base(fileName)
}

// PrintSuccessful writes the table of successful uploads that have an address.
func PrintSuccessful(w io.Writer, attempts []model.UploadAttempt) {
	var successful []model.UploadAttempt
	for _, a := range attempts {
		if a.Success && a.Address != nil && *a.Address != "" {
			successful = append(successful, a)
		}
	}
	if len(successful) == 0 {
		fmt.Fprintln(w, "No successful uploads found.")
		fmt.Fprintln(w)
		return
	}

	rule := strings.Repeat("=", 80)
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "SUCCESSFUL UPLOADS")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-60s %s\n", "File Name", "Address")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, a := range successful {
		fmt.Fprintf(w, "%-60s %s\n", DisplayName(a.FileName), *a.Address)
	}
	fmt.Fprintln(w, strings.Repeat("-", 80))
	fmt.Fprintf(w, "Total successful uploads: %d\n\n", len(successful))
}

// PrintAttempts writes the table of every attempt followed by the summary.
func PrintAttempts(w io.Writer, attempts []model.UploadAttempt) {
	rule := strings.Repeat("=", 100)
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "UPLOAD ATTEMPTS")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-8s %-20s %-40s %-12s %s\n", "Result", "Start Time", "File Name", "Chunks", "Duration")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for i := range attempts {
		a := &attempts[i]
		name := DisplayName(a.FileName)
		if len([]rune(name)) > 40 {
			name = string([]rune(name)[:37]) + "..."
		}
		result := "✗"
		if a.Success {
			result = "✓"
		}
		fmt.Fprintf(w, "%-8s %-20s %-40s %-12s %s\n", result, a.StartTime, name, FormatChunks(a), FormatDuration(a.DurationSeconds))
	}
	fmt.Fprintln(w, strings.Repeat("-", 100))

	PrintSummary(w, Summarize(attempts))
}

// PrintSummary writes the summary block.
func PrintSummary(w io.Writer, s Summary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  Total attempts: %d\n", s.Attempts)
	fmt.Fprintf(w, "  Successful: %d (✓)\n", s.Successful)
	fmt.Fprintf(w, "  Failed: %d (✗)\n", s.Failed)
	fmt.Fprintf(w, "  Total data processed: %.2f MB\n", s.TotalSizeMB)
	if rate, ok := s.ChunkSuccessRate(); ok {
		fmt.Fprintf(w, "  Total chunks: %d/%d (%.1f%% success)\n", s.SuccessfulChunks, s.TotalChunks, rate)
	}
	fmt.Fprintf(w, "  Total time: %.2f minutes\n", s.TotalMinutes)
	if rate, ok := s.UploadSuccessRate(); ok {
		fmt.Fprintf(w, "  Upload success rate: %.1f%%\n", rate)
	}
	fmt.Fprintln(w)
}
