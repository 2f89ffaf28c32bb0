package uploadlog

import (
	"regexp"
	"strings"

	"github.com/gyeh/testnetstats/internal/model"
)

const (
	// maxWindowLines bounds how far past a banner a single attempt is read.
	maxWindowLines = 10000
	// linesAfterDuration is how many lines are still read once the elapsed
	// time was found, to pick up trailing success or failure messages.
	linesAfterDuration = 5
	// bannerGuardLines keeps the opening banner from ending its own window.
	bannerGuardLines = 2
)

var startTimeRe = regexp.MustCompile(`^(\w{3}\s+\d{1,2}\s+\d{2}:\d{2}:\d{2})`)

// windowState accumulates signals for one candidate attempt.
type windowState struct {
	pos int // index of the line being scanned

	fileName    *string
	sizeKB      *int64
	success     bool
	address     *string
	duration    *float64
	durationAt  int
	startTime   *string
	totalChunks *int64

	storedChunks   map[string]struct{}
	allChunksExist bool
}

// knownFile returns the captured file name when it is non-empty.
func (st *windowState) knownFile() (string, bool) {
	if st.fileName == nil || *st.fileName == "" {
		return "", false
	}
	return *st.fileName, true
}

// ScanWindow reads the attempt whose banner is at lines[start]. It returns
// false when the window lacks a file name, size, elapsed time or start time,
// or when start is outside lines.
func ScanWindow(lines []string, start int, mode model.PaymentType) (model.UploadAttempt, bool) {
	if start < 0 || start >= len(lines) {
		return model.UploadAttempt{}, false
	}
	st := &windowState{storedChunks: make(map[string]struct{})}
	if m := startTimeRe.FindStringSubmatch(lines[start]); m != nil {
		st.startTime = &m[1]
	}

	steps := extractorsFor(mode)
	end := min(start+maxWindowLines, len(lines))
	for i := start; i < end; i++ {
		line := lines[i]
		st.pos = i
		for _, step := range steps {
			step(st, line)
		}

		if st.duration != nil && i > st.durationAt+linesAfterDuration {
			break
		}
		if i > start+bannerGuardLines && strings.Contains(line, bannerDivider) {
			break
		}
	}

	return assemble(st)
}
