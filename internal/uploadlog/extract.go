package uploadlog

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/gyeh/testnetstats/internal/model"
)

var (
	fileNameRe       = regexp.MustCompile(`File/Directory:\s*(.+)$`)
	sizeRe           = regexp.MustCompile(`Size:\s*(\d+)KB`)
	addressRe        = regexp.MustCompile(`At address:\s*([a-f0-9]+)`)
	listedAddressRe  = regexp.MustCompile(`": "([a-f0-9]{64})"`)
	elapsedRe        = regexp.MustCompile(`Elapsed time:\s*([\d.]+)\s*seconds`)
	estimatedTotalRe = regexp.MustCompile(`Processing estimated total (\d+) chunks`)
	merkleTotalRe    = regexp.MustCompile(`Starting upload of (\d+) chunks in \d+ Merkle Tree`)
	encryptedTotalRe = regexp.MustCompile(`Encrypted (\d+)/(\d+) chunks in`)
	chunkStoredRe    = regexp.MustCompile(`\(\d+/\d+\) Chunk stored at: ([a-f0-9]{64})`)
	chunkRetryRe     = regexp.MustCompile(`Retry succeeded for chunk: ([a-f0-9]{64})`)
)

const (
	successPhrase     = "Successfully uploaded"
	failurePhrase     = "Failed"
	failedUpload      = "Failed to upload"
	alreadyExistLabel = "chunks already exist on the network"
	nothingToUpload   = "nothing to upload"
)

// extractor folds one line into the window state.
type extractor func(st *windowState, line string)

// extractorsFor returns the extractors in the order each line is tested.
func extractorsFor(mode model.PaymentType) []extractor {
	total := extractEstimatedTotal
	if mode == model.PaymentMerkle {
		total = extractMerkleTotal
	}
	return []extractor{
		extractFileName,
		extractSize,
		extractSuccess,
		extractAddress,
		extractListedAddress,
		extractDuration,
		extractFailure,
		total,
		extractChunkSuccess,
		extractAllChunksExist,
	}
}

func extractFileName(st *windowState, line string) {
	if st.fileName != nil {
		return
	}
	if name, ok := matchFileName(line); ok {
		st.fileName = &name
	}
}

func extractSize(st *windowState, line string) {
	if st.sizeKB != nil {
		return
	}
	if kb, ok := matchInt(sizeRe, line, 1); ok {
		st.sizeKB = &kb
	}
}

func extractSuccess(st *windowState, line string) {
	if strings.Contains(line, successPhrase) && !strings.Contains(line, failurePhrase) {
		st.success = true
	}
}

func extractAddress(st *windowState, line string) {
	if st.address != nil {
		return
	}
	if m := addressRe.FindStringSubmatch(line); m != nil {
		st.address = &m[1]
	}
}

// extractListedAddress covers uploads where every chunk already existed and
// no "At address:" line is printed; the address only appears in the
// `"name": "address"` listing of the uploaded files.
func extractListedAddress(st *windowState, line string) {
	if st.address != nil {
		return
	}
	name, ok := st.knownFile()
	if !ok {
		return
	}
	if addr, ok := matchListedAddress(line, baseName(name)); ok {
		st.address = &addr
	}
}

func extractDuration(st *windowState, line string) {
	if st.duration != nil {
		return
	}
	if secs, ok := matchElapsed(line); ok {
		st.duration = &secs
		st.durationAt = st.pos
	}
}

// extractFailure runs on every line, so a failure reported after a success
// message for the same file wins.
func extractFailure(st *windowState, line string) {
	name, ok := st.knownFile()
	if ok && strings.Contains(line, failedUpload) && strings.Contains(line, name) {
		st.success = false
	}
}

func extractEstimatedTotal(st *windowState, line string) {
	if st.totalChunks != nil {
		return
	}
	if n, ok := matchInt(estimatedTotalRe, line, 1); ok {
		st.totalChunks = &n
	}
}

// extractMerkleTotal treats the "Starting upload" line as authoritative and
// lets it replace any earlier value. The "Encrypted X/Y" count is only used
// while nothing else has been seen.
func extractMerkleTotal(st *windowState, line string) {
	if strings.Contains(line, "Starting upload of") && strings.Contains(line, "Merkle Tree") {
		if n, ok := matchInt(merkleTotalRe, line, 1); ok {
			st.totalChunks = &n
		}
		return
	}
	if st.totalChunks != nil {
		return
	}
	if n, ok := matchInt(encryptedTotalRe, line, 2); ok {
		st.totalChunks = &n
	}
}

func extractChunkSuccess(st *windowState, line string) {
	for _, addr := range matchChunkSuccess(line) {
		st.storedChunks[addr] = struct{}{}
	}
}

func extractAllChunksExist(st *windowState, line string) {
	if strings.Contains(line, alreadyExistLabel) && strings.Contains(line, nothingToUpload) {
		st.allChunksExist = true
	}
}

func matchFileName(line string) (string, bool) {
	m := fileNameRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func matchListedAddress(line, base string) (string, bool) {
	if !strings.Contains(line, `"`+base+`"`) || !strings.Contains(line, `": "`) {
		return "", false
	}
	m := listedAddressRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func matchElapsed(line string) (float64, bool) {
	m := elapsedRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	secs, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return secs, true
}

// matchChunkSuccess returns the chunk addresses reported as stored or as
// stored on retry by line.
func matchChunkSuccess(line string) []string {
	var addrs []string
	if m := chunkStoredRe.FindStringSubmatch(line); m != nil {
		addrs = append(addrs, m[1])
	}
	if m := chunkRetryRe.FindStringSubmatch(line); m != nil {
		addrs = append(addrs, m[1])
	}
	return addrs
}

func matchInt(re *regexp.Regexp, line string, group int) (int64, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[group], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// baseName returns the last path element of a file name that contains a slash.
func baseName(name string) string {
	if !strings.Contains(name, "/") {
		return name
	}
	return path.Base(name)
}
