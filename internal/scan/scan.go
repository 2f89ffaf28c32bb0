// Package scan aggregates the CSV artifacts written by the network scan and
// repair process. A testnet directory holds one subdirectory per host; each
// host directory may contain chunk_whitelist.csv, chunk_badlist.csv and any
// number of timestamped repair CSVs.
package scan

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gyeh/testnetstats/internal/model"
)

const (
	WhitelistFile = "chunk_whitelist.csv"
	BadlistFile   = "chunk_badlist.csv"
)

var timestampRe = regexp.MustCompile(`(\d{8}_\d{6})\.csv$`)

// FileCount is the entry count of one CSV under a host directory.
type FileCount struct {
	Host  string
	Name  string
	Count int64
	Kind  string // repair file family, empty for whitelist and badlist files
}

// RepairFileCount is the status breakdown of one repair CSV.
type RepairFileCount struct {
	Host   string
	Name   string
	Kind   model.RepairFileKind
	Counts model.RepairCounts
}

// readLines returns the lines of the file at path without terminators.
func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	lines := strings.SplitAfter(string(data), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r\n")
	}
	return lines, nil
}

// CountLines counts the non-blank lines in a CSV file, header included.
func CountLines(path string) (int64, error) {
	lines, err := readLines(path)
	if err != nil {
		return 0, fmt.Errorf("count lines: %w", err)
	}
	var n int64
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			n++
		}
	}
	return n, nil
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// CountRepairByStatus tallies a repair CSV by upload status. Rows too short
// to hold the status and cost columns are skipped. A successful row whose
// cost is not a number makes the whole file unreadable.
func CountRepairByStatus(path string, kind model.RepairFileKind) (model.RepairCounts, error) {
	var counts model.RepairCounts
	f, err := os.Open(path)
	if err != nil {
		return counts, fmt.Errorf("open repair csv: %w", err)
	}
	defer f.Close()

	need := max(kind.StatusIndex, kind.CostIndex)
	cr := newReader(f)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.RepairCounts{}, fmt.Errorf("read repair csv: %w", err)
		}
		if len(row) <= need {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(row[kind.StatusIndex])) {
		case "success":
			counts.Success++
			cost, err := strconv.ParseFloat(strings.TrimSpace(row[kind.CostIndex]), 64)
			if err != nil {
				return model.RepairCounts{}, fmt.Errorf("parse cost_paid %q: %w", row[kind.CostIndex], err)
			}
			if cost != 0 {
				counts.Paid++
			}
		case "failed":
			counts.Failed++
		}
	}
	return counts, nil
}

// hostDirs returns the host subdirectories of testnet in name order.
func hostDirs(testnet string) ([]string, error) {
	entries, err := os.ReadDir(testnet)
	if err != nil {
		return nil, fmt.Errorf("read testnet directory: %w", err)
	}
	var hosts []string
	for _, e := range entries {
		if e.IsDir() {
			hosts = append(hosts, e.Name())
		}
	}
	return hosts, nil
}

// globSorted matches pattern and returns the results in lexical order.
func globSorted(pattern string) []string {
	matches, _ := filepath.Glob(pattern)
	sort.Strings(matches)
	return matches
}

func hostOf(path string) string {
	return filepath.Base(filepath.Dir(path))
}

// HostSummaries collects whitelist, badlist and repair counts per host.
// Unreadable files are logged and contribute nothing.
func HostSummaries(log zerolog.Logger, testnet string) ([]model.HostMetrics, error) {
	hosts, err := hostDirs(testnet)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.HostMetrics, 0, len(hosts))
	for _, host := range hosts {
		dir := filepath.Join(testnet, host)
		m := model.HostMetrics{Host: host}

		if n, ok := countIfExists(log, filepath.Join(dir, WhitelistFile)); ok {
			m.Whitelist = n
		}
		if n, ok := countIfExists(log, filepath.Join(dir, BadlistFile)); ok {
			m.Badlist = n
		}
		for _, kind := range model.AllRepairFileKinds {
			for _, path := range globSorted(filepath.Join(dir, kind.Glob)) {
				counts, err := CountRepairByStatus(path, kind)
				if err != nil {
					log.Warn().Err(err).Str("file", path).Msg("could not read repair csv")
					continue
				}
				m.Repair.Add(counts)
			}
		}
		summaries = append(summaries, m)
	}
	return summaries, nil
}

func countIfExists(log zerolog.Logger, path string) (int64, bool) {
	if _, err := os.Stat(path); err != nil {
		return 0, false
	}
	n, err := CountLines(path)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("could not read csv")
		return 0, false
	}
	return n, true
}

// CountEntries counts the lines of every <host>/name file under testnet.
func CountEntries(log zerolog.Logger, testnet, name string) ([]FileCount, int64) {
	var files []FileCount
	var total int64
	for _, path := range globSorted(filepath.Join(testnet, "*", name)) {
		n, err := CountLines(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("could not read csv")
			continue
		}
		total += n
		files = append(files, FileCount{Host: hostOf(path), Name: filepath.Base(path), Count: n})
	}
	if len(files) == 0 {
		log.Warn().Str("testnet", testnet).Str("file", name).Msg("no matching csv files found")
	}
	return files, total
}

// CountRepairEntries tallies every repair CSV under testnet by status.
func CountRepairEntries(log zerolog.Logger, testnet string) ([]RepairFileCount, model.RepairCounts) {
	var files []RepairFileCount
	var total model.RepairCounts
	for _, kind := range model.AllRepairFileKinds {
		for _, path := range globSorted(filepath.Join(testnet, "*", kind.Glob)) {
			counts, err := CountRepairByStatus(path, kind)
			if err != nil {
				log.Warn().Err(err).Str("file", path).Msg("could not read repair csv")
				continue
			}
			total.Add(counts)
			files = append(files, RepairFileCount{Host: hostOf(path), Name: filepath.Base(path), Kind: kind, Counts: counts})
		}
	}
	if len(files) == 0 {
		log.Warn().Str("testnet", testnet).Msg("no repair csv files found")
	}
	return files, total
}

// TimestampFromName extracts the YYYYMMDD_HHMMSS stamp from a repair CSV name.
func TimestampFromName(name string) (string, bool) {
	m := timestampRe.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// LatestFile returns the path whose name carries the newest timestamp.
// Paths without a timestamp are ignored.
func LatestFile(paths []string) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("cannot find latest file: file list is empty")
	}
	var latest, latestStamp string
	for _, p := range paths {
		stamp, ok := TimestampFromName(filepath.Base(p))
		if !ok {
			continue
		}
		if latest == "" || stamp > latestStamp {
			latest, latestStamp = p, stamp
		}
	}
	if latest == "" {
		return "", fmt.Errorf("cannot find latest file: no files with valid timestamps found in %d file(s)", len(paths))
	}
	return latest, nil
}

// LostChunks holds the inputs and result of the lost-chunk calculation.
type LostChunks struct {
	Badlist           int64
	InitialRepair     int64
	NetworkScanRepair int64
	Files             []FileCount
}

// Lost is badlist minus the rows of the latest repair files.
func (l *LostChunks) Lost() int64 {
	return l.Badlist - (l.InitialRepair + l.NetworkScanRepair)
}

// CalculateLostChunks sums every host's badlist and the line counts of its
// latest initial and network-scan repair files.
func CalculateLostChunks(log zerolog.Logger, testnet string) (*LostChunks, error) {
	hosts, err := hostDirs(testnet)
	if err != nil {
		return nil, err
	}

	res := &LostChunks{}
	for _, host := range hosts {
		dir := filepath.Join(testnet, host)
		badlist := filepath.Join(dir, BadlistFile)
		if n, ok := countIfExists(log, badlist); ok {
			res.Badlist += n
			res.Files = append(res.Files, FileCount{Host: host, Name: BadlistFile, Count: n})
		}

		for _, kind := range []model.RepairFileKind{model.InitialRepair, model.NetworkScanRepair} {
			paths := globSorted(filepath.Join(dir, kind.Glob))
			if len(paths) == 0 {
				continue
			}
			latest, err := LatestFile(paths)
			if err != nil {
				log.Warn().Err(err).Str("host", host).Msg("skipping repair files")
				continue
			}
			n, err := CountLines(latest)
			if err != nil {
				log.Warn().Err(err).Str("file", latest).Msg("could not read csv")
				continue
			}
			if kind.Name == model.InitialRepair.Name {
				res.InitialRepair += n
			} else {
				res.NetworkScanRepair += n
			}
			res.Files = append(res.Files, FileCount{Host: host, Name: filepath.Base(latest), Count: n, Kind: kind.Name})
		}
	}
	return res, nil
}

// CombineBadlist concatenates every host badlist into out, writing the
// header of the first non-empty file once and skipping blank rows. It
// returns the number of data rows written.
func CombineBadlist(log zerolog.Logger, testnet, out string) (int64, error) {
	paths := globSorted(filepath.Join(testnet, "*", BadlistFile))
	if len(paths) == 0 {
		return 0, fmt.Errorf("no %s files found in %s", BadlistFile, testnet)
	}

	f, err := os.Create(out)
	if err != nil {
		return 0, fmt.Errorf("create combined badlist: %w", err)
	}
	defer f.Close()

	var rows int64
	headerWritten := false
	for _, path := range paths {
		log.Info().Str("host", hostOf(path)).Msg("combining badlist")
		lines, err := readLines(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("could not read badlist")
			continue
		}
		if len(lines) == 0 {
			continue
		}
		if !headerWritten {
			if _, err := fmt.Fprintln(f, lines[0]); err != nil {
				return rows, fmt.Errorf("write combined badlist: %w", err)
			}
			headerWritten = true
		}
		for _, l := range lines[1:] {
			if strings.TrimSpace(l) == "" {
				continue
			}
			if _, err := fmt.Fprintln(f, l); err != nil {
				return rows, fmt.Errorf("write combined badlist: %w", err)
			}
			rows++
		}
	}
	if err := f.Close(); err != nil {
		return rows, fmt.Errorf("close combined badlist: %w", err)
	}
	return rows, nil
}

// RepairError is the error text of one failed repair row.
type RepairError struct {
	Host    string
	Name    string
	Message string
}

// RepairErrors lists the errors of failed repair rows, leaving out those
// whose message starts with skipPrefix. It also returns how many repair
// files were read.
func RepairErrors(log zerolog.Logger, testnet, skipPrefix string) ([]RepairError, int) {
	var out []RepairError
	processed := 0
	for _, kind := range model.AllRepairFileKinds {
		for _, path := range globSorted(filepath.Join(testnet, "*", kind.Glob)) {
			errs, err := failedRows(path, kind, skipPrefix)
			if err != nil {
				log.Warn().Err(err).Str("file", path).Msg("could not read repair csv")
				continue
			}
			processed++
			for _, msg := range errs {
				out = append(out, RepairError{Host: hostOf(path), Name: filepath.Base(path), Message: msg})
			}
		}
	}
	if processed == 0 {
		log.Warn().Str("testnet", testnet).Msg("no repair csv files found")
	}
	return out, processed
}

func failedRows(path string, kind model.RepairFileKind, skipPrefix string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var msgs []string
	cr := newReader(f)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return msgs, nil
		}
		if err != nil {
			return nil, err
		}
		if len(row) <= kind.ErrorIndex {
			continue
		}
		if strings.ToLower(strings.TrimSpace(row[kind.StatusIndex])) != "failed" {
			continue
		}
		msg := strings.TrimSpace(row[kind.ErrorIndex])
		if skipPrefix != "" && strings.HasPrefix(msg, skipPrefix) {
			continue
		}
		msgs = append(msgs, msg)
	}
}
