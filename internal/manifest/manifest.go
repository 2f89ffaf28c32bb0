// Package manifest builds a CSV manifest (relative path, SHA-256, size) of
// every file under a directory.
package manifest

import (
	"crypto/sha256"
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/rs/zerolog"
)

// Entry is one manifest row.
type Entry struct {
	Path string // slash-separated, relative to the manifest root
	Hash string // hex SHA-256
	Size int64
}

// FileHash computes the hex-encoded SHA-256 of the file at path.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for hash: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// DefaultOutput is the manifest file name used when none is given.
func DefaultOutput(dir string) string {
	return filepath.Base(filepath.Clean(dir)) + "_manifest.csv"
}

// Build hashes every file under dir. Files that cannot be hashed are logged
// and left out. Entries are sorted by path.
func Build(log zerolog.Logger, dir string) ([]Entry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("directory %q does not exist", dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", dir)
	}

	var entries []Entry
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("skipping unreadable path")
			return nil
		}
		if d.IsDir() {
			return nil
		}
		fi, err := os.Stat(path)
		if err != nil || !fi.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		log.Debug().Str("file", rel).Msg("hashing")
		sum, err := FileHash(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("could not hash file")
			return nil
		}
		entries = append(entries, Entry{Path: filepath.ToSlash(rel), Hash: sum, Size: fi.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no files found in %s", dir)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// Write stores entries as CSV with a file_path,file_hash,file_size header.
func Write(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"file_path", "file_hash", "file_size"}); err != nil {
		return fmt.Errorf("write manifest header: %w", err)
	}
	for _, e := range entries {
		if err := w.Write([]string{e.Path, e.Hash, strconv.FormatInt(e.Size, 10)}); err != nil {
			return fmt.Errorf("write manifest row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush manifest: %w", err)
	}
	return f.Close()
}

// TotalSize sums the sizes of entries.
func TotalSize(entries []Entry) int64 {
	var n int64
	for _, e := range entries {
		n += e.Size
	}
	return n
}
