// Package reorg flattens the per-host log directories fetched from a testnet.
// Logs arrive as <host>/tmp/<dynamic>/<items>; the items are moved up into
// <host>/ and the temporary directories removed.
package reorg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Result counts what Flatten changed.
type Result struct {
	Flattened int // directories that had a tmp/ directory
	Moved     int // files and directories moved into place
}

// Flatten walks root and lifts the contents of every <dir>/tmp/<dynamic>/
// into <dir>/. Directories found at the item level are merged entry by entry
// into an existing destination.
func Flatten(log zerolog.Logger, root string) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("log directory %q does not exist", root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", root)
	}

	res := &Result{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() || path == root || d.Name() == "tmp" {
			return nil
		}
		tmp := filepath.Join(path, "tmp")
		if fi, err := os.Stat(tmp); err != nil || !fi.IsDir() {
			return nil
		}
		moved, err := flattenTmp(tmp, path)
		if err != nil {
			return err
		}
		log.Info().Str("dir", path).Int("moved", moved).Msg("flattened tmp directory")
		res.Flattened++
		res.Moved += moved
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("reorganise %s: %w", root, err)
	}
	return res, nil
}

func flattenTmp(tmp, dest string) (int, error) {
	dynamics, err := os.ReadDir(tmp)
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, dyn := range dynamics {
		dynPath := filepath.Join(tmp, dyn.Name())
		items, err := os.ReadDir(dynPath)
		if err != nil {
			return moved, err
		}
		for _, item := range items {
			src := filepath.Join(dynPath, item.Name())
			dst := filepath.Join(dest, item.Name())
			if !item.IsDir() {
				if err := os.Rename(src, dst); err != nil {
					return moved, err
				}
				moved++
				continue
			}
			if err := os.MkdirAll(dst, 0755); err != nil {
				return moved, err
			}
			subs, err := os.ReadDir(src)
			if err != nil {
				return moved, err
			}
			for _, sub := range subs {
				if err := os.Rename(filepath.Join(src, sub.Name()), filepath.Join(dst, sub.Name())); err != nil {
					return moved, err
				}
				moved++
			}
		}
		if err := os.RemoveAll(dynPath); err != nil {
			return moved, err
		}
	}
	return moved, os.RemoveAll(tmp)
}
