package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Dir keeps rendered reports on local disk. Names are always resolved inside root.
type Dir struct {
	root string
	now  func() time.Time
}

// NewDir creates root when missing.
func NewDir(root string) (*Dir, error) {
	if root == "" {
		root = "./exports"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create report directory %s: %w", root, err)
	}
	return &Dir{root: root, now: time.Now}, nil
}

// Write stores data under name through a temp file and rename, so readers never see a partial report.
func (d *Dir) Write(name string, data []byte) (string, error) {
	target := d.Path(name)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("prepare report directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".partial-*")
	if err != nil {
		return "", fmt.Errorf("create report %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write report %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write report %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("publish report %s: %w", name, err)
	}

	rel, err := filepath.Rel(d.root, target)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// Open returns the stored report. A missing report matches fs.ErrNotExist.
func (d *Dir) Open(name string) (*os.File, error) {
	f, err := os.Open(d.Path(name))
	if err != nil {
		return nil, fmt.Errorf("open report %s: %w", name, err)
	}
	return f, nil
}

// Remove deletes a report; removing a missing report is not an error.
func (d *Dir) Remove(name string) error {
	if err := os.Remove(d.Path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove report %s: %w", name, err)
	}
	return nil
}

// Expire deletes reports last written more than maxAge ago and returns their names.
func (d *Dir) Expire(maxAge time.Duration) ([]string, error) {
	cutoff := d.now().Add(-maxAge)
	removed := []string{}
	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if rel, err := filepath.Rel(d.root, path); err == nil {
			removed = append(removed, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("expire reports: %w", err)
	}
	return removed, nil
}

// Path maps name to its location on disk. "../" segments cannot climb above root.
func (d *Dir) Path(name string) string {
	return filepath.Join(d.root, filepath.Clean("/"+name))
}
