// Package compress packs a rendered archive tree into a single zip artifact.
package compress

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ListFiles walks dir and returns every regular file as a slash-separated
// path relative to dir, in walk order.
func ListFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	return files, nil
}

// Create writes zipPath containing the given files, each stored under its
// relative path. Any pre-existing artifact at zipPath is replaced. onEntry,
// when non-nil, is invoked once per file after its entry is written, so a
// caller sees exactly one event per file. The context is checked between
// entries; a cancelled run leaves a partial file behind for Create to replace
// on the next attempt.
func Create(ctx context.Context, dir, zipPath string, files []string, onEntry func(name string)) error {
	if err := os.Remove(zipPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale artifact: %w", err)
	}

	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("failed to create artifact: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			zw.Close()
			return err
		}
		if err := addEntry(zw, dir, name); err != nil {
			zw.Close()
			return err
		}
		if onEntry != nil {
			onEntry(name)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize artifact: %w", err)
	}
	return out.Close()
}

func addEntry(zw *zip.Writer, dir, name string) error {
	src, err := os.Open(filepath.Join(dir, filepath.FromSlash(name)))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer src.Close()

	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
