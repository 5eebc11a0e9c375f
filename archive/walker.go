// Package archive unpacks story bundles distributed as zip files.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// WalkFunc is called for every regular file of archive accepted by Walk
// filter. If an error is returned, processing stops.
type WalkFunc func(file *zip.File) error

// Walk visits all regular files in archive for which match returns true,
// nil match accepts everything. Archive with unsafe entry names (absolute
// or containing "..") is rejected as a whole.
func Walk(archive string, match func(name string) bool, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if !isSafePath(f.Name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", f.Name)
		}
		if f.FileInfo().IsDir() || (match != nil && !match(f.Name)) {
			continue
		}
		if err := walkFn(f); err != nil {
			return err
		}
	}
	return nil
}

// Unpack extracts every regular file of archive under dir and returns
// slash separated names of extracted files in archive order.
func Unpack(archive, dir string) ([]string, error) {
	var names []string
	err := Walk(archive, nil, func(f *zip.File) error {
		dst := filepath.Join(dir, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		if err := extract(f, dst); err != nil {
			return fmt.Errorf("unable to extract %q: %w", f.Name, err)
		}
		names = append(names, f.Name)
		return nil
	})
	return names, err
}

func extract(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) || filepath.VolumeName(name) != "" {
		return false
	}
	for part := range strings.SplitSeq(strings.ReplaceAll(name, `\`, "/"), "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
