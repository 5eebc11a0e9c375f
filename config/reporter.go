package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/maruel/natural"

	"ifplay/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates empty debug report. When destination cannot be created
// report goes to temporary directory.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	f, err := os.Create(conf.Destination)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err != nil {
			return nil, fmt.Errorf("unable to create report: %w", err)
		}
	}
	return &Report{file: f, items: make(map[string]item), versions: make(map[string]int)}, nil
}

// item is either a file path or a piece of data.
type item struct {
	source string
	path   string
	stamp  time.Time
	data   []byte
}

// Report collects files and data for debug archive: logs, configuration,
// story sources and player dumps. All methods are safe on nil Report, which
// means no report was requested.
type Report struct {
	mu       sync.Mutex
	file     *os.File
	items    map[string]item
	versions map[string]int
}

// Name returns absolute name of the report archive.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store remembers file to be archived on Close. File is read on Close, so it
// may still be written to until then.
func (r *Report) Store(name, source string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.items[name]; ok && old.source != source {
		panic(fmt.Sprintf("report entry [%s] already points to %s, refusing %s", name, old.source, source))
	}
	it := item{source: source, path: source}
	if p, err := filepath.Abs(source); err == nil {
		it.path = p
	}
	r.items[name] = it
}

// StoreData keeps data to be archived under name. Data stored under the same
// name again gets numbered: "state.txt", "state-2.txt", "state-3.txt".
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.versions[name]++
	if n := r.versions[name]; n > 1 {
		ext := path.Ext(name)
		name = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n, ext)
	}
	r.items[name] = item{data: data, stamp: time.Now()}
}

// Close writes report archive.
func (r *Report) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.write()
	if er := r.file.Close(); err == nil {
		err = er
	}
	r.file = nil
	return err
}

func (r *Report) write() error {
	arc := zip.NewWriter(r.file)

	names := make([]string, 0, len(r.items))
	for n := range r.items {
		names = append(names, n)
	}
	slices.SortFunc(names, func(a, b string) int {
		switch {
		case natural.Less(a, b):
			return -1
		case natural.Less(b, a):
			return 1
		}
		return 0
	})

	now := time.Now()
	manifest := new(bytes.Buffer)
	for _, n := range names {
		it := r.items[n]
		stamp := it.stamp
		if stamp.IsZero() {
			stamp = now
		}
		if it.data != nil {
			fmt.Fprintf(manifest, "%s\t%s\t%d bytes\n", stamp.UTC().Format(time.RFC3339), n, len(it.data))
		} else {
			fmt.Fprintf(manifest, "%s\t%s\t%s : %s\n", stamp.UTC().Format(time.RFC3339), n, it.source, it.path)
		}
	}
	if err := addEntry(arc, "MANIFEST", now, manifest); err != nil {
		return err
	}

	for _, n := range names {
		it := r.items[n]
		if it.data != nil {
			if err := addEntry(arc, n, it.stamp, bytes.NewReader(it.data)); err != nil {
				return err
			}
			continue
		}
		if err := addPath(arc, n, it.path); err != nil {
			return err
		}
	}
	return arc.Close()
}

// addPath archives regular file, anything else is skipped.
func addPath(arc *zip.Writer, name, source string) error {
	fi, err := os.Stat(source)
	if err != nil || !fi.Mode().IsRegular() {
		return nil
	}
	return addFile(arc, name, source, fi.ModTime())
}

func addFile(arc *zip.Writer, name, source string, stamp time.Time) error {
	f, err := os.Open(source)
	if err != nil {
		return err
	}
	defer f.Close()
	return addEntry(arc, name, stamp, f)
}

func addEntry(arc *zip.Writer, name string, stamp time.Time, src io.Reader) error {
	w, err := arc.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: stamp})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
