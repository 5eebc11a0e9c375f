package archive

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func makeZip(t *testing.T, files map[string]string, order []string) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "story.zip")
	zf, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	w := zip.NewWriter(zf)
	for _, name := range order {
		if strings.HasSuffix(name, "/") {
			hdr := &zip.FileHeader{Name: name}
			hdr.SetMode(os.ModeDir | 0755)
			if _, err := w.CreateHeader(hdr); err != nil {
				t.Fatalf("Failed to create directory %s: %v", name, err)
			}
			continue
		}
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to create file %s in zip: %v", name, err)
		}
		if _, err := fw.Write([]byte(files[name])); err != nil {
			t.Fatalf("Failed to write content for %s: %v", name, err)
		}
	}
	w.Close()
	zf.Close()
	return zipPath
}

func TestWalk(t *testing.T) {
	order := []string{"story.yaml", "images/", "images/a.png", "audio/b.mp3"}
	zipPath := makeZip(t, map[string]string{
		"story.yaml":   "knots: {}",
		"images/a.png": "png",
		"audio/b.mp3":  "mp3",
	}, order)

	t.Run("all regular files", func(t *testing.T) {
		var visited []string
		err := Walk(zipPath, nil, func(f *zip.File) error {
			visited = append(visited, f.Name)
			return nil
		})
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}
		want := []string{"story.yaml", "images/a.png", "audio/b.mp3"}
		if !slices.Equal(visited, want) {
			t.Errorf("visited %v, want %v", visited, want)
		}
	})

	t.Run("filtered", func(t *testing.T) {
		var visited []string
		err := Walk(zipPath, func(name string) bool { return strings.HasSuffix(name, ".yaml") }, func(f *zip.File) error {
			visited = append(visited, f.Name)
			return nil
		})
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}
		if !slices.Equal(visited, []string{"story.yaml"}) {
			t.Errorf("visited %v", visited)
		}
	})

	t.Run("early termination", func(t *testing.T) {
		stop := errors.New("stop walking")
		var visited int
		err := Walk(zipPath, nil, func(f *zip.File) error {
			visited++
			return stop
		})
		if !errors.Is(err, stop) {
			t.Errorf("Walk() error = %v, want %v", err, stop)
		}
		if visited != 1 {
			t.Errorf("visited %d files, want 1", visited)
		}
	})
}

func TestWalk_InvalidArchive(t *testing.T) {
	if err := Walk("/nonexistent/file.zip", nil, func(*zip.File) error { return nil }); err == nil {
		t.Error("Expected error for nonexistent file")
	}

	invalid := filepath.Join(t.TempDir(), "invalid.zip")
	if err := os.WriteFile(invalid, []byte("not a zip file"), 0644); err != nil {
		t.Fatalf("Failed to create invalid zip: %v", err)
	}
	if err := Walk(invalid, nil, func(*zip.File) error { return nil }); err == nil {
		t.Error("Expected error for invalid zip file")
	}
}

func TestWalk_UnsafePath(t *testing.T) {
	zipPath := makeZip(t, map[string]string{"../evil.txt": "x"}, []string{"../evil.txt"})
	err := Walk(zipPath, nil, func(*zip.File) error {
		t.Error("walkFn must not be called for unsafe archive")
		return nil
	})
	if err == nil {
		t.Error("expected error for archive with unsafe path")
	}
}

func TestUnpack(t *testing.T) {
	zipPath := makeZip(t, map[string]string{
		"story.yaml":   "knots: {}",
		"images/a.png": "png",
	}, []string{"story.yaml", "images/a.png"})

	dir := t.TempDir()
	names, err := Unpack(zipPath, dir)
	if err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}
	if !slices.Equal(names, []string{"story.yaml", "images/a.png"}) {
		t.Errorf("names = %v", names)
	}
	data, err := os.ReadFile(filepath.Join(dir, "images", "a.png"))
	if err != nil {
		t.Fatalf("extracted file missing: %v", err)
	}
	if string(data) != "png" {
		t.Errorf("content = %q, want %q", data, "png")
	}
}

func TestIsSafePath(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"story.yaml", true},
		{"a/b/c.png", true},
		{"a/../b", false},
		{"/etc/passwd", false},
		{`\windows\x`, false},
		{`a\..\b`, false},
		{"..", false},
		{"..hidden", true},
	}
	for _, tt := range tests {
		if got := isSafePath(tt.name); got != tt.want {
			t.Errorf("isSafePath(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
