package story

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/h2non/filetype"
	"github.com/maruel/natural"
	"go.uber.org/zap"

	"ifplay/archive"
	"ifplay/misc"
)

// Bundle is a loaded story together with location of its assets.
type Bundle struct {
	*Story
	// Name is base name of the story source without extension.
	Name string
	// Assets is directory relative asset references are resolved against.
	Assets string

	tmp string
}

// Close removes temporary files created while unpacking bundle.
func (b *Bundle) Close() error {
	if b.tmp == "" {
		return nil
	}
	return os.RemoveAll(b.tmp)
}

// TempDir returns directory bundle was unpacked into, if any.
func (b *Bundle) TempDir() string {
	return b.tmp
}

// Load reads story from YAML file or from zip archive containing story
// script and its assets.
func Load(ctx context.Context, src string, log *zap.Logger) (*Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	head, err := readHead(src)
	if err != nil {
		return nil, fmt.Errorf("unable to read story: %w", err)
	}

	b := &Bundle{Name: strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))}
	script := src
	if filetype.Is(head, "zip") {
		if b.tmp, err = os.MkdirTemp("", misc.GetAppName()+"-"); err != nil {
			return nil, fmt.Errorf("unable to create temporary directory: %w", err)
		}
		names, err := archive.Unpack(src, b.tmp)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("unable to unpack story archive: %w", err)
		}
		name := pickScript(names)
		if name == "" {
			b.Close()
			return nil, fmt.Errorf("story archive %s has no script", src)
		}
		log.Debug("Unpacked story archive", zap.String("archive", src), zap.String("script", name), zap.Int("files", len(names)), zap.String("dir", b.tmp))
		script = filepath.Join(b.tmp, filepath.FromSlash(name))
	}
	b.Assets = filepath.Dir(script)

	data, err := os.ReadFile(script)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("unable to read story: %w", err)
	}
	if b.Story, err = Parse(data); err != nil {
		b.Close()
		return nil, err
	}
	log.Debug("Story loaded", zap.String("source", src), zap.String("id", b.StoryID()), zap.Int("knots", len(b.script.Knots)))
	return b, nil
}

func readHead(src string) ([]byte, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return head[:n], nil
}

// pickScript selects story script among archive entries. Shallowest YAML
// file wins, "story.yaml" is preferred among equals, then natural order.
func pickScript(names []string) string {
	var candidates []string
	for _, n := range names {
		switch strings.ToLower(path.Ext(n)) {
		case ".yaml", ".yml":
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if da, db := strings.Count(a, "/"), strings.Count(b, "/"); da != db {
			return da < db
		}
		if sa, sb := isStoryName(a), isStoryName(b); sa != sb {
			return sa
		}
		return natural.Less(a, b)
	})
	return candidates[0]
}

func isStoryName(name string) bool {
	base := strings.ToLower(path.Base(name))
	return base == "story.yaml" || base == "story.yml"
}
