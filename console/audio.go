package console

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"go.uber.org/zap"

	"ifplay/player"
)

// sniff describes local asset type, remote and unreadable ones are reported
// as such.
func (t *Terminal) sniff(src string) string {
	if strings.Contains(src, "://") {
		return "remote"
	}
	path := src
	if !filepath.IsAbs(path) {
		path = filepath.Join(t.assets, filepath.FromSlash(src))
	}
	f, err := os.Open(path)
	if err != nil {
		return "missing"
	}
	defer f.Close()

	head := make([]byte, 261)
	n, err := io.ReadFull(f, head)
	if err != nil && n == 0 {
		return "unreadable"
	}
	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		return "unknown"
	}
	return kind.MIME.Value
}

// Load implements player.Audio. Terminal cannot play sound, tracks only
// announce themselves.
func (t *Terminal) Load(src string) (player.Track, error) {
	kind := t.sniff(src)
	if kind == "missing" {
		return nil, fmt.Errorf("audio %q not found", src)
	}
	if kind != "remote" && kind != "unknown" && !strings.HasPrefix(kind, "audio/") && !strings.HasPrefix(kind, "video/") {
		return nil, fmt.Errorf("%q is not audio (%s)", src, kind)
	}
	return &track{term: t, src: src, kind: kind, paused: true}, nil
}

type track struct {
	term   *Terminal
	src    string
	kind   string
	volume float64
	loop   bool
	paused bool
}

func (tr *track) Play() error {
	tr.paused = false
	mode := "once"
	if tr.loop {
		mode = "loop"
	}
	tr.term.printf("%s\n", tr.term.paint("2", fmt.Sprintf("[sound %s %s, volume %.0f%%]", mode, filepath.Base(tr.src), tr.volume*100)))
	tr.term.log.Debug("Audio playing", zap.String("src", tr.src), zap.String("type", tr.kind))
	return nil
}

func (tr *track) Pause() {
	tr.paused = true
	tr.term.log.Debug("Audio paused", zap.String("src", tr.src))
}

func (tr *track) Paused() bool        { return tr.paused }
func (tr *track) SetVolume(v float64) { tr.volume = v }
func (tr *track) SetLoop(loop bool)   { tr.loop = loop }

func (tr *track) Stop() {
	tr.paused = true
	tr.term.log.Debug("Audio released", zap.String("src", tr.src))
}
