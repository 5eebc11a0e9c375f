package play

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"ifplay/config"
	"ifplay/console"
	"ifplay/page"
	"ifplay/player"
	"ifplay/state"
	"ifplay/story"
)

// setupTestEnv creates environment with default configuration and fast
// pacing.
func setupTestEnv(t *testing.T) (context.Context, *state.LocalEnv) {
	t.Helper()
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Player.DefaultDelay = 0
	cfg.Player.ChoiceSettle = 0
	cfg.Player.FadeOut = 0
	cfg.Player.ReadingTime = 0
	cfg.Player.ImageTime = 0
	cfg.Player.ScrollFrame = time.Millisecond
	cfg.Player.Debug = true
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	env.Cfg = cfg
	return ctx, env
}

const forkStory = `
id: fork
tags: ["title: Two Roads"]
start: a
knots:
  a:
    lines: ["Start"]
    choices:
      - {text: Left, divert: b}
      - {text: Right, divert: c}
  b:
    lines: ["Went left"]
  c:
    lines: ["Went right"]
`

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:   "render",
		Action: Render,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "choose"},
			&cli.BoolFlag{Name: "overwrite"},
		},
	}
}

func TestRender(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "fork.yaml")
	if err := os.WriteFile(src, []byte(forkStory), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out")
	if err := os.Mkdir(out, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := renderCommand().Run(ctx, []string{"render", "--choose", "1", src, out}); err != nil {
		t.Fatalf("render error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(out, "two-roads.html"))
	if err != nil {
		t.Fatalf("transcript not written: %v", err)
	}
	for _, want := range []string{"<title>Two Roads</title>", "Start", "Went right"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("transcript misses %q:\n%s", want, data)
		}
	}
	if strings.Contains(string(data), "Went left") {
		t.Error("transcript contains branch not taken")
	}

	// second run refuses to overwrite
	if err := renderCommand().Run(ctx, []string{"render", "--choose", "1", src, out}); err == nil {
		t.Error("existing transcript was overwritten")
	}
	if err := renderCommand().Run(ctx, []string{"render", "--overwrite", src, out}); err != nil {
		t.Errorf("render with overwrite error = %v", err)
	}
}

func TestRenderErrors(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	if err := renderCommand().Run(ctx, []string{"render"}); err == nil {
		t.Error("render without story succeeded")
	}
	if err := renderCommand().Run(ctx, []string{"render", "--choose", "a", "x.yaml"}); err == nil {
		t.Error("bad choice list accepted")
	}
	if err := renderCommand().Run(ctx, []string{"render", filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Error("missing story accepted")
	}
}

func TestParseChoices(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "0, 2,1", want: []int{0, 2, 1}},
		{in: "1,,3", want: []int{1, 3}},
		{in: "1,x", wantErr: true},
		{in: "-1", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseChoices(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseChoices(%q) error = %v", tt.in, err)
			continue
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("parseChoices(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDestination(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name  string
		dst   string
		title string
		story string
		want  string
	}{
		{name: "title slug", dst: dir, title: "The Lighthouse: Part I", story: "x", want: filepath.Join(dir, "the-lighthouse-part-i.html")},
		{name: "story name", dst: dir, title: "", story: "My Story.yaml", want: filepath.Join(dir, "my-story.html")},
		{name: "explicit file", dst: filepath.Join(dir, "out.htm"), title: "T", story: "x", want: filepath.Join(dir, "out.htm")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := destination(tt.dst, tt.title, tt.story, false)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("destination() = %q, want %q", got, tt.want)
			}
		})
	}

	existing := filepath.Join(dir, "exists.html")
	if err := os.WriteFile(existing, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := destination(existing, "", "", false); err == nil {
		t.Error("existing destination accepted without overwrite")
	}
	if _, err := destination(existing, "", "", true); err != nil {
		t.Errorf("overwrite rejected: %v", err)
	}
}

const ageStory = `
id: age
start: intro
variables:
  age: 0
knots:
  intro:
    lines:
      - text: How old are you?
        tags: ["READER_INPUT: ['Age', 'age', '3', '1~10', 'number']"]
      - "You are {{ .age }}."
    choices:
      - {text: Leave, divert: END}
`

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestServeEndsWhenReaderLeaves(t *testing.T) {
	tests := []struct {
		name  string
		leave func(w *io.PipeWriter) error
	}{
		{name: "quit command", leave: func(w *io.PipeWriter) error {
			_, err := io.WriteString(w, ":quit\n")
			return err
		}},
		{name: "end of input", leave: func(w *io.PipeWriter) error {
			return w.Close()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, env := setupTestEnv(t)
			st, err := story.Parse([]byte(ageStory))
			if err != nil {
				t.Fatal(err)
			}
			pg := page.New(&env.Cfg.Page, "", env.Log)
			in, w := io.Pipe()
			defer w.Close()
			out := &syncBuffer{}
			term := console.New(in, out, pg, "", env.Log)
			p, err := player.New(st, player.Hosts{
				Surface: pg, Audio: term, Notifier: term, Dialogs: term, Navigator: term, Input: term,
			}, &env.Cfg.Player, true, env.Log)
			if err != nil {
				t.Fatal(err)
			}

			ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			done := make(chan error, 1)
			go func() { done <- serve(ctx, p, term) }()

			deadline := time.Now().Add(3 * time.Second)
			for !strings.Contains(out.String(), "Age [3] > ") {
				if time.Now().After(deadline) {
					t.Fatalf("input form was not shown:\n%s", out.String())
				}
				time.Sleep(5 * time.Millisecond)
			}
			if err := tt.leave(w); err != nil {
				t.Fatal(err)
			}

			select {
			case err := <-done:
				if err != nil {
					t.Errorf("serve() error = %v", err)
				}
			case <-time.After(3 * time.Second):
				t.Fatalf("session did not end, player phase=%s", p.Phase())
			}
			if strings.Contains(out.String(), "You are") {
				t.Errorf("story went on after reader left:\n%s", out.String())
			}
		})
	}
}
