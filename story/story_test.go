package story

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"ifplay/narrative"
)

func loadDemo(t *testing.T) *Story {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "lighthouse.yaml"))
	if err != nil {
		t.Fatalf("unable to read test story: %v", err)
	}
	s, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return s
}

func drain(t *testing.T, s *Story) []narrative.Unit {
	t.Helper()
	var units []narrative.Unit
	for s.CanContinue() {
		u, err := s.Continue()
		if err != nil {
			t.Fatalf("Continue() error = %v", err)
		}
		units = append(units, u)
	}
	return units
}

func texts(units []narrative.Unit) []string {
	res := make([]string, 0, len(units))
	for _, u := range units {
		res = append(res, u.Text)
	}
	return res
}

func choiceTexts(cs []narrative.Choice) []string {
	res := make([]string, 0, len(cs))
	for _, c := range cs {
		res = append(res, c.Text)
	}
	return res
}

func choose(t *testing.T, s *Story, i int) {
	t.Helper()
	if err := s.ChooseChoiceIndex(i); err != nil {
		t.Fatalf("ChooseChoiceIndex(%d) error = %v", i, err)
	}
}

func TestPlaythrough(t *testing.T) {
	s := loadDemo(t)

	if s.StoryID() != "6f1c1c3e-6d0b-4a53-9a57-0e9a1f4f2a11" {
		t.Errorf("StoryID() = %s", s.StoryID())
	}
	if got := s.GlobalTags(); len(got) != 3 || got[0] != "title: The Lighthouse" {
		t.Errorf("GlobalTags() = %v", got)
	}

	units := drain(t, s)
	want := []string{"The tide is going out.", "A lighthouse stands on the rock, dark.", "TAG_ONLY"}
	if !slices.Equal(texts(units), want) {
		t.Fatalf("units = %v, want %v", texts(units), want)
	}
	if !slices.Equal(units[0].Tags, []string{"CLASS: intro", "AUDIOLOOP: waves.mp3,0,0.4"}) {
		t.Errorf("tags = %v", units[0].Tags)
	}
	choices := s.CurrentChoices()
	if !slices.Equal(choiceTexts(choices), []string{"Climb the stairs", "Wait on the shore"}) {
		t.Fatalf("choices = %v", choices)
	}
	if choices[1].Index != 1 {
		t.Errorf("choice index = %d, want 1", choices[1].Index)
	}

	// once only choice disappears after being taken, divert returns to shore
	choose(t, s, 1)
	units = drain(t, s)
	if units[0].Text != "You wait, stranger. Nothing happens." || len(units) != 4 {
		t.Fatalf("units = %v", texts(units))
	}
	if got := choiceTexts(s.CurrentChoices()); !slices.Equal(got, []string{"Climb the stairs"}) {
		t.Fatalf("choices = %v", got)
	}

	choose(t, s, 0)
	units = drain(t, s)
	if got := strings.Join(texts(units), ""); got != "The stairs wind upward. Step after step, until the lamp room." {
		t.Errorf("stairs text = %q", got)
	}
	if got := choiceTexts(s.CurrentChoices()); !slices.Equal(got, []string{"Light the lamp"}) {
		t.Fatalf("conditional choice should be hidden, got %v", got)
	}

	choose(t, s, 0)
	if v := s.Variables()["lamp"]; v != 1 {
		t.Errorf("lamp = %#v, want 1", v)
	}
	u, err := s.Continue()
	if err != nil {
		t.Fatalf("Continue() error = %v", err)
	}
	if u.Text != "The lamp burns. It has been lit 1 time(s)." {
		t.Errorf("text = %q", u.Text)
	}
	if _, err := s.Continue(); err != nil {
		t.Fatalf("Continue() error = %v", err)
	}
	if err := s.SetVariable("age", 30); err != nil {
		t.Fatalf("SetVariable() error = %v", err)
	}
	u, _ = s.Continue()
	if u.Text != "At 30, you are the keeper now." {
		t.Errorf("text = %q", u.Text)
	}

	choose(t, s, 0)
	drain(t, s)
	if got := choiceTexts(s.CurrentChoices()); !slices.Equal(got, []string{"Light the lamp", "Light it again (1)"}) {
		t.Errorf("choices = %v", got)
	}
}

func TestEnd(t *testing.T) {
	s, err := Parse([]byte(`
start: a
knots:
  a:
    lines: [one]
    choices:
      - text: stop
        divert: END
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	drain(t, s)
	choose(t, s, 0)
	if s.CanContinue() {
		t.Error("story should be finished")
	}
	if len(s.CurrentChoices()) != 0 {
		t.Error("finished story has no choices")
	}
	if err := s.ChooseChoiceIndex(0); err == nil {
		t.Error("expected error choosing in finished story")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := loadDemo(t)
	drain(t, s)
	choose(t, s, 0)
	drain(t, s)
	choose(t, s, 0)
	if _, err := s.Continue(); err != nil {
		t.Fatal(err)
	}

	blob, err := s.SaveState()
	if err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}

	play := func() ([]string, []string) {
		units := drain(t, s)
		cs := choiceTexts(s.CurrentChoices())
		choose(t, s, 0)
		more := drain(t, s)
		return append(texts(units), texts(more)...), append(cs, choiceTexts(s.CurrentChoices())...)
	}
	wantUnits, wantChoices := play()

	fresh := loadDemo(t)
	if err := fresh.LoadState(blob); err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	s = fresh
	gotUnits, gotChoices := play()

	if !slices.Equal(gotUnits, wantUnits) {
		t.Errorf("units after reload = %v, want %v", gotUnits, wantUnits)
	}
	if !slices.Equal(gotChoices, wantChoices) {
		t.Errorf("choices after reload = %v, want %v", gotChoices, wantChoices)
	}
	if v := fresh.Variables()["lamp"]; v != 1 {
		t.Errorf("lamp after reload = %#v, want int 1", v)
	}
}

func TestLoadStateErrors(t *testing.T) {
	s := loadDemo(t)
	tests := []struct {
		name string
		blob string
	}{
		{"garbage", "not json"},
		{"other story", `{"story":"x","knot":"shore"}`},
		{"unknown knot", `{"story":"6f1c1c3e-6d0b-4a53-9a57-0e9a1f4f2a11","knot":"attic"}`},
		{"bad line", `{"story":"6f1c1c3e-6d0b-4a53-9a57-0e9a1f4f2a11","knot":"shore","line":42}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.LoadState(tt.blob); err == nil {
				t.Error("expected error")
			}
		})
	}
	// failed loads keep current position
	if !s.CanContinue() {
		t.Error("story should still be at its start")
	}
}

func TestResetState(t *testing.T) {
	s := loadDemo(t)
	drain(t, s)
	choose(t, s, 0)
	if err := s.SetVariable("name", "Ann"); err != nil {
		t.Fatal(err)
	}
	if err := s.ResetState(); err != nil {
		t.Fatalf("ResetState() error = %v", err)
	}
	if v := s.Variables()["name"]; v != "stranger" {
		t.Errorf("name = %v, want stranger", v)
	}
	u, _ := s.Continue()
	if u.Text != "The tide is going out." {
		t.Errorf("text = %q", u.Text)
	}
}

func TestSetVariableUndeclared(t *testing.T) {
	s := loadDemo(t)
	if err := s.SetVariable("gold", 5); err == nil {
		t.Error("expected error for undeclared variable")
	}
}

func TestValidation(t *testing.T) {
	_, err := Parse([]byte(`
start: missing
variables: {a: 1}
knots:
  k:
    lines: ["{{ .a "]
    divert: nowhere
    choices:
      - text: go
        divert: elsewhere
        set: {b: 2}
`))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if n := len(multierr.Errors(unwrapAll(err))); n != 5 {
		t.Errorf("got %d errors, want 5: %v", n, err)
	}
}

func unwrapAll(err error) error {
	type unwrapper interface{ Unwrap() error }
	for {
		u, ok := err.(unwrapper)
		if !ok {
			return err
		}
		err = u.Unwrap()
	}
}

func TestUnknownFields(t *testing.T) {
	if _, err := Parse([]byte("start: a\nknots: {a: {lines: [x]}}\nbogus: 1\n")); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestDivertLoop(t *testing.T) {
	s, err := Parse([]byte(`
start: a
knots:
  a:
    lines: [one]
    divert: b
  b:
    divert: c
  c:
    divert: b
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, err := s.Continue(); err != nil {
		t.Fatalf("first Continue() error = %v", err)
	}
	if !s.CanContinue() {
		t.Fatal("pending error must be reported through Continue")
	}
	if _, err := s.Continue(); err == nil || !strings.Contains(err.Error(), "divert loop") {
		t.Errorf("expected divert loop error, got %v", err)
	}
}

func TestStoryID(t *testing.T) {
	a := &Script{Tags: []string{"title: Same"}, Start: "x"}
	b := &Script{Tags: []string{"title:Same"}, Start: "y"}
	if storyID(a) != storyID(b) {
		t.Error("stories with the same title should share id")
	}
	if _, err := uuid.Parse(storyID(a)); err != nil {
		t.Errorf("derived id is not UUID: %v", err)
	}
	c := &Script{ID: "my-story"}
	if storyID(c) == storyID(a) {
		t.Error("different names should give different ids")
	}
}

func TestLineScalar(t *testing.T) {
	s, err := Parse([]byte(`
start: a
knots:
  a:
    lines:
      - plain text
      - text: mapped
        tags: [CLEAR]
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	units := drain(t, s)
	want := []narrative.Unit{{Text: "plain text"}, {Text: "mapped", Tags: []string{"CLEAR"}}}
	if !reflect.DeepEqual(units, want) {
		t.Errorf("units = %+v, want %+v", units, want)
	}
}

func TestLoadYAML(t *testing.T) {
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	b, err := Load(context.Background(), filepath.Join("testdata", "lighthouse.yaml"), log)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer b.Close()
	if b.Name != "lighthouse" {
		t.Errorf("Name = %q", b.Name)
	}
	if b.Assets != "testdata" {
		t.Errorf("Assets = %q", b.Assets)
	}
	if b.TempDir() != "" {
		t.Errorf("plain story should not unpack anything")
	}
}

func TestLoadArchive(t *testing.T) {
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	data, err := os.ReadFile(filepath.Join("testdata", "lighthouse.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	zipPath := filepath.Join(t.TempDir(), "bundle.ifz")
	zf, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(zf)
	for name, content := range map[string][]byte{
		"game/story.yaml":       data,
		"game/extra/notes.yaml": []byte("not a story"),
		"game/lighthouse.png":   []byte("png"),
	} {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(content)
	}
	w.Close()
	zf.Close()

	b, err := Load(context.Background(), zipPath, log)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	tmp := b.TempDir()
	if tmp == "" {
		t.Fatal("archive should be unpacked")
	}
	if _, err := os.Stat(filepath.Join(b.Assets, "lighthouse.png")); err != nil {
		t.Errorf("asset not found next to script: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Errorf("temporary directory should be removed")
	}
}

func TestLoadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Load(ctx, "whatever.yaml", zap.NewNop()); err == nil {
		t.Error("expected context error")
	}
}

func TestPickScript(t *testing.T) {
	tests := []struct {
		names []string
		want  string
	}{
		{[]string{"a.png"}, ""},
		{[]string{"b.yaml", "a.yml"}, "a.yml"},
		{[]string{"chapter10.yaml", "chapter2.yaml"}, "chapter2.yaml"},
		{[]string{"x/story.yaml", "other.yaml"}, "other.yaml"},
		{[]string{"other.yaml", "STORY.YML"}, "STORY.YML"},
	}
	for _, tt := range tests {
		if got := pickScript(tt.names); got != tt.want {
			t.Errorf("pickScript(%v) = %q, want %q", tt.names, got, tt.want)
		}
	}
}
