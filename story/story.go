// Package story implements a small YAML authored branching narrative engine.
// Text, tags and choice conditions are Go templates with sprig functions,
// story variables are available as template data.
package story

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"ifplay/narrative"
)

// position is the complete mutable state of the story, it is what gets
// serialized by SaveState.
type position struct {
	Story  string          `json:"story"`
	Knot   string          `json:"knot"`
	Line   int             `json:"line"`
	Turn   int             `json:"turn"`
	Vars   map[string]any  `json:"vars"`
	Visits map[string]int  `json:"visits,omitempty"`
	Taken  map[string]bool `json:"taken,omitempty"`
}

// Story plays a Script. It is not safe for concurrent use.
type Story struct {
	script *Script
	id     string
	funcs  template.FuncMap
	cache  map[string]*template.Template
	pos    position
	err    error
}

var _ narrative.Engine = (*Story)(nil)
var _ narrative.Inspector = (*Story)(nil)
var _ narrative.Identifier = (*Story)(nil)

// New validates script and prepares story positioned at its start.
func New(sc *Script) (*Story, error) {
	s := &Story{script: sc, cache: make(map[string]*template.Template)}
	s.funcs = sprig.FuncMap()
	s.funcs["visits"] = func(knot string) int { return s.pos.Visits[knot] }
	s.funcs["turn"] = func() int { return s.pos.Turn }

	if err := sc.validate(s.funcs); err != nil {
		return nil, fmt.Errorf("invalid story: %w", err)
	}
	s.id = storyID(sc)
	if err := s.ResetState(); err != nil {
		return nil, err
	}
	return s, nil
}

// Parse decodes and validates script from YAML.
func Parse(data []byte) (*Story, error) {
	sc := &Script{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(sc); err != nil {
		return nil, fmt.Errorf("unable to decode story: %w", err)
	}
	return New(sc)
}

// storyID returns script id when it is a valid UUID, otherwise derives
// stable one from story title so saved sessions survive restarts.
func storyID(sc *Script) string {
	if id, err := uuid.Parse(sc.ID); err == nil {
		return id.String()
	}
	name := sc.ID
	if name == "" {
		name = sc.globalTag("title")
	}
	if name == "" {
		name = sc.Start
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("ifplay:"+name)).String()
}

func (s *Story) StoryID() string {
	return s.id
}

func (s *Story) GlobalTags() []string {
	return append([]string(nil), s.script.Tags...)
}

func (s *Story) CanContinue() bool {
	if s.err != nil {
		return true
	}
	k := s.knot()
	return k != nil && s.pos.Line < len(k.Lines)
}

func (s *Story) Continue() (narrative.Unit, error) {
	if s.err != nil {
		return narrative.Unit{}, s.err
	}
	k := s.knot()
	if k == nil || s.pos.Line >= len(k.Lines) {
		return narrative.Unit{}, errors.New("story cannot continue")
	}
	line := k.Lines[s.pos.Line]
	s.pos.Line++

	text, err := s.render(line.Text)
	if err != nil {
		return narrative.Unit{}, fmt.Errorf("knot %q line %d: %w", s.pos.Knot, s.pos.Line-1, err)
	}
	u := narrative.Unit{Text: text}
	for _, t := range line.Tags {
		tag, err := s.render(t)
		if err != nil {
			return narrative.Unit{}, fmt.Errorf("knot %q line %d tag: %w", s.pos.Knot, s.pos.Line-1, err)
		}
		u.Tags = append(u.Tags, strings.TrimSpace(tag))
	}
	s.settle()
	return u, nil
}

func (s *Story) CurrentChoices() []narrative.Choice {
	if s.CanContinue() {
		return nil
	}
	opts := s.visible()
	res := make([]narrative.Choice, 0, len(opts))
	for i, o := range opts {
		text, err := s.render(o.Text)
		if err != nil {
			text = o.Text
		}
		res = append(res, narrative.Choice{Index: i, Text: strings.TrimSpace(text)})
	}
	return res
}

func (s *Story) ChooseChoiceIndex(index int) error {
	if s.CanContinue() {
		return errors.New("choices are not available yet")
	}
	opts := s.visible()
	if index < 0 || index >= len(opts) {
		return fmt.Errorf("choice index %d out of range [0, %d)", index, len(opts))
	}
	o := opts[index]
	for name, v := range o.Set {
		val, err := s.value(v)
		if err != nil {
			return fmt.Errorf("choice %d: variable %q: %w", index, name, err)
		}
		s.pos.Vars[name] = val
	}
	if o.Once {
		s.pos.Taken[takenKey(s.pos.Knot, o)] = true
	}
	s.pos.Turn++
	divert := o.Divert
	if divert == "" {
		divert = End
	}
	s.enter(divert)
	return nil
}

func (s *Story) ResetState() error {
	s.err = nil
	s.pos = position{
		Story:  s.id,
		Vars:   maps.Clone(s.script.Variables),
		Visits: make(map[string]int),
		Taken:  make(map[string]bool),
	}
	if s.pos.Vars == nil {
		s.pos.Vars = make(map[string]any)
	}
	s.enter(s.script.Start)
	return nil
}

func (s *Story) SetVariable(name string, value any) error {
	if _, ok := s.script.Variables[name]; !ok {
		return fmt.Errorf("variable %q is not declared", name)
	}
	s.pos.Vars[name] = value
	return nil
}

func (s *Story) Variables() map[string]any {
	return maps.Clone(s.pos.Vars)
}

func (s *Story) SaveState() (string, error) {
	data, err := json.Marshal(&s.pos)
	if err != nil {
		return "", fmt.Errorf("unable to serialize story state: %w", err)
	}
	return string(data), nil
}

func (s *Story) LoadState(blob string) error {
	var p position
	if err := json.Unmarshal([]byte(blob), &p); err != nil {
		return fmt.Errorf("unable to deserialize story state: %w", err)
	}
	if p.Story != s.id {
		return fmt.Errorf("state belongs to different story %q", p.Story)
	}
	if p.Knot != "" {
		k, ok := s.script.Knots[p.Knot]
		if !ok {
			return fmt.Errorf("state refers to unknown knot %q", p.Knot)
		}
		if p.Line < 0 || p.Line > len(k.Lines) {
			return fmt.Errorf("state refers to bad line %d of knot %q", p.Line, p.Knot)
		}
	}
	for name, v := range p.Vars {
		p.Vars[name] = normalize(v)
	}
	if p.Vars == nil {
		p.Vars = make(map[string]any)
	}
	if p.Visits == nil {
		p.Visits = make(map[string]int)
	}
	if p.Taken == nil {
		p.Taken = make(map[string]bool)
	}
	s.pos, s.err = p, nil
	return nil
}

func (s *Story) knot() *Knot {
	if s.pos.Knot == "" {
		return nil
	}
	return s.script.Knots[s.pos.Knot]
}

func (s *Story) enter(name string) {
	if name == End {
		name = ""
	}
	s.pos.Knot, s.pos.Line = name, 0
	if name != "" {
		s.pos.Visits[name]++
	}
	s.settle()
}

// settle follows knot diverts once its lines are exhausted and no choice is
// visible. Knots without lines diverting in a circle are reported on next
// Continue.
func (s *Story) settle() {
	for range len(s.script.Knots) + 1 {
		k := s.knot()
		if k == nil || s.pos.Line < len(k.Lines) || k.Divert == "" || len(s.visible()) > 0 {
			return
		}
		name := k.Divert
		if name == End {
			name = ""
		}
		s.pos.Knot, s.pos.Line = name, 0
		if name != "" {
			s.pos.Visits[name]++
		}
	}
	s.err = fmt.Errorf("divert loop detected at knot %q", s.pos.Knot)
}

// visible returns options of current knot which pass their conditions.
func (s *Story) visible() []Option {
	k := s.knot()
	if k == nil {
		return nil
	}
	var res []Option
	for _, o := range k.Choices {
		if o.Once && s.pos.Taken[takenKey(s.pos.Knot, o)] {
			continue
		}
		if o.When != "" {
			ok, err := s.render(condition(o.When))
			if err != nil || strings.TrimSpace(ok) != "true" {
				continue
			}
		}
		res = append(res, o)
	}
	return res
}

func (s *Story) render(text string) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}
	t, ok := s.cache[text]
	if !ok {
		var err error
		if t, err = parseTemplate(text, s.funcs); err != nil {
			return "", err
		}
		s.cache[text] = t
	}
	buf := new(bytes.Buffer)
	if err := t.Execute(buf, s.pos.Vars); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// value computes new variable value. Templated strings are rendered and
// decoded as YAML scalars so numbers and booleans keep their types.
func (s *Story) value(v any) (any, error) {
	str, ok := v.(string)
	if !ok || !strings.Contains(str, "{{") {
		return v, nil
	}
	out, err := s.render(str)
	if err != nil {
		return nil, err
	}
	var res any
	if err := yaml.Unmarshal([]byte(out), &res); err != nil {
		return out, nil
	}
	switch res.(type) {
	case int, float64, bool:
		return res, nil
	}
	return out, nil
}

func takenKey(knot string, o Option) string {
	return knot + "\x00" + o.Text
}

// normalize restores integers which JSON turned into floats.
func normalize(v any) any {
	if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int(f)
	}
	return v
}
