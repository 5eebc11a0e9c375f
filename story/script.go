package story

import (
	"fmt"
	"slices"
	"strings"
	"text/template"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// End is a divert target which finishes the story.
const End = "END"

// Script is the authored story document.
type Script struct {
	ID        string           `yaml:"id"`
	Tags      []string         `yaml:"tags"`
	Start     string           `yaml:"start"`
	Variables map[string]any   `yaml:"variables"`
	Knots     map[string]*Knot `yaml:"knots"`
}

// Knot is a named piece of content followed by choices or a divert.
type Knot struct {
	Lines   []Line   `yaml:"lines"`
	Choices []Option `yaml:"choices"`
	Divert  string   `yaml:"divert"`
}

// Line is a single unit of text with its tags. In scripts it could be
// written either as a plain string or as a mapping.
type Line struct {
	Text string   `yaml:"text"`
	Tags []string `yaml:"tags"`
}

// Option is a choice offered at the end of a knot.
type Option struct {
	Text   string         `yaml:"text"`
	Divert string         `yaml:"divert"`
	Set    map[string]any `yaml:"set"`
	When   string         `yaml:"when"`
	Once   bool           `yaml:"once"`
}

func (l *Line) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		l.Text = node.Value
		return nil
	}
	type plain Line
	return node.Decode((*plain)(l))
}

// validate checks all references and templates, reporting every problem
// found rather than the first one.
func (sc *Script) validate(funcs template.FuncMap) (err error) {
	if len(sc.Knots) == 0 {
		return fmt.Errorf("story has no knots")
	}
	if _, ok := sc.Knots[sc.Start]; !ok {
		err = multierr.Append(err, fmt.Errorf("start knot %q does not exist", sc.Start))
	}
	target := func(where, name string) {
		if name == "" || name == End {
			return
		}
		if _, ok := sc.Knots[name]; !ok {
			err = multierr.Append(err, fmt.Errorf("%s: divert to unknown knot %q", where, name))
		}
	}
	check := func(where, text string) {
		if _, e := parseTemplate(text, funcs); e != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", where, e))
		}
	}
	for _, name := range sc.knotNames() {
		k := sc.Knots[name]
		if k == nil {
			err = multierr.Append(err, fmt.Errorf("knot %q is empty", name))
			continue
		}
		target(fmt.Sprintf("knot %q", name), k.Divert)
		for i, l := range k.Lines {
			check(fmt.Sprintf("knot %q line %d", name, i), l.Text)
			for _, t := range l.Tags {
				check(fmt.Sprintf("knot %q line %d tag", name, i), t)
			}
		}
		for i, o := range k.Choices {
			where := fmt.Sprintf("knot %q choice %d", name, i)
			target(where, o.Divert)
			check(where, o.Text)
			if o.When != "" {
				check(where+" condition", condition(o.When))
			}
			for v := range o.Set {
				if _, ok := sc.Variables[v]; !ok {
					err = multierr.Append(err, fmt.Errorf("%s: sets undeclared variable %q", where, v))
				}
			}
		}
	}
	return err
}

func (sc *Script) knotNames() []string {
	names := make([]string, 0, len(sc.Knots))
	for n := range sc.Knots {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// globalTag returns value of "name: value" story tag.
func (sc *Script) globalTag(name string) string {
	for _, t := range sc.Tags {
		if k, v, ok := strings.Cut(t, ":"); ok && strings.TrimSpace(k) == name {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func condition(when string) string {
	return "{{ " + when + " }}"
}

func parseTemplate(text string, funcs template.FuncMap) (*template.Template, error) {
	return template.New("").Funcs(funcs).Option("missingkey=zero").Parse(text)
}
