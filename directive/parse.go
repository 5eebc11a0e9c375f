// Package directive recognizes author tags attached to story content and
// decodes their arguments.
package directive

import (
	"strings"
)

// Form distinguishes "PROPERTY: value" directives from bare flags.
type Form int

const (
	FormFlag Form = iota
	FormProperty
)

// Directive is a single classified tag.
type Directive struct {
	Raw   string
	Form  Form
	Name  string
	Value string
	Kind  Kind
}

// Parse splits a tag on its first colon. Text before the colon becomes the
// property name and the rest becomes the raw value, both trimmed. A tag
// without a colon is a bare flag. Parse never fails: names outside of the
// vocabulary simply get KindUnknown.
func Parse(tag string) Directive {
	d := Directive{Raw: tag}
	name, value, found := strings.Cut(tag, ":")
	if !found {
		d.Form = FormFlag
		d.Name = strings.TrimSpace(tag)
		d.Kind = flags[d.Name]
		return d
	}
	d.Form = FormProperty
	d.Name = strings.TrimSpace(name)
	d.Value = strings.TrimSpace(value)
	d.Kind = properties[d.Name]
	return d
}

// ParseAll classifies tags in order.
func ParseAll(tags []string) []Directive {
	res := make([]Directive, 0, len(tags))
	for _, t := range tags {
		res = append(res, Parse(t))
	}
	return res
}

func (d Directive) String() string {
	if d.Form == FormFlag {
		return d.Name
	}
	return d.Name + ": " + d.Value
}
