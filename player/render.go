package player

import (
	"context"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"ifplay/narrative"
)

type inlineMode int

const (
	inlineOff inlineMode = iota
	inlineAccumulating
	inlineClosing
)

func (m inlineMode) String() string {
	switch m {
	case inlineAccumulating:
		return "accumulating"
	case inlineClosing:
		return "closing"
	}
	return "off"
}

// renderState is mutated by directives and consumed by the next rendered
// unit. Tag override and inline grouping return to defaults after every
// closed group or standalone unit.
type renderState struct {
	inline  inlineMode
	group   *etree.Element
	tag     string
	classes []string
}

func (r *renderState) reset() {
	*r = renderState{}
}

// element creates node for unit text honoring tag override and pending
// classes.
func (p *Player) element(text string) (*etree.Element, error) {
	tag := p.state.tag
	if tag == "" {
		tag = "p"
		if p.state.inline != inlineOff {
			tag = "span"
		}
	}
	p.state.tag = ""
	el := p.surface.NewElement(tag)
	if err := p.surface.SetContent(el, text); err != nil {
		return nil, err
	}
	if len(p.state.classes) > 0 {
		p.surface.AddClass(el, p.state.classes...)
	}
	return el, nil
}

// render places unit onto the page. Standalone units are revealed right away,
// units inside inline group are collected until group is closed.
func (p *Player) render(ctx context.Context, u narrative.Unit) error {
	visible := strings.TrimSpace(u.Text) != p.cfg.TagOnly && strings.TrimSpace(u.Text) != ""

	if p.state.inline == inlineOff {
		if !visible {
			return nil
		}
		el, err := p.element(u.Text)
		if err != nil {
			return err
		}
		p.surface.Hide(el)
		p.surface.Append(el)
		if err := p.reveal(ctx, el, p.pacer.delay()); err != nil {
			return err
		}
		p.pacer.text(p.surface.TextLength(el))
		return nil
	}

	if visible {
		if p.state.group == nil {
			p.state.group = p.surface.NewElement("p")
		}
		el, err := p.element(u.Text)
		if err != nil {
			return err
		}
		p.surface.AppendChild(p.state.group, el)
	}
	if p.state.inline == inlineClosing {
		return p.closeGroup(ctx)
	}
	return nil
}

// closeGroup reveals collected inline group as a single paragraph.
func (p *Player) closeGroup(ctx context.Context) error {
	group := p.state.group
	p.state.group, p.state.inline, p.state.tag = nil, inlineOff, ""
	if group == nil || len(group.ChildElements()) == 0 {
		p.log.Debug("Empty inline group dropped")
		return nil
	}
	p.surface.Hide(group)
	p.surface.Append(group)
	if err := p.reveal(ctx, group, p.pacer.delay()); err != nil {
		return err
	}
	p.pacer.text(p.surface.TextLength(group))
	p.log.Debug("Inline group revealed", zap.Int("units", len(group.ChildElements())))
	return nil
}
