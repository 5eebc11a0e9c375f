package player

import (
	"ifplay/narrative"
	"ifplay/utils/debug"
)

// DumpState describes internal playback state. It is only consistent when
// taken from playback goroutine, use Inspect from elsewhere.
func (p *Player) DumpState() string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "player phase=%s debug=%t", p.Phase(), p.debug)

	tw.Line(1, "render inline=%s tag=%q pending classes=%v", p.state.inline, p.state.tag, p.state.classes)
	if p.pacer.override != nil {
		tw.Line(1, "pacer carry=%s override=%s next=%s", p.pacer.carry, *p.pacer.override, p.pacer.delay())
	} else {
		tw.Line(1, "pacer carry=%s next=%s", p.pacer.carry, p.pacer.delay())
	}
	tw.Line(1, "deferred tasks=%d", len(p.tasks))
	for _, t := range p.tasks {
		tw.Text(2, "task", t.d.String())
	}
	tw.Line(1, "choices=%d round=%d chosen=%t", len(p.choices), p.round.Load(), p.chosen.Load())
	tw.Line(1, "themes removable=%v", p.themes)

	tw.Line(1, "session saved=%t snapshot=%d bytes", p.session.saved, len(p.session.snapshot))
	if id, ok := p.engine.(narrative.Identifier); ok {
		tw.Text(2, "story", id.StoryID())
	}
	if in, ok := p.engine.(narrative.Inspector); ok {
		tw.Values(2, "variables", in.Variables())
	}

	for s := range slots {
		if src, paused := p.mixer.playing(s); src != "" {
			tw.Line(1, "audio %s paused=%t", s, paused)
			tw.Text(2, "src", src)
		}
	}
	if f := p.form.Load(); f != nil {
		tw.Line(1, "reader input variable=%s type=%s valid=%t", f.Variable, f.Type, f.Valid())
		tw.Text(2, "value", f.Value())
	}
	return tw.String()
}
