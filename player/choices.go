package player

import (
	"context"
	"fmt"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"ifplay/page"
)

const (
	classDisabled = "disabled"
	classChosen   = "chosen"
)

type choiceEl struct {
	para   *etree.Element
	anchor *etree.Element
	index  int
}

// present renders current choices with staggered reveal. Clicks are
// accepted as soon as choice is on the page, only the first one counts.
func (p *Player) present(ctx context.Context) error {
	p.setPhase(PhaseResolving)
	choices := p.engine.CurrentChoices()
	p.choices = p.choices[:0]
	round := p.round.Add(1)
	select {
	case pk := <-p.picks:
		p.log.Debug("Stale choice dropped", zap.Int("index", pk.index), zap.Uint64("round", pk.round))
	default:
	}
	p.chosen.Store(false)

	if len(choices) > 1 {
		if err := sleep(ctx, p.clock, p.pacer.delay()); err != nil {
			return err
		}
	}
	for _, c := range choices {
		para := p.surface.NewElement("p")
		p.surface.AddClass(para, page.ClassChoice)
		a := p.surface.NewElement("a")
		p.surface.SetAttr(a, "href", "#")
		if err := p.surface.SetContent(a, c.Text); err != nil {
			return err
		}
		p.surface.AppendChild(para, a)
		p.surface.Hide(para)
		p.surface.Append(para)

		index := c.Index
		p.surface.OnClick(a, func() { p.choose(round, index) })
		p.choices = append(p.choices, choiceEl{para: para, anchor: a, index: index})

		if err := p.reveal(ctx, para, p.cfg.DefaultDelay); err != nil {
			return err
		}
	}
	p.log.Debug("Choices presented", zap.Int("count", len(choices)))
	return nil
}

// choose is click handler for choice of given round, it may be called from
// any goroutine. Only the first click of the current round counts.
func (p *Player) choose(round uint64, index int) {
	if round != p.round.Load() {
		p.log.Debug("Choice ignored, page has changed", zap.Int("index", index))
		return
	}
	if !p.chosen.CompareAndSwap(false, true) {
		p.log.Debug("Choice ignored, already chosen", zap.Int("index", index))
		return
	}
	select {
	case p.picks <- pick{round: round, index: index}:
	default:
		// slot is taken by a choice of the old round not yet discarded
		p.chosen.Store(false)
		p.log.Warn("Choice not accepted, try again", zap.Int("index", index))
	}
}

// take advances story with chosen option and clears choices off the page.
func (p *Player) take(ctx context.Context, index int) error {
	for _, c := range p.choices {
		p.surface.ClearClick(c.anchor)
	}
	if err := p.engine.ChooseChoiceIndex(index); err != nil {
		return fmt.Errorf("unable to take choice %d: %w", index, err)
	}
	p.session.checkpoint()
	p.session.persist(ctx)

	for _, c := range p.choices {
		if c.index == index {
			p.surface.AddClass(c.para, classChosen)
		} else {
			p.surface.AddClass(c.para, classDisabled)
		}
	}
	if err := sleep(ctx, p.clock, p.cfg.ChoiceSettle); err != nil {
		return err
	}
	p.surface.RemoveAll("." + page.ClassChoice)
	p.choices = p.choices[:0]
	return nil
}
