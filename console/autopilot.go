package console

import (
	"go.uber.org/zap"

	"ifplay/page"
	"ifplay/player"
)

// Autopilot plays story without reader taking scripted choices. When script
// is exhausted or story has no choices left it quits the player.
type Autopilot struct {
	page    *page.Page
	script  []int
	next    int
	log     *zap.Logger
	control Controller
}

func NewAutopilot(pg *page.Page, script []int, log *zap.Logger) *Autopilot {
	return &Autopilot{page: pg, script: script, log: log.Named("autopilot")}
}

// Drive sets player autopilot controls.
func (a *Autopilot) Drive(c Controller) {
	a.control = c
}

// Taken returns number of choices made so far.
func (a *Autopilot) Taken() int {
	return a.next
}

// OnPhase is player phase hook.
func (a *Autopilot) OnPhase(ph player.Phase) {
	if ph != player.PhaseAwaitingChoice || a.control == nil {
		return
	}
	choices := a.page.Find("." + page.ClassChoice)
	if len(choices) == 0 {
		a.log.Info("Story has ended", zap.Int("choices taken", a.next))
		a.control.Quit()
		return
	}
	if a.next >= len(a.script) {
		a.log.Info("No more scripted choices", zap.Int("available", len(choices)))
		a.control.Quit()
		return
	}
	n := a.script[a.next]
	if n < 0 || n >= len(choices) {
		a.log.Warn("Scripted choice is not available, stopping", zap.Int("choice", n), zap.Int("available", len(choices)))
		a.control.Quit()
		return
	}
	a.next++
	a.log.Debug("Choosing", zap.Int("choice", n), zap.String("text", a.page.Text(choices[n])))
	if anchor := choices[n].SelectElement("a"); anchor == nil || !a.page.Click(anchor) {
		a.log.Warn("Choice is not clickable, stopping", zap.Int("choice", n))
		a.control.Quit()
	}
}
