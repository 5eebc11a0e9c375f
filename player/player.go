// Package player drives interactive story playback: it pulls units from the
// narrative engine, applies their directives, paces reveal of the content
// and waits for reader choices.
package player

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"ifplay/config"
	"ifplay/directive"
	"ifplay/narrative"
)

const (
	defaultTheme  = "default"
	themeDark     = "dark"
	themeSwitched = "switched"
)

var errQuit = errors.New("quit requested")

type cmdKind int

const (
	cmdSave cmdKind = iota
	cmdReload
	cmdRewind
	cmdToggleTheme
	cmdDump
	cmdQuit
)

type command struct {
	kind  cmdKind
	reply chan string
}

// pick is reader choice made on choices of a particular round.
type pick struct {
	round uint64
	index int
}

// Option configures Player.
type Option func(*Player)

// WithClock replaces wall clock, useful for tests.
func WithClock(c Clock) Option {
	return func(p *Player) { p.clock = c }
}

// WithPhaseHook installs function called on every phase change from the
// playback goroutine.
func WithPhaseHook(fn func(Phase)) Option {
	return func(p *Player) { p.hook = fn }
}

// Player is a single playback session of a story.
type Player struct {
	engine  narrative.Engine
	hosts   Hosts
	surface Surface
	cfg     *config.PlayerConfig
	debug   bool
	log     *zap.Logger
	clock   Clock
	hook    func(Phase)

	phase    atomic.Int32
	state    renderState
	pacer    pacer
	scroller *scroller
	mixer    *mixer
	session  *session
	tasks    []task
	themes   []string
	cycleTop int

	cmds    chan command
	picks   chan pick
	round   atomic.Uint64
	chosen  atomic.Bool
	choices []choiceEl
	form    atomic.Pointer[InputForm]
}

// New creates player for engine. Only Surface host is mandatory.
func New(engine narrative.Engine, hosts Hosts, cfg *config.PlayerConfig, debug bool, log *zap.Logger, opts ...Option) (*Player, error) {
	if engine == nil {
		return nil, errors.New("narrative engine is required")
	}
	if hosts.Surface == nil {
		return nil, errors.New("presentation surface is required")
	}
	log = log.Named("player")
	hosts.fill(log)

	p := &Player{
		engine:  engine,
		hosts:   hosts,
		surface: hosts.Surface,
		cfg:     cfg,
		debug:   debug,
		log:     log,
		clock:   realClock{},
		themes:  append([]string(nil), cfg.AdditionThemes...),
		cmds:    make(chan command, 16),
		picks:   make(chan pick, 1),
	}
	for _, o := range opts {
		o(p)
	}
	p.pacer = pacer{cfg: cfg, debug: debug}
	p.scroller = &scroller{surface: p.surface, clock: p.clock, frame: cfg.ScrollFrame, log: log.Named("scroll")}
	p.mixer = &mixer{audio: hosts.Audio, clock: p.clock, log: log.Named("audio")}
	p.session = &session{engine: engine, storage: hosts.Storage, log: log.Named("session")}
	return p, nil
}

// Phase returns current state of playback loop.
func (p *Player) Phase() Phase {
	return Phase(p.phase.Load())
}

func (p *Player) setPhase(ph Phase) {
	if Phase(p.phase.Swap(int32(ph))) == ph {
		return
	}
	if p.hook != nil {
		p.hook(ph)
	}
}

// Form returns currently open reader input or nil.
func (p *Player) Form() *InputForm {
	return p.form.Load()
}

// Run plays story until context is cancelled, story navigates away or Quit
// is requested. Engine failures stop playback and are returned.
func (p *Player) Run(ctx context.Context) error {
	defer p.mixer.stop()
	defer p.setPhase(PhaseIdle)

	p.setup(ctx)
	fresh := true
	for {
		err := p.cycle(ctx, fresh)
		switch {
		case errors.Is(err, errRestarted):
			p.setPhase(PhaseRestarted)
			if err := p.restart(ctx); err != nil {
				return err
			}
			fresh = true
			continue
		case errors.Is(err, errNavigatedAway):
			return nil
		case err != nil:
			return err
		}
		if p.debug {
			p.log.Debug("Playback state", zap.String("dump", p.DumpState()))
		}
		p.setPhase(PhaseAwaitingChoice)
		fresh, err = p.await(ctx)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// setup applies story global tags, theme and restores saved session.
func (p *Player) setup(ctx context.Context) {
	var themeTag string
	for _, t := range p.engine.GlobalTags() {
		d := directive.Parse(t)
		if d.Form != directive.FormProperty {
			continue
		}
		switch strings.ToLower(d.Name) {
		case "title":
			p.surface.SetTitle(d.Value)
		case "author":
			p.surface.SetByline(p.cfg.BylinePrefix + d.Value)
		case "theme":
			themeTag = strings.ToLower(d.Value)
		case "addition_themes":
			p.themes = p.themes[:0]
			for name := range strings.SplitSeq(d.Value, ",") {
				if name = strings.TrimSpace(name); name != "" {
					p.themes = append(p.themes, name)
				}
			}
		}
	}

	saved, found := p.session.theme(ctx)
	if saved == themeDark || (!found && (themeTag == themeDark || (themeTag == "" && p.cfg.PreferDark))) {
		p.surface.AddTheme(themeDark)
	}

	if p.session.restore(ctx) {
		p.log.Info("Saved session restored")
	}
	p.session.checkpoint()
}

// cycle pulls and renders units until engine needs a choice.
func (p *Player) cycle(ctx context.Context, fresh bool) error {
	p.pacer.reset()
	p.cycleTop = 0
	if !fresh {
		p.cycleTop = p.surface.ContentBottom()
	}
	for {
		p.setPhase(PhasePulling)
		if !p.engine.CanContinue() {
			break
		}
		u, err := p.engine.Continue()
		if err != nil {
			return fmt.Errorf("story failed: %w", err)
		}
		p.log.Debug("Unit", zap.String("text", strings.TrimSpace(u.Text)), zap.Strings("tags", u.Tags))

		p.setPhase(PhaseApplying)
		if err := p.apply(ctx, u.Tags); err != nil {
			return err
		}
		if err := p.render(ctx, u); err != nil {
			return err
		}
		if err := p.drain(ctx); err != nil {
			return err
		}
	}
	if p.state.inline != inlineOff {
		p.log.Warn("Inline group was not closed, revealing it")
		if err := p.closeGroup(ctx); err != nil {
			return err
		}
	}
	return p.present(ctx)
}

// restart resets engine and page for fresh cycle.
func (p *Player) restart(ctx context.Context) error {
	if err := p.engine.ResetState(); err != nil {
		return fmt.Errorf("unable to restart story: %w", err)
	}
	p.state.reset()
	p.tasks = nil
	p.choices = p.choices[:0]
	p.surface.SetHeaderVisible(true)
	p.session.checkpoint()
	if err := p.scroller.settle(ctx); err != nil {
		return err
	}
	p.surface.ScrollTo(0)
	return nil
}

// await processes commands until story should continue. Returns whether
// next cycle starts on a clean page.
func (p *Player) await(ctx context.Context) (bool, error) {
	for {
		c, pk, err := p.next(ctx)
		if err != nil {
			return false, err
		}
		if pk != nil {
			if pk.round != p.round.Load() {
				p.log.Debug("Stale choice ignored", zap.Int("index", pk.index), zap.Uint64("round", pk.round))
				continue
			}
			if err := p.take(ctx, pk.index); err != nil {
				return false, err
			}
			return false, nil
		}
		switch c.kind {
		case cmdSave:
			p.save(ctx)
		case cmdReload:
			if p.reload(ctx) {
				p.round.Add(1)
				return true, nil
			}
		case cmdRewind:
			p.round.Add(1)
			p.clear()
			p.surface.SetHeaderVisible(false)
			if err := p.restart(ctx); err != nil {
				return false, err
			}
			return true, nil
		case cmdToggleTheme:
			p.surface.AddTheme(themeSwitched)
			if p.surface.HasTheme(themeDark) {
				p.surface.RemoveTheme(themeDark)
			} else {
				p.surface.AddTheme(themeDark)
			}
		case cmdDump:
			c.reply <- p.DumpState()
		case cmdQuit:
			return false, errQuit
		}
	}
}

// next waits for reader command or choice. Pending commands go first, so
// reload or rewind requested while choice was made discards the choice.
func (p *Player) next(ctx context.Context) (command, *pick, error) {
	select {
	case c := <-p.cmds:
		return c, nil, nil
	default:
	}
	select {
	case <-ctx.Done():
		return command{}, nil, ctx.Err()
	case c := <-p.cmds:
		return c, nil, nil
	case pk := <-p.picks:
		return command{}, &pk, nil
	}
}

func (p *Player) save(ctx context.Context) {
	if p.session.persist(ctx) {
		p.log.Info("Session saved")
	}
	theme := ""
	if p.surface.HasTheme(themeDark) {
		theme = themeDark
	}
	p.session.saveTheme(ctx, theme)
}

func (p *Player) reload(ctx context.Context) bool {
	if !p.session.saved {
		p.log.Warn("Nothing to reload, session was never saved")
		return false
	}
	p.clear()
	p.state.reset()
	if !p.session.restore(ctx) {
		p.log.Warn("Unable to reload saved session, starting over")
		if err := p.engine.ResetState(); err != nil {
			p.log.Warn("Unable to reset story", zap.Error(err))
		}
	}
	p.session.checkpoint()
	return true
}

func (p *Player) send(c command) bool {
	select {
	case p.cmds <- c:
		return true
	default:
		p.log.Warn("Player is busy, command dropped", zap.Int("command", int(c.kind)))
		return false
	}
}

// Save persists current save point and theme.
func (p *Player) Save() { p.send(command{kind: cmdSave}) }

// Reload discards page and continues from last saved point.
func (p *Player) Reload() { p.send(command{kind: cmdReload}) }

// Rewind starts story over.
func (p *Player) Rewind() { p.send(command{kind: cmdRewind}) }

// ToggleTheme switches between dark and light theme.
func (p *Player) ToggleTheme() { p.send(command{kind: cmdToggleTheme}) }

// Quit stops Run once current cycle is finished.
func (p *Player) Quit() { p.send(command{kind: cmdQuit}) }

// Inspect returns state dump taken between cycles.
func (p *Player) Inspect(ctx context.Context) (string, error) {
	c := command{kind: cmdDump, reply: make(chan string, 1)}
	select {
	case p.cmds <- c:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case s := <-c.reply:
		return s, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
