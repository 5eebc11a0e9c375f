package player

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ifplay/directive"
	"ifplay/page"
)

var (
	errRestarted     = errors.New("story restarted")
	errNavigatedAway = errors.New("navigated away from story")
)

// task is side effect postponed until unit is on the page.
type task struct {
	d   directive.Directive
	run func(ctx context.Context) error
}

func (p *Player) enqueue(d directive.Directive, run func(ctx context.Context) error) {
	p.tasks = append(p.tasks, task{d: d, run: run})
}

// apply runs directives of a single unit in order. Immediate effects happen
// here, the rest is queued. Returns errRestarted when RESTART fired and
// errNavigatedAway when story page was left.
func (p *Player) apply(ctx context.Context, tags []string) error {
	p.state.classes = nil
	for _, d := range directive.ParseAll(tags) {
		err := p.dispatch(ctx, d)
		var ae *directive.ArgumentError
		switch {
		case err == nil:
		case errors.As(err, &ae):
			p.authoring(ctx, err)
		default:
			return err
		}
	}
	return nil
}

// dispatch applies directive. Effects of deferred kinds are queued to run
// after unit is rendered, the rest take place right away.
func (p *Player) dispatch(ctx context.Context, d directive.Directive) error {
	if d.Kind.Deferred() {
		run, err := p.postpone(d)
		if err != nil {
			return err
		}
		p.enqueue(d, run)
		return nil
	}

	switch d.Kind {
	case directive.KindImage:
		src, err := d.Source()
		if err != nil {
			return err
		}
		el := p.surface.NewElement("img")
		p.surface.SetAttr(el, "src", src)
		if len(p.state.classes) > 0 {
			p.surface.AddClass(el, p.state.classes...)
		}
		p.surface.Hide(el)
		p.surface.Append(el)
		if err := p.reveal(ctx, el, p.pacer.delay()); err != nil {
			return err
		}
		p.pacer.image()

	case directive.KindLink:
		url, err := d.Source()
		if err != nil {
			return err
		}
		if err := p.hosts.Navigator.Navigate(ctx, url); err != nil {
			p.log.Warn("Unable to navigate", zap.String("url", url), zap.Error(err))
			return nil
		}
		return errNavigatedAway

	case directive.KindLinkOpen:
		url, err := d.Source()
		if err != nil {
			return err
		}
		if err := p.hosts.Navigator.Open(ctx, url); err != nil {
			p.log.Warn("Unable to open link", zap.String("url", url), zap.Error(err))
		}

	case directive.KindSetTheme:
		theme, err := d.Theme()
		if err != nil {
			return err
		}
		p.surface.RemoveTheme(p.themes...)
		if theme != defaultTheme {
			p.surface.AddTheme(theme)
		}

	case directive.KindBackground:
		src, err := d.Source()
		if err != nil {
			return err
		}
		p.surface.SetBackground(src)

	case directive.KindUnsetBackground:
		p.surface.SetBackground("")

	case directive.KindClass:
		classes, err := d.Classes()
		if err != nil {
			return err
		}
		p.state.classes = append(p.state.classes, classes...)

	case directive.KindAnimate:
		classes, err := d.Animations()
		if err != nil {
			return err
		}
		p.state.classes = append(p.state.classes, classes...)

	case directive.KindHeader:
		show, err := d.Header()
		if err != nil {
			return err
		}
		p.surface.SetHeaderVisible(show)

	case directive.KindHtmlTag:
		tag, err := d.Tag()
		if err != nil {
			return err
		}
		p.state.tag = tag

	case directive.KindSetTitle:
		p.surface.SetTitle(d.Value)

	case directive.KindSetAuthor:
		p.surface.SetByline(p.cfg.BylinePrefix + d.Value)

	case directive.KindDelay:
		delay, err := d.Delay()
		if err != nil {
			return err
		}
		p.pacer.setOverride(delay)

	case directive.KindInline:
		if p.state.inline == inlineOff {
			p.state.inline = inlineAccumulating
		}

	case directive.KindUninline:
		if p.state.inline == inlineAccumulating {
			p.state.inline = inlineClosing
		} else {
			p.log.Warn("UNINLINE without INLINE ignored")
		}

	case directive.KindClearKeepHeader:
		p.clear()

	case directive.KindClear:
		p.clear()
		p.surface.SetHeaderVisible(false)

	case directive.KindRestart:
		p.clear()
		p.surface.SetHeaderVisible(false)
		return errRestarted

	default:
		p.log.Debug("Directive ignored", zap.Stringer("directive", d))
	}
	return nil
}

// postpone decodes arguments of deferred directive and returns its effect.
func (p *Player) postpone(d directive.Directive) (func(ctx context.Context) error, error) {
	switch d.Kind {
	case directive.KindAudio, directive.KindAudioLoop:
		a, err := d.Audio()
		if err != nil {
			return nil, err
		}
		s := slotOnce
		if d.Kind == directive.KindAudioLoop {
			s = slotLoop
		}
		return func(context.Context) error {
			p.mixer.schedule(s, a)
			return nil
		}, nil

	case directive.KindAudioLoopPause:
		return func(context.Context) error {
			p.mixer.pauseLoop()
			return nil
		}, nil

	case directive.KindAudioLoopResume:
		return func(context.Context) error {
			p.mixer.resumeLoop()
			return nil
		}, nil

	case directive.KindAsk:
		ask, err := d.Ask()
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) error { return p.ask(ctx, ask) }, nil

	case directive.KindWindow:
		w, err := d.Window()
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			return p.hosts.Notifier.Window(ctx, w.Title, w.Options)
		}, nil

	case directive.KindToast, directive.KindMessage:
		decode := d.Toast
		if d.Kind == directive.KindMessage {
			decode = d.Message
		}
		t, err := decode()
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			return p.hosts.Notifier.Toast(ctx, toastNotification(t))
		}, nil

	case directive.KindToaster:
		opts, err := d.Toaster()
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			return p.hosts.Notifier.Toast(ctx, customNotification(opts))
		}, nil

	case directive.KindReaderInput:
		ri, err := d.ReaderInput()
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) error { return p.collect(ctx, d, ri) }, nil
	}
	return nil, fmt.Errorf("directive %s has no deferred effect", d)
}

// clear removes all rendered story content.
func (p *Player) clear() {
	n := p.surface.RemoveAll("p", "span", "img", "."+page.ClassChoice)
	p.log.Debug("Content cleared", zap.Int("elements", n))
}

// drain runs queued tasks in order waiting for each. Authoring problems are
// reported and skipped, only cancellation stops draining.
func (p *Player) drain(ctx context.Context) error {
	prev := p.Phase()
	p.setPhase(PhaseDraining)
	defer p.setPhase(prev)

	for len(p.tasks) > 0 {
		t := p.tasks[0]
		p.tasks = p.tasks[1:]
		err := t.run(ctx)
		var ae *directive.ArgumentError
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.As(err, &ae):
			p.authoring(ctx, err)
		default:
			p.log.Warn("Deferred directive failed", zap.Stringer("directive", t.d), zap.Error(err))
		}
	}
	p.tasks = nil
	return nil
}

// ask prompts reader and stores answer, cancelled prompt keeps default.
func (p *Player) ask(ctx context.Context, a directive.Ask) error {
	answer, ok, err := p.hosts.Dialogs.Prompt(ctx, a.Question, a.Default)
	if err != nil {
		return err
	}
	if !ok {
		answer = a.Default
	}
	if err := p.engine.SetVariable(a.Variable, answer); err != nil {
		return &directive.ArgumentError{Kind: directive.KindAsk, Name: "ASK", Value: a.Variable, Reason: err.Error()}
	}
	p.session.checkpoint()
	return nil
}

// authoring reports broken story markup to the author.
func (p *Player) authoring(ctx context.Context, err error) {
	p.log.Warn("Authoring error", zap.Error(err))
	p.hosts.Dialogs.Alert(ctx, fmt.Sprintf("Story error: %s", strings.TrimSpace(err.Error())))
}
