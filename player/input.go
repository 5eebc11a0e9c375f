package player

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"ifplay/directive"
	"ifplay/page"
)

// ErrInvalidInput is returned when form is submitted with value which does
// not pass validation.
var ErrInvalidInput = errors.New("input is not valid")

const (
	classReaderInput = "reader-input"
	classHint        = "hint"
	classFadeOut     = "fade-out"
)

// InputForm is open reader input bound to story variable. It is safe to use
// from host goroutine while playback loop waits for it.
type InputForm struct {
	Prompt   string
	Variable string
	Type     directive.InputType

	def   string
	valid func(string) bool

	surface Surface
	root    *etree.Element
	input   *etree.Element
	hint    *etree.Element
	button  *etree.Element

	mu     sync.Mutex
	value  string
	result any
	closed bool
	done   chan struct{}
}

// newInputForm builds validation predicate for ri. Error is an authoring
// error and the directive should be skipped.
func newInputForm(d directive.Directive, ri directive.ReaderInput) (*InputForm, error) {
	valid, err := validator(ri)
	if err != nil {
		return nil, &directive.ArgumentError{Kind: d.Kind, Name: d.Name, Value: d.Value, Reason: err.Error()}
	}
	return &InputForm{
		Prompt:   ri.Prompt,
		Variable: ri.Variable,
		Type:     ri.Type,
		def:      strings.TrimSpace(ri.Default),
		valid:    valid,
		done:     make(chan struct{}),
	}, nil
}

func validator(ri directive.ReaderInput) (func(string) bool, error) {
	check := func(string) bool { return true }
	if pattern := strings.TrimSpace(ri.Pattern); pattern != "" {
		if lo, hi, ok := numericRange(pattern); ok && ri.Type == directive.InputNumber {
			check = func(s string) bool {
				v, err := strconv.ParseFloat(s, 64)
				return err == nil && v >= lo && v <= hi
			}
		} else {
			re, err := regexp.Compile("^(?:" + pattern + ")$")
			if err != nil {
				return nil, fmt.Errorf("bad input pattern: %w", err)
			}
			check = re.MatchString
		}
	}
	number := ri.Type == directive.InputNumber
	return func(s string) bool {
		if s == "" {
			return false
		}
		if number {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				return false
			}
		}
		return check(s)
	}, nil
}

func numericRange(pattern string) (float64, float64, bool) {
	l, h, found := strings.Cut(pattern, "~")
	if !found {
		return 0, 0, false
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(l), 64)
	if err != nil {
		return 0, 0, false
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
	if err != nil {
		return 0, 0, false
	}
	return lo, hi, true
}

// Default is value used when reader submits empty input.
func (f *InputForm) Default() string { return f.def }

// Value returns current reader input.
func (f *InputForm) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Update sets reader input, refreshes submit control and hint. Returns
// whether input is valid.
func (f *InputForm) Update(value string) bool {
	f.mu.Lock()
	f.value = value
	ok := f.validLocked()
	show := strings.TrimSpace(value) != "" && !ok
	f.mu.Unlock()

	if f.surface == nil {
		return ok
	}
	f.surface.SetAttr(f.input, "value", value)
	if ok {
		f.surface.RemoveAttr(f.button, "disabled")
	} else {
		f.surface.SetAttr(f.button, "disabled", "disabled")
	}
	if show {
		f.surface.RemoveClass(f.hint, page.ClassInvisible)
	} else {
		f.surface.AddClass(f.hint, page.ClassInvisible)
	}
	return ok
}

// Valid reports whether current input could be submitted.
func (f *InputForm) Valid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validLocked()
}

func (f *InputForm) validLocked() bool {
	v := strings.TrimSpace(f.value)
	if v == "" {
		return f.def != "" && f.valid(f.def)
	}
	return f.valid(v)
}

// Submit completes form with current input or default when input is empty.
func (f *InputForm) Submit() error {
	f.mu.Lock()
	ok, v := f.validLocked(), strings.TrimSpace(f.value)
	f.mu.Unlock()
	if !ok {
		return ErrInvalidInput
	}
	if v == "" {
		v = f.def
	}
	f.complete(v)
	return nil
}

// Done is closed when form is submitted.
func (f *InputForm) Done() <-chan struct{} { return f.done }

// Result is converted submitted value, nil until form is done.
func (f *InputForm) Result() any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

func (f *InputForm) complete(value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.result = convertInput(f.Type, value)
	close(f.done)
}

func convertInput(t directive.InputType, value string) any {
	if t != directive.InputNumber {
		return value
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return value
	}
	if v == math.Trunc(v) && math.Abs(v) < math.MaxInt64 {
		return int(v)
	}
	return v
}

// mount builds form elements and appends them to the story container.
func (f *InputForm) mount(s Surface) {
	f.surface = s
	f.root = s.NewElement("div")
	s.AddClass(f.root, classReaderInput)

	label := s.NewElement("label")
	label.SetText(f.Prompt)
	s.AppendChild(f.root, label)

	f.input = s.NewElement("input")
	s.SetAttr(f.input, "type", string(f.Type))
	s.SetAttr(f.input, "name", f.Variable)
	s.SetAttr(f.input, "placeholder", f.def)
	s.AppendChild(f.root, f.input)

	f.hint = s.NewElement("span")
	f.hint.SetText("Please enter a valid value")
	s.AddClass(f.hint, classHint, page.ClassInvisible)
	s.AppendChild(f.root, f.hint)

	f.button = s.NewElement("button")
	f.button.SetText("Submit")
	s.AppendChild(f.root, f.button)
	s.OnClick(f.button, func() { _ = f.Submit() })

	s.Append(f.root)
	f.Update("")
}

// collect runs reader input flow: shows form, waits for submission, stores
// result into story variable and removes form.
func (p *Player) collect(ctx context.Context, d directive.Directive, ri directive.ReaderInput) error {
	form, err := newInputForm(d, ri)
	if err != nil {
		return err
	}
	if !p.form.CompareAndSwap(nil, form) {
		return fmt.Errorf("reader input %q is already open", p.form.Load().Variable)
	}
	defer p.form.Store(nil)

	form.mount(p.surface)
	if err := p.reveal(ctx, form.root, p.cfg.DefaultDelay); err != nil {
		return err
	}
	p.hosts.Input.Attach(form)

	select {
	case <-form.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	p.surface.ClearClick(form.button)
	if err := p.engine.SetVariable(form.Variable, form.Result()); err != nil {
		p.authoring(ctx, fmt.Errorf("unable to store input into %q: %w", form.Variable, err))
	} else {
		p.log.Debug("Reader input stored", zap.String("variable", form.Variable), zap.Any("value", form.Result()))
	}
	p.session.checkpoint()

	p.surface.AddClass(form.root, classFadeOut)
	if err := sleep(ctx, p.clock, p.cfg.FadeOut); err != nil {
		return err
	}
	p.surface.Remove(form.root)
	return nil
}
