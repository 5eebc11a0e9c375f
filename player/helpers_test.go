package player

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"ifplay/config"
	"ifplay/narrative"
	"ifplay/page"
)

func testLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
}

func testPlayerConfig() *config.PlayerConfig {
	return &config.PlayerConfig{
		DefaultDelay:   200 * time.Millisecond,
		ReadingChunk:   15,
		ReadingTime:    time.Second,
		ImageTime:      time.Second,
		ChoiceSettle:   300 * time.Millisecond,
		FadeOut:        400 * time.Millisecond,
		ScrollFrame:    16 * time.Millisecond,
		AdditionThemes: []string{"dark"},
		BylinePrefix:   "by ",
		TagOnly:        "TAG_ONLY",
	}
}

// tall viewport keeps scroller idle so only reveal pacing reaches the clock.
func testPageConfig() *config.PageConfig {
	return &config.PageConfig{
		ViewportHeight: 1 << 20,
		ContentWidth:   640,
		LineHeight:     24,
		CharsPerLine:   70,
		ParagraphGap:   16,
		HeaderHeight:   100,
		ImageHeight:    300,
	}
}

// fakeClock advances virtual time on every wait and fires timers at once.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	now := c.now
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

func (c *fakeClock) AfterFunc(_ time.Duration, f func()) Timer {
	f()
	return stoppedTimer{}
}

func (c *fakeClock) waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

type stoppedTimer struct{}

func (stoppedTimer) Stop() bool { return false }

// fakeEngine plays scripted turns: each turn is a list of units followed by
// choices. Choosing any option moves to the next turn.
type fakeEngine struct {
	mu        sync.Mutex
	turns     []turn
	restarted []turn
	global    []string
	failOn    string

	turn, pos int
	chosen    []int
	resets    int
	vars      map[string]any
}

type turn struct {
	units   []narrative.Unit
	choices []string
}

func unit(text string, tags ...string) narrative.Unit {
	return narrative.Unit{Text: text + "\n", Tags: tags}
}

func newFakeEngine(turns ...turn) *fakeEngine {
	return &fakeEngine{turns: turns, vars: map[string]any{}}
}

func (e *fakeEngine) current() turn {
	if e.turn >= len(e.turns) {
		return turn{}
	}
	return e.turns[e.turn]
}

func (e *fakeEngine) CanContinue() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pos < len(e.current().units)
}

func (e *fakeEngine) Continue() (narrative.Unit, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	u := e.current().units[e.pos]
	e.pos++
	if e.failOn != "" && strings.TrimSpace(u.Text) == e.failOn {
		return narrative.Unit{}, errors.New("engine exploded")
	}
	return u, nil
}

func (e *fakeEngine) CurrentChoices() []narrative.Choice {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pos < len(e.current().units) {
		return nil
	}
	var res []narrative.Choice
	for i, c := range e.current().choices {
		res = append(res, narrative.Choice{Index: i, Text: c})
	}
	return res
}

func (e *fakeEngine) ChooseChoiceIndex(i int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= len(e.current().choices) {
		return fmt.Errorf("choice %d out of range", i)
	}
	e.chosen = append(e.chosen, i)
	e.turn, e.pos = e.turn+1, 0
	return nil
}

func (e *fakeEngine) ResetState() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resets++
	if e.restarted != nil {
		e.turns, e.restarted = e.restarted, nil
	}
	e.turn, e.pos = 0, 0
	return nil
}

func (e *fakeEngine) SetVariable(name string, v any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if name == "undeclared" {
		return fmt.Errorf("variable %q is not declared", name)
	}
	e.vars[name] = v
	return nil
}

func (e *fakeEngine) SaveState() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fmt.Sprintf("%d/%d", e.turn, e.pos), nil
}

func (e *fakeEngine) LoadState(s string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var t, p int
	if _, err := fmt.Sscanf(s, "%d/%d", &t, &p); err != nil {
		return err
	}
	e.turn, e.pos = t, p
	return nil
}

func (e *fakeEngine) GlobalTags() []string { return e.global }

func (e *fakeEngine) Variables() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := make(map[string]any, len(e.vars))
	for k, v := range e.vars {
		res[k] = v
	}
	return res
}

func (e *fakeEngine) choices() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.chosen...)
}

// recordingHost captures host requests in order, shared with page events.
type recordingHost struct {
	mu      sync.Mutex
	log     []string
	answer  string
	cancel  bool
	input   func(f *InputForm)
	navFail bool
}

func (h *recordingHost) add(format string, a ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.log = append(h.log, fmt.Sprintf(format, a...))
}

func (h *recordingHost) entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.log...)
}

func (h *recordingHost) Toast(_ context.Context, n Notification) error {
	h.add("toast:%s:%s", n.Text, n.Background)
	return nil
}

func (h *recordingHost) Window(_ context.Context, title string, _ map[string]any) error {
	h.add("window:%s", title)
	return nil
}

func (h *recordingHost) Alert(_ context.Context, message string) {
	h.add("alert:%s", message)
}

func (h *recordingHost) Prompt(_ context.Context, question, def string) (string, bool, error) {
	h.add("prompt:%s", question)
	return h.answer, !h.cancel, nil
}

func (h *recordingHost) Navigate(_ context.Context, url string) error {
	h.add("navigate:%s", url)
	if h.navFail {
		return errors.New("blocked")
	}
	return nil
}

func (h *recordingHost) Open(_ context.Context, url string) error {
	h.add("open:%s", url)
	return nil
}

func (h *recordingHost) Attach(f *InputForm) {
	h.add("input:%s", f.Variable)
	go h.input(f)
}

// harness runs player on a page in background.
type harness struct {
	t      *testing.T
	page   *page.Page
	engine *fakeEngine
	clock  *fakeClock
	host   *recordingHost
	store  *memoryStorage
	player *Player

	mu     sync.Mutex
	phases []Phase
	await  chan struct{}
	done   chan error
	cancel context.CancelFunc
}

type harnessOption func(*harness, *config.PlayerConfig, *bool)

func debugMode() harnessOption {
	return func(_ *harness, _ *config.PlayerConfig, debug *bool) { *debug = true }
}

func withStorage(s *memoryStorage) harnessOption {
	return func(h *harness, _ *config.PlayerConfig, _ *bool) { h.store = s }
}

func withPlayerConfig(fn func(*config.PlayerConfig)) harnessOption {
	return func(_ *harness, cfg *config.PlayerConfig, _ *bool) { fn(cfg) }
}

func newHarness(t *testing.T, e *fakeEngine, opts ...harnessOption) *harness {
	t.Helper()
	log := testLogger(t)
	h := &harness{
		t:      t,
		page:   page.New(testPageConfig(), "", log),
		engine: e,
		clock:  newFakeClock(),
		host:   &recordingHost{input: func(f *InputForm) { _ = f.Submit() }},
		store:  newMemoryStorage(),
		await:  make(chan struct{}, 64),
		done:   make(chan error, 1),
	}
	cfg, debug := testPlayerConfig(), false
	for _, o := range opts {
		o(h, cfg, &debug)
	}
	h.page.Subscribe(func(ev page.Event) {
		switch ev.Kind {
		case page.EventKindReveal:
			h.host.add("reveal:%s", collapse(ev.Text))
		case page.EventKindHeader:
			h.host.add("header:%t", ev.On)
		}
	})
	p, err := New(e, Hosts{
		Surface:   h.page,
		Notifier:  h.host,
		Dialogs:   h.host,
		Navigator: h.host,
		Input:     h.host,
		Storage:   h.store,
	}, cfg, debug, log, WithClock(h.clock), WithPhaseHook(func(ph Phase) {
		h.mu.Lock()
		h.phases = append(h.phases, ph)
		h.mu.Unlock()
		if ph == PhaseAwaitingChoice {
			h.await <- struct{}{}
		}
	}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h.player = p
	return h
}

func (h *harness) start() *harness {
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- h.player.Run(ctx) }()
	h.t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

// waitAwaiting blocks until playback loop waits for reader.
func (h *harness) waitAwaiting() {
	h.t.Helper()
	select {
	case <-h.await:
	case err := <-h.done:
		h.done <- err
		h.t.Fatalf("player stopped before awaiting choice: %v", err)
	case <-time.After(5 * time.Second):
		h.t.Fatal("timeout waiting for player")
	}
}

// wait returns Run result.
func (h *harness) wait() error {
	h.t.Helper()
	select {
	case err := <-h.done:
		h.done <- err
		return err
	case <-time.After(5 * time.Second):
		h.t.Fatal("timeout waiting for player to stop")
		return nil
	}
}

func (h *harness) sawPhase(ph Phase) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, p := range h.phases {
		if p == ph {
			return true
		}
	}
	return false
}

// texts returns text of top level story elements.
func (h *harness) texts() []string {
	var res []string
	for _, el := range h.page.Content() {
		res = append(res, collapse(h.page.Text(el)))
	}
	return res
}

// clickChoice clicks anchor of n-th rendered choice.
func (h *harness) clickChoice(n int) bool {
	h.t.Helper()
	choices := h.page.Find("." + page.ClassChoice)
	if n >= len(choices) {
		h.t.Fatalf("choice %d is not rendered, have %d", n, len(choices))
	}
	return h.page.Click(choices[n].SelectElement("a"))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
