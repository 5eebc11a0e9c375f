package player

import (
	"context"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"ifplay/page"
)

// Surface is presentation host story is rendered into.
type Surface interface {
	NewElement(tag string) *etree.Element
	SetContent(el *etree.Element, markup string) error
	SetAttr(el *etree.Element, key, value string)
	RemoveAttr(el *etree.Element, key string)
	AddClass(el *etree.Element, classes ...string)
	RemoveClass(el *etree.Element, classes ...string)
	Append(el *etree.Element)
	AppendChild(parent, child *etree.Element)
	Hide(el *etree.Element)
	Show(el *etree.Element, classes ...string)
	Remove(el *etree.Element)
	RemoveAll(selectors ...string) int
	TextLength(el *etree.Element) int
	OnClick(el *etree.Element, fn func())
	ClearClick(el *etree.Element)

	SetHeaderVisible(visible bool)
	SetTitle(title string)
	SetByline(text string)
	SetBackground(src string)
	AddTheme(names ...string)
	RemoveTheme(names ...string)
	HasTheme(name string) bool

	ContentBottom() int
	GrowTo(y int)
	Viewport() page.Viewport
	ScrollTo(y int) int
}

// Track is a loaded sound.
type Track interface {
	Play() error
	Pause()
	Paused() bool
	SetVolume(v float64)
	SetLoop(loop bool)
	// Stop halts playback and releases track.
	Stop()
}

// Audio loads sounds.
type Audio interface {
	Load(src string) (Track, error)
}

// Notification is a transient message shown by notifier host.
type Notification struct {
	Text        string
	Background  string
	Duration    time.Duration
	Avatar      string
	Gravity     string
	Position    string
	MinWidth    string
	StopOnFocus bool
	// Options carries free form configuration, when set other fields are
	// informational only.
	Options map[string]any
}

// Notifier shows popups and notifications.
type Notifier interface {
	Toast(ctx context.Context, n Notification) error
	Window(ctx context.Context, title string, options map[string]any) error
}

// Dialogs are modal interactions with reader or author.
type Dialogs interface {
	// Alert reports authoring problem and waits for acknowledgement.
	Alert(ctx context.Context, message string)
	// Prompt asks question, ok is false when reader cancels.
	Prompt(ctx context.Context, question, def string) (answer string, ok bool, err error)
}

// Navigator leaves or opens pages.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
	Open(ctx context.Context, url string) error
}

// InputHost routes reader typing into open input form. Attach is called
// once per form, host must eventually submit it.
type InputHost interface {
	Attach(form *InputForm)
}

// Storage is durable key/value persistence.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Hosts bundles collaborators player talks to. Only Surface is required,
// missing hosts are replaced with ones which log requests.
type Hosts struct {
	Surface   Surface
	Audio     Audio
	Notifier  Notifier
	Dialogs   Dialogs
	Navigator Navigator
	Input     InputHost
	Storage   Storage
}

func (h *Hosts) fill(log *zap.Logger) {
	l := loggingHost{log: log.Named("host")}
	if h.Audio == nil {
		h.Audio = l
	}
	if h.Notifier == nil {
		h.Notifier = l
	}
	if h.Dialogs == nil {
		h.Dialogs = l
	}
	if h.Navigator == nil {
		h.Navigator = l
	}
	if h.Input == nil {
		h.Input = l
	}
	if h.Storage == nil {
		h.Storage = newMemoryStorage()
	}
}

// loggingHost stands for absent hosts. Prompts get default answers and input
// forms are submitted with their defaults.
type loggingHost struct {
	log *zap.Logger
}

func (l loggingHost) Load(src string) (Track, error) {
	return &silentTrack{src: src, log: l.log}, nil
}

func (l loggingHost) Toast(_ context.Context, n Notification) error {
	l.log.Info("Toast", zap.String("text", n.Text), zap.Duration("duration", n.Duration))
	return nil
}

func (l loggingHost) Window(_ context.Context, title string, options map[string]any) error {
	l.log.Info("Window", zap.String("title", title), zap.Any("options", options))
	return nil
}

func (l loggingHost) Alert(_ context.Context, message string) {
	l.log.Warn("Script error", zap.String("message", message))
}

func (l loggingHost) Prompt(_ context.Context, question, def string) (string, bool, error) {
	l.log.Info("Prompt answered with default", zap.String("question", question), zap.String("default", def))
	return def, true, nil
}

func (l loggingHost) Navigate(_ context.Context, url string) error {
	l.log.Info("Navigate", zap.String("url", url))
	return nil
}

func (l loggingHost) Open(_ context.Context, url string) error {
	l.log.Info("Open", zap.String("url", url))
	return nil
}

func (l loggingHost) Attach(form *InputForm) {
	if err := form.Submit(); err != nil {
		l.log.Warn("Input form cannot be submitted with default value, forcing", zap.Error(err))
		form.complete(form.def)
	}
}

type silentTrack struct {
	src    string
	log    *zap.Logger
	paused bool
}

func (t *silentTrack) Play() error {
	t.paused = false
	t.log.Debug("Audio play", zap.String("src", t.src))
	return nil
}

func (t *silentTrack) Pause()            { t.paused = true }
func (t *silentTrack) Paused() bool      { return t.paused }
func (t *silentTrack) SetVolume(float64) {}
func (t *silentTrack) SetLoop(bool)      {}
func (t *silentTrack) Stop()             { t.paused = true }

type memoryStorage struct {
	data map[string]string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{data: make(map[string]string)}
}

func (m *memoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryStorage) Set(_ context.Context, key, value string) error {
	m.data[key] = value
	return nil
}
