// Package page keeps in-memory model of the story page: document tree,
// header, theme classes, background and simulated layout used to drive
// scrolling. Page is safe for concurrent use, observers are notified about
// every visible change.
package page

import (
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"ifplay/config"
)

// Well known class names.
const (
	ClassHide      = "hide"
	ClassInvisible = "invisible"
	ClassChoice    = "choice"
)

// EventKind enumerates page changes observers are told about.
// ENUM(reveal, remove, header, title, byline, theme, background, scroll)
type EventKind int

// Event describes single visible change of the page.
type Event struct {
	Kind    EventKind
	Element *etree.Element
	Text    string
	On      bool
	Offset  int
}

// Observer receives page events. It is called without page lock held and may
// query page freely.
type Observer func(Event)

// Page is the presentation surface player renders story into.
type Page struct {
	mu sync.Mutex

	cfg    *config.PageConfig
	assets string
	log    *zap.Logger

	doc    *etree.Document
	title  *etree.Element
	body   *etree.Element
	outer  *etree.Element
	header *etree.Element
	h1     *etree.Element
	byline *etree.Element
	story  *etree.Element

	bg        string
	grown     int
	scrollTop int
	handlers  map[*etree.Element]func()
	images    map[string]int
	observers []Observer
	pending   []Event
}

// New creates empty page. Relative image sources are looked up under assets
// directory to compute their layout height.
func New(cfg *config.PageConfig, assets string, log *zap.Logger) *Page {
	p := &Page{
		cfg:      cfg,
		assets:   assets,
		log:      log.Named("page"),
		handlers: make(map[*etree.Element]func()),
		images:   make(map[string]int),
	}

	p.doc = etree.NewDocument()
	p.doc.WriteSettings = etree.WriteSettings{
		CanonicalEndTags: true,
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}
	p.doc.CreateDirective("DOCTYPE html")
	html := p.doc.CreateElement("html")
	head := html.CreateElement("head")
	head.CreateElement("meta").CreateAttr("charset", "utf-8")
	p.title = head.CreateElement("title")

	p.body = html.CreateElement("body")
	p.outer = p.body.CreateElement("div")
	p.outer.CreateAttr("class", "outerContainer")

	p.header = p.outer.CreateElement("div")
	p.header.CreateAttr("class", "header")
	p.h1 = p.header.CreateElement("h1")
	p.h1.CreateAttr("id", "title")
	p.byline = p.header.CreateElement("h2")
	p.byline.CreateAttr("class", "byline")

	p.story = p.outer.CreateElement("div")
	p.story.CreateAttr("id", "story")
	p.story.CreateAttr("class", "container")
	return p
}

// Subscribe registers observer for page events.
func (p *Page) Subscribe(o Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, o)
}

// emit queues event, it is delivered by unlock.
func (p *Page) emit(e Event) {
	if len(p.observers) > 0 {
		p.pending = append(p.pending, e)
	}
}

// unlock releases page lock and delivers queued events.
func (p *Page) unlock() {
	events, observers := p.pending, slices.Clone(p.observers)
	p.pending = nil
	p.mu.Unlock()
	for _, e := range events {
		for _, o := range observers {
			o(e)
		}
	}
}

// SetTitle changes document title and story heading.
func (p *Page) SetTitle(title string) {
	p.mu.Lock()
	defer p.unlock()
	p.title.SetText(title)
	p.h1.SetText(title)
	p.emit(Event{Kind: EventKindTitle, Text: title})
}

// Title returns current document title.
func (p *Page) Title() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title.Text()
}

// SetByline changes text under the heading.
func (p *Page) SetByline(text string) {
	p.mu.Lock()
	defer p.unlock()
	p.byline.SetText(text)
	p.emit(Event{Kind: EventKindByline, Text: text})
}

// SetHeaderVisible toggles header region. Hidden header keeps its space.
func (p *Page) SetHeaderVisible(visible bool) {
	p.mu.Lock()
	defer p.unlock()
	if visible == !hasClass(p.header, ClassInvisible) {
		return
	}
	if visible {
		removeClass(p.header, ClassInvisible)
	} else {
		addClass(p.header, ClassInvisible)
	}
	p.emit(Event{Kind: EventKindHeader, On: visible})
}

// HeaderVisible reports header state.
func (p *Page) HeaderVisible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !hasClass(p.header, ClassInvisible)
}

// SetBackground sets background image of scroll container, empty src
// removes it.
func (p *Page) SetBackground(src string) {
	p.mu.Lock()
	defer p.unlock()
	p.bg = src
	if src == "" {
		p.outer.RemoveAttr("style")
	} else {
		p.outer.CreateAttr("style", fmt.Sprintf("background-image: url(%s)", src))
	}
	p.emit(Event{Kind: EventKindBackground, Text: src})
}

// Background returns current background image source.
func (p *Page) Background() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bg
}

// AddTheme adds classes to document body.
func (p *Page) AddTheme(names ...string) {
	p.mu.Lock()
	defer p.unlock()
	for _, n := range names {
		if !hasClass(p.body, n) {
			addClass(p.body, n)
			p.emit(Event{Kind: EventKindTheme, Text: n, On: true})
		}
	}
}

// RemoveTheme removes classes from document body.
func (p *Page) RemoveTheme(names ...string) {
	p.mu.Lock()
	defer p.unlock()
	for _, n := range names {
		if hasClass(p.body, n) {
			removeClass(p.body, n)
			p.emit(Event{Kind: EventKindTheme, Text: n, On: false})
		}
	}
}

// HasTheme reports whether body has class.
func (p *Page) HasTheme(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return hasClass(p.body, name)
}

// WriteTo writes page as HTML document.
func (p *Page) WriteTo(w io.Writer) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	doc := p.doc.Copy()
	doc.Indent(2)
	return doc.WriteTo(w)
}

// String returns page as HTML document.
func (p *Page) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	doc := p.doc.Copy()
	doc.Indent(2)
	s, err := doc.WriteToString()
	if err != nil {
		return err.Error()
	}
	return s
}
