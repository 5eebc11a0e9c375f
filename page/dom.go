package page

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"
)

// NewElement creates detached element.
func (p *Page) NewElement(tag string) *etree.Element {
	return etree.NewElement(tag)
}

// SetContent replaces element children with parsed HTML markup.
func (p *Page) SetContent(el *etree.Element, markup string) error {
	nodes, err := html.ParseFragment(strings.NewReader(markup), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return fmt.Errorf("unable to parse content: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range slices.Clone(el.Child) {
		el.RemoveChild(t)
	}
	for _, n := range nodes {
		convert(el, n)
	}
	return nil
}

// convert appends html node to etree element.
func convert(parent *etree.Element, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		parent.CreateText(n.Data)
	case html.ElementNode:
		el := parent.CreateElement(n.Data)
		for _, a := range n.Attr {
			el.CreateAttr(a.Key, a.Val)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			convert(el, c)
		}
	}
}

// SetAttr sets element attribute.
func (p *Page) SetAttr(el *etree.Element, key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el.CreateAttr(key, value)
}

// RemoveAttr removes element attribute.
func (p *Page) RemoveAttr(el *etree.Element, key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el.RemoveAttr(key)
}

// AddClass adds classes to element.
func (p *Page) AddClass(el *etree.Element, classes ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	addClass(el, classes...)
}

// RemoveClass removes classes from element.
func (p *Page) RemoveClass(el *etree.Element, classes ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	removeClass(el, classes...)
}

// HasClass reports whether element has class.
func (p *Page) HasClass(el *etree.Element, class string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return hasClass(el, class)
}

// Append adds element at the end of story container.
func (p *Page) Append(el *etree.Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.story.AddChild(el)
}

// AppendChild adds child to parent element.
func (p *Page) AppendChild(parent, child *etree.Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	parent.AddChild(child)
}

// Hide marks element hidden before it is revealed.
func (p *Page) Hide(el *etree.Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	addClass(el, ClassHide)
}

// Show reveals element replacing hide class with classes given, typically
// entrance animation.
func (p *Page) Show(el *etree.Element, classes ...string) {
	p.mu.Lock()
	defer p.unlock()
	removeClass(el, ClassHide)
	addClass(el, classes...)
	p.emit(Event{Kind: EventKindReveal, Element: el, Text: textOf(el)})
}

// Remove detaches element from page, dropping its click handlers.
func (p *Page) Remove(el *etree.Element) {
	p.mu.Lock()
	defer p.unlock()
	p.remove(el)
}

func (p *Page) remove(el *etree.Element) {
	if parent := el.Parent(); parent != nil {
		parent.RemoveChild(el)
	}
	walk(el, func(e *etree.Element) { delete(p.handlers, e) })
	p.emit(Event{Kind: EventKindRemove, Element: el})
}

// RemoveAll removes story content matching any of selectors: "tag",
// ".class" or "#id".
func (p *Page) RemoveAll(selectors ...string) int {
	p.mu.Lock()
	defer p.unlock()
	found := p.find(selectors...)
	for _, el := range found {
		p.remove(el)
	}
	return len(found)
}

// Find returns story content elements matching any of selectors in
// document order. Elements nested in matched ones are not reported.
func (p *Page) Find(selectors ...string) []*etree.Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.find(selectors...)
}

// find does not descend into matched elements.
func (p *Page) find(selectors ...string) []*etree.Element {
	var res []*etree.Element
	var search func(*etree.Element)
	search = func(el *etree.Element) {
		for _, c := range el.ChildElements() {
			if slices.ContainsFunc(selectors, func(s string) bool { return matches(c, s) }) {
				res = append(res, c)
				continue
			}
			search(c)
		}
	}
	search(p.story)
	return res
}

func matches(el *etree.Element, selector string) bool {
	switch {
	case strings.HasPrefix(selector, "."):
		return hasClass(el, selector[1:])
	case strings.HasPrefix(selector, "#"):
		return el.SelectAttrValue("id", "") == selector[1:]
	default:
		return el.Tag == selector
	}
}

// Content returns elements directly under story container.
func (p *Page) Content() []*etree.Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.story.ChildElements()
}

// Text returns text content of element.
func (p *Page) Text(el *etree.Element) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return textOf(el)
}

// TextLength returns number of characters of element text content after
// canonical composition, so combining sequences count once.
func (p *Page) TextLength(el *etree.Element) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return textLength(textOf(el))
}

func textLength(s string) int {
	return utf8.RuneCountInString(norm.NFC.String(s))
}

// OnClick installs click handler, only one handler per element.
func (p *Page) OnClick(el *etree.Element, fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[el] = fn
}

// ClearClick removes element click handler.
func (p *Page) ClearClick(el *etree.Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.handlers, el)
}

// Click invokes element click handler in caller goroutine. It returns false
// when element has no handler.
func (p *Page) Click(el *etree.Element) bool {
	p.mu.Lock()
	fn := p.handlers[el]
	p.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Clickable returns story elements with click handlers in document order.
func (p *Page) Clickable() []*etree.Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	var res []*etree.Element
	walk(p.story, func(e *etree.Element) {
		if _, ok := p.handlers[e]; ok {
			res = append(res, e)
		}
	})
	return res
}

func walk(el *etree.Element, fn func(*etree.Element)) {
	fn(el)
	for _, c := range el.ChildElements() {
		walk(c, fn)
	}
}

func textOf(el *etree.Element) string {
	var b strings.Builder
	var collect func(*etree.Element)
	collect = func(e *etree.Element) {
		for _, t := range e.Child {
			switch v := t.(type) {
			case *etree.CharData:
				b.WriteString(v.Data)
			case *etree.Element:
				collect(v)
			}
		}
	}
	collect(el)
	return b.String()
}

func classes(el *etree.Element) []string {
	return strings.Fields(el.SelectAttrValue("class", ""))
}

func hasClass(el *etree.Element, class string) bool {
	return slices.Contains(classes(el), class)
}

func addClass(el *etree.Element, add ...string) {
	cur := classes(el)
	for _, c := range add {
		if c != "" && !slices.Contains(cur, c) {
			cur = append(cur, c)
		}
	}
	if len(cur) > 0 {
		el.CreateAttr("class", strings.Join(cur, " "))
	}
}

func removeClass(el *etree.Element, remove ...string) {
	cur := slices.DeleteFunc(classes(el), func(c string) bool {
		return slices.Contains(remove, c)
	})
	if len(cur) == 0 {
		el.RemoveAttr("class")
		return
	}
	el.CreateAttr("class", strings.Join(cur, " "))
}
