package page

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"go.uber.org/zap"
)

// Viewport describes scroll state of the page.
type Viewport struct {
	// Top is current scroll offset.
	Top int
	// Height is full scrollable height.
	Height int
	// Client is visible height.
	Client int
}

// MaxTop returns largest valid scroll offset.
func (v Viewport) MaxTop() int {
	return max(0, v.Height-v.Client)
}

// Viewport returns current scroll metrics.
func (p *Page) Viewport() Viewport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewport()
}

func (p *Page) viewport() Viewport {
	return Viewport{
		Top:    p.scrollTop,
		Height: p.cfg.HeaderHeight + max(p.grown, p.contentHeight()),
		Client: p.cfg.ViewportHeight,
	}
}

// ContentBottom returns document offset of the bottom edge of the last
// story element.
func (p *Page) ContentBottom() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.HeaderHeight + p.contentHeight()
}

// GrowTo stretches story container so its bottom is at least at offset y.
// Container never shrinks, removing content does not make scroll jump.
func (p *Page) GrowTo(y int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if h := y - p.cfg.HeaderHeight; h > p.grown {
		p.grown = h
		p.story.CreateAttr("style", "height: "+strconv.Itoa(h)+"px")
	}
}

// ScrollTo moves viewport clamping offset to valid range. It returns
// resulting offset.
func (p *Page) ScrollTo(y int) int {
	p.mu.Lock()
	defer p.unlock()
	v := p.viewport()
	y = min(max(0, y), v.MaxTop())
	if y != p.scrollTop {
		p.scrollTop = y
		p.emit(Event{Kind: EventKindScroll, Offset: y})
	}
	return y
}

func (p *Page) contentHeight() int {
	var h int
	for _, c := range p.story.ChildElements() {
		h += p.height(c)
	}
	return h
}

// height estimates rendered height of block element: wrapped text lines and
// images, followed by paragraph gap.
func (p *Page) height(el *etree.Element) int {
	var h, chars int
	flush := func() {
		if chars > 0 {
			lines := (chars + p.cfg.CharsPerLine - 1) / p.cfg.CharsPerLine
			h += lines * p.cfg.LineHeight
			chars = 0
		}
	}
	var measure func(*etree.Element)
	measure = func(e *etree.Element) {
		for _, t := range e.Child {
			switch v := t.(type) {
			case *etree.CharData:
				chars += textLength(strings.TrimSpace(v.Data))
			case *etree.Element:
				switch v.Tag {
				case "img":
					flush()
					h += p.imageHeight(v.SelectAttrValue("src", ""))
				case "br":
					flush()
				default:
					measure(v)
				}
			}
		}
	}
	if el.Tag == "img" {
		h = p.imageHeight(el.SelectAttrValue("src", ""))
	} else {
		measure(el)
		flush()
		if h == 0 {
			h = p.cfg.LineHeight
		}
	}
	return h + p.cfg.ParagraphGap
}

// imageHeight returns layout height of image scaled to content width. Remote
// or unreadable images get configured default.
func (p *Page) imageHeight(src string) int {
	if h, ok := p.images[src]; ok {
		return h
	}
	h := p.cfg.ImageHeight
	if w, ih, ok := p.imageSize(src); ok && w > 0 {
		h = ih
		if w > p.cfg.ContentWidth {
			h = ih * p.cfg.ContentWidth / w
		}
	}
	p.images[src] = h
	return h
}

func (p *Page) imageSize(src string) (int, int, bool) {
	if src == "" || strings.Contains(src, "://") || strings.HasPrefix(src, "data:") {
		return 0, 0, false
	}
	name := filepath.FromSlash(src)
	if !filepath.IsAbs(name) {
		name = filepath.Join(p.assets, name)
	}
	f, err := os.Open(name)
	if err != nil {
		p.log.Debug("Image is not available locally", zap.String("src", src), zap.Error(err))
		return 0, 0, false
	}
	defer f.Close()

	head := make([]byte, 262)
	n, _ := io.ReadFull(f, head)
	if !filetype.IsImage(head[:n]) {
		p.log.Debug("Not an image", zap.String("src", src))
		return 0, 0, false
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, 0, false
	}
	img, err := imaging.Decode(f)
	if err != nil {
		p.log.Debug("Unable to decode image", zap.String("src", src), zap.Error(err))
		return 0, 0, false
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), true
}
