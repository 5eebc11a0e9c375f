package player

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"ifplay/config"
)

// pacer computes delays before reveals. Every reveal leaves a reading term
// for the next one: text length based after paragraphs, fixed after images.
type pacer struct {
	cfg      *config.PlayerConfig
	debug    bool
	carry    time.Duration
	override *time.Duration
}

// delay returns pause before next reveal.
func (p *pacer) delay() time.Duration {
	if p.debug {
		return p.cfg.DefaultDelay
	}
	term := p.carry
	if p.override != nil {
		term = *p.override
	}
	return p.cfg.DefaultDelay + term
}

// override replaces reading term for the next reveal only.
func (p *pacer) setOverride(d time.Duration) {
	p.override = &d
}

// text accounts revealed text of given length.
func (p *pacer) text(length int) {
	p.override = nil
	p.carry = time.Duration(length/p.cfg.ReadingChunk) * p.cfg.ReadingTime
}

// image accounts revealed image.
func (p *pacer) image() {
	p.override = nil
	p.carry = p.cfg.ImageTime
}

// reset starts new cycle.
func (p *pacer) reset() {
	p.override = nil
	p.carry = 0
}

// scroller animates viewport. Animations are chained: next one starts after
// previous settles, so only one is active at a time.
type scroller struct {
	surface Surface
	clock   Clock
	frame   time.Duration
	log     *zap.Logger

	mu   sync.Mutex
	last chan struct{}
}

func scrollDuration(dist int) time.Duration {
	return 300*time.Millisecond + time.Duration(float64(300*time.Millisecond)*float64(dist)/100)
}

func ease(t float64) float64 {
	return 3*t*t - 2*t*t*t
}

// follow schedules animation towards offset computed when animation starts.
func (s *scroller) follow(ctx context.Context, target func() int) {
	s.mu.Lock()
	prev, done := s.last, make(chan struct{})
	s.last = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		if prev != nil {
			select {
			case <-prev:
			case <-ctx.Done():
				return
			}
		}
		s.animate(ctx, target())
	}()
}

func (s *scroller) animate(ctx context.Context, target int) {
	start := s.surface.Viewport().Top
	dist := target - start
	if dist <= 0 {
		return
	}
	duration := scrollDuration(dist)
	began := s.clock.Now()
	for {
		t := math.Min(1, float64(s.clock.Now().Sub(began))/float64(duration))
		l := ease(t)
		s.surface.ScrollTo(int(math.Round((1-l)*float64(start) + l*float64(target))))
		if t >= 1 {
			break
		}
		if err := sleep(ctx, s.clock, s.frame); err != nil {
			return
		}
	}
	s.log.Debug("Scrolled", zap.Int("from", start), zap.Int("to", target), zap.Duration("duration", duration))
}

// settle waits until all scheduled animations are finished.
func (s *scroller) settle(ctx context.Context) error {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	if last == nil {
		return nil
	}
	select {
	case <-last:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reveal hides element, waits and shows it with configured entrance
// animation, then grows container and scrolls new content into view.
func (p *Player) reveal(ctx context.Context, el *etree.Element, delay time.Duration) error {
	prev := p.Phase()
	p.setPhase(PhaseRevealing)
	defer p.setPhase(prev)

	p.surface.Hide(el)
	if err := sleep(ctx, p.clock, delay); err != nil {
		return err
	}
	if len(p.cfg.TextAnimate) > 0 {
		p.surface.Show(el, p.cfg.TextAnimate...)
	} else {
		p.surface.Show(el)
	}
	p.surface.GrowTo(p.surface.ContentBottom())
	top := p.cycleTop
	p.scroller.follow(ctx, func() int { return p.scrollTarget(top) })
	return nil
}

// scrollTarget aligns bottom of content with bottom of the viewport, but
// never scrolls content present at cycle start (above top) out of view.
func (p *Player) scrollTarget(top int) int {
	v := p.surface.Viewport()
	target := min(p.surface.ContentBottom()-v.Client, top)
	return min(max(target, 0), v.MaxTop())
}
