package player

import (
	"sync"

	"go.uber.org/zap"

	"ifplay/directive"
)

type slot int

const (
	slotOnce slot = iota
	slotLoop
	slots
)

func (s slot) String() string {
	if s == slotLoop {
		return "loop"
	}
	return "once"
}

// mixer owns the two audio slots of a session: one-shot sound and looping
// background. New track replaces and releases previous one in its slot.
type mixer struct {
	audio Audio
	clock Clock
	log   *zap.Logger

	mu     sync.Mutex
	tracks [slots]Track
	srcs   [slots]string
	timers [slots]Timer
	gen    [slots]int
}

// schedule starts playback in slot after requested delay. Pending start in
// the same slot is cancelled.
func (m *mixer) schedule(s slot, a directive.Audio) {
	m.mu.Lock()
	if t := m.timers[s]; t != nil {
		t.Stop()
		m.timers[s] = nil
	}
	m.gen[s]++
	gen := m.gen[s]
	m.mu.Unlock()

	t := m.clock.AfterFunc(a.Delay, func() { m.start(s, a, gen) })

	m.mu.Lock()
	if m.gen[s] == gen {
		m.timers[s] = t
	}
	m.mu.Unlock()
}

func (m *mixer) start(s slot, a directive.Audio, gen int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen[s] != gen {
		return
	}
	m.timers[s] = nil
	if old := m.tracks[s]; old != nil {
		old.Stop()
		m.tracks[s], m.srcs[s] = nil, ""
	}
	t, err := m.audio.Load(a.Src)
	if err != nil {
		m.log.Warn("Unable to load audio", zap.Stringer("slot", s), zap.String("src", a.Src), zap.Error(err))
		return
	}
	t.SetVolume(a.Volume)
	t.SetLoop(s == slotLoop)
	if err := t.Play(); err != nil {
		m.log.Warn("Unable to play audio", zap.Stringer("slot", s), zap.String("src", a.Src), zap.Error(err))
	}
	m.tracks[s], m.srcs[s] = t, a.Src
}

func (m *mixer) pauseLoop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tracks[slotLoop]
	if t == nil {
		m.log.Warn("No audio loop to pause")
		return
	}
	t.Pause()
}

func (m *mixer) resumeLoop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tracks[slotLoop]
	switch {
	case t == nil:
		m.log.Warn("No audio loop to resume")
	case !t.Paused():
		m.log.Warn("Audio loop already playing")
	default:
		if err := t.Play(); err != nil {
			m.log.Warn("Unable to resume audio loop", zap.Error(err))
		}
	}
}

// stop cancels pending starts and releases all tracks.
func (m *mixer) stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for s := range slots {
		m.gen[s]++
		if t := m.timers[s]; t != nil {
			t.Stop()
			m.timers[s] = nil
		}
		if t := m.tracks[s]; t != nil {
			t.Stop()
			m.tracks[s], m.srcs[s] = nil, ""
		}
	}
}

// playing returns source and paused state for slot.
func (m *mixer) playing(s slot) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tracks[s] == nil {
		return "", false
	}
	return m.srcs[s], m.tracks[s].Paused()
}
