package player

import (
	"context"

	"go.uber.org/zap"

	"ifplay/narrative"
	"ifplay/store"
)

// session keeps save point of the story and mirrors it to storage.
// Snapshot is refreshed after every choice and prompt, storage is written
// on every choice and on explicit save.
type session struct {
	engine  narrative.Engine
	storage Storage
	log     *zap.Logger

	snapshot string
	saved    bool
}

// checkpoint remembers current engine state as save point.
func (s *session) checkpoint() {
	blob, err := s.engine.SaveState()
	if err != nil {
		s.log.Warn("Unable to snapshot story state", zap.Error(err))
		return
	}
	s.snapshot = blob
}

// persist writes save point to storage. Failures are logged only.
func (s *session) persist(ctx context.Context) bool {
	if s.snapshot == "" {
		return false
	}
	if err := s.storage.Set(ctx, store.KeySaveState, s.snapshot); err != nil {
		s.log.Warn("Couldn't save state", zap.Error(err))
		return false
	}
	s.saved = true
	return true
}

// restore loads saved state into engine. On failure engine is reset and
// false is returned.
func (s *session) restore(ctx context.Context) bool {
	blob, found, err := s.storage.Get(ctx, store.KeySaveState)
	if err != nil || !found || blob == "" {
		if err != nil {
			s.log.Debug("Couldn't load save state", zap.Error(err))
		}
		return false
	}
	if err := s.engine.LoadState(blob); err != nil {
		s.log.Warn("Saved state is not usable", zap.Error(err))
		if err := s.engine.ResetState(); err != nil {
			s.log.Warn("Unable to reset story", zap.Error(err))
		}
		return false
	}
	s.saved = true
	return true
}

// theme returns saved theme, found is false when nothing was saved.
func (s *session) theme(ctx context.Context) (string, bool) {
	v, found, err := s.storage.Get(ctx, store.KeyTheme)
	if err != nil {
		s.log.Debug("Couldn't load saved theme", zap.Error(err))
		return "", false
	}
	return v, found
}

func (s *session) saveTheme(ctx context.Context, theme string) {
	if err := s.storage.Set(ctx, store.KeyTheme, theme); err != nil {
		s.log.Warn("Couldn't save theme", zap.Error(err))
	}
}
