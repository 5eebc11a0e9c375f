// Package state carries program environment through context.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ifplay/config"
)

type envKey struct{}

// LocalEnv is what every command needs: configuration, optional debug report
// and logger. Logger is a no-op until configuration is loaded.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	start         time.Time
	restoreStdLog func()
}

// ContextWithEnv returns ctx carrying fresh environment.
func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &LocalEnv{start: time.Now(), Log: zap.NewNop()})
}

// EnvFromContext panics if ctx was not created by ContextWithEnv.
func EnvFromContext(ctx context.Context) *LocalEnv {
	env, ok := ctx.Value(envKey{}).(*LocalEnv)
	if !ok {
		panic("program environment is missing from context")
	}
	return env
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// Debugging reports whether player should run in fast debug mode, either
// requested in configuration or implied by debug report.
func (e *LocalEnv) Debugging() bool {
	return e.Rpt != nil || (e.Cfg != nil && e.Cfg.Player.Debug)
}

// SavesPath returns location of save storage, empty when saves are kept in
// memory only.
func (e *LocalEnv) SavesPath() string {
	if e.Cfg == nil {
		return ""
	}
	return e.Cfg.Storage.Path
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

// RestoreStdLog flushes logger, after that log files are complete and could
// be put into debug report.
func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
		e.restoreStdLog = nil
	}
}
