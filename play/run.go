// Package play implements program commands: interactive play session in the
// terminal and unattended rendering of a story transcript.
package play

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ifplay/console"
	"ifplay/page"
	"ifplay/player"
	"ifplay/state"
	"ifplay/store"
	"ifplay/story"
)

// session is everything single story playback needs.
type session struct {
	bundle *story.Bundle
	store  *store.Store
	page   *page.Page
}

func (s *session) close() error {
	return errors.Join(s.store.Close(), s.bundle.Close())
}

func open(ctx context.Context, src, storage string, log *zap.Logger) (*session, error) {
	if len(src) == 0 {
		return nil, errors.New("no story has been specified")
	}
	src, err := filepath.Abs(src)
	if err != nil {
		return nil, err
	}
	env := state.EnvFromContext(ctx)

	bundle, err := story.Load(ctx, src, log)
	if err != nil {
		return nil, fmt.Errorf("unable to load story: %w", err)
	}
	env.Rpt.Store(fmt.Sprintf("story/%s", filepath.Base(src)), src)

	st, err := store.Open(ctx, storage, log)
	if err != nil {
		bundle.Close()
		return nil, fmt.Errorf("unable to open save storage: %w", err)
	}
	if storage != "" {
		env.Rpt.Store(fmt.Sprintf("storage/%s", filepath.Base(storage)), storage)
	}
	return &session{
		bundle: bundle,
		store:  st,
		page:   page.New(&env.Cfg.Page, bundle.Assets, log),
	}, nil
}

// report stores final player and page state into debug report.
func (s *session) report(ctx context.Context, p *player.Player) {
	env := state.EnvFromContext(ctx)
	if env.Rpt == nil {
		return
	}
	env.Rpt.StoreData("player/state.txt", []byte(p.DumpState()))
	env.Rpt.StoreData("player/transcript.html", []byte(s.page.String()))
	// context may be already cancelled here
	if blob, found, err := s.store.Get(context.Background(), s.bundle.StoryID(), store.KeySaveState); err == nil && found {
		env.Rpt.StoreData("player/save-state.json", []byte(blob))
	}
}

// Run plays story interactively in the terminal.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("play")

	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many stories", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}
	s, err := open(ctx, cmd.Args().Get(0), env.SavesPath(), log)
	if err != nil {
		return err
	}
	defer func() {
		if er := s.close(); er != nil {
			log.Warn("Unable to release story resources", zap.Error(er))
		}
	}()

	term := console.New(os.Stdin, os.Stdout, s.page, s.bundle.Assets, log)
	p, err := player.New(s.bundle, player.Hosts{
		Surface:   s.page,
		Audio:     term,
		Notifier:  term,
		Dialogs:   term,
		Navigator: term,
		Input:     term,
		Storage:   s.store.Bucket(s.bundle.StoryID()),
	}, &env.Cfg.Player, env.Debugging(), log)
	if err != nil {
		return err
	}
	defer s.report(ctx, p)

	log.Info("Playing", zap.String("story", s.bundle.Name), zap.String("id", s.bundle.StoryID()))
	defer func(start time.Time) {
		log.Info("Session ended", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return serve(ctx, p, term)
}

// serve runs player and terminal together. Whichever ends first ends the
// other: terminal has nothing to do once story is over and player may be
// waiting on reader input when reader leaves.
func serve(ctx context.Context, p *player.Player, term *console.Terminal) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return p.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return term.Run(gctx, p)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Render plays story unattended taking scripted choices and writes resulting
// page as HTML.
func Render(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("render")

	script, err := parseChoices(cmd.String("choose"))
	if err != nil {
		return err
	}

	// saves of unattended runs are never kept
	s, err := open(ctx, cmd.Args().Get(0), "", log)
	if err != nil {
		return err
	}
	defer func() {
		if er := s.close(); er != nil {
			log.Warn("Unable to release story resources", zap.Error(er))
		}
	}()

	auto := console.NewAutopilot(s.page, script, log)
	p, err := player.New(s.bundle, player.Hosts{
		Surface: s.page,
		Storage: s.store.Bucket(s.bundle.StoryID()),
	}, &env.Cfg.Player, env.Debugging(), log, player.WithPhaseHook(auto.OnPhase))
	if err != nil {
		return err
	}
	auto.Drive(p)
	defer s.report(ctx, p)

	if err := p.Run(ctx); err != nil {
		return fmt.Errorf("unable to render story: %w", err)
	}

	dst, err := destination(cmd.Args().Get(1), s.page.Title(), s.bundle.Name, cmd.Bool("overwrite"))
	if err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("unable to create destination file '%s': %w", dst, err)
	}
	defer out.Close()
	if _, err := s.page.WriteTo(out); err != nil {
		return fmt.Errorf("unable to write transcript: %w", err)
	}
	log.Info("Transcript written", zap.String("file", dst), zap.Int("choices", auto.Taken()))
	return nil
}

func parseChoices(list string) ([]int, error) {
	var res []int
	for f := range strings.SplitSeq(list, ",") {
		if f = strings.TrimSpace(f); f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("bad choice number %q", f)
		}
		res = append(res, n)
	}
	return res, nil
}

// destination builds transcript file name. When dst is a directory (or
// empty) file is named after story title.
func destination(dst, title, name string, overwrite bool) (string, error) {
	if dst == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("unable to get working directory: %w", err)
		}
		dst = wd
	}
	if fi, err := os.Stat(dst); err == nil && fi.IsDir() {
		base := slug.Make(title)
		if base == "" {
			base = slug.Make(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
		}
		if base == "" {
			base = "story"
		}
		dst = filepath.Join(dst, base+".html")
	}
	dst, err := filepath.Abs(dst)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(dst); err == nil && !overwrite {
		return "", fmt.Errorf("destination '%s' already exists", dst)
	}
	return dst, nil
}
