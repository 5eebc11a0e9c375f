// Package console hosts story playback in a text terminal: it prints what
// is revealed on the page and routes typed lines to prompts, input forms,
// choices and player commands.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/term"
	"golang.org/x/text/width"

	"ifplay/config"
	"ifplay/page"
	"ifplay/player"
)

// Controller is the part of player terminal drives.
type Controller interface {
	Save()
	Reload()
	Rewind()
	ToggleTheme()
	Quit()
	Inspect(ctx context.Context) (string, error)
}

const defaultWidth = 80

// Terminal implements player hosts on top of line oriented input and output.
type Terminal struct {
	in     io.Reader
	out    io.Writer
	page   *page.Page
	assets string
	log    *zap.Logger
	width  int
	color  bool

	mu      sync.Mutex
	prompt  chan string
	form    *player.InputForm
	choices int
}

// New creates terminal printing page changes to out. Output is wrapped to
// terminal width and coloured when out is a terminal.
func New(in io.Reader, out io.Writer, pg *page.Page, assets string, log *zap.Logger) *Terminal {
	t := &Terminal{
		in:     in,
		out:    out,
		page:   pg,
		assets: assets,
		log:    log.Named("console"),
		width:  defaultWidth,
	}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 20 {
			t.width = w
		}
		t.color = config.EnableColorOutput(f)
	}
	pg.Subscribe(t.observe)
	return t
}

func (t *Terminal) printf(format string, a ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, a...)
}

func (t *Terminal) paint(code, s string) string {
	if !t.color {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

func (t *Terminal) observe(ev page.Event) {
	switch ev.Kind {
	case page.EventKindReveal:
		t.reveal(ev.Element, ev.Text)
	case page.EventKindTitle:
		t.printf("\n%s\n\n", t.paint("1", strings.ToUpper(ev.Text)))
	case page.EventKindByline:
		t.printf("%s\n\n", t.paint("3", ev.Text))
	case page.EventKindRemove:
		if t.page.HasClass(ev.Element, page.ClassChoice) {
			t.mu.Lock()
			t.choices = 0
			t.mu.Unlock()
		}
	case page.EventKindBackground:
		if ev.Text != "" {
			t.log.Debug("Background", zap.String("src", ev.Text), zap.String("type", t.sniff(ev.Text)))
		}
	case page.EventKindTheme, page.EventKindHeader:
		t.log.Debug("Page changed", zap.Stringer("kind", ev.Kind), zap.String("value", ev.Text), zap.Bool("on", ev.On))
	}
}

func (t *Terminal) reveal(el *etree.Element, text string) {
	switch {
	case el == nil:
	case el.Tag == "img":
		src := el.SelectAttrValue("src", "")
		t.printf("%s\n\n", t.paint("2", fmt.Sprintf("[image %s, %s]", src, t.sniff(src))))
	case t.page.HasClass(el, page.ClassChoice):
		t.mu.Lock()
		t.choices++
		n := t.choices
		t.mu.Unlock()
		t.printf("  %s %s\n", t.paint("36", fmt.Sprintf("[%d]", n)), collapse(text))
	case t.page.HasClass(el, "reader-input"):
	default:
		t.printf("%s\n\n", wrap(collapse(text), t.width))
	}
}

// Run reads lines until input ends, context is done or reader quits.
func (t *Terminal) Run(ctx context.Context, ctl Controller) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(t.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				ctl.Quit()
				return nil
			}
			if t.route(ctx, ctl, strings.TrimSpace(line)) {
				return nil
			}
		}
	}
}

// route hands line to whoever has input focus: open prompt first, then input
// form, then commands and choices. Quitting works whoever has focus. Returns
// true when reader quits.
func (t *Terminal) route(ctx context.Context, ctl Controller, line string) bool {
	if isQuit(line) {
		ctl.Quit()
		return true
	}

	t.mu.Lock()
	prompt, form := t.prompt, t.form
	t.mu.Unlock()

	if prompt != nil {
		prompt <- line
		return false
	}
	if strings.HasPrefix(line, ":") {
		return t.command(ctx, ctl, line)
	}
	if form != nil {
		if !form.Update(line) {
			t.printf("%s\n", t.paint("31", "Please enter a valid value"))
			return false
		}
		if err := form.Submit(); err != nil {
			t.log.Debug("Input not accepted", zap.Error(err))
			return false
		}
		t.mu.Lock()
		t.form = nil
		t.mu.Unlock()
		return false
	}
	if n, err := strconv.Atoi(line); err == nil {
		t.choose(n)
		return false
	}
	if line != "" {
		t.printf("Type choice number or :help\n")
	}
	return false
}

func (t *Terminal) command(ctx context.Context, ctl Controller, line string) bool {
	switch line {
	case ":save":
		ctl.Save()
	case ":reload":
		ctl.Reload()
	case ":rewind":
		ctl.Rewind()
	case ":theme":
		ctl.ToggleTheme()
	case ":state":
		dump, err := ctl.Inspect(ctx)
		if err != nil {
			t.log.Warn("Unable to inspect player", zap.Error(err))
			return false
		}
		t.printf("%s", dump)
	default:
		t.printf(":save :reload :rewind :theme :state :quit\n")
	}
	return false
}

func isQuit(line string) bool {
	return line == ":quit" || line == ":q"
}

// choose clicks n-th choice counting from 1.
func (t *Terminal) choose(n int) {
	choices := t.page.Find("." + page.ClassChoice)
	if n < 1 || n > len(choices) {
		t.printf("No such choice %d\n", n)
		return
	}
	if a := choices[n-1].SelectElement("a"); a == nil || !t.page.Click(a) {
		t.log.Debug("Choice is not clickable", zap.Int("choice", n))
	}
}

// Alert implements player.Dialogs.
func (t *Terminal) Alert(_ context.Context, message string) {
	t.printf("%s\n", t.paint("31", "! "+message))
}

// Prompt implements player.Dialogs, empty answer accepts default and
// ":cancel" cancels.
func (t *Terminal) Prompt(ctx context.Context, question, def string) (string, bool, error) {
	ch := make(chan string, 1)
	t.mu.Lock()
	t.prompt = ch
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.prompt = nil
		t.mu.Unlock()
	}()

	if def != "" {
		t.printf("%s [%s] ", question, def)
	} else {
		t.printf("%s ", question)
	}
	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case answer := <-ch:
		switch answer {
		case ":cancel":
			return def, false, nil
		case "":
			return def, true, nil
		}
		return answer, true, nil
	}
}

// Attach implements player.InputHost.
func (t *Terminal) Attach(form *player.InputForm) {
	t.mu.Lock()
	t.form = form
	t.mu.Unlock()
	if def := form.Default(); def != "" {
		t.printf("%s [%s] > ", form.Prompt, def)
	} else {
		t.printf("%s > ", form.Prompt)
	}
}

// Toast implements player.Notifier.
func (t *Terminal) Toast(_ context.Context, n player.Notification) error {
	who := ""
	if n.Avatar != "" {
		who = "(" + n.Avatar + ") "
	}
	t.printf("%s\n", t.paint("33", "» "+who+n.Text))
	return nil
}

// Window implements player.Notifier.
func (t *Terminal) Window(_ context.Context, title string, options map[string]any) error {
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	t.printf("%s\n", t.paint("35", fmt.Sprintf("[window %q %s]", title, strings.Join(keys, ","))))
	return nil
}

// Navigate implements player.Navigator.
func (t *Terminal) Navigate(_ context.Context, url string) error {
	t.printf("Story continues at %s\n", url)
	return nil
}

// Open implements player.Navigator.
func (t *Terminal) Open(_ context.Context, url string) error {
	t.printf("See %s\n", url)
	return nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// wrap breaks text so lines fit limit terminal cells. Lines break on spaces
// and between East Asian wide characters, closing punctuation stays with
// the character before it.
func wrap(s string, limit int) string {
	var b strings.Builder
	n := 0
	for i, field := range strings.Fields(s) {
		for j, seg := range segments(field) {
			w := cells(seg)
			gap := 0
			if i > 0 && j == 0 {
				gap = 1
			}
			if n > 0 && n+gap+w > limit {
				b.WriteByte('\n')
				n, gap = 0, 0
			}
			if gap > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(seg)
			n += gap + w
		}
	}
	return b.String()
}

// segments splits word into pieces line could break between: every wide
// character is a piece of its own, runs of narrow characters are kept.
func segments(word string) []string {
	var res []string
	start := 0
	for i, r := range word {
		if !wide(r) {
			continue
		}
		if i > start {
			res = append(res, word[start:i])
		}
		end := i + utf8.RuneLen(r)
		if strings.ContainsRune(closingPunct, r) && len(res) > 0 {
			res[len(res)-1] += word[i:end]
		} else {
			res = append(res, word[i:end])
		}
		start = end
	}
	if start < len(word) {
		res = append(res, word[start:])
	}
	return res
}

// closingPunct may not start a line.
const closingPunct = "，。、；：！？）」』】》〉”’"

func wide(r rune) bool {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return true
	}
	return false
}

// cells returns number of terminal cells s occupies.
func cells(s string) int {
	n := 0
	for _, r := range s {
		if wide(r) {
			n += 2
		} else {
			n++
		}
	}
	return n
}
