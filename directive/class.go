package directive

import (
	"io"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// IsClassName reports whether s is a single CSS identifier and therefore
// safe to use as class name.
func IsClassName(s string) bool {
	l := css.NewLexer(parse.NewInputString(s))
	tt, _ := l.Next()
	if tt != css.IdentToken {
		return false
	}
	tt, _ = l.Next()
	return tt == css.ErrorToken && l.Err() == io.EOF
}
