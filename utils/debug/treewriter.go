// Package debug formats internal state as indented human readable trees.
package debug

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/maruel/natural"
)

// TreeWriter accumulates indented lines.
type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{w: &strings.Builder{}}
}

func (tw *TreeWriter) String() string {
	return tw.w.String()
}

func (tw *TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

// Line writes formatted line at depth.
func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// Text writes "label: value" with value quoted, empty values are left bare.
func (tw *TreeWriter) Text(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(quote(value))
	tw.w.WriteByte('\n')
}

// Values writes label followed by one line per map entry, keys in natural
// order so "var2" goes before "var10".
func (tw *TreeWriter) Values(depth int, label string, values map[string]any) {
	tw.Line(depth, "%s (%d)", label, len(values))
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Sort(natural.StringSlice(keys))
	for _, k := range keys {
		switch v := values[k].(type) {
		case string:
			tw.Text(depth+1, k, v)
		default:
			tw.Line(depth+1, "%s: %v", k, v)
		}
	}
}

func quote(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
