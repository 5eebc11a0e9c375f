package directive

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultToastTimeout is used when toast does not specify its own.
const DefaultToastTimeout = 4 * time.Second

// ArgumentError reports malformed or insufficient directive arguments. Such
// errors are authoring mistakes and do not stop playback.
type ArgumentError struct {
	Kind   Kind
	Name   string
	Value  string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("bad arguments for %s directive (%q): %s", e.Name, e.Value, e.Reason)
}

func (d Directive) argError(format string, a ...any) error {
	return &ArgumentError{Kind: d.Kind, Name: d.Name, Value: d.Value, Reason: fmt.Sprintf(format, a...)}
}

// Audio describes sound request: "src[,delayMs[,volume]]".
type Audio struct {
	Src    string
	Delay  time.Duration
	Volume float64
}

// Ask describes prompt dialog which stores answer in story variable.
type Ask struct {
	Variable string
	Question string
	Default  string
}

// Window describes auxiliary browser window to be opened.
type Window struct {
	Title   string
	Options map[string]any
}

// Toast describes transient notification.
type Toast struct {
	Text    string
	Color   string
	Timeout time.Duration
	Avatar  string
}

// InputType selects reader input validation and conversion.
type InputType string

const (
	InputText   InputType = "text"
	InputNumber InputType = "number"
)

// ReaderInput describes inline input form bound to story variable.
type ReaderInput struct {
	Prompt   string
	Variable string
	Default  string
	Pattern  string
	Type     InputType
}

// Audio decodes AUDIO and AUDIOLOOP values.
func (d Directive) Audio() (Audio, error) {
	parts := strings.Split(d.Value, ",")
	a := Audio{Src: strings.TrimSpace(parts[0]), Volume: 1}
	if a.Src == "" {
		return a, d.argError("missing audio source")
	}
	if len(parts) > 1 {
		if s := strings.TrimSpace(parts[1]); s != "" {
			ms, err := strconv.ParseFloat(s, 64)
			if err != nil || ms < 0 {
				return a, d.argError("bad delay %q", s)
			}
			a.Delay = time.Duration(ms * float64(time.Millisecond))
		}
	}
	if len(parts) > 2 {
		if s := strings.TrimSpace(parts[2]); s != "" {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil || v < 0 || v > 1 {
				return a, d.argError("bad volume %q", s)
			}
			a.Volume = v
		}
	}
	return a, nil
}

// Source decodes value naming a resource: IMAGE, LINK, LINKOPEN and
// BACKGROUND.
func (d Directive) Source() (string, error) {
	if d.Value == "" {
		return "", d.argError("missing source")
	}
	return d.Value, nil
}

// Theme decodes SETTHEME value.
func (d Directive) Theme() (string, error) {
	if !IsClassName(d.Value) {
		return "", d.argError("%q is not a valid theme name", d.Value)
	}
	return d.Value, nil
}

// Tag decodes HTML_TAG value.
func (d Directive) Tag() (string, error) {
	name := strings.ToLower(d.Value)
	if name == "" || strings.Trim(name, "abcdefghijklmnopqrstuvwxyz0123456789") != "" || name[0] < 'a' {
		return "", d.argError("%q is not a valid element name", d.Value)
	}
	return name, nil
}

// Delay decodes DELAY value in milliseconds.
func (d Directive) Delay() (time.Duration, error) {
	ms, err := strconv.ParseFloat(d.Value, 64)
	if err != nil || ms < 0 || math.IsInf(ms, 0) {
		return 0, d.argError("expected non-negative number of milliseconds")
	}
	return time.Duration(ms * float64(time.Millisecond)), nil
}

// Header decodes HEADER value: true for "show", false for "hidden".
func (d Directive) Header() (bool, error) {
	switch strings.ToLower(d.Value) {
	case "show":
		return true, nil
	case "hidden":
		return false, nil
	}
	return false, d.argError("expected show or hidden")
}

// Classes decodes comma separated CLASS value.
func (d Directive) Classes() ([]string, error) {
	var res []string
	for tok := range strings.SplitSeq(d.Value, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if !IsClassName(tok) {
			return nil, d.argError("%q is not a valid class name", tok)
		}
		res = append(res, tok)
	}
	if len(res) == 0 {
		return nil, d.argError("no class names")
	}
	return res, nil
}

// AnimationBase is added to every element animated with ANIMATE.
const AnimationBase = "animate__animated"

// Animations decodes ANIMATE value into list of classes starting with
// AnimationBase and followed by derived class for every token.
func (d Directive) Animations() ([]string, error) {
	res := []string{AnimationBase}
	for tok := range strings.SplitSeq(d.Value, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		cls := "animate__" + tok
		if !IsClassName(cls) {
			return nil, d.argError("%q is not a valid animation name", tok)
		}
		res = append(res, cls)
	}
	if len(res) == 1 {
		return nil, d.argError("no animation names")
	}
	return res, nil
}

// Ask decodes ASK value: [variable, question, default].
func (d Directive) Ask() (Ask, error) {
	arr, err := d.array(2)
	if err != nil {
		return Ask{}, err
	}
	a := Ask{Variable: str(arr[0]), Question: str(arr[1]), Default: at(arr, 2)}
	if a.Variable == "" {
		return a, d.argError("missing variable name")
	}
	return a, nil
}

// Window decodes WINDOW value: [title, {options}].
func (d Directive) Window() (Window, error) {
	arr, err := d.array(2)
	if err != nil {
		return Window{}, err
	}
	opts, ok := arr[1].(map[string]any)
	if !ok && arr[1] != nil {
		return Window{}, d.argError("window options must be a mapping")
	}
	return Window{Title: str(arr[0]), Options: opts}, nil
}

// Toast decodes TOAST value: [text, color, timeoutMs, avatar].
func (d Directive) Toast() (Toast, error) {
	arr, err := d.array(1)
	if err != nil {
		return Toast{}, err
	}
	return d.toast(arr[0], arr[1:])
}

// Message decodes MESSAGE value: [avatar, text, color, timeoutMs].
func (d Directive) Message() (Toast, error) {
	arr, err := d.array(2)
	if err != nil {
		return Toast{}, err
	}
	t, err := d.toast(arr[1], arr[2:])
	t.Avatar = str(arr[0])
	return t, err
}

func (d Directive) toast(text any, rest []any) (Toast, error) {
	t := Toast{Text: str(text), Color: at(rest, 0), Timeout: DefaultToastTimeout, Avatar: at(rest, 2)}
	if t.Color == "" {
		t.Color = "default"
	}
	if len(rest) > 1 && rest[1] != nil {
		ms, ok := number(rest[1])
		if !ok || ms < 0 {
			return t, d.argError("bad timeout %v", rest[1])
		}
		t.Timeout = time.Duration(ms * float64(time.Millisecond))
	}
	return t, nil
}

// Toaster decodes TOASTER value: free form mapping of notification options.
func (d Directive) Toaster() (map[string]any, error) {
	v, err := literal(d.Value)
	if err != nil {
		return nil, d.argError("not a valid literal: %v", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, d.argError("expected mapping")
	}
	return m, nil
}

// ReaderInput decodes READER_INPUT value: [prompt, variable, default,
// pattern, type].
func (d Directive) ReaderInput() (ReaderInput, error) {
	arr, err := d.array(2)
	if err != nil {
		return ReaderInput{}, err
	}
	ri := ReaderInput{
		Prompt:   str(arr[0]),
		Variable: str(arr[1]),
		Default:  at(arr, 2),
		Pattern:  at(arr, 3),
		Type:     InputType(strings.ToLower(at(arr, 4))),
	}
	if ri.Variable == "" {
		return ri, d.argError("missing variable name")
	}
	switch ri.Type {
	case "":
		ri.Type = InputText
	case InputText, InputNumber:
	default:
		return ri, d.argError("unsupported input type %q", ri.Type)
	}
	return ri, nil
}

// array decodes value as flow sequence literal with no fewer than least elements.
func (d Directive) array(least int) ([]any, error) {
	v, err := literal(d.Value)
	if err != nil {
		return nil, d.argError("not a valid literal: %v", err)
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, d.argError("expected array")
	}
	if len(arr) < least {
		return nil, d.argError("expected at least %d elements, got %d", least, len(arr))
	}
	return arr, nil
}

// literal decodes data-only literal. Flow YAML is a superset of JSON so
// authored arrays like ["a", 'b', 10] are accepted and nothing is ever
// evaluated.
func literal(value string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(value), &v); err != nil {
		return nil, err
	}
	return v, nil
}

func at(arr []any, i int) string {
	if i >= len(arr) {
		return ""
	}
	return str(arr[i])
}

func str(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}
