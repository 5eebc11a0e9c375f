package player

import (
	"fmt"
	"time"

	"ifplay/directive"
)

// toastColors maps authored color names to notification backgrounds.
var toastColors = map[string]string{
	"default": "#353535",
	"success": "linear-gradient(to right, #4CAF50, #43A047)",
	"warning": "linear-gradient(to right, #FF8F00, #FF6F00)",
	"error":   "linear-gradient(to right, #D32F2F, #C62828)",
}

func toastNotification(t directive.Toast) Notification {
	bg, ok := toastColors[t.Color]
	if !ok {
		bg = toastColors["default"]
	}
	return Notification{
		Text:        t.Text,
		Background:  bg,
		Duration:    t.Timeout,
		Avatar:      t.Avatar,
		Gravity:     "bottom",
		Position:    "center",
		MinWidth:    "300px",
		StopOnFocus: true,
	}
}

// customNotification fills well known fields from free form options.
func customNotification(opts map[string]any) Notification {
	n := Notification{Options: opts, Duration: directive.DefaultToastTimeout}
	if v, ok := opts["text"]; ok {
		n.Text = fmt.Sprint(v)
	}
	if v, ok := opts["avatar"].(string); ok {
		n.Avatar = v
	}
	if v, ok := opts["gravity"].(string); ok {
		n.Gravity = v
	}
	if v, ok := opts["position"].(string); ok {
		n.Position = v
	}
	if v, ok := opts["stopOnFocus"].(bool); ok {
		n.StopOnFocus = v
	}
	switch v := opts["duration"].(type) {
	case int:
		n.Duration = time.Duration(v) * time.Millisecond
	case float64:
		n.Duration = time.Duration(v * float64(time.Millisecond))
	}
	if style, ok := opts["style"].(map[string]any); ok {
		if bg, ok := style["background"].(string); ok {
			n.Background = bg
		}
	}
	return n
}
