package player

import (
	"testing"
	"time"

	"ifplay/directive"
)

func TestToastNotification(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		want Notification
	}{
		{
			name: "defaults",
			tag:  "TOAST: ['Saved']",
			want: Notification{Text: "Saved", Background: "#353535", Duration: 4 * time.Second},
		},
		{
			name: "named color and timeout",
			tag:  "TOAST: ['Careful', 'warning', 1500]",
			want: Notification{Text: "Careful", Background: toastColors["warning"], Duration: 1500 * time.Millisecond},
		},
		{
			name: "unknown color falls back",
			tag:  "TOAST: ['Hm', 'purple']",
			want: Notification{Text: "Hm", Background: "#353535", Duration: 4 * time.Second},
		},
		{
			name: "message carries avatar",
			tag:  "MESSAGE: ['cat.png', 'Meow', 'success', 2000]",
			want: Notification{Text: "Meow", Background: toastColors["success"], Duration: 2 * time.Second, Avatar: "cat.png"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := directive.Parse(tt.tag)
			decode := d.Toast
			if d.Kind == directive.KindMessage {
				decode = d.Message
			}
			toast, err := decode()
			if err != nil {
				t.Fatalf("decode error = %v", err)
			}
			got := toastNotification(toast)
			want := tt.want
			want.Gravity, want.Position, want.MinWidth, want.StopOnFocus = "bottom", "center", "300px", true
			if got.Text != want.Text || got.Background != want.Background || got.Duration != want.Duration ||
				got.Avatar != want.Avatar || got.Gravity != want.Gravity || got.Position != want.Position ||
				got.MinWidth != want.MinWidth || got.StopOnFocus != want.StopOnFocus {
				t.Errorf("toastNotification() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestCustomNotification(t *testing.T) {
	d := directive.Parse(`TOASTER: {"text": "Custom", "duration": 2500, "gravity": "top", "style": {"background": "red"}}`)
	opts, err := d.Toaster()
	if err != nil {
		t.Fatal(err)
	}
	n := customNotification(opts)
	if n.Text != "Custom" || n.Duration != 2500*time.Millisecond || n.Gravity != "top" || n.Background != "red" {
		t.Errorf("customNotification() = %+v", n)
	}
	if n.Options == nil {
		t.Error("options are not passed through")
	}

	n = customNotification(map[string]any{})
	if n.Duration != directive.DefaultToastTimeout {
		t.Errorf("default duration = %v", n.Duration)
	}
}
