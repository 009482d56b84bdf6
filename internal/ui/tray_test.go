package ui

import (
	"testing"

	"github.com/heimdex/heimdex-timeline/internal/api"
)

func TestStatusTitle(t *testing.T) {
	tests := []struct {
		name string
		st   api.Status
		want string
	}{
		{name: "empty", want: "Timeline: 0 tracks, 0 clips"},
		{name: "idle", st: api.Status{Tracks: 2, Clips: 5}, want: "Timeline: 2 tracks, 5 clips"},
		{name: "busy", st: api.Status{Tracks: 1, Clips: 1, Busy: true}, want: "Editing: 1 tracks, 1 clips"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := statusTitle(tc.st); got != tc.want {
				t.Fatalf("statusTitle() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIconEmbedded(t *testing.T) {
	if len(iconBytes) < 8 || string(iconBytes[1:4]) != "PNG" {
		t.Fatalf("icon is not a PNG (%d bytes)", len(iconBytes))
	}
}
