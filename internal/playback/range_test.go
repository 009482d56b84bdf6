package playback

import (
	"errors"
	"testing"
)

func TestParseRange(t *testing.T) {
	const size = 1000

	tests := []struct {
		name    string
		header  string
		size    int64
		want    *Range
		wantErr error
	}{
		{name: "no header", header: "", size: size},
		{name: "whole file", header: "bytes=0-999", size: size, want: &Range{0, 999}},
		{name: "open end", header: "bytes=500-", size: size, want: &Range{500, 999}},
		{name: "suffix", header: "bytes=-500", size: size, want: &Range{500, 999}},
		{name: "first byte", header: "bytes=0-0", size: size, want: &Range{0, 0}},
		{name: "last byte", header: "bytes=999-", size: size, want: &Range{999, 999}},
		{name: "end clamped to size", header: "bytes=0-2000", size: size, want: &Range{0, 999}},
		{name: "suffix longer than file", header: "bytes=-2000", size: 500, want: &Range{0, 499}},
		{name: "only first of several", header: "bytes=0-99, 200-299", size: size, want: &Range{0, 99}},

		{name: "start at size", header: "bytes=1000-", size: size, wantErr: ErrUnsatisfiable},
		{name: "start past size", header: "bytes=1500-2000", size: size, wantErr: ErrUnsatisfiable},
		{name: "start after end", header: "bytes=50-10", size: size, wantErr: ErrUnsatisfiable},
		{name: "empty file", header: "bytes=0-", size: 0, wantErr: ErrUnsatisfiable},
		{name: "missing unit", header: "0-100", size: size, wantErr: ErrInvalidRange},
		{name: "other unit", header: "frames=0-100", size: size, wantErr: ErrInvalidRange},
		{name: "no dash", header: "bytes=100", size: size, wantErr: ErrInvalidRange},
		{name: "bad start", header: "bytes=x-100", size: size, wantErr: ErrInvalidRange},
		{name: "bad end", header: "bytes=0-x", size: size, wantErr: ErrInvalidRange},
		{name: "zero suffix", header: "bytes=-0", size: size, wantErr: ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.header, tt.size)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseRange(%q) error = %v, want %v", tt.header, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRange(%q) unexpected error: %v", tt.header, err)
			}
			switch {
			case tt.want == nil && got != nil:
				t.Fatalf("ParseRange(%q) = %+v, want nil", tt.header, *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Fatalf("ParseRange(%q) = %+v, want %+v", tt.header, got, *tt.want)
			}
		})
	}
}

func TestRange_Headers(t *testing.T) {
	r := Range{Start: 500, End: 999}
	if got := r.ContentLength(); got != 500 {
		t.Errorf("ContentLength() = %d, want 500", got)
	}
	if got := r.ContentRange(1000); got != "bytes 500-999/1000" {
		t.Errorf("ContentRange() = %q", got)
	}
	if got := (Range{}).ContentLength(); got != 1 {
		t.Errorf("single byte ContentLength() = %d, want 1", got)
	}
}
