package subtitle

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		want    error
	}{
		{"empty", nil, ErrNoEntries},
		{"ok", []Entry{{Index: 1, Start: 0, End: 1}, {Index: 2, Start: 1, End: 2}}, nil},
		{"zero length", []Entry{{Index: 1, Start: 1, End: 1}}, nil},
		{"inverted", []Entry{{Index: 1, Start: 2, End: 1}}, ErrInvertedEntry},
		{"negative start", []Entry{{Index: 1, Start: -0.5, End: 1}}, ErrInvertedEntry},
		{"overlap", []Entry{{Index: 1, Start: 0, End: 2}, {Index: 2, Start: 1.5, End: 3}}, ErrOverlap},
		{"unordered", []Entry{{Index: 1, Start: 5, End: 6}, {Index: 2, Start: 1, End: 2}}, ErrOverlap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.entries)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEnd(t *testing.T) {
	if got := End([]Entry{{End: 1}, {End: 4.5}, {End: 3}}); got != 4.5 {
		t.Errorf("End = %v, want 4.5", got)
	}
}
