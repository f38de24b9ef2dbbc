package model

import (
	"errors"
	"testing"
)

func TestParseItemKind(t *testing.T) {
	cases := []struct {
		in   string
		want ItemKind
		ok   bool
	}{
		{"flight", KindFlight, true},
		{" Hotel ", KindHotel, true},
		{"FLIGHT", KindFlight, true},
		{"train", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseItemKind(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("ParseItemKind(%q): expected %q, got %q (%v)", tc.in, tc.want, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("ParseItemKind(%q): expected ErrInvalidInput, got %v", tc.in, err)
		}
	}
}
