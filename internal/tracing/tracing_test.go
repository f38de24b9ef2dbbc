package tracing

import (
	"context"
	"testing"
)

func TestParseOTLPEndpoint(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"tempo:4318", "tempo:4318"},
		{"http://tempo:4318", "tempo:4318"},
		{"https://collector.internal", "collector.internal:4318"},
	}
	for _, tc := range cases {
		got, err := parseOTLPEndpoint(tc.in)
		if err != nil {
			t.Fatalf("parseOTLPEndpoint(%q): unexpected error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("parseOTLPEndpoint(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestInjectWithoutSpanIsEmpty(t *testing.T) {
	if h := InjectMap(context.Background()); len(h) != 0 {
		t.Fatalf("expected no headers without an active span, got %v", h)
	}
}
