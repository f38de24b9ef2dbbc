package metrics

import "testing"

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"":                            "root",
		"/":                           "root",
		"/healthz":                    "healthz",
		"/v1/bookings":                "v1/bookings",
		"/v1/bookings/owner/u1":       "v1/bookings",
		"/v1/pricing/history/a/hotel": "v1/pricing",
	}
	for in, want := range cases {
		if got := NormalizePath(in); got != want {
			t.Fatalf("NormalizePath(%q): expected %q, got %q", in, want, got)
		}
	}
}
