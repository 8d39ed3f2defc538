package feed

import (
	"net/http"
	"testing"
	"time"
)

func TestRetryAfter(t *testing.T) {
	cases := map[string]time.Duration{
		"":     -1,
		"0":    0,
		" 3 ":  3 * time.Second,
		"-2":   -1,
		"soon": -1,
	}
	for in, want := range cases {
		if got := retryAfter(in); got != want {
			t.Errorf("retryAfter(%q) = %v, want %v", in, got, want)
		}
	}

	if got := retryAfter("Mon, 01 Jan 2001 00:00:00 GMT"); got != 0 {
		t.Errorf("past date = %v, want 0", got)
	}
	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	if got := retryAfter(future); got < 59*time.Minute || got > time.Hour {
		t.Errorf("retryAfter(future) = %v", got)
	}
}

func TestPolicyBackoff(t *testing.T) {
	p := policy{attempts: 5, base: 100 * time.Millisecond, maxWait: time.Second}
	for i, lo := range []time.Duration{100, 200, 400, 800} {
		lo *= time.Millisecond
		hi := min(lo+lo/2, p.maxWait)
		for n := 0; n < 20; n++ {
			if d := p.backoff(i); d < min(lo, p.maxWait) || d > hi {
				t.Fatalf("backoff(%d) = %v, want [%v, %v]", i, d, lo, hi)
			}
		}
	}
	if d := p.backoff(10); d != p.maxWait {
		t.Fatalf("backoff(10) = %v, want cap %v", d, p.maxWait)
	}
}
