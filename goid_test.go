package tfc

import (
	"testing"
)

func TestParseGID(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"goroutine 1 [running]:\nmain.main()", 1},
		{"goroutine 6789 [running]:", 6789},
		{"goroutine ", 0},
		{"gor", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := parseGID([]byte(tc.in)); got != tc.want {
			t.Errorf("parseGID(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestGoidStableAndDistinct(t *testing.T) {
	a := goid()
	if a <= 0 {
		t.Fatalf("goid() = %d, want > 0", a)
	}
	if b := goid(); b != a {
		t.Fatalf("goid() not stable on one goroutine: %d vs %d", a, b)
	}
	other := make(chan int64)
	go func() { other <- goid() }()
	if o := <-other; o == a {
		t.Fatalf("two goroutines share goid %d", o)
	}
}
