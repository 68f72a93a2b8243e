package observability

import "testing"

func TestParseHeaders(t *testing.T) {
	got := parseHeaders(" a=1, b = two ,broken,=x,c= ")
	if len(got) != 2 || got["a"] != "1" || got["b"] != "two" {
		t.Fatalf("unexpected headers: %#v", got)
	}
	if parseHeaders("") != nil {
		t.Fatalf("empty input should yield nil")
	}
}

func TestSampleRatio(t *testing.T) {
	cases := map[float64]float64{0: 0.1, -1: 0.1, 0.5: 0.5, 3: 1}
	for in, want := range cases {
		if got := sampleRatio(in); got != want {
			t.Fatalf("sampleRatio(%v): got %v want %v", in, got, want)
		}
	}
}
