package source

import "testing"

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 10, End: 20}
	b := Span{File: 1, Start: 5, End: 12}
	if got := a.Cover(b); got != (Span{File: 1, Start: 5, End: 20}) {
		t.Fatalf("Cover = %v", got)
	}
	other := Span{File: 2, Start: 0, End: 100}
	if got := a.Cover(other); got != a {
		t.Fatalf("cross-file Cover changed span: %v", got)
	}
}

func TestSpanLess(t *testing.T) {
	tests := []struct {
		a, b Span
		want bool
	}{
		{Span{File: 0, Start: 5}, Span{File: 1, Start: 0}, true},
		{Span{File: 1, Start: 5}, Span{File: 1, Start: 6}, true},
		{Span{File: 1, Start: 5, End: 9}, Span{File: 1, Start: 5, End: 7}, false},
	}
	for _, tt := range tests {
		if got := tt.a.Less(tt.b); got != tt.want {
			t.Errorf("%v.Less(%v) = %v", tt.a, tt.b, got)
		}
	}
}
