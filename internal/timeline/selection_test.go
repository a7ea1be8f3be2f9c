package timeline

import (
	"reflect"
	"testing"
)

func TestSelection_TogglePrimary(t *testing.T) {
	s := NewSelection()
	s.Toggle("a")
	if p, ok := s.Primary(); !ok || p != "a" {
		t.Errorf("primary = %q,%v, want a", p, ok)
	}
	s.Toggle("b")
	if _, ok := s.Primary(); ok {
		t.Error("two selected ids should have no primary")
	}
	s.Toggle("a")
	if p, _ := s.Primary(); p != "b" {
		t.Errorf("primary = %q, want b", p)
	}
	s.Toggle("b")
	if s.Len() != 0 {
		t.Errorf("len = %d, want 0", s.Len())
	}
}

func TestSelection_PruneAndRename(t *testing.T) {
	s := NewSelection()
	s.Set([]string{"a", "b"})
	s.Rename("a", "z")
	if got := s.IDs(); !reflect.DeepEqual(got, []string{"z", "b"}) {
		t.Errorf("ids = %v", got)
	}
	s.Prune("b")
	s.Prune("missing")
	if got := s.IDs(); !reflect.DeepEqual(got, []string{"z"}) {
		t.Errorf("ids = %v", got)
	}
	s.Select("q")
	s.Prune("q")
	if _, ok := s.Primary(); ok || s.Len() != 0 {
		t.Error("pruning the only id should clear the selection")
	}
}

func TestSelection_Marquee(t *testing.T) {
	boxes := []Box{
		{ID: "x", Rect: Rect{X: 10, Y: 0, W: 20, H: 10}},
		{ID: "y", Rect: Rect{X: 50, Y: 0, W: 20, H: 10}},
		{ID: "z", Rect: Rect{X: 10, Y: 30, W: 20, H: 10}},
	}

	tests := []struct {
		name     string
		a, b     Point
		initial  []string
		additive bool
		want     []string
	}{
		{"disjoint selects nothing", Point{100, 100}, Point{120, 120}, []string{"x"}, false, nil},
		{"single box", Point{0, 0}, Point{35, 12}, nil, false, []string{"x"}},
		{"reversed corners", Point{75, 12}, Point{5, 5}, nil, false, []string{"x", "y"}},
		{"touching edge counts", Point{30, 10}, Point{45, 20}, nil, false, []string{"x"}},
		{"click clears", Point{5, 5}, Point{6, 6}, []string{"x", "y"}, false, nil},
		{"additive click keeps", Point{5, 5}, Point{6, 6}, []string{"y"}, true, []string{"y"}},
		{"additive extends", Point{0, 25}, Point{40, 45}, []string{"y"}, true, []string{"y", "z"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSelection()
			s.Set(tt.initial)
			s.Marquee(tt.a, tt.b, boxes, 3, tt.additive)
			if got := s.IDs(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHitTest_Exhaustive(t *testing.T) {
	boxes := []Box{{ID: "a", Rect: Rect{X: 0, Y: 0, W: 10, H: 10}}}
	for x := -20.0; x <= 30; x += 5 {
		r := Rect{X: x, Y: 0, W: 5, H: 5}
		want := x+5 >= 0 && x <= 10
		got := len(HitTest(r, boxes)) == 1
		if got != want {
			t.Errorf("x=%v: hit=%v, want %v", x, got, want)
		}
	}
}
