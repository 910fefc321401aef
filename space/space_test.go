package space

import "testing"

func TestDimensionAlign(t *testing.T) {
	cont := NewContinuous(-10, 10)
	if got := cont.Align(15); got != 10 {
		t.Errorf("continuous clamp high: got %v, want 10", got)
	}
	if got := cont.Align(-15); got != -10 {
		t.Errorf("continuous clamp low: got %v, want -10", got)
	}
	if got := cont.Align(3.5); got != 3.5 {
		t.Errorf("continuous in-range value should be unchanged, got %v", got)
	}

	fin := NewFinite(4)
	if got := fin.Align(2.6); got != 3 {
		t.Errorf("finite round: got %v, want 3", got)
	}
	if got := fin.Align(-1); got != 0 {
		t.Errorf("finite clamp low: got %v, want 0", got)
	}
	if got := fin.Align(99); got != 3 {
		t.Errorf("finite clamp high: got %v, want 3", got)
	}
}

func TestDimensionLegal(t *testing.T) {
	fin := NewFinite(3)
	if !fin.Legal(0) || !fin.Legal(2) {
		t.Error("expected 0 and 2 to be legal on a 3-valued finite dimension")
	}
	if fin.Legal(2.5) {
		t.Error("2.5 should not be legal on a finite dimension")
	}
}

func TestSpaceAligned(t *testing.T) {
	sp, err := New(NewContinuous(-10, 10), NewFinite(5))
	if err != nil {
		t.Fatal(err)
	}
	if !sp.Aligned([]float64{0, 2}) {
		t.Error("expected (0, 2) to be aligned")
	}
	if sp.Aligned([]float64{0, 2.5}) {
		t.Error("expected (0, 2.5) to be unaligned")
	}
}

func TestNewEmptySpace(t *testing.T) {
	if _, err := New(); err != ErrEmptySpace {
		t.Errorf("expected ErrEmptySpace, got %v", err)
	}
}
