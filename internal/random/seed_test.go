package random

import "testing"

func TestNewSeed(t *testing.T) {
	a, err := NewSeed()
	if err != nil {
		t.Fatalf("NewSeed: %v", err)
	}
	b, err := NewSeed()
	if err != nil {
		t.Fatalf("NewSeed: %v", err)
	}
	if a <= 0 || b <= 0 {
		t.Errorf("seeds = %d, %d, want positive", a, b)
	}
	if a == b {
		t.Error("two crypto seeds should differ")
	}
}

func TestDerive(t *testing.T) {
	seen := make(map[int64]bool)
	for n := 0; n < 1000; n++ {
		s := Derive(42, n)
		if s <= 0 {
			t.Fatalf("Derive(42, %d) = %d, want positive", n, s)
		}
		if seen[s] {
			t.Fatalf("Derive(42, %d) repeats a seed", n)
		}
		seen[s] = true
	}
	if Derive(42, 3) != Derive(42, 3) {
		t.Error("Derive must be deterministic")
	}
	if Derive(42, 0) == Derive(43, 0) {
		t.Error("different bases should give different seeds")
	}
}
