package mem

import "testing"

func TestArenaStablePointers(t *testing.T) {
	var a Arena[int]
	first := a.Grow()
	*first = 42
	for i := 0; i < arenaBucketSize*3; i++ {
		a.Append(i)
	}
	if *first != 42 {
		t.Errorf("first element = %d, want 42", *first)
	}
	if a.Ptr(0) != first {
		t.Errorf("pointer to first element moved after growth")
	}
	if got, want := a.Len(), arenaBucketSize*3+1; got != want {
		t.Errorf("Len() = %d, want %d", got, want)
	}
	if got := *a.Last(); got != arenaBucketSize*3-1 {
		t.Errorf("Last() = %d, want %d", got, arenaBucketSize*3-1)
	}
}

func TestArenaSearch(t *testing.T) {
	var a Arena[float64]
	for i := 0; i < 200; i++ {
		a.Append(float64(i) * 0.5)
	}
	for _, tt := range []struct {
		v    float64
		want int
	}{
		{-1, 0},
		{0, 0},
		{0.25, 1},
		{10, 20},
		{99.5, 199},
		{1000, 200},
	} {
		got := a.Search(func(x *float64) bool { return *x >= tt.v })
		if got != tt.want {
			t.Errorf("Search(>= %v) = %d, want %d", tt.v, got, tt.want)
		}
	}
}

func TestArenaReset(t *testing.T) {
	var a Arena[string]
	a.Append("a")
	a.Append("b")
	a.Reset()
	if a.Len() != 0 {
		t.Fatalf("Len() = %d after Reset, want 0", a.Len())
	}
	if a.Last() != nil {
		t.Errorf("Last() != nil after Reset")
	}
	if idx := a.Append("c"); idx != 0 {
		t.Errorf("Append after Reset returned %d, want 0", idx)
	}
}

func TestAllocationCache(t *testing.T) {
	var c AllocationCache[[]int]
	x := c.Get()
	*x = append(*x, 1)
	c.Put(x)
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
	if y := c.Get(); y != x {
		t.Errorf("Get() returned a new allocation instead of the cached one")
	}
	if c.Get() == x {
		t.Errorf("Get() on empty cache returned a previously handed out value")
	}
}
