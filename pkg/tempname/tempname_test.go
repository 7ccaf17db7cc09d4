package tempname

import "testing"

func TestAllocateProducesInternalNames(t *testing.T) {
	c := NewContext()
	a := c.Allocate()
	b := c.Allocate()

	if !IsInternal(a) || !IsInternal(b) {
		t.Fatalf("Allocate() = %q, %q, want both internal", a, b)
	}
	if a == b {
		t.Fatalf("Allocate() returned the same name twice: %q", a)
	}
}

func TestReleaseRecyclesInternalNamesLIFO(t *testing.T) {
	c := NewContext()
	a := c.Allocate()
	b := c.Allocate()

	c.Release(a)
	c.Release(b)

	// LIFO: the most recently released name comes back first.
	if got := c.Allocate(); got != b {
		t.Errorf("Allocate() after release = %q, want %q", got, b)
	}
	if got := c.Allocate(); got != a {
		t.Errorf("Allocate() after release = %q, want %q", got, a)
	}
}

func TestReleaseIgnoresSourceNames(t *testing.T) {
	c := NewContext()
	c.Release("x")
	// "x" is not internal, so it must not have entered the free-list: the
	// next Allocate() still mints a brand new name rather than recycling it.
	if got := c.Allocate(); got == "x" {
		t.Errorf("Allocate() = %q, want a fresh internal name, not the released source name", got)
	}
}

func TestIsInternal(t *testing.T) {
	cases := map[string]bool{
		"#TEMP_1": true,
		"x":       false,
		"":        false,
	}
	for name, want := range cases {
		if got := IsInternal(name); got != want {
			t.Errorf("IsInternal(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestNewLabelIsMonotonicAndSeparateFromTemps(t *testing.T) {
	c := NewContext()
	l1 := c.NewLabel()
	l2 := c.NewLabel()
	if l2 != l1+1 {
		t.Errorf("NewLabel() sequence = %d, %d, want consecutive", l1, l2)
	}
}
