package interfere

import (
	"testing"

	"tinypy.dev/x86backend/pkg/instr"
	"tinypy.dev/x86backend/pkg/liveness"
)

func TestNewPreColorsPhysicalRegisters(t *testing.T) {
	g := New()
	for _, r := range []string{"%eax", "%ecx", "%edx", "%ebx", "%edi", "%esi", "%esp", "%ebp"} {
		c, ok := g.ColorOf(r)
		if !ok || c != instr.Location(r) {
			t.Errorf("ColorOf(%s) = (%s, %v), want (%s, true)", r, c, ok, r)
		}
	}
}

func TestAddEdgeSelfLoopIsNoOp(t *testing.T) {
	g := New()
	g.AddEdge("a", "a")
	n := g.nodes["a"]
	if n == nil {
		t.Fatal("expected node a to exist")
	}
	if len(n.Neighbors) != 0 {
		t.Errorf("self-edge recorded a neighbor: %v", n.Neighbors)
	}
}

func TestBuildMovlCoalescesSourceAndDest(t *testing.T) {
	// movl a, b ; addl c, b  (b live after the movl, c also live)
	ins := []instr.Instruction{
		instr.NewMovl(instr.Name{Ident: "a"}, instr.Name{Ident: "b"}),
		instr.NewAddl(instr.Name{Ident: "c"}, instr.Name{Ident: "b"}),
	}
	liveness.Analyze(ins)
	g := Build(ins)

	if g.nodes["a"].Neighbors["b"] {
		t.Error("movl's source and dest must not interfere with each other (coalescing exception)")
	}
	if !g.nodes["c"].Neighbors["b"] {
		t.Error("movl's dest must interfere with every other name live after it")
	}
}

func TestColorAssignsDistinctColorsToInterferingNodes(t *testing.T) {
	g := New()
	g.AddEdge("x", "y")
	colors := []instr.Location{"%eax", "%ebx"}
	if err := g.Color(&colors, nil); err != nil {
		t.Fatalf("Color: %v", err)
	}
	cx, _ := g.ColorOf("x")
	cy, _ := g.ColorOf("y")
	if cx == cy {
		t.Errorf("interfering nodes x,y got the same color %s", cx)
	}
}

func TestColorSpillsWhenPaletteExhausted(t *testing.T) {
	g := New()
	// A 3-clique needs 3 colors; give it a palette of 2 and a spill callback.
	g.AddEdge("x", "y")
	g.AddEdge("y", "z")
	g.AddEdge("x", "z")
	colors := []instr.Location{"%eax", "%ebx"}
	n := 0
	newColor := func() instr.Location {
		n++
		return instr.Location("-slot")
	}
	if err := g.Color(&colors, newColor); err != nil {
		t.Fatalf("Color: %v", err)
	}
	if n == 0 {
		t.Error("expected the spill callback to be invoked at least once")
	}
	seen := map[instr.Location]bool{}
	for _, name := range []string{"x", "y", "z"} {
		c, ok := g.ColorOf(name)
		if !ok {
			t.Fatalf("%s left uncolored", name)
		}
		seen[c] = true
	}
	if len(seen) != 3 {
		t.Errorf("expected 3 distinct colors among a 3-clique, got %v", seen)
	}
}

func TestColorWithoutCallbackFailsOnExhaustion(t *testing.T) {
	g := New()
	g.AddEdge("x", "y")
	g.AddEdge("y", "z")
	g.AddEdge("x", "z")
	colors := []instr.Location{"%eax", "%ebx"}
	if err := g.Color(&colors, nil); err == nil {
		t.Fatal("expected Uncolorable without a spill callback")
	}
}

func TestUnspillableMovlTargetHasElevatedPriority(t *testing.T) {
	g := New()
	g.Insert("t", true)
	if g.nodes["t"].Priority != 1 {
		t.Errorf("priority = %d, want 1 for an unspillable_movl target", g.nodes["t"].Priority)
	}
	g.Insert("u", false)
	if g.nodes["u"].Priority != 2 {
		t.Errorf("priority = %d, want 2 for an ordinary name", g.nodes["u"].Priority)
	}
}
