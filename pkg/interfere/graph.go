// Package interfere implements interference-graph construction and
// saturation-degree graph coloring (spec component C7): an undirected
// graph over names-or-physical-registers, built from an already
// liveness-annotated IR list, colored by a priority-queue-driven
// saturation-degree algorithm with a caller-supplied spill callback.
//
// Grounded on original_source/graph.py (Graph/Node, the color algorithm)
// and original_source/interference.py (the per-opcode edge rules), with
// the lazy-deletion indexed priority queue from pqueue.go standing
// in for graph.py's PriorityQueue, per spec §9's design note.
package interfere

import (
	"github.com/pkg/errors"

	"tinypy.dev/x86backend/pkg/instr"
)

// ErrUncolorable is raised by Color only when it is called without a
// newColor callback and every available color is already taken by some
// node's neighbors; the allocator driver always supplies a callback, so
// this can only surface from a direct, callback-less Color call (e.g. in
// tests exercising the failure path).
var ErrUncolorable = errors.New("interfere: graph is not colorable with the given palette")

// Node is one interference-graph vertex: a symbolic name or a physical
// register string.
type Node struct {
	Data      string
	Color     instr.Location
	colored   bool
	Priority  int // 1 = color first (unspillable_movl targets), 2 = ordinary
	Clearable bool
	Neighbors map[string]bool

	neighborColors map[instr.Location]bool
}

// Graph is an adjacency-set interference graph indexed by node name, per
// spec §9's design note preferring a name→node index over direct pointer
// cycles (none of this pipeline's structures are actually cyclic, but the
// index keeps mutation during coloring simple and safe).
type Graph struct {
	nodes map[string]*Node
}

// New returns an empty Graph with every physical register pre-inserted,
// pre-colored to itself, and marked non-clearable — mirrors
// interference.py's loop over caller_save_regs | callee_save_regs | reserved_regs.
func New() *Graph {
	g := &Graph{nodes: make(map[string]*Node)}
	for _, r := range instr.CallerSaved {
		g.InsertColored(r, instr.Location(r))
	}
	for _, r := range instr.CalleeSaved {
		g.InsertColored(r, instr.Location(r))
	}
	for _, r := range instr.Reserved {
		g.InsertColored(r, instr.Location(r))
	}
	return g
}

// Insert adds data as an uncolored node if it is not already present.
// colorFirst marks it for elevated coloring priority (an unspillable_movl
// target), mirroring graph.py's `insert(data, color_first)`.
func (g *Graph) Insert(data string, colorFirst bool) {
	n, ok := g.nodes[data]
	if !ok {
		n = &Node{Data: data, Priority: 2, Clearable: true, Neighbors: make(map[string]bool)}
		g.nodes[data] = n
	}
	if colorFirst {
		n.Priority = 1
	}
}

// InsertColored adds data pre-colored to color and marks it non-clearable,
// mirroring graph.py's `insert_colored` (used for the physical registers).
func (g *Graph) InsertColored(data string, color instr.Location) {
	n, ok := g.nodes[data]
	if !ok {
		n = &Node{Data: data, Neighbors: make(map[string]bool)}
		g.nodes[data] = n
	}
	n.Clearable = false
	n.Color = color
	n.colored = true
}

// AddEdge inserts both endpoints (uncolored, if new) and links them.
// A self-edge is a no-op — recording one would make the graph
// uncolorable for no semantic reason, mirroring graph.py's `add_edge`
// early return when data1 == data2.
func (g *Graph) AddEdge(a, b string) {
	if a == b {
		return
	}
	g.Insert(a, false)
	g.Insert(b, false)
	g.nodes[a].Neighbors[b] = true
	g.nodes[b].Neighbors[a] = true
}

// ColorOf reports the color assigned to data, if any.
func (g *Graph) ColorOf(data string) (instr.Location, bool) {
	n, ok := g.nodes[data]
	if !ok || !n.colored {
		return "", false
	}
	return n.Color, true
}

// Colors returns the name→Location mapping built from every colored node,
// the shape pkg/regalloc feeds to instr.Instruction.AssignLocations.
func (g *Graph) Colors() map[string]instr.Location {
	out := make(map[string]instr.Location, len(g.nodes))
	for name, n := range g.nodes {
		if n.colored {
			out[name] = n.Color
		}
	}
	return out
}

// Build constructs the interference graph for instrs (recursing into
// IfStmt branches, which share one graph across both arms), per the
// per-opcode rules in spec §4.5 / original_source/interference.py.
func Build(instrs []instr.Instruction) *Graph {
	g := New()
	build(g, instrs)
	return g
}

func build(g *Graph, instrs []instr.Instruction) {
	for _, ins := range instrs {
		for _, name := range ins.Writes() {
			g.Insert(name, false)
		}
		for _, name := range ins.Reads() {
			g.Insert(name, false)
		}

		switch v := ins.(type) {
		case *instr.UnspillableMovl:
			g.Insert(v.Writes()[0], true)
			addEdgesExcluding(g, v.Writes()[0], ins.LiveAfter(), v.Reads())
		case *instr.Movl:
			addEdgesExcluding(g, v.Writes()[0], ins.LiveAfter(), v.Reads())
		case *instr.IfStmt:
			for _, w := range v.Writes() {
				addEdges(g, w, ins.LiveAfter())
			}
			build(g, v.Then)
			build(g, v.Else)
		case *instr.Pushl, *instr.PadArgs, *instr.UnpadArgs, *instr.Cmpl:
			// No interference: these either read-only or touch only %esp,
			// which is reserved and never colored.
		case *instr.Call:
			for _, r := range instr.CallerSaved {
				addEdges(g, r, ins.LiveAfter())
			}
		default:
			// addl, negl, sall, sarl, andl, orl, sete_cl/setne_cl, movzbl_cl:
			// every write interferes with everything live after, unqualified.
			for _, w := range ins.Writes() {
				addEdges(g, w, ins.LiveAfter())
			}
		}
	}
}

// addEdges links data to every name in liveAfter.
func addEdges(g *Graph, data string, liveAfter map[string]bool) {
	for v := range liveAfter {
		g.AddEdge(data, v)
	}
}

// addEdgesExcluding links data to every name in liveAfter except data
// itself and any name in exclude (the movl's own source operand(s)),
// mirroring interference.py's guard lambda for movl/unspillable_movl: the
// coalescing exception that lets a copy's source and destination share a
// color when nothing else forces them apart.
func addEdgesExcluding(g *Graph, data string, liveAfter map[string]bool, exclude []string) {
	skip := make(map[string]bool, len(exclude)+1)
	skip[data] = true
	for _, e := range exclude {
		skip[e] = true
	}
	for v := range liveAfter {
		if skip[v] {
			continue
		}
		g.AddEdge(data, v)
	}
}
