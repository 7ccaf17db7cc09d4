package interfere

import "tinypy.dev/x86backend/pkg/instr"

// Color runs the saturation-degree coloring algorithm over g. colors is
// the initial palette (mutated in place as newColor grows it); newColor, if
// non-nil, is invoked whenever every color in the current palette is
// already saturated for some node, appending a fresh stack-slot color and
// retrying (spec §4.6 step 3) — this is what guarantees Uncolorable can
// never surface once the allocator driver is wired up (spec §7).
//
// Grounded on original_source/graph.py's Graph.color.
func (g *Graph) Color(colors *[]instr.Location, newColor func() instr.Location) error {
	q := newPQueue()

	for _, n := range g.nodes {
		if !n.colored {
			n.neighborColors = make(map[instr.Location]bool)
		}
	}
	for _, n := range g.nodes {
		if n.colored {
			continue
		}
		q.insert(n.Data, n.Priority, g.saturation(n))
	}

	for {
		name, ok := q.pop()
		if !ok {
			return nil
		}
		u := g.nodes[name]
		if u.colored {
			continue
		}

		color, found := firstAvailable(*colors, u.neighborColors)
		if !found {
			if newColor == nil {
				return wrapUncolorable(name)
			}
			*colors = append(*colors, newColor())
			q.insert(name, u.Priority, g.saturation(u))
			continue
		}

		u.Color = color
		u.colored = true
		for neighborName := range u.Neighbors {
			neighbor := g.nodes[neighborName]
			if neighbor.colored {
				continue
			}
			neighbor.neighborColors[color] = true
			q.insert(neighborName, neighbor.Priority, len(neighbor.neighborColors))
		}
	}
}

// saturation computes the number of distinct colors already used among n's
// neighbors, folding in any neighbor colored before the coloring loop ever
// reaches n — mirrors graph.py's `saturation` closure, which reads
// `neighbor.color` directly regardless of queue order.
func (g *Graph) saturation(n *Node) int {
	for neighborName := range n.Neighbors {
		neighbor := g.nodes[neighborName]
		if neighbor.colored {
			n.neighborColors[neighbor.Color] = true
		}
	}
	return len(n.neighborColors)
}

func firstAvailable(colors []instr.Location, taken map[instr.Location]bool) (instr.Location, bool) {
	for _, c := range colors {
		if !taken[c] {
			return c, true
		}
	}
	return "", false
}

func wrapUncolorable(name string) error {
	return &uncolorableError{name: name}
}

type uncolorableError struct{ name string }

func (e *uncolorableError) Error() string {
	return "interfere: node " + e.name + " could not be colored"
}

func (e *uncolorableError) Is(target error) bool {
	return target == ErrUncolorable
}
