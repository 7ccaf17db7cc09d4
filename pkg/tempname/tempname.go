// Package tempname provides the compiler's temporary-name arena and label
// counter.
//
// The original implementation keeps both as process-global state (a module
// level counter plus a free-list). Per the design note on process-global
// state, this rewrite threads a *Context through every pass instead so that
// two compilations never share a counter.
package tempname

import (
	"fmt"

	"tinypy.dev/x86backend/pkg/utils"
)

// internalPrefix marks a name as compiler-allocated so that only such names
// are ever returned to the free-list; names chosen by the source program are
// never recycled. The character is not a legal lead character in the source
// language's identifier grammar.
const internalPrefix = '#'

// Context is the per-compilation temporary-name arena and label counter.
//
// It is not safe for concurrent use; the pipeline is single-threaded end to
// end (see spec's Concurrency & Resource Model).
type Context struct {
	counter int
	free    utils.Stack[string]

	labels int
}

// NewContext returns a brand new, empty *Context.
func NewContext() *Context { return &Context{} }

// Allocate returns a fresh internal temporary name, reusing one from the
// free-list (LIFO) when available.
func (c *Context) Allocate() string {
	if c.free.Count() > 0 {
		name, err := c.free.Pop()
		if err == nil {
			return name
		}
	}

	c.counter++
	return fmt.Sprintf("%cTEMP_%d", internalPrefix, c.counter)
}

// Release returns name to the free-list if and only if it is an internal
// name (i.e. one this allocator produced). Source-derived names are
// silently ignored, exactly as `allocator.free` ignores non-InternalName
// arguments in the original implementation.
func (c *Context) Release(name string) {
	if IsInternal(name) {
		c.free.Push(name)
	}
}

// IsInternal reports whether name was produced by an Allocate call (as
// opposed to being a source-program identifier).
func IsInternal(name string) bool {
	return len(name) > 0 && name[0] == internalPrefix
}

// NewLabel returns a fresh numeric suffix for branch-label generation (drawn
// by pkg/select for each if_instr, whose emitted `.Lelse_k`/`.Lend_k` pair
// uses it). Labels
// and temporaries are counted separately since labels are never recycled.
func (c *Context) NewLabel() int {
	c.labels++
	return c.labels
}
