// Package abi captures the two platform-specific facts the back end needs:
// the assembler symbol prefix and the stack alignment required before a
// call instruction. It is threaded as an explicit value through the
// pipeline (pkg/select, pkg/regalloc, pkg/asmgen) rather than kept as
// process-global state, per the design note against global state.
//
// Grounded on original_source/abi.py's ABI class.
package abi

import "fmt"

// Platform is a target operating system the compiler can emit for.
type Platform string

const (
	Linux Platform = "linux"
	MacOS Platform = "macos"
)

// ABI holds the symbol-prefix and call-alignment rules for one Platform.
type ABI struct {
	platform       Platform
	requiredOffset int
	symbolPrefix   string
}

// New returns the ABI for platform. Linux uses no symbol prefix and no
// forced call alignment; macOS (Mach-O/ia32) requires a leading underscore
// on every external symbol and 16-byte stack alignment at call sites.
func New(platform Platform) (*ABI, error) {
	switch platform {
	case Linux:
		return &ABI{platform: Linux, requiredOffset: 0, symbolPrefix: ""}, nil
	case MacOS:
		return &ABI{platform: MacOS, requiredOffset: 16, symbolPrefix: "_"}, nil
	default:
		return nil, fmt.Errorf("abi: unsupported platform %q", platform)
	}
}

// Platform reports which target this ABI was built for.
func (a *ABI) Platform() Platform { return a.platform }

// Label renders a bare C-level symbol name the way the assembler expects
// to see it on this platform.
func (a *ABI) Label(label string) string {
	return a.symbolPrefix + label
}

// PaddingBeforeCall returns the number of bytes of extra stack padding
// needed before pushing paramsBytes worth of call arguments, given that
// currOffset bytes have already been pushed onto a call-aligned stack.
func (a *ABI) PaddingBeforeCall(currOffset, paramsBytes int) int {
	if a.requiredOffset == 0 {
		return 0
	}
	padding := (a.requiredOffset - (currOffset+paramsBytes)%a.requiredOffset) % a.requiredOffset
	if padding < 0 {
		padding += a.requiredOffset
	}
	return padding
}
