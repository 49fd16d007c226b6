package buddy

import "errors"

// Sentinel errors returned by the allocator's public operations (§7 of
// the design: every error kind is reported by return value, never by
// panic or process abort).
var (
	// ErrInvalidConfiguration covers a non-power-of-two alignment, a
	// memorySize smaller than alignment, nil/misaligned regions, a
	// header region that aliases the arena, or metadata that cannot
	// fit in Embed.
	ErrInvalidConfiguration = errors.New("buddy: invalid configuration")

	// ErrOutOfMemory is returned by Allocate and Reallocate when no
	// subtree at the required depth is free.
	ErrOutOfMemory = errors.New("buddy: out of memory")

	// ErrInvalidPointer is returned by Reallocate when the supplied
	// pointer does not resolve to a live allocation boundary inside
	// this allocator's arena. Free never returns an error for this
	// condition — per §7 it silently ignores invalid pointers — but
	// Reallocate must distinguish "nothing to do" from "bad input".
	ErrInvalidPointer = errors.New("buddy: pointer not recognized by this allocator")

	// ErrPartiallyUsedRelease indicates an attempt to release a tree
	// node that is not a fully-marked allocation boundary. It is a
	// programmer bug (calling release on a position the façade itself
	// did not resolve via positionForAddress) rather than a runtime
	// condition a caller should expect to hit.
	ErrPartiallyUsedRelease = errors.New("buddy: release called on a partially used node")
)
