package buddy

import "errors"

// Options is the configuration of an Allocator, recognised at
// construction time (§6).
type Options struct {
	// MemorySize is the total number of bytes available in the arena.
	// It is trimmed down to a multiple of Alignment.
	MemorySize uint64

	// Alignment is the minimum block size and the address alignment
	// quantum of every returned block. Must be a power of two.
	Alignment uint64

	// Embedded, if true, places the allocator metadata inside the
	// tail of the arena itself (see Embed); if false, metadata lives
	// in a separate caller-provided region (see Init).
	Embedded bool
}

// DefaultAlignment mirrors the reference allocator's BUDDY_ALLOC_ALIGN:
// the bit width of a machine word, 64 bits on a 64-bit platform.
const DefaultAlignment = 64

// DefaultOptions is a reasonable starting configuration: a 1 MiB arena
// at the default word-sized alignment, metadata embedded in the arena.
var DefaultOptions = Options{
	MemorySize: 1 << 20,
	Alignment:  DefaultAlignment,
	Embedded:   true,
}

func checkOptions(options Options) error {
	if options.Alignment == 0 || ceilPow2(options.Alignment) != options.Alignment {
		return errors.New("buddy/options: alignment must be a power of two")
	}
	if options.MemorySize < options.Alignment {
		return errors.New("buddy/options: memory size must be >= alignment")
	}
	return nil
}
