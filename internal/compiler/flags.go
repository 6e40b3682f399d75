package compiler

// Flags select compilation behavior of the backend. They mirror the flag
// surface of the DirectX compiler family: debug info generation, a
// binary-stable debug name, and one of five optimization tiers.
type Flags uint32

const (
	// FlagDebug enables debug information generation.
	FlagDebug Flags = 1 << iota

	// FlagDebugNameForBinary derives the external debug file name from the
	// binary contents, so identical binaries share a name across rebuilds.
	FlagDebugNameForBinary

	// FlagSkipOptimization disables the optimizer entirely (level -1).
	FlagSkipOptimization

	// FlagOptimizationLevel0 through FlagOptimizationLevel3 select a fixed
	// optimization tier.
	FlagOptimizationLevel0
	FlagOptimizationLevel1
	FlagOptimizationLevel2
	FlagOptimizationLevel3
)

// Options control one compilation batch. Shared read-only across workers.
type Options struct {
	IsDebug                 bool
	UseExternalDebugSymbols bool
	OptimizationLevel       int
}

// DeriveFlags maps batch options onto backend flags. Optimization levels
// outside -1..3 contribute no flag and leave the backend at its default;
// the CLI validates the user-facing value before a batch starts.
func DeriveFlags(options Options) Flags {
	var flags Flags

	if options.IsDebug {
		flags |= FlagDebug | FlagDebugNameForBinary
	}

	switch options.OptimizationLevel {
	case -1:
		flags |= FlagSkipOptimization
	case 0:
		flags |= FlagOptimizationLevel0
	case 1:
		flags |= FlagOptimizationLevel1
	case 2:
		flags |= FlagOptimizationLevel2
	case 3:
		flags |= FlagOptimizationLevel3
	}

	return flags
}
