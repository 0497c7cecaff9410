package domain

// Strategy selects how a staged artifact is launched.
type Strategy int

const (
	// StrategyWrapped runs the artifact under the parallel execution wrapper.
	StrategyWrapped Strategy = iota
	// StrategyDirect runs the artifact as a plain interpreted program.
	StrategyDirect
)

func (s Strategy) String() string {
	switch s {
	case StrategyDirect:
		return "direct"
	default:
		return "wrapped"
	}
}

// StrategyForRunType maps a run type onto a strategy. Only "ml" and "ea" run
// directly; everything else, including an empty or unknown type, is wrapped.
func StrategyForRunType(runType string) Strategy {
	switch runType {
	case "ml", "ea":
		return StrategyDirect
	default:
		return StrategyWrapped
	}
}
