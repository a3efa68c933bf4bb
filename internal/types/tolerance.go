package types

// Tolerance policy for float-based money arithmetic. All epsilon comparisons
// in the simulator, metrics engine and paper driver go through these
// constants; scattered literals are a bug.
const (
	// PositionEpsilon is the monetary size below which a position is
	// considered closed.
	PositionEpsilon = 1e-4

	// BalanceEpsilon absorbs float rounding when checking the non-negative
	// balance invariant.
	BalanceEpsilon = 1e-9
)
