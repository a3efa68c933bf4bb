package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Input/validation errors (100-199)
	ErrCodeInvalidParameter ErrorCode = 100
	ErrCodeInvalidCandles   ErrorCode = 101
	ErrCodeNoData           ErrorCode = 102
	ErrCodeInvalidRuleTree  ErrorCode = 103
	ErrCodeInvalidConfig    ErrorCode = 104
	ErrCodeInvalidPeriod    ErrorCode = 105

	// Data/resource errors (200-299)
	ErrCodeDataNotFound ErrorCode = 200
	ErrCodeQueryFailed  ErrorCode = 201

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound    ErrorCode = 300
	ErrCodeInsufficientHistory  ErrorCode = 301
	ErrCodeIndicatorCalculation ErrorCode = 302

	// Strategy errors (400-499)
	ErrCodeStrategyNotFound ErrorCode = 400
	ErrCodeSignalGeneration ErrorCode = 401
	ErrCodeMissingParameter ErrorCode = 402
	ErrCodeMissingRuleTree  ErrorCode = 403

	// Simulation errors (500-599)
	ErrCodeSimulationInvariant  ErrorCode = 500
	ErrCodeSignalLengthMismatch ErrorCode = 501

	// Backtest errors (600-699)
	ErrCodeBacktestFailed ErrorCode = 600

	// Paper trading / session errors (700-799)
	ErrCodeSessionNotFound      ErrorCode = 700
	ErrCodeSessionAlreadyExists ErrorCode = 701
	ErrCodeSessionStopped       ErrorCode = 702
	ErrCodeStoreFailed          ErrorCode = 703
)
