package llmclient

// Limits is a flat record of hard byte/count caps enforced across the
// client. A zero value for any field means "unbounded" for that
// dimension unless documented otherwise.
type Limits struct {
	MaxResponseBytes int

	MaxSSELineBytes   int
	MaxSSEFrameBytes  int
	MaxSSEBufferBytes int

	MaxToolArgsBytesPerCall  int
	MaxToolArgsBytesPerTurn int
	MaxToolOutputBytesTotal int
	MaxToolCallsJSONBytes   int

	MaxEmbeddingInputBytes int
	MaxEmbeddingInputCount int

	MaxContentParts      int
	MaxContentPartsBytes int

	MaxStopStrings         int
	MaxStopBytes           int
	MaxRequestOptionsBytes int
}

// DefaultLimits returns generous but non-zero caps suitable for talking to
// a well-behaved server; callers with tighter resource budgets should
// override individual fields.
func DefaultLimits() Limits {
	return Limits{
		MaxResponseBytes:        64 << 20,
		MaxSSELineBytes:         1 << 20,
		MaxSSEFrameBytes:        4 << 20,
		MaxSSEBufferBytes:       4 << 20,
		MaxToolArgsBytesPerCall:  1 << 20,
		MaxToolArgsBytesPerTurn: 4 << 20,
		MaxToolOutputBytesTotal: 16 << 20,
		MaxToolCallsJSONBytes:   4 << 20,
		MaxEmbeddingInputBytes:  1 << 20,
		MaxEmbeddingInputCount:  2048,
		MaxContentParts:         64,
		MaxContentPartsBytes:    4 << 20,
		MaxStopStrings:          4,
		MaxStopBytes:            256,
		MaxRequestOptionsBytes:  4096,
	}
}
