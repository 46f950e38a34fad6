package types

// DefaultMaxCallDepth bounds nested calls and creations.
const DefaultMaxCallDepth = 1024

// InterpreterConfig are the configuration options for the Chain and the interpreters it spawns.
type InterpreterConfig struct {
	// Version is the language version the programs were written for.
	Version string
	// Debug enables per-call debug logging.
	Debug bool
	// Trace keeps the evaluation trace of every execution on its result.
	Trace bool
	// MaxCallDepth overrides DefaultMaxCallDepth when positive.
	MaxCallDepth int
	// BlockNumber, Timestamp, Coinbase and ChainID feed the block.* builtins.
	BlockNumber uint64
	Timestamp   uint64
	Coinbase    string
	ChainID     uint64
}

func (c *InterpreterConfig) CallDepth() int {
	if c.MaxCallDepth > 0 {
		return c.MaxCallDepth
	}
	return DefaultMaxCallDepth
}
