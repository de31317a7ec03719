package vmc

import (
	"log/slog"

	"github.com/hupe1980/vmc/model"
	"github.com/hupe1980/vmc/params"
)

type options struct {
	vars        model.Variables
	chainLength int
	chunkSize   int
	parallelism int
	logger      *Logger
}

// Option configures an MCState.
type Option func(*options)

// WithVariables sets the full variable bundle (parameters plus auxiliary
// model state).
func WithVariables(vars model.Variables) Option {
	return func(o *options) {
		o.vars = vars
	}
}

// WithParameters sets the trainable parameter tree, leaving any model
// state untouched.
func WithParameters(tree params.Tree) Option {
	return func(o *options) {
		o.vars.Params = tree
	}
}

// WithChainLength sets how many sampling steps each chain takes per
// sampling call, i.e. the total sample count is chainLength * nChains.
// The default is 32.
func WithChainLength(n int) Option {
	return func(o *options) {
		o.chainLength = n
	}
}

// WithChunkSize bounds the number of configurations evaluated by the
// model per call during estimation, capping peak memory. A value <= 0
// (the default) evaluates each batch in one pass. The estimate is
// invariant to the chunk size up to floating-point associativity.
func WithChunkSize(n int) Option {
	return func(o *options) {
		o.chunkSize = n
	}
}

// WithParallelism evaluates independent chunks on up to n goroutines
// during estimation. The default of 1 is fully sequential.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithLogger configures structured logging for sampling and estimation.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		chainLength: 32,
		chunkSize:   0,
		parallelism: 1,
		logger:      NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
