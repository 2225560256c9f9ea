package repository

import "github.com/okian/sentiscan/pkg/logger"

// Option applies a configuration option to a store.
type Option func(*options)

type options struct {
	log logger.Logger
}

func defaultOptions() options {
	return options{log: logger.Nop()}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}
