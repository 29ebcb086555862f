// Package logging builds the process-wide zap logger.
package logging

import "go.uber.org/zap"

// New returns a logger writing to stderr. Verbose selects the human
// readable development encoder at debug level; otherwise production
// JSON at info level.
func New(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
