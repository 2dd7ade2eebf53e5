// Package logging builds the zap loggers used by the cubeb tools.
package logging
