package pydapter

import (
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Package logger, swapped atomically so SetLogger is safe alongside
// concurrent template composition. Initialized lazily: package-level template
// definitions may log during their own initialization.
var loggerPtr atomic.Pointer[zerolog.Logger]

// SetLogger replaces the package logger. zerolog.Nop() silences all package
// output.
func SetLogger(l zerolog.Logger) {
	loggerPtr.Store(&l)
}

func pkgLogger() *zerolog.Logger {
	if l := loggerPtr.Load(); l != nil {
		return l
	}
	l := zerolog.New(os.Stderr).With().Timestamp().Str("component", "pydapter").Logger()
	loggerPtr.CompareAndSwap(nil, &l)
	return loggerPtr.Load()
}
