// Package rtllog carries the repository's logging conventions: slog
// with a couple of extra, finer-grained levels for the hot loops
// (settling iterations, behavioral-simulator ticks) that would otherwise
// flood LevelDebug. Mirrors the LevelTrace/LevelWaveform pattern in
// the teacher's core/util.go.
package rtllog

import (
	"context"
	"log/slog"
)

const (
	// LevelSettle is one notch above LevelDebug: one line per settling
	// iteration of the behavioral simulator.
	LevelSettle slog.Level = slog.LevelDebug + 1

	// LevelTick is one notch above LevelSettle: one line per tick of
	// the behavioral simulator.
	LevelTick slog.Level = slog.LevelDebug + 2
)

// Settle logs at LevelSettle.
func Settle(msg string, args ...any) {
	slog.Log(context.Background(), LevelSettle, msg, args...)
}

// Tick logs at LevelTick.
func Tick(msg string, args ...any) {
	slog.Log(context.Background(), LevelTick, msg, args...)
}
