// Package logging provides leveled logging and cycle tracing for cohort.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A CycleLogger for structured JSONL cycle traces (.cohort/cycles.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug. At this level the
// cycle trace includes every resolved transition matrix, not just the
// occupancy vectors.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Label the custom trace level
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// CycleLogger writes structured per-cycle events to a JSONL file.
// It is safe for concurrent use, so strategies running in parallel can
// share one logger. A nil CycleLogger is safe to use; all methods are
// no-ops on nil receiver.
type CycleLogger struct {
	mu       sync.Mutex
	file     *os.File
	matrices bool
}

// NewCycleLogger creates a cycle logger writing to dir/cycles.jsonl.
// At "info" level (the default), returns nil — no file is created.
// At "debug" or "trace" level, the file is opened for append; "trace"
// additionally enables matrix events. Returns nil if the file cannot
// be opened. All methods are nil-safe.
func NewCycleLogger(dir string, level string) *CycleLogger {
	lvl := ParseLevel(level)
	if lvl == slog.LevelInfo {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	path := filepath.Join(dir, "cycles.jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	return &CycleLogger{file: f, matrices: lvl == LevelTrace}
}

// LogCycle records one cycle's occupancy for a strategy.
func (cl *CycleLogger) LogCycle(strategy string, cycle int, occupancy map[string]float64) {
	cl.log(map[string]any{
		"event":     "cycle",
		"strategy":  strategy,
		"cycle":     cycle,
		"occupancy": occupancy,
	})
}

// LogMatrix records a resolved transition matrix. Only written at
// trace level.
func (cl *CycleLogger) LogMatrix(strategy string, cycle int, states []string, matrix [][]float64) {
	if cl == nil || !cl.matrices {
		return
	}
	cl.log(map[string]any{
		"event":    "matrix",
		"strategy": strategy,
		"cycle":    cycle,
		"states":   states,
		"matrix":   matrix,
	})
}

// log writes an event as a single JSONL line with a "time" field added.
// Safe to call on nil receiver.
func (cl *CycleLogger) log(event map[string]any) {
	if cl == nil || cl.file == nil {
		return
	}

	entry := make(map[string]any, len(event)+1)
	for k, v := range event {
		entry[k] = v
	}
	entry["time"] = time.Now().UTC().Format(time.RFC3339Nano)

	cl.mu.Lock()
	defer cl.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = cl.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (cl *CycleLogger) Close() {
	if cl == nil || cl.file == nil {
		return
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	cl.file.Close()
	cl.file = nil
}
