// Package logger is a client-side structured logging engine. Events pass a
// level gate, become compact binary records, run through a streaming
// compressor and a session cipher, and land in a crash-persistent
// memory-mapped staging buffer; a background worker drains staged data into
// dated, size-capped log files. See StagingSink for the pipeline and
// LogHandle for the application entry point.
package logger

import "sync/atomic"

// LogHandle routes events at or above its level threshold to its sinks.
// The threshold is atomic, so SetLevel is safe against concurrent Log calls.
type LogHandle struct {
	level atomic.Int32
	sinks []Sink
}

// NewLogHandle builds a handle over the given sinks; nil entries are
// skipped. The default threshold is LevelInfo.
func NewLogHandle(sinks ...Sink) *LogHandle {
	h := &LogHandle{}
	for _, s := range sinks {
		if s != nil {
			h.sinks = append(h.sinks, s)
		}
	}
	h.level.Store(int32(LevelInfo))
	return h
}

// SetLevel changes the threshold.
func (h *LogHandle) SetLevel(level LogLevel) {
	h.level.Store(int32(level))
}

// GetLevel returns the current threshold.
func (h *LogHandle) GetLevel() LogLevel {
	return LogLevel(h.level.Load())
}

// Log dispatches one event to every sink, in sink order, if level passes the
// threshold. It never returns an error; per-record failures are the sinks'
// business.
func (h *LogHandle) Log(level LogLevel, loc SourceLocation, message string) {
	if !h.shouldLog(level) {
		return
	}
	msg := LogMsg{Location: loc, Level: level, Message: message}
	for _, s := range h.sinks {
		s.Log(msg)
	}
}

// Flush flushes every sink and returns when all are done.
func (h *LogHandle) Flush() {
	for _, s := range h.sinks {
		s.Flush()
	}
}

func (h *LogHandle) shouldLog(level LogLevel) bool {
	return level != LevelOff && level >= LogLevel(h.level.Load())
}
