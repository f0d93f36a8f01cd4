package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memorySink records dispatched events for handle tests.
type memorySink struct {
	msgs    []LogMsg
	flushes int
}

func (m *memorySink) Log(msg LogMsg) { m.msgs = append(m.msgs, msg) }
func (m *memorySink) Flush()         { m.flushes++ }

func TestLogHandle_LevelGate(t *testing.T) {
	sink := &memorySink{}
	h := NewLogHandle(sink)
	require.Equal(t, LevelInfo, h.GetLevel())

	h.Log(LevelDebug, SourceLocation{}, "filtered")
	h.Log(LevelInfo, SourceLocation{}, "kept")
	h.Log(LevelError, SourceLocation{}, "kept too")
	require.Len(t, sink.msgs, 2)

	h.SetLevel(LevelError)
	h.Log(LevelWarn, SourceLocation{}, "filtered")
	require.Len(t, sink.msgs, 2)

	h.SetLevel(LevelTrace)
	h.Log(LevelTrace, SourceLocation{}, "kept")
	assert.Equal(t, "kept", sink.msgs[2].Message)
	assert.Equal(t, LevelTrace, sink.msgs[2].Level)
}

func TestLogHandle_OffNeverLogs(t *testing.T) {
	sink := &memorySink{}
	h := NewLogHandle(sink)
	h.SetLevel(LevelOff)

	h.Log(LevelCritical, SourceLocation{}, "dropped")
	// An event "at" level off is dropped even when the threshold allows it.
	h.SetLevel(LevelTrace)
	h.Log(LevelOff, SourceLocation{}, "dropped")
	require.Empty(t, sink.msgs)
}

func TestLogHandle_FanOutOrder(t *testing.T) {
	first := &memorySink{}
	second := &memorySink{}
	h := NewLogHandle(first, nil, second)

	h.Log(LevelWarn, SourceLocation{File: "a.go", Line: 1}, "event")
	require.Len(t, first.msgs, 1)
	require.Len(t, second.msgs, 1)
	assert.Equal(t, first.msgs[0], second.msgs[0])

	h.Flush()
	assert.Equal(t, 1, first.flushes)
	assert.Equal(t, 1, second.flushes)
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "TRACE", LevelTrace.String())
	assert.Equal(t, "CRITICAL", LevelCritical.String())
	assert.Equal(t, "OFF", LevelOff.String())
	assert.Equal(t, "UNKNOWN", LogLevel(99).String())
}
