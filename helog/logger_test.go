// ABOUTME: Tests for level filtering, field tagging, and the global logger accessors

package helog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltersBelowConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelWarn, &buf)

	l.Debug("should not appear")
	l.Info("should not appear either")
	l.Warn("this one shows up")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "this one shows up")
	assert.Contains(t, out, "[WARN]")
}

func TestWithFieldTagsSubsequentLines(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelDebug, &buf)
	tagged := l.WithField("run_id", "abc123")

	tagged.Info("analyzing")

	assert.Contains(t, buf.String(), "run_id=abc123")
}

func TestWithFieldsDoesNotMutateTheParentLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelDebug, &buf)
	_ = l.WithFields(map[string]interface{}{"x": 1})

	l.Info("plain line")
	assert.NotContains(t, buf.String(), "x=1")
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelInfo, ParseLevel("not-a-real-level"))
}

func TestNullLoggerDiscardsEverything(t *testing.T) {
	var n NullLogger
	n.Error("this goes nowhere")
	chained := n.WithField("k", "v")
	chained.Warn("still nowhere")
}

func TestSetGlobalReplacesTheProcessWideLogger(t *testing.T) {
	var buf bytes.Buffer
	original := Global()
	defer SetGlobal(original)

	SetGlobal(New(LevelDebug, &buf))
	Global().Info("through the global accessor")

	assert.True(t, strings.Contains(buf.String(), "through the global accessor"))
}
