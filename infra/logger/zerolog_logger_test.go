package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := newZerolog("solver", Options{Level: "debug", Format: "json", Output: &buf})
	l.Debugw("speed search", map[string]any{"compressor": "compressor_5", "iterations": 17})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "solver", line["component"])
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "compressor_5", line["compressor"])
	assert.EqualValues(t, 17, line["iterations"])
}

func TestZerologLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l := newZerolog("x", Options{Level: "warn", Format: "json", Output: &buf})
	l.Debugf("hidden")
	l.Infof("hidden")
	l.Warnf("shown %d", 1)
	l.Errorf("shown %d", 2)
	assert.Equal(t, 2, strings.Count(buf.String(), "shown"))
	assert.NotContains(t, buf.String(), "hidden")
}

func TestZerologLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	l := newZerolog("x", Options{Format: "console", Output: &buf})
	l.Infof("hello %s", "world")
	assert.Contains(t, buf.String(), "hello world")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestConfigure(t *testing.T) {
	t.Cleanup(func() { _ = Configure(Options{}) })
	assert.Error(t, Configure(Options{Level: "loud"}))
	assert.Error(t, Configure(Options{Format: "xml"}))

	var buf bytes.Buffer
	require.NoError(t, Configure(Options{Level: "error", Format: "json", Output: &buf}))
	l := New("cfg")
	l.Warnf("dropped")
	l.Errorf("kept")
	assert.Contains(t, buf.String(), "kept")
	assert.NotContains(t, buf.String(), "dropped")

	var _ Logger = NopLogger{}
}
