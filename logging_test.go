package impulse2d

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterLoggerLevels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWriterLogger("solver", false, &out, &errOut)

	l.Debugf("hidden %d", 1)
	assert.Empty(t, out.String())

	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("shown %d", 2)
	assert.Contains(t, out.String(), "[solver] DEBUG: shown 2")

	l.Infof("info")
	assert.Contains(t, out.String(), "INFO: info")

	l.Warnf("careful")
	l.Errorf("broken")
	assert.Contains(t, errOut.String(), "[solver] WARN: careful")
	assert.Contains(t, errOut.String(), "ERROR: broken")
	assert.NotContains(t, out.String(), "careful")
}

func TestWriterLoggerWithoutPrefix(t *testing.T) {
	var out bytes.Buffer
	l := NewWriterLogger("", true, &out, &out)
	l.Infof("plain")
	assert.Contains(t, out.String(), "INFO: plain")
	assert.NotContains(t, out.String(), "[")
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.SetDebug(true)
	assert.False(t, l.DebugEnabled())
	assert.NotPanics(t, func() { l.Errorf("ignored %v", 1) })
	assert.Equal(t, l, orNop(nil))

	custom := NewWriterLogger("x", false, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Same(t, custom, orNop(custom))
}
