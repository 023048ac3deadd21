package observability

import (
	"bytes"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	fn()
	return buf.String()
}

func TestStandardLoggerLevelFiltering(t *testing.T) {
	logger := NewStandardLogger("test")

	out := captureOutput(t, func() {
		logger.Debug("hidden", nil)
		logger.Info("shown", map[string]interface{}{"key": "value"})
	})

	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "key=value")
	assert.Contains(t, out, "[test]")
}

func TestStandardLoggerWithLevel(t *testing.T) {
	logger := NewStandardLoggerWithLevel("test", "DEBUG")

	out := captureOutput(t, func() {
		logger.Debug("now visible", nil)
	})

	assert.Contains(t, out, "now visible")
}

func TestStandardLoggerUnknownLevelDefaultsToInfo(t *testing.T) {
	logger := NewStandardLoggerWithLevel("test", "VERBOSE")

	out := captureOutput(t, func() {
		logger.Debug("still hidden", nil)
		logger.Warn("warned", nil)
	})

	assert.NotContains(t, out, "still hidden")
	assert.Contains(t, out, "warned")
}

func TestStandardLoggerWithPrefix(t *testing.T) {
	logger := NewStandardLogger("parent").WithPrefix("child")

	out := captureOutput(t, func() {
		logger.Info("message", nil)
	})

	assert.Contains(t, out, "[child]")
	assert.NotContains(t, out, "[parent]")
}

func TestInMemoryMetricsClient(t *testing.T) {
	metrics := NewInMemoryMetricsClient()

	metrics.RecordCounter("requests", 1, nil)
	metrics.RecordCounter("requests", 2, nil)
	assert.Equal(t, 3.0, metrics.CounterValue("requests"))

	metrics.RecordOperation("svc", "op", true, 0.25, nil)
	metrics.RecordOperation("svc", "op", false, 0.5, nil)
	assert.Equal(t, 1.0, metrics.CounterValue("svc.op.success"))
	assert.Equal(t, 1.0, metrics.CounterValue("svc.op.failure"))

	metrics.RecordLatency("op", 10*time.Millisecond)
}
