package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"codegraph/internal/logging"
)

func TestPhaseTimingRecordsElapsedDuration(t *testing.T) {
	c := New()

	c.StartPhase("walk")
	time.Sleep(5 * time.Millisecond)
	c.EndPhase("walk")

	m := c.Finalize()
	assert.GreaterOrEqual(t, m.PhaseDurations["walk"], 5*time.Millisecond)
}

func TestEndPhaseWithoutStartIsNoop(t *testing.T) {
	c := New()
	c.EndPhase("never-started")

	m := c.Finalize()
	_, ok := m.PhaseDurations["never-started"]
	assert.False(t, ok)
}

func TestCountersAccumulatePerLanguage(t *testing.T) {
	c := New()
	c.RecordFileCount("go", 10)
	c.RecordSymbolCount("go", 100)
	c.RecordEdgeCount("go", 40)
	c.RecordOccurrenceCount("go", 200)
	c.RecordLinesOfCode(500)

	m := c.Finalize()
	assert.Equal(t, 10, m.FileCounts["go"])
	assert.Equal(t, 100, m.SymbolCounts["go"])
	assert.Equal(t, 40, m.EdgeCounts["go"])
	assert.Equal(t, 200, m.OccurrenceCounts["go"])
	assert.Equal(t, 500, m.ThroughputMetrics.LinesOfCode)
}

func TestFinalizeComputesThroughput(t *testing.T) {
	c := New()
	c.RecordFileCount("go", 100)
	time.Sleep(10 * time.Millisecond)

	m := c.Finalize()
	assert.Greater(t, m.ThroughputMetrics.FilesPerSecond, 0.0)
}

func TestFinalizeWithZeroDurationDoesNotDivideByZero(t *testing.T) {
	c := New()
	m := c.Finalize()
	assert.GreaterOrEqual(t, m.ThroughputMetrics.FilesPerSecond, 0.0)
}

func TestSampleRSSDoesNotPanic(t *testing.T) {
	c := New()
	assert.NotPanics(t, func() { c.SampleMemory() })
}

func TestLogSummaryDoesNotPanic(t *testing.T) {
	c := New()
	c.RecordFileCount("python", 3)
	m := c.Finalize()

	assert.NotPanics(t, func() { LogSummary(logging.Noop(), m) })
}
