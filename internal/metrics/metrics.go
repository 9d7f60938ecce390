// Package metrics collects per-phase timing, per-language counts, and throughput
// statistics for a scan run (C8).
package metrics

import (
	"fmt"
	"sync"
	"time"

	"codegraph/internal/logging"
)

// ThroughputMetrics summarizes processing rate for a finished scan.
type ThroughputMetrics struct {
	FilesPerSecond             float64
	SymbolsPerSecond           float64
	LinesOfCode                int
	ProcessingRateLOCPerSecond float64
}

// MemoryUsage reports peak and final resident set size, in megabytes.
type MemoryUsage struct {
	PeakMemoryMB  float64
	FinalMemoryMB float64
}

// PerformanceMetrics is the finalized, immutable summary of a scan run.
type PerformanceMetrics struct {
	TotalDuration     time.Duration
	PhaseDurations    map[string]time.Duration
	FileCounts        map[string]int
	SymbolCounts      map[string]int
	EdgeCounts        map[string]int
	OccurrenceCounts  map[string]int
	MemoryUsage       MemoryUsage
	ThroughputMetrics ThroughputMetrics
}

// Collector accumulates metrics over the lifetime of one scan. It is safe for
// concurrent use by the per-file worker pool (§5).
type Collector struct {
	mu sync.Mutex

	startTime        time.Time
	phaseTimers      map[string]time.Time
	phaseDurations   map[string]time.Duration
	fileCounts       map[string]int
	symbolCounts     map[string]int
	edgeCounts       map[string]int
	occurrenceCounts map[string]int
	totalLOC         int
	peakMemoryMB     float64
}

// New creates a Collector with its clock started.
func New() *Collector {
	return &Collector{
		startTime:        time.Now(),
		phaseTimers:      make(map[string]time.Time),
		phaseDurations:   make(map[string]time.Duration),
		fileCounts:       make(map[string]int),
		symbolCounts:     make(map[string]int),
		edgeCounts:       make(map[string]int),
		occurrenceCounts: make(map[string]int),
	}
}

// StartPhase marks phase as running.
func (c *Collector) StartPhase(phase string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phaseTimers[phase] = time.Now()
}

// EndPhase records the elapsed duration since StartPhase(phase). A call with no
// matching StartPhase is a no-op.
func (c *Collector) EndPhase(phase string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	start, ok := c.phaseTimers[phase]
	if !ok {
		return
	}
	c.phaseDurations[phase] = time.Since(start)
	delete(c.phaseTimers, phase)
}

// RecordFileCount sets the processed file count for language.
func (c *Collector) RecordFileCount(language string, count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fileCounts[language] = count
}

// RecordSymbolCount sets the emitted symbol count for language.
func (c *Collector) RecordSymbolCount(language string, count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.symbolCounts[language] = count
}

// RecordEdgeCount sets the emitted edge count for language.
func (c *Collector) RecordEdgeCount(language string, count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.edgeCounts[language] = count
}

// RecordOccurrenceCount sets the emitted occurrence count for language.
func (c *Collector) RecordOccurrenceCount(language string, count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.occurrenceCounts[language] = count
}

// RecordLinesOfCode adds lines to the running line-of-code total.
func (c *Collector) RecordLinesOfCode(lines int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalLOC += lines
}

// SampleMemory updates the peak RSS observed so far.
func (c *Collector) SampleMemory() {
	usage, ok := sampleRSSMB()
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if usage > c.peakMemoryMB {
		c.peakMemoryMB = usage
	}
}

// Finalize computes throughput and returns the immutable summary. The Collector
// should not be reused afterward.
func (c *Collector) Finalize() PerformanceMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	totalDuration := time.Since(c.startTime)
	finalMemory, _ := sampleRSSMB()

	var totalFiles, totalSymbols int
	for _, n := range c.fileCounts {
		totalFiles += n
	}
	for _, n := range c.symbolCounts {
		totalSymbols += n
	}

	seconds := totalDuration.Seconds()
	var filesPerSecond, symbolsPerSecond, locPerSecond float64
	if seconds > 0 {
		filesPerSecond = float64(totalFiles) / seconds
		symbolsPerSecond = float64(totalSymbols) / seconds
		locPerSecond = float64(c.totalLOC) / seconds
	}

	return PerformanceMetrics{
		TotalDuration:    totalDuration,
		PhaseDurations:   copyDurationMap(c.phaseDurations),
		FileCounts:       copyIntMap(c.fileCounts),
		SymbolCounts:     copyIntMap(c.symbolCounts),
		EdgeCounts:       copyIntMap(c.edgeCounts),
		OccurrenceCounts: copyIntMap(c.occurrenceCounts),
		MemoryUsage: MemoryUsage{
			PeakMemoryMB:  c.peakMemoryMB,
			FinalMemoryMB: finalMemory,
		},
		ThroughputMetrics: ThroughputMetrics{
			FilesPerSecond:             filesPerSecond,
			SymbolsPerSecond:           symbolsPerSecond,
			LinesOfCode:                c.totalLOC,
			ProcessingRateLOCPerSecond: locPerSecond,
		},
	}
}

// LogSummary writes a human-readable performance summary to log.
func LogSummary(log *logging.Logger, m PerformanceMetrics) {
	log.Info("scan performance summary", map[string]interface{}{
		"total_duration": m.TotalDuration.String(),
	})
	for phase, d := range m.PhaseDurations {
		log.Info(fmt.Sprintf("phase %s", phase), map[string]interface{}{"duration": d.String()})
	}

	var totalFiles, totalSymbols, totalEdges, totalOccurrences int
	for _, n := range m.FileCounts {
		totalFiles += n
	}
	for _, n := range m.SymbolCounts {
		totalSymbols += n
	}
	for _, n := range m.EdgeCounts {
		totalEdges += n
	}
	for _, n := range m.OccurrenceCounts {
		totalOccurrences += n
	}

	log.Info("processed data", map[string]interface{}{
		"files":         totalFiles,
		"symbols":       totalSymbols,
		"edges":         totalEdges,
		"occurrences":   totalOccurrences,
		"lines_of_code": m.ThroughputMetrics.LinesOfCode,
	})
	log.Info("throughput", map[string]interface{}{
		"files_per_second":   fmt.Sprintf("%.1f", m.ThroughputMetrics.FilesPerSecond),
		"symbols_per_second": fmt.Sprintf("%.1f", m.ThroughputMetrics.SymbolsPerSecond),
		"loc_per_second":     fmt.Sprintf("%.1f", m.ThroughputMetrics.ProcessingRateLOCPerSecond),
	})
}

func copyDurationMap(m map[string]time.Duration) map[string]time.Duration {
	out := make(map[string]time.Duration, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyIntMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
