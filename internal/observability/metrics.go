package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects and aggregates metrics for study operations.
type Metrics struct {
	mu sync.Mutex

	// Counters
	gradeTotal atomic.Int64
	undoTotal  atomic.Int64
	saveFailed atomic.Int64

	// Scope-specific metrics
	scopeMetrics map[string]*ScopeMetrics

	// Answer time histogram data (simplified for internal use)
	answerTimes    []time.Duration
	maxAnswerTimes int
}

// ScopeMetrics represents metrics for a specific study scope.
type ScopeMetrics struct {
	gradeCount  atomic.Int64
	againCount  atomic.Int64
	totalAnswer atomic.Int64 // milliseconds
}

// NewMetrics creates a new metrics collector.
func NewMetrics(maxAnswerTimes int) *Metrics {
	if maxAnswerTimes <= 0 {
		maxAnswerTimes = 1000 // Default to keeping last 1000 answer times
	}
	return &Metrics{
		scopeMetrics:   make(map[string]*ScopeMetrics),
		answerTimes:    make([]time.Duration, 0, maxAnswerTimes),
		maxAnswerTimes: maxAnswerTimes,
	}
}

// Global metrics instance.
var globalMetrics = NewMetrics(1000)

// GlobalMetrics returns the global metrics instance.
func GlobalMetrics() *Metrics {
	return globalMetrics
}

// RecordGrade records a graded answer. again marks the lowest grade.
func (m *Metrics) RecordGrade(scope string, again bool) {
	m.gradeTotal.Add(1)
	sm := m.getScopeMetrics(scope)
	sm.gradeCount.Add(1)
	if again {
		sm.againCount.Add(1)
	}
}

// RecordUndo records an undone grade.
func (m *Metrics) RecordUndo() {
	m.undoTotal.Add(1)
}

// RecordSaveFailure records a failed persistence flush.
func (m *Metrics) RecordSaveFailure() {
	m.saveFailed.Add(1)
}

// RecordAnswerTime records how long the reviewer took to answer.
func (m *Metrics) RecordAnswerTime(scope string, duration time.Duration) {
	m.mu.Lock()
	if len(m.answerTimes) >= m.maxAnswerTimes {
		// Remove oldest answer time (FIFO)
		m.answerTimes = m.answerTimes[1:]
	}
	m.answerTimes = append(m.answerTimes, duration)
	m.mu.Unlock()

	m.getScopeMetrics(scope).totalAnswer.Add(duration.Milliseconds())
}

// GetGradeTotal returns the total number of graded answers.
func (m *Metrics) GetGradeTotal() int64 {
	return m.gradeTotal.Load()
}

// GetUndoTotal returns the total number of undone grades.
func (m *Metrics) GetUndoTotal() int64 {
	return m.undoTotal.Load()
}

// GetSaveFailed returns the total number of failed persistence flushes.
func (m *Metrics) GetSaveFailed() int64 {
	return m.saveFailed.Load()
}

// GetScopeMetrics returns metrics for a specific scope.
func (m *Metrics) GetScopeMetrics(scope string) *ScopeMetrics {
	return m.getScopeMetrics(scope)
}

// getScopeMetrics gets or creates scope metrics.
func (m *Metrics) getScopeMetrics(scope string) *ScopeMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	sm, ok := m.scopeMetrics[scope]
	if !ok {
		sm = &ScopeMetrics{}
		m.scopeMetrics[scope] = sm
	}
	return sm
}

// GetAverageAnswerMs returns the average answer time in milliseconds for a scope.
func (m *Metrics) GetAverageAnswerMs(scope string) int64 {
	sm := m.getScopeMetrics(scope)
	count := sm.gradeCount.Load()
	if count == 0 {
		return 0
	}
	return sm.totalAnswer.Load() / count
}

// GetAllScopes returns all scopes that have been recorded.
func (m *Metrics) GetAllScopes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	scopes := make([]string, 0, len(m.scopeMetrics))
	for scope := range m.scopeMetrics {
		scopes = append(scopes, scope)
	}
	return scopes
}

// Reset resets all metrics (useful for testing).
func (m *Metrics) Reset() {
	m.gradeTotal.Store(0)
	m.undoTotal.Store(0)
	m.saveFailed.Store(0)

	m.mu.Lock()
	m.scopeMetrics = make(map[string]*ScopeMetrics)
	m.answerTimes = make([]time.Duration, 0, m.maxAnswerTimes)
	m.mu.Unlock()
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	scopeSnapshots := make(map[string]*ScopeMetricsSnapshot, len(m.scopeMetrics))
	for scope, sm := range m.scopeMetrics {
		scopeSnapshots[scope] = &ScopeMetricsSnapshot{
			GradeCount:  sm.gradeCount.Load(),
			AgainCount:  sm.againCount.Load(),
			TotalAnswer: sm.totalAnswer.Load(),
			AverageAnswer: func() int64 {
				count := sm.gradeCount.Load()
				if count == 0 {
					return 0
				}
				return sm.totalAnswer.Load() / count
			}(),
		}
	}

	return &MetricsSnapshot{
		GradeTotal:      m.gradeTotal.Load(),
		UndoTotal:       m.undoTotal.Load(),
		SaveFailed:      m.saveFailed.Load(),
		ScopeMetrics:    scopeSnapshots,
		AnswerTimeCount: len(m.answerTimes),
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	GradeTotal      int64
	UndoTotal       int64
	SaveFailed      int64
	ScopeMetrics    map[string]*ScopeMetricsSnapshot
	AnswerTimeCount int
}

// ScopeMetricsSnapshot represents metrics for a specific scope.
type ScopeMetricsSnapshot struct {
	GradeCount    int64
	AgainCount    int64
	TotalAnswer   int64
	AverageAnswer int64
}

// RetentionRate returns the share of grades above Again as a percentage (0-100).
func (s *MetricsSnapshot) RetentionRate() float64 {
	if s.GradeTotal == 0 {
		return 100.0
	}
	var again int64
	for _, sm := range s.ScopeMetrics {
		again += sm.AgainCount
	}
	return float64(s.GradeTotal-again) / float64(s.GradeTotal) * 100.0
}
