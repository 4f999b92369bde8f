package searcher

import (
	"sync/atomic"
	"time"
)

// SearchMetrics summarizes one Search call.
type SearchMetrics struct {
	StartTime    time.Time
	Duration     time.Duration
	Simulations  int64
	Expansions   int64
	RolloutMoves int64
	TreeSize     int
}

type MetricsCollector interface {
	Start()
	AddSimulation()
	AddExpansion()
	AddRolloutMove()
	Complete(treeSize int) SearchMetrics
}

type metricsCollector struct {
	startTime    time.Time
	simulations  atomic.Int64
	expansions   atomic.Int64
	rolloutMoves atomic.Int64
}

func NewMetricsCollector() MetricsCollector {
	return &metricsCollector{}
}

func (m *metricsCollector) Start() {
	m.startTime = time.Now()
	m.simulations.Store(0)
	m.expansions.Store(0)
	m.rolloutMoves.Store(0)
}

func (m *metricsCollector) AddSimulation() {
	m.simulations.Add(1)
}

func (m *metricsCollector) AddExpansion() {
	m.expansions.Add(1)
}

func (m *metricsCollector) AddRolloutMove() {
	m.rolloutMoves.Add(1)
}

func (m *metricsCollector) Complete(treeSize int) SearchMetrics {
	return SearchMetrics{
		StartTime:    m.startTime,
		Duration:     time.Since(m.startTime),
		Simulations:  m.simulations.Load(),
		Expansions:   m.expansions.Load(),
		RolloutMoves: m.rolloutMoves.Load(),
		TreeSize:     treeSize,
	}
}

type noMetricsCollector struct{}

func NewNoMetricsCollector() MetricsCollector {
	return &noMetricsCollector{}
}

func (m *noMetricsCollector) Start()                              {}
func (m *noMetricsCollector) AddSimulation()                      {}
func (m *noMetricsCollector) AddExpansion()                       {}
func (m *noMetricsCollector) AddRolloutMove()                     {}
func (m *noMetricsCollector) Complete(treeSize int) SearchMetrics { return SearchMetrics{} }
