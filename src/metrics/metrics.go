package metrics

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"resolutionengine/src/model"
)

// Aggregator derives rolling counts and rates from occurrence outcomes.
// It is fed by intake (reported), the scheduler (resolved) and the
// dispatcher path (escalated); reads are side-effect free.
type Aggregator struct {
	mu sync.Mutex

	total      int64
	bySeverity map[model.Severity]int64

	resolved  int64
	escalated int64

	totalResolutionTime time.Duration
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		bySeverity: make(map[model.Severity]int64),
	}
}

// RecordReported counts a newly created occurrence.
func (a *Aggregator) RecordReported(severity model.Severity) {
	a.mu.Lock()
	a.total++
	a.bySeverity[severity]++
	a.mu.Unlock()
}

// RecordResolved counts an autonomous resolution and its duration.
func (a *Aggregator) RecordResolved(resolutionTime time.Duration) {
	a.mu.Lock()
	a.resolved++
	a.totalResolutionTime += resolutionTime
	a.mu.Unlock()
}

// RecordEscalated counts an escalated occurrence.
func (a *Aggregator) RecordEscalated() {
	a.mu.Lock()
	a.escalated++
	a.mu.Unlock()
}

// Total returns the all-time occurrence count.
func (a *Aggregator) Total() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total
}

// Snapshot is the observability view of the aggregator.
type Snapshot struct {
	TotalOccurrences      int64            `json:"total_occurrences"`
	CountsBySeverity      map[string]int64 `json:"counts_by_severity"`
	Resolved              int64            `json:"resolved"`
	Escalated             int64            `json:"escalated"`
	AutoResolutionRate    float64          `json:"auto_resolution_rate"`
	EscalationRate        float64          `json:"escalation_rate"`
	AverageResolutionTime string           `json:"average_resolution_time"`
}

// Snapshot computes rates over all reported occurrences, rounded to four
// decimal places.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snapshot := Snapshot{
		TotalOccurrences:      a.total,
		CountsBySeverity:      make(map[string]int64, len(a.bySeverity)),
		Resolved:              a.resolved,
		Escalated:             a.escalated,
		AverageResolutionTime: time.Duration(0).String(),
	}

	for severity, count := range a.bySeverity {
		snapshot.CountsBySeverity[severity.String()] = count
	}

	if a.total > 0 {
		total := decimal.NewFromInt(a.total)
		snapshot.AutoResolutionRate = rate(decimal.NewFromInt(a.resolved), total)
		snapshot.EscalationRate = rate(decimal.NewFromInt(a.escalated), total)
	}

	if a.resolved > 0 {
		snapshot.AverageResolutionTime = (a.totalResolutionTime / time.Duration(a.resolved)).String()
	}

	return snapshot
}

func rate(part, total decimal.Decimal) float64 {
	value, _ := part.Div(total).Round(4).Float64()
	return value
}
