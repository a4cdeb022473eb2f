// Package recorder persists metric emissions and cycle reports.
package recorder

import (
	"ContractTrader/internal/metrics"
	"ContractTrader/internal/model"
)

// CycleSummary is one persisted cycle, newest first when listed.
type CycleSummary struct {
	ID         string `json:"id"`
	StartedAt  int64  `json:"started_at"`
	FinishedAt int64  `json:"finished_at"`
	Done       int    `json:"done"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`
	Canceled   int    `json:"canceled"`
}

// Recorder is a metrics sink that also keeps the history of trade cycles.
type Recorder interface {
	metrics.Sink
	RecordCycle(report *model.CycleReport) error
	RecentCycles(limit int) ([]CycleSummary, error)
	Close() error
}
