package recorder

import (
	"ContractTrader/internal/metrics"
	"ContractTrader/internal/model"
)

// NoopRecorder is used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) Emit(_ metrics.Emission) error              { return nil }
func (n *NoopRecorder) RecordCycle(_ *model.CycleReport) error     { return nil }
func (n *NoopRecorder) RecentCycles(_ int) ([]CycleSummary, error) { return nil, nil }
func (n *NoopRecorder) Close() error                               { return nil }
