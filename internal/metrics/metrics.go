// Package metrics models the (name, dimensions, value) emissions the trade
// cycle produces and the sinks that receive them.
package metrics

import (
	"maps"
	"time"

	"github.com/sirupsen/logrus"
)

// Kind tells a sink how to aggregate a value.
type Kind string

const (
	KindAverage Kind = "average"
	KindCount   Kind = "count"
	KindLast    Kind = "last"
)

// Value is one metric reading. Averages carry a numerator and a denominator
// so that sinks can aggregate ratios correctly.
type Value struct {
	Kind        Kind    `json:"kind"`
	Numerator   float64 `json:"numerator"`
	Denominator float64 `json:"denominator"`
}

func Average(numerator, denominator float64) Value {
	return Value{Kind: KindAverage, Numerator: numerator, Denominator: denominator}
}

func Count(n int) Value {
	return Value{Kind: KindCount, Numerator: float64(n), Denominator: 1}
}

func Last(v float64) Value {
	return Value{Kind: KindLast, Numerator: v, Denominator: 1}
}

// Ratio returns numerator/denominator, or 0 for an empty denominator.
func (v Value) Ratio() float64 {
	if v.Denominator == 0 {
		return 0
	}
	return v.Numerator / v.Denominator
}

// Dimensions are the labels attached to an emission.
type Dimensions map[string]string

// Emission is a single metric write.
type Emission struct {
	Name       string     `json:"name"`
	Dimensions Dimensions `json:"dimensions"`
	Value      Value      `json:"value"`
	At         time.Time  `json:"at"`
}

// Sink receives emissions. Implementations must be safe for concurrent use.
type Sink interface {
	Emit(e Emission) error
}

// Emitter binds a sink to a set of base dimensions, typically the account.
type Emitter struct {
	sink Sink
	base Dimensions
	now  func() time.Time
}

func NewEmitter(sink Sink, base Dimensions) *Emitter {
	return &Emitter{sink: sink, base: base, now: time.Now}
}

// With returns an Emitter carrying one more base dimension.
func (e *Emitter) With(key, value string) *Emitter {
	d := make(Dimensions, len(e.base)+1)
	maps.Copy(d, e.base)
	d[key] = value
	return &Emitter{sink: e.sink, base: d, now: e.now}
}

// Emit writes one emission. Sink failures are logged and swallowed: metrics
// never fail a trade cycle.
func (e *Emitter) Emit(name string, dims Dimensions, v Value) {
	if e == nil || e.sink == nil {
		return
	}
	d := make(Dimensions, len(e.base)+len(dims))
	maps.Copy(d, e.base)
	maps.Copy(d, dims)
	if err := e.sink.Emit(Emission{Name: name, Dimensions: d, Value: v, At: e.now()}); err != nil {
		logrus.WithError(err).WithField("metric", name).Warn("emit metric failed")
	}
}

// EmitContracts writes the player and coach values of a metric.
func (e *Emitter) EmitContracts(name string, dims Dimensions, player, coach Value) {
	pd := make(Dimensions, len(dims)+1)
	maps.Copy(pd, dims)
	pd[DimContractType] = ContractGoldPlayer
	e.Emit(name, pd, player)

	cd := make(Dimensions, len(dims)+1)
	maps.Copy(cd, dims)
	cd[DimContractType] = ContractGoldCoach
	e.Emit(name, cd, coach)
}

type multiSink []Sink

// Multi fans every emission out to all sinks, returning the first error.
func Multi(sinks ...Sink) Sink {
	return multiSink(sinks)
}

func (m multiSink) Emit(e Emission) error {
	var first error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Emit(e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
