// Package feed is the boundary between the chart and whatever supplies its bars.
package feed

import (
	"context"
	"errors"

	"github.com/raykavin/chartview/pkg/core"
)

var ErrUnknownSymbol = errors.New("unknown symbol")

// Status tells the host whether a snapshot can be drawn yet
type Status int

const (
	StatusPending Status = iota
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is the bar series of one symbol and timeframe at a point in time
type Snapshot struct {
	Symbol    string
	Timeframe core.Timeframe
	Bars      []core.Bar
	Status    Status
	Err       error
}

// Pending returns the placeholder shown while a load is in flight
func Pending(symbol string, tf core.Timeframe) Snapshot {
	return Snapshot{Symbol: symbol, Timeframe: tf, Status: StatusPending}
}

// Failed wraps a load error into a snapshot
func Failed(symbol string, tf core.Timeframe, err error) Snapshot {
	return Snapshot{Symbol: symbol, Timeframe: tf, Status: StatusError, Err: err}
}

// Source loads bars for a symbol. Implementations own caching and retries.
type Source interface {
	Load(ctx context.Context, symbol string, tf core.Timeframe) (Snapshot, error)
}

// Memory serves fixed bar series, keyed by symbol, at their native timeframe or resampled
type Memory struct {
	series map[string]Snapshot
}

func NewMemory() *Memory {
	return &Memory{series: make(map[string]Snapshot)}
}

// Add stores bars for symbol after validating them
func (m *Memory) Add(symbol string, tf core.Timeframe, bars []core.Bar) error {
	if err := core.ValidateBars(bars); err != nil {
		return err
	}
	m.series[symbol] = Snapshot{Symbol: symbol, Timeframe: tf, Bars: bars, Status: StatusReady}
	return nil
}

func (m *Memory) Load(ctx context.Context, symbol string, tf core.Timeframe) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Failed(symbol, tf, err), err
	}

	snap, ok := m.series[symbol]
	if !ok {
		err := core.NewError(core.KindInput, "load "+symbol, ErrUnknownSymbol)
		return Failed(symbol, tf, err), err
	}
	return resampled(snap, tf)
}

// resampled converts a ready snapshot to tf, reporting failures in the snapshot as well
func resampled(snap Snapshot, tf core.Timeframe) (Snapshot, error) {
	if tf == "" || tf == snap.Timeframe {
		return snap, nil
	}

	bars, err := Resample(snap.Bars, snap.Timeframe, tf)
	if err != nil {
		return Failed(snap.Symbol, tf, err), err
	}
	return Snapshot{Symbol: snap.Symbol, Timeframe: tf, Bars: bars, Status: StatusReady}, nil
}
