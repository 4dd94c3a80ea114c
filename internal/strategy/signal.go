package strategy

import (
	"fmt"
	"time"
)

// Direction classifies what a signal asks the execution engine to do.
type Direction int8

const (
	None Direction = iota
	Buy
	Sell
	CloseLong
	CloseShort
)

func (d Direction) String() string {
	switch d {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	case CloseLong:
		return "close-long"
	case CloseShort:
		return "close-short"
	default:
		return "none"
	}
}

// IsEntry reports whether the direction opens a new position.
func (d Direction) IsEntry() bool {
	return d == Buy || d == Sell
}

// OrderKind distinguishes market from limit entries.
type OrderKind int8

const (
	Market OrderKind = iota
	Limit
)

func (k OrderKind) String() string {
	if k == Limit {
		return "limit"
	}
	return "market"
}

// Signal is one strategy decision for one bar. It is produced once,
// consumed once by validation and sizing, and never mutated afterwards.
// Stop and Target are only meaningful when the corresponding Has flag is
// set; a zero price is a legal stop for no instrument, but the flags keep
// intent explicit.
type Signal struct {
	Time       time.Time `json:"time"`
	Direction  Direction `json:"direction"`
	OrderKind  OrderKind `json:"order_kind"`
	Price      float64   `json:"price"`       // reference price (close for market entries)
	LimitPrice float64   `json:"limit_price"` // only for limit orders
	Stop       float64   `json:"stop"`
	HasStop    bool      `json:"has_stop"`
	Target     float64   `json:"target"`
	HasTarget  bool      `json:"has_target"`
	Confidence float64   `json:"confidence"` // [0,1]
	Reason     string    `json:"reason"`     // indicator/pattern/price action
}

// HoldSignal returns the no-entry signal for a bar.
func HoldSignal(ts time.Time, reason string) Signal {
	return Signal{Time: ts, Direction: None, Reason: reason}
}

// SizedSignal is a validated signal with its computed trade quantity. It
// exists only after sizing succeeds.
type SizedSignal struct {
	Signal
	Quantity   float64 `json:"quantity"`    // contracts / lots / shares, > 0
	RiskAmount float64 `json:"risk_amount"` // currency at risk if the stop is hit
}

// SizingError reports why a signal could not be converted into a tradable
// quantity. It aborts sizing for that one signal only.
type SizingError struct {
	Symbol       string
	StopDistance float64
	Reason       string
}

func (e *SizingError) Error() string {
	return fmt.Sprintf("sizing %s failed: %s (stop distance %.6f)", e.Symbol, e.Reason, e.StopDistance)
}
