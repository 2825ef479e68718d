// Package models holds the value types shared by the pricing, simulation and
// advisory components. Everything here is read-only for the duration of an
// analysis cycle and rebuilt from scratch on the next one.
package models

import (
	"math"
	"time"
)

// SecType identifies the instrument kind of a position.
type SecType string

const (
	SecTypeStock  SecType = "STK"
	SecTypeOption SecType = "OPT"
	SecTypeFuture SecType = "FUT"
	SecTypeForex  SecType = "CASH"
	SecTypeFund   SecType = "FUND"
	SecTypeCrypto SecType = "CRYPTO"
)

// Right is the option right.
type Right string

const (
	RightCall Right = "C"
	RightPut  Right = "P"
)

// OptionDetails carries the contract terms of an option position.
type OptionDetails struct {
	Strike     float64   `json:"strike"`
	Right      Right     `json:"right"`
	Expiry     time.Time `json:"expiry"`
	Underlying string    `json:"underlying"`
}

// IsCall reports whether the right is a call.
func (o *OptionDetails) IsCall() bool {
	return o.Right == RightCall
}

// DaysToExpiry returns whole calendar days from now to expiry, floored at 0.
func (o *OptionDetails) DaysToExpiry(now time.Time) int {
	d := int(math.Ceil(o.Expiry.Sub(now).Hours() / 24))
	if d < 0 {
		return 0
	}
	return d
}

// Position is one holding supplied by the broker collaborator for a single
// analysis cycle. Quantity is signed and may be fractional.
type Position struct {
	Symbol        string         `json:"symbol"`
	SecType       SecType        `json:"sec_type"`
	Quantity      float64        `json:"position"`
	Multiplier    float64        `json:"multiplier"`
	AvgCost       float64        `json:"avg_cost"`
	MarketPrice   float64        `json:"market_price"`
	MarketValue   float64        `json:"market_value"`
	UnrealizedPnL float64        `json:"unrealized_pnl"`
	Option        *OptionDetails `json:"option,omitempty"`
}

// IsOption reports whether the position is an option.
func (p *Position) IsOption() bool {
	return p.SecType == SecTypeOption
}

// IsLong reports whether the position quantity is positive.
func (p *Position) IsLong() bool {
	return p.Quantity > 0
}

// EffectiveMultiplier returns the contract multiplier, defaulting to 100 for
// options and 1 otherwise when the broker did not supply one.
func (p *Position) EffectiveMultiplier() float64 {
	if p.Multiplier > 0 {
		return p.Multiplier
	}
	if p.IsOption() {
		return 100
	}
	return 1
}

// UnderlyingSymbol returns the symbol whose market snapshot drives this
// position: the option underlying for options, the position symbol otherwise.
func (p *Position) UnderlyingSymbol() string {
	if p.IsOption() && p.Option != nil && p.Option.Underlying != "" {
		return p.Option.Underlying
	}
	return p.Symbol
}

// TotalCost is the absolute cost basis of the position.
func (p *Position) TotalCost() float64 {
	return math.Abs(p.Quantity) * p.AvgCost * p.EffectiveMultiplier()
}

// MarketSnapshot is the per-underlying market state for one analysis cycle.
// It is immutable while any component holds a reference to it.
type MarketSnapshot struct {
	Symbol       string    `json:"symbol"`
	Spot         float64   `json:"spot"`
	ImpliedVol   float64   `json:"implied_vol"`
	RiskFreeRate float64   `json:"risk_free_rate"`
	Timestamp    time.Time `json:"timestamp"`
}

// AccountSummary is the broker-reported account state echoed into the report.
type AccountSummary struct {
	NetLiquidation float64 `json:"net_liquidation"`
	UnrealizedPnL  float64 `json:"unrealized_pnl"`
}
