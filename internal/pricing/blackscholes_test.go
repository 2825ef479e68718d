package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutCallParity(t *testing.T) {
	spot, strike, tt, rate, div, vol := 100.0, 105.0, 0.5, 0.05, 0.0, 0.3

	call := CallPrice(spot, strike, tt, rate, div, vol)
	put := PutPrice(spot, strike, tt, rate, div, vol)

	// C - P = S*e^{-qT} - K*e^{-rT}
	lhs := call - put
	rhs := spot*math.Exp(-div*tt) - strike*math.Exp(-rate*tt)
	assert.InDelta(t, rhs, lhs, 1e-9)
}

func TestPutCallParityWithDividend(t *testing.T) {
	spot, strike, tt, rate, div, vol := 250.0, 240.0, 1.0, 0.04, 0.02, 0.2

	call := CallPrice(spot, strike, tt, rate, div, vol)
	put := PutPrice(spot, strike, tt, rate, div, vol)

	lhs := call - put
	rhs := spot*math.Exp(-div*tt) - strike*math.Exp(-rate*tt)
	assert.InDelta(t, rhs, lhs, 1e-9)
}

func TestATMCallDelta(t *testing.T) {
	// Standard quarter-year ATM call: delta just above a half.
	delta := Delta(true, 100, 100, 0.25, 0.05, 0, 0.25)
	assert.InDelta(t, 0.56, delta, 0.01)
}

func TestDeltaBounds(t *testing.T) {
	cases := []struct {
		name          string
		spot, strike  float64
		vol           float64
	}{
		{"deep ITM", 200, 100, 0.3},
		{"deep OTM", 50, 100, 0.3},
		{"ATM high vol", 100, 100, 1.5},
		{"near expiry", 101, 100, 0.2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			callDelta := Delta(true, tc.spot, tc.strike, 0.1, 0.05, 0, tc.vol)
			putDelta := Delta(false, tc.spot, tc.strike, 0.1, 0.05, 0, tc.vol)

			assert.GreaterOrEqual(t, callDelta, 0.0)
			assert.LessOrEqual(t, callDelta, 1.0)
			assert.GreaterOrEqual(t, putDelta, -1.0)
			assert.LessOrEqual(t, putDelta, 0.0)
		})
	}
}

func TestCallPriceAboveIntrinsic(t *testing.T) {
	price := CallPrice(100, 100, 0.25, 0.05, 0, 0.25)
	assert.Greater(t, price, 0.0, "ATM call must carry time value")

	itm := CallPrice(120, 100, 0.25, 0.05, 0, 0.25)
	assert.Greater(t, itm, 20.0, "ITM call must exceed intrinsic value")
}

func TestExpiredOptionIntrinsicOnly(t *testing.T) {
	assert.Equal(t, 10.0, CallPrice(110, 100, 0, 0.05, 0, 0.3))
	assert.Equal(t, 0.0, CallPrice(90, 100, 0, 0.05, 0, 0.3))
	assert.Equal(t, 15.0, PutPrice(85, 100, 0, 0.05, 0, 0.3))
	assert.Equal(t, 0.0, PutPrice(110, 100, 0, 0.05, 0, 0.3))

	assert.Zero(t, Gamma(110, 100, 0, 0.05, 0, 0.3))
	assert.Zero(t, Vega(110, 100, 0, 0.05, 0, 0.3))
	assert.Zero(t, Theta(true, 110, 100, 0, 0.05, 0, 0.3))
	assert.Zero(t, Rho(true, 110, 100, 0, 0.05, 0, 0.3))
}

func TestExpiredDeltaBoundary(t *testing.T) {
	assert.Equal(t, 1.0, Delta(true, 110, 100, 0, 0.05, 0, 0.3))
	assert.Equal(t, 0.0, Delta(true, 90, 100, 0, 0.05, 0, 0.3))
	assert.Equal(t, -1.0, Delta(false, 90, 100, 0, 0.05, 0, 0.3))
	assert.Equal(t, 0.0, Delta(false, 110, 100, 0, 0.05, 0, 0.3))
}

func TestGammaVegaPositive(t *testing.T) {
	assert.Greater(t, Gamma(100, 100, 0.25, 0.05, 0, 0.25), 0.0)
	assert.Greater(t, Vega(100, 100, 0.25, 0.05, 0, 0.25), 0.0)
}

func TestLongOptionThetaNegative(t *testing.T) {
	assert.Less(t, Theta(true, 100, 100, 0.25, 0.05, 0, 0.25), 0.0)
	assert.Less(t, Theta(false, 100, 95, 0.25, 0.05, 0, 0.25), 0.0)
}

func TestImpliedVolatilityRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		isCall bool
		spot   float64
		strike float64
		tt     float64
		vol    float64
	}{
		{"ATM call", true, 100, 100, 0.25, 0.25},
		{"OTM call", true, 100, 115, 0.5, 0.40},
		{"ITM put", false, 90, 100, 0.25, 0.30},
		{"long dated", true, 100, 100, 2.0, 0.18},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			price := Price(tc.isCall, tc.spot, tc.strike, tc.tt, 0.05, 0, tc.vol)
			iv, ok := ImpliedVolatility(tc.isCall, price, tc.spot, tc.strike, tc.tt, 0.05, 0)
			require.True(t, ok)
			assert.InDelta(t, tc.vol, iv, 1e-4)
		})
	}
}

func TestImpliedVolatilityRejectsBadPrices(t *testing.T) {
	_, ok := ImpliedVolatility(true, -1, 100, 100, 0.25, 0.05, 0)
	assert.False(t, ok, "negative price has no implied vol")

	_, ok = ImpliedVolatility(true, 5, 100, 100, 0, 0.05, 0)
	assert.False(t, ok, "expired option has no implied vol")

	// Price below intrinsic floor violates no-arbitrage.
	_, ok = ImpliedVolatility(true, 5, 120, 100, 0.25, 0.0, 0)
	assert.False(t, ok)
}
