package pricing

import (
	"math"
)

// Closed-form Black-Scholes-Merton pricing with continuous dividend yield.
//
// Conventions used throughout the package:
//   - t is time to expiry in years (calendar days / 365)
//   - theta is returned per calendar day
//   - vega is returned per one volatility point (0.01 absolute)
//   - rho is returned per one percentage point of rate

const (
	minVol  = 1e-8
	minTime = 1e-8
)

func normalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

func normalPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

func d1(spot, strike, t, rate, div, vol float64) float64 {
	return (math.Log(spot/strike) + (rate-div+0.5*vol*vol)*t) / (vol * math.Sqrt(t))
}

func d2(spot, strike, t, rate, div, vol float64) float64 {
	return d1(spot, strike, t, rate, div, vol) - vol*math.Sqrt(t)
}

// CallPrice returns the BSM value of a European call.
// At or past expiry the intrinsic value is returned.
func CallPrice(spot, strike, t, rate, div, vol float64) float64 {
	if t <= minTime {
		return math.Max(spot-strike, 0)
	}
	if vol < minVol {
		vol = minVol
	}
	dOne := d1(spot, strike, t, rate, div, vol)
	dTwo := dOne - vol*math.Sqrt(t)
	return spot*math.Exp(-div*t)*normalCDF(dOne) - strike*math.Exp(-rate*t)*normalCDF(dTwo)
}

// PutPrice returns the BSM value of a European put.
func PutPrice(spot, strike, t, rate, div, vol float64) float64 {
	if t <= minTime {
		return math.Max(strike-spot, 0)
	}
	if vol < minVol {
		vol = minVol
	}
	dOne := d1(spot, strike, t, rate, div, vol)
	dTwo := dOne - vol*math.Sqrt(t)
	return strike*math.Exp(-rate*t)*normalCDF(-dTwo) - spot*math.Exp(-div*t)*normalCDF(-dOne)
}

// Price dispatches on the option right.
func Price(isCall bool, spot, strike, t, rate, div, vol float64) float64 {
	if isCall {
		return CallPrice(spot, strike, t, rate, div, vol)
	}
	return PutPrice(spot, strike, t, rate, div, vol)
}

// Delta returns the per-unit option delta. For an expired option the
// boundary value is used: 1 (call, in the money) or -1 (put, in the money).
func Delta(isCall bool, spot, strike, t, rate, div, vol float64) float64 {
	if t <= minTime {
		if isCall {
			if spot > strike {
				return 1
			}
			return 0
		}
		if spot < strike {
			return -1
		}
		return 0
	}
	if vol < minVol {
		vol = minVol
	}
	dOne := d1(spot, strike, t, rate, div, vol)
	if isCall {
		return math.Exp(-div*t) * normalCDF(dOne)
	}
	return math.Exp(-div*t) * (normalCDF(dOne) - 1)
}

// Gamma is identical for calls and puts; zero at expiry.
func Gamma(spot, strike, t, rate, div, vol float64) float64 {
	if t <= minTime {
		return 0
	}
	if vol < minVol {
		vol = minVol
	}
	dOne := d1(spot, strike, t, rate, div, vol)
	return math.Exp(-div*t) * normalPDF(dOne) / (spot * vol * math.Sqrt(t))
}

// Theta returns the option time decay per calendar day; zero at expiry.
func Theta(isCall bool, spot, strike, t, rate, div, vol float64) float64 {
	if t <= minTime {
		return 0
	}
	if vol < minVol {
		vol = minVol
	}
	dOne := d1(spot, strike, t, rate, div, vol)
	dTwo := dOne - vol*math.Sqrt(t)

	term1 := -spot * math.Exp(-div*t) * normalPDF(dOne) * vol / (2 * math.Sqrt(t))
	var annual float64
	if isCall {
		annual = term1 -
			rate*strike*math.Exp(-rate*t)*normalCDF(dTwo) +
			div*spot*math.Exp(-div*t)*normalCDF(dOne)
	} else {
		annual = term1 +
			rate*strike*math.Exp(-rate*t)*normalCDF(-dTwo) -
			div*spot*math.Exp(-div*t)*normalCDF(-dOne)
	}
	return annual / 365
}

// Vega returns the price change per one volatility point; zero at expiry.
// Identical for calls and puts.
func Vega(spot, strike, t, rate, div, vol float64) float64 {
	if t <= minTime {
		return 0
	}
	if vol < minVol {
		vol = minVol
	}
	dOne := d1(spot, strike, t, rate, div, vol)
	return spot * math.Exp(-div*t) * normalPDF(dOne) * math.Sqrt(t) * 0.01
}

// Rho returns the price change per one percentage point of the rate;
// zero at expiry.
func Rho(isCall bool, spot, strike, t, rate, div, vol float64) float64 {
	if t <= minTime {
		return 0
	}
	if vol < minVol {
		vol = minVol
	}
	dTwo := d2(spot, strike, t, rate, div, vol)
	if isCall {
		return strike * t * math.Exp(-rate*t) * normalCDF(dTwo) * 0.01
	}
	return -strike * t * math.Exp(-rate*t) * normalCDF(-dTwo) * 0.01
}

// ImpliedVolatility solves for the volatility that reproduces target using
// Newton-Raphson with a Brenner-Subrahmanyam starting guess. Returns false
// when the price is outside no-arbitrage bounds or the iteration fails to
// converge.
func ImpliedVolatility(isCall bool, target, spot, strike, t, rate, div float64) (float64, bool) {
	if t <= minTime || target <= 0 || spot <= 0 || strike <= 0 {
		return 0, false
	}

	var intrinsic float64
	if isCall {
		intrinsic = math.Max(spot*math.Exp(-div*t)-strike*math.Exp(-rate*t), 0)
	} else {
		intrinsic = math.Max(strike*math.Exp(-rate*t)-spot*math.Exp(-div*t), 0)
	}
	if target < intrinsic {
		return 0, false
	}

	vol := math.Sqrt(2*math.Pi/t) * target / spot
	if vol < 0.01 {
		vol = 0.01
	}
	if vol > 5 {
		vol = 5
	}

	const (
		maxIter = 100
		tol     = 1e-8
	)
	for i := 0; i < maxIter; i++ {
		price := Price(isCall, spot, strike, t, rate, div, vol)
		diff := price - target
		if math.Abs(diff) < tol {
			return vol, true
		}
		// raw vega, per unit vol
		vega := Vega(spot, strike, t, rate, div, vol) * 100
		if vega < 1e-12 {
			return 0, false
		}
		vol -= diff / vega
		if vol <= minVol {
			vol = minVol
		}
		if vol > 10 {
			return 0, false
		}
	}
	return 0, false
}
