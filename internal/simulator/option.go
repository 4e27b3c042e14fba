package simulator

import (
	"math"
	"time"

	"github.com/deltafeed/deltafeed/internal/instrument"
)

const optionTradeProbability = 0.05

// updateOption advances an option's premium, Greeks and trade telemetry.
// The underlying's move this tick is read from the same priceDelta
// tracking the correlated-move term uses for other instruments, scaled
// into a dollar move by the option's own premium level (premium/100). The
// underlying's mark is looked up separately, for the intrinsic value only.
func (s *Simulator) updateOption(in *instrument.Instrument, now time.Time) {
	f := in.Option
	underlyingDelta := s.getPriceDelta(f.UnderlyingID)

	u := underlyingDelta * (f.Premium / 100)
	premiumChange := f.Delta*u + 0.5*f.Gamma*u*u - f.Theta/365
	f.Premium = math.Max(instrument.FloorOptionPremium, f.Premium+premiumChange)

	f.ImpliedVol += randRange(s.rng, -0.005, 0.005)
	if f.ImpliedVol < 0.0001 {
		f.ImpliedVol = 0.0001
	}
	f.Delta *= noise(s.rng, 0.01)
	f.Gamma *= noise(s.rng, 0.01)
	f.Theta *= noise(s.rng, 0.01)
	f.Vega *= noise(s.rng, 0.01)
	f.Rho *= noise(s.rng, 0.01)
	f.Delta = clampDelta(f.Delta, f.OptionType)

	underlyingMark := 0.0
	if underlying, err := s.store.Lookup(f.UnderlyingID); err == nil {
		underlyingMark = underlying.Mark()
	}
	var intrinsic float64
	switch f.OptionType {
	case instrument.OptionPut:
		intrinsic = math.Max(0, f.Strike-underlyingMark)
	default:
		intrinsic = math.Max(0, underlyingMark-f.Strike)
	}
	f.IntrinsicValue = intrinsic
	f.TimeValue = math.Max(0, f.Premium-intrinsic)

	if s.rng.Float64() < optionTradeProbability {
		f.LastTradePrice = f.Premium
		f.LastTradeSize = math.Floor(randRange(s.rng, 1, 100))
		f.LastTradeTime = now
	}
	in.LastUpdate = now
}

func clampDelta(d float64, ot instrument.OptionType) float64 {
	if ot == instrument.OptionPut {
		return clamp(-1, 0, d)
	}
	return clamp(-1, 1, d)
}
