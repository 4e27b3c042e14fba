package simulator

import (
	"math"
	"time"

	"github.com/deltafeed/deltafeed/internal/instrument"
)

const swapTradeProbability = 0.05

func (s *Simulator) updateSwap(in *instrument.Instrument, priceDelta float64, now time.Time) {
	f := in.Swap
	rate := math.Max(instrument.FloorSwapRate, f.SwapRate+priceDelta/100)

	spread := 0.02 * math.Max(0.5, 1+2*math.Abs(priceDelta))
	f.BidRate = rate * (1 - spread/200)
	f.AskRate = rate * (1 + spread/200)
	f.SwapRate = rate
	f.FixedDV01 *= noise(s.rng, 0.02)
	f.FloatingDV01 *= noise(s.rng, 0.02)

	if s.rng.Float64() < swapTradeProbability {
		f.LastTradePrice = rate
		f.LastTradeSize = math.Floor(randRange(s.rng, 1, 20)) * 5e6
		f.LastTradeTime = now
	}
	in.LastUpdate = now
}
