package simulator

import (
	"math"
	"time"

	"github.com/deltafeed/deltafeed/internal/instrument"
)

const bondTradeProbability = 0.10

func (s *Simulator) updateBond(in *instrument.Instrument, priceDelta float64, now time.Time) {
	f := in.Bond
	price := math.Max(instrument.PriceFloorBond, f.Price*(1+priceDelta/100))
	f.Yield -= priceDelta * 1.2 / 100

	spread := 0.05 * math.Max(0.5, 1+2*math.Abs(priceDelta))
	f.BidPrice = price * (1 - spread/200)
	f.AskPrice = price * (1 + spread/200)
	f.BidAskSpreadBp = spread * 100
	f.DurationSensitivity *= noise(s.rng, 0.02)
	f.ConvexitySensitivity *= noise(s.rng, 0.02)
	f.Price = price

	if s.rng.Float64() < bondTradeProbability {
		f.LastTradePrice = price
		f.LastTradeSize = math.Floor(randRange(s.rng, 1, 10)) * 1e6
		f.LastTradeTime = now
	}
	in.LastUpdate = now
}
