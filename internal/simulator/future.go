package simulator

import (
	"math"
	"time"

	"github.com/deltafeed/deltafeed/internal/instrument"
)

const futureTradeProbability = 0.20

func (s *Simulator) updateFuture(in *instrument.Instrument, priceDelta float64, now time.Time) {
	f := in.Future
	walked := math.Max(instrument.FloorFuturePrice, f.Price*(1+priceDelta/100))

	price := walked
	if s.rng.Float64() < futureTradeProbability {
		f.LastTradePrice = walked
		f.LastTradeSize = math.Floor(randRange(s.rng, 1, 50)) * 1e5
		f.LastTradeTime = now
		price = f.LastTradePrice // price moves on the latest trade price
	}
	f.Price = price
	f.ImpliedRate = 100 - price

	spread := 0.01 * math.Max(0.5, 1+2*math.Abs(priceDelta))
	f.BidPrice = price * (1 - spread/200)
	f.AskPrice = price * (1 + spread/200)

	f.OpenInterest += math.Floor((s.rng.Float64() - 0.45) * 100)
	if f.OpenInterest < 0 {
		f.OpenInterest = 0
	}
	in.LastUpdate = now
}
