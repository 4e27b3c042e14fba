package main

import (
	"time"

	"github.com/deltafeed/deltafeed/internal/config"
	"github.com/deltafeed/deltafeed/internal/correlation"
	"github.com/deltafeed/deltafeed/internal/instrument"
)

// seedExampleInstruments populates the store with a handful of example
// instruments so the service is immediately useful against a fresh start,
// mirroring the teacher's example-instrument seeding convention. This is
// plumbing, not part of the core pipeline.
func seedExampleInstruments(store *instrument.Store, graph *correlation.Graph, cfg *config.Config) {
	now := time.Now()
	seeds := []*instrument.Instrument{
		{
			ID: "US10Y", Kind: instrument.KindBond, Sector: "Government", Currency: "USD",
			Rating: "AA+", Status: instrument.StatusActive, LastUpdate: now,
			Bond: &instrument.BondFields{Price: 99.5, Yield: 4.25, BidPrice: 99.45, AskPrice: 99.55, CouponRate: 4.0, FaceValue: 1000, Maturity: now.AddDate(10, 0, 0)},
		},
		{
			ID: "US30Y", Kind: instrument.KindBond, Sector: "Government", Currency: "USD",
			Rating: "AA+", Status: instrument.StatusActive, LastUpdate: now,
			Bond: &instrument.BondFields{Price: 97.2, Yield: 4.6, BidPrice: 97.1, AskPrice: 97.3, CouponRate: 4.25, FaceValue: 1000, Maturity: now.AddDate(30, 0, 0)},
		},
		{
			ID: "USD-5Y-SWAP", Kind: instrument.KindSwap, Sector: "Rates", Currency: "USD",
			Rating: "", Status: instrument.StatusActive, LastUpdate: now,
			Swap: &instrument.SwapFields{SwapRate: 0.0385, BidRate: 0.0383, AskRate: 0.0387, Notional: 10_000_000, Tenor: "5Y", FloatingIndex: "SOFR"},
		},
		{
			ID: "ZN-U23", Kind: instrument.KindFuture, Sector: "Rates", Currency: "USD",
			Status: instrument.StatusActive, LastUpdate: now,
			Future: &instrument.FutureFields{Price: 110.25, ImpliedRate: -10.25, ContractMonth: "2023-09", TickValue: 15.625},
		},
		{
			ID: "ZN-U23-C112", Kind: instrument.KindOption, Sector: "Rates", Currency: "USD",
			Status: instrument.StatusActive, LastUpdate: now,
			Option: &instrument.OptionFields{
				UnderlyingID: "ZN-U23", Strike: 112, OptionType: instrument.OptionCall,
				Premium: 0.8, ImpliedVol: 0.12, Delta: 0.35, Gamma: 0.04, Theta: -0.01, Vega: 0.05, Rho: 0.01,
				Expiry: now.AddDate(0, 2, 0),
			},
		},
	}

	strength := cfg.CorrelationStrength
	for _, s := range seeds {
		existing := attrsForAll(store.ListAll(), s.ID)
		if err := store.Insert(s); err != nil {
			continue
		}
		graph.AddInstrument(correlation.Attrs{ID: s.ID, Kind: string(s.Kind), Sector: s.Sector, Currency: s.Currency}, existing, strength)
	}
}

func attrsForAll(instruments []*instrument.Instrument, excludeID string) []correlation.Attrs {
	out := make([]correlation.Attrs, 0, len(instruments))
	for _, in := range instruments {
		if in.ID == excludeID {
			continue
		}
		out = append(out, correlation.Attrs{ID: in.ID, Kind: string(in.Kind), Sector: in.Sector, Currency: in.Currency})
	}
	return out
}
