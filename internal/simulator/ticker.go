// Package simulator is the stochastic Tick Generator: it advances every
// instrument's state once per tick using scenario, time-of-day,
// correlation, and random draws, then hands each mutated instrument to the
// Delta Engine for emission.
package simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/deltafeed/deltafeed/internal/correlation"
	"github.com/deltafeed/deltafeed/internal/delta"
	"github.com/deltafeed/deltafeed/internal/instrument"
)

// Simulator drives the tick cadence. It is the only reader of the
// Correlation Graph, and apart from admin insert, patch and remove it is
// the only writer of instrument state.
type Simulator struct {
	store  *instrument.Store
	graph  *correlation.Graph
	engine *delta.Engine
	logger *zap.Logger
	rng    *rand.Rand

	cfgMu sync.RWMutex
	cfg   Config

	// priceDeltaMu guards priceDelta, the most recently computed priceDelta
	// per instrument. It doubles as the correlated-move input for other
	// instruments' primary move and as the underlying-move input for
	// option premium updates. The open question of whether a given read
	// sees the prior tick's or the in-progress tick's value is resolved in
	// favor of the in-progress-tick value: each instrument's entry is
	// updated immediately after that instrument is visited, so later
	// visits in the same tick see fresher data. The spec permits either.
	priceDeltaMu sync.Mutex
	priceDelta   map[string]float64
}

// New constructs a Simulator. rng is injected so tests can make a tick
// deterministic.
func New(store *instrument.Store, graph *correlation.Graph, engine *delta.Engine, cfg Config, rng *rand.Rand, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{
		store:      store,
		graph:      graph,
		engine:     engine,
		cfg:        cfg,
		rng:        rng,
		logger:     logger,
		priceDelta: make(map[string]float64),
	}
}

// SetConfig replaces the simulation configuration at runtime (scenario
// config file, admin reconfiguration).
func (s *Simulator) SetConfig(cfg Config) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.cfg = cfg
}

// Config returns the current simulation configuration.
func (s *Simulator) Config() Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// Tick advances every instrument exactly once and hands each resulting
// delta to onDelta immediately, with no batch barrier at tick boundaries.
// Visit order is unspecified; errors for a single instrument are logged
// and the loop continues with the next one.
func (s *Simulator) Tick(now time.Time, onDelta func(*delta.Delta)) {
	cfg := s.Config()
	ids := s.store.IDs()

	for _, id := range ids {
		if err := s.visit(id, cfg, now, onDelta); err != nil {
			s.logger.Warn("tick: instrument update failed", zap.String("instrumentId", id), zap.Error(err))
		}
	}
}

func (s *Simulator) visit(id string, cfg Config, now time.Time, onDelta func(*delta.Delta)) error {
	before, err := s.store.Lookup(id)
	if err != nil {
		return err
	}

	switch before.Kind {
	case instrument.KindBond, instrument.KindSwap, instrument.KindFuture:
		v := s.effectiveVolatility(cfg, now)
		pd := s.priceDeltaFor(before, cfg, v)
		if err := s.store.UpdateCurrent(id, func(in *instrument.Instrument) {
			s.applyPriceDrivenUpdate(in, pd, now)
		}); err != nil {
			return err
		}
		s.setPriceDelta(id, pd)
	case instrument.KindOption:
		if err := s.store.UpdateCurrent(id, func(in *instrument.Instrument) {
			s.updateOption(in, now)
		}); err != nil {
			return err
		}
	}

	d, emitted, err := s.engine.Compute(id, now)
	if err != nil {
		return err
	}
	if emitted && onDelta != nil {
		onDelta(d)
	}
	return nil
}

func (s *Simulator) applyPriceDrivenUpdate(in *instrument.Instrument, priceDelta float64, now time.Time) {
	switch in.Kind {
	case instrument.KindBond:
		s.updateBond(in, priceDelta, now)
	case instrument.KindSwap:
		s.updateSwap(in, priceDelta, now)
	case instrument.KindFuture:
		s.updateFuture(in, priceDelta, now)
	}
}

// priceDeltaFor computes the primary-move + correlated-move priceDelta for
// instrument `in`, per spec.md §4.C.
func (s *Simulator) priceDeltaFor(in *instrument.Instrument, cfg Config, v float64) float64 {
	raw := (s.rng.Float64() - 0.5) * v
	switch cfg.Scenario {
	case ScenarioTrendingUp:
		raw += 0.1 * v
	case ScenarioTrendingDown:
		raw -= 0.1 * v
	}
	return raw + s.correlatedMove(in.ID, cfg.CorrelationStrength)
}

// correlatedMove computes 0.3 * Σ c(i,j) * pct_change(j) over i's recorded
// correlation neighbors.
func (s *Simulator) correlatedMove(id string, correlationStrength float64) float64 {
	if correlationStrength == 0 {
		return 0
	}
	neighbors := s.graph.Neighbors(id)
	if len(neighbors) == 0 {
		return 0
	}
	sum := 0.0
	for peer, c := range neighbors {
		sum += c * s.getPriceDelta(peer)
	}
	return 0.3 * sum
}

func (s *Simulator) setPriceDelta(id string, v float64) {
	s.priceDeltaMu.Lock()
	s.priceDelta[id] = v
	s.priceDeltaMu.Unlock()
}

func (s *Simulator) getPriceDelta(id string) float64 {
	s.priceDeltaMu.Lock()
	defer s.priceDeltaMu.Unlock()
	return s.priceDelta[id]
}

// effectiveVolatility derives v from config: base * time-of-day multiplier
// * scenario multiplier, with a rare flash excursion multiplier on top.
func (s *Simulator) effectiveVolatility(cfg Config, now time.Time) float64 {
	v := cfg.VolatilityFactor
	v *= timeOfDayMultiplier(resolveTimeOfDay(cfg.TimeOfDay, now))
	v *= scenarioMultiplier(cfg.Scenario)
	if cfg.FlashEventProbability > 0 && s.rng.Float64() < cfg.FlashEventProbability {
		v *= cfg.FlashEventMagnitude
	}
	return v
}

func resolveTimeOfDay(tod TimeOfDay, now time.Time) TimeOfDay {
	if tod != TimeOfDayAuto {
		return tod
	}
	hour := now.Hour()
	switch {
	case hour == 9:
		return TimeOfDayMarketOpen
	case hour >= 10 && hour < 12:
		return TimeOfDayMorning
	case hour == 12:
		return TimeOfDayLunch
	case hour >= 13 && hour < 16:
		return TimeOfDayAfternoon
	case hour == 16:
		return TimeOfDayMarketClose
	default:
		return TimeOfDayAfterHours
	}
}

func timeOfDayMultiplier(tod TimeOfDay) float64 {
	switch tod {
	case TimeOfDayMarketOpen, TimeOfDayMarketClose:
		return 2
	case TimeOfDayLunch:
		return 0.5
	default:
		return 1
	}
}

func scenarioMultiplier(sc Scenario) float64 {
	switch sc {
	case ScenarioHighVol:
		return 3
	case ScenarioTrendingUp, ScenarioTrendingDown:
		return 1.5
	default:
		return 1
	}
}

func clamp(lo, hi, v float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func randRange(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func noise(rng *rand.Rand, magnitude float64) float64 {
	return 1 + randRange(rng, -magnitude, magnitude)
}
