// Package delta computes field-level differences between an instrument's
// last-published snapshot and its current state.
package delta

import (
	"time"

	"go.uber.org/zap"

	"github.com/deltafeed/deltafeed/internal/instrument"
)

// Delta is the minimal set of changed fields for a single instrument, with
// a timestamp. Fields absent from Fields are unchanged.
type Delta struct {
	InstrumentID string
	Timestamp    time.Time
	Fields       instrument.FieldMap
}

// Engine computes deltas against a Store and atomically advances the
// published snapshot on every non-empty emission.
type Engine struct {
	store  *instrument.Store
	logger *zap.Logger
}

// New constructs a Delta Engine over store.
func New(store *instrument.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, logger: logger}
}

// Compute diffs the published and current state of instrumentID using the
// equality rules (epoch-ms for timestamps, plain == for every other
// primitive kind). On a non-empty diff it atomically swaps the published
// snapshot to a copy of the current state and returns the delta; on an
// unchanged instrument it returns (nil, false, nil) and leaves published
// untouched.
func (e *Engine) Compute(instrumentID string, now time.Time) (*Delta, bool, error) {
	published, current, err := e.store.TakeSnapshotPair(instrumentID)
	if err != nil {
		return nil, false, err
	}

	prevFields := published.FieldMap()
	currFields := current.FieldMap()

	changed := make(instrument.FieldMap, len(currFields))
	for name, cv := range currFields {
		if pv, ok := prevFields[name]; !ok || !pv.Equal(cv) {
			changed[name] = cv
		}
	}
	if len(changed) == 0 {
		return nil, false, nil
	}

	if err := e.store.ReplacePublished(instrumentID, current); err != nil {
		return nil, false, err
	}

	return &Delta{InstrumentID: instrumentID, Timestamp: now, Fields: changed}, true, nil
}
