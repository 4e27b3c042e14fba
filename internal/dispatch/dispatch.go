// Package dispatch implements the Fan-out Dispatcher: for each delta it
// enumerates interested subscribers and admits or drops the delta through
// the pacing and filter gates.
package dispatch

import (
	"time"

	"go.uber.org/zap"

	"github.com/deltafeed/deltafeed/internal/delta"
	"github.com/deltafeed/deltafeed/internal/filter"
	"github.com/deltafeed/deltafeed/internal/instrument"
	"github.com/deltafeed/deltafeed/internal/registry"
	"github.com/deltafeed/deltafeed/pkg/metrics"
)

// Update is the wire-agnostic instrument-update payload handed to the
// Transport Adapter.
type Update struct {
	InstrumentID string
	Timestamp    time.Time
	Fields       instrument.FieldMap
}

// Transport is the boundary to a bidirectional message transport (the
// Transport Adapter contract, spec.md §4.H). SendUpdate reports false if
// the session's send queue is full; the Dispatcher treats that identically
// to a pacing skip.
type Transport interface {
	SendUpdate(sessionID string, update Update) bool
}

// Dispatcher routes deltas from the Delta Engine to admitted subscribers.
type Dispatcher struct {
	store     *instrument.Store
	registry  *registry.Registry
	evaluator *filter.Evaluator
	transport Transport
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// New constructs a Dispatcher. transport may be nil at construction time
// and set later via SetTransport; Dispatch does nothing while it is nil.
func New(store *instrument.Store, reg *registry.Registry, evaluator *filter.Evaluator, transport Transport, m *metrics.Metrics, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{store: store, registry: reg, evaluator: evaluator, transport: transport, metrics: m, logger: logger}
}

// SetTransport attaches the transport adapter after construction.
func (d *Dispatcher) SetTransport(t Transport) { d.transport = t }

// Dispatch implements the per-delta algorithm of spec.md §4.G.
func (d *Dispatcher) Dispatch(dl *delta.Delta) {
	if d.transport == nil {
		return
	}
	snapshot, err := d.store.Lookup(dl.InstrumentID)
	if err != nil {
		d.logger.Debug("dispatch: instrument not found", zap.String("instrumentId", dl.InstrumentID), zap.Error(err))
		return
	}
	fields := snapshot.FieldMap()
	now := dl.Timestamp

	for _, sessionID := range d.registry.LookupInterested(dl.InstrumentID) {
		d.dispatchToSession(sessionID, dl, fields, now)
	}
}

func (d *Dispatcher) dispatchToSession(sessionID string, dl *delta.Delta, fields instrument.FieldMap, now time.Time) {
	ok, err := d.registry.ConsumeToken(sessionID, now)
	if err != nil {
		return
	}
	if !ok {
		d.metrics.IncDropped(metrics.DropNoToken)
		return
	}

	pacingOK, err := d.registry.CheckPacing(sessionID, dl.InstrumentID, now)
	if err != nil {
		return
	}
	if !pacingOK {
		d.metrics.IncDropped(metrics.DropPacing)
		return
	}

	subs, err := d.registry.SubscriptionsForInstrument(sessionID, dl.InstrumentID)
	if err != nil {
		return
	}
	matched := false
	for _, sub := range subs {
		if d.evaluator.Eval(sub.Filter, fields) {
			matched = true
			break
		}
	}
	if !matched {
		d.metrics.IncDropped(metrics.DropNoMatch)
		return
	}

	start := time.Now()
	sent := d.transport.SendUpdate(sessionID, Update{InstrumentID: dl.InstrumentID, Timestamp: dl.Timestamp, Fields: dl.Fields})
	d.metrics.ObserveBroadcastLatency(time.Since(start))
	if !sent {
		d.metrics.IncDropped(metrics.DropTransportFull)
		return
	}

	_ = d.registry.RecordSent(sessionID, dl.InstrumentID, now)
}
