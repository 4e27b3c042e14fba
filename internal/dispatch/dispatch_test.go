package dispatch

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	deltapkg "github.com/deltafeed/deltafeed/internal/delta"
	"github.com/deltafeed/deltafeed/internal/filter"
	"github.com/deltafeed/deltafeed/internal/instrument"
	"github.com/deltafeed/deltafeed/internal/registry"
)

type fakeTransport struct {
	mu      sync.Mutex
	sent    map[string][]Update
	fullFor map[string]bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{sent: make(map[string][]Update), fullFor: make(map[string]bool)}
}

func (f *fakeTransport) SendUpdate(sessionID string, update Update) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fullFor[sessionID] {
		return false
	}
	f.sent[sessionID] = append(f.sent[sessionID], update)
	return true
}

func newBond(id string) *instrument.Instrument {
	return &instrument.Instrument{
		ID: id, Kind: instrument.KindBond, Status: instrument.StatusActive,
		Bond: &instrument.BondFields{Price: 100, BidPrice: 99.9, AskPrice: 100.1},
	}
}

func newFuture(id string) *instrument.Instrument {
	return &instrument.Instrument{
		ID: id, Kind: instrument.KindFuture, Status: instrument.StatusActive,
		Future: &instrument.FutureFields{Price: 110},
	}
}

func TestDispatchSingleSubscriberFanOut(t *testing.T) {
	store := instrument.NewStore()
	require.NoError(t, store.Insert(newBond("US10Y")))

	reg := registry.New(registry.Defaults{MaxUpdatesPerSecond: 20, BucketSize: 20})
	require.NoError(t, reg.Register("sess1"))
	_, err := reg.AddSubscription("sess1", "sub1", []string{"US10Y"}, nil, 0)
	require.NoError(t, err)

	transport := newFakeTransport()
	d := New(store, reg, filter.New(nil), transport, nil, nil)

	dl := &deltapkg.Delta{InstrumentID: "US10Y", Timestamp: time.Now(), Fields: instrument.FieldMap{"bidPrice": instrument.NumberValue(98)}}
	d.Dispatch(dl)

	assert.Len(t, transport.sent["sess1"], 1)
	assert.NotEmpty(t, transport.sent["sess1"][0].Fields)
}

func TestDispatchPredicateExcludes(t *testing.T) {
	store := instrument.NewStore()
	require.NoError(t, store.Insert(newBond("US10Y")))
	require.NoError(t, store.Insert(newFuture("ZN-U23")))

	reg := registry.New(registry.Defaults{MaxUpdatesPerSecond: 20, BucketSize: 20})
	require.NoError(t, reg.Register("sess1"))

	var tree filter.Node
	require.NoError(t, json.Unmarshal([]byte(`{"==": [{"var":"securityType"}, "Bond"]}`), &tree))
	_, err := reg.AddSubscription("sess1", "sub1", []string{"US10Y", "ZN-U23"}, &tree, 0)
	require.NoError(t, err)

	transport := newFakeTransport()
	d := New(store, reg, filter.New(nil), transport, nil, nil)

	d.Dispatch(&deltapkg.Delta{InstrumentID: "US10Y", Timestamp: time.Now(), Fields: instrument.FieldMap{"bidPrice": instrument.NumberValue(98)}})
	d.Dispatch(&deltapkg.Delta{InstrumentID: "ZN-U23", Timestamp: time.Now(), Fields: instrument.FieldMap{"price": instrument.NumberValue(111)}})

	assert.Len(t, transport.sent["sess1"], 1)
	assert.Equal(t, "US10Y", transport.sent["sess1"][0].InstrumentID)
}

func TestDispatchNoTokenDrops(t *testing.T) {
	store := instrument.NewStore()
	require.NoError(t, store.Insert(newBond("US10Y")))

	reg := registry.New(registry.Defaults{MaxUpdatesPerSecond: 1, BucketSize: 1})
	require.NoError(t, reg.Register("sess1"))
	_, err := reg.AddSubscription("sess1", "sub1", []string{"US10Y"}, nil, 0)
	require.NoError(t, err)

	transport := newFakeTransport()
	d := New(store, reg, filter.New(nil), transport, nil, nil)

	now := time.Now()
	d.Dispatch(&deltapkg.Delta{InstrumentID: "US10Y", Timestamp: now, Fields: instrument.FieldMap{"bidPrice": instrument.NumberValue(1)}})
	d.Dispatch(&deltapkg.Delta{InstrumentID: "US10Y", Timestamp: now, Fields: instrument.FieldMap{"bidPrice": instrument.NumberValue(2)}})

	assert.Len(t, transport.sent["sess1"], 1, "second dispatch in the same instant must be dropped: bucket had only one token")
}

func TestDispatchOrderingWithinSessionInstrumentPair(t *testing.T) {
	store := instrument.NewStore()
	require.NoError(t, store.Insert(newBond("US10Y")))

	reg := registry.New(registry.Defaults{MaxUpdatesPerSecond: 1000, BucketSize: 1000})
	require.NoError(t, reg.Register("sess1"))
	_, err := reg.AddSubscription("sess1", "sub1", []string{"US10Y"}, nil, 0)
	require.NoError(t, err)

	transport := newFakeTransport()
	d := New(store, reg, filter.New(nil), transport, nil, nil)

	base := time.Now()
	for i := 0; i < 5; i++ {
		d.Dispatch(&deltapkg.Delta{
			InstrumentID: "US10Y",
			Timestamp:    base.Add(time.Duration(i) * time.Millisecond),
			Fields:       instrument.FieldMap{"bidPrice": instrument.NumberValue(float64(i))},
		})
	}

	require.Len(t, transport.sent["sess1"], 5)
	for i, u := range transport.sent["sess1"] {
		assert.Equal(t, float64(i), u.Fields["bidPrice"].Number())
	}
}
