package delta

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deltafeed/deltafeed/internal/instrument"
)

func newStoreWithBond(t *testing.T) *instrument.Store {
	s := instrument.NewStore()
	require.NoError(t, s.Insert(&instrument.Instrument{
		ID:         "US10Y",
		Kind:       instrument.KindBond,
		Sector:     "Government",
		Currency:   "USD",
		Rating:     "AA",
		Status:     instrument.StatusActive,
		LastUpdate: time.Now(),
		Bond: &instrument.BondFields{
			Price:    100,
			BidPrice: 99.9,
			AskPrice: 100.1,
			FaceValue: 1000,
		},
	}))
	return s
}

func TestEngineEmitsNothingWhenUnchanged(t *testing.T) {
	s := newStoreWithBond(t)
	e := New(s, nil)

	_, emitted, err := e.Compute("US10Y", time.Now())
	require.NoError(t, err)
	assert.False(t, emitted, "no mutation has happened yet, so there is nothing to diff")
}

func TestEngineIdempotentAcrossRepeatedCalls(t *testing.T) {
	s := newStoreWithBond(t)
	e := New(s, nil)

	require.NoError(t, s.UpdateCurrent("US10Y", func(in *instrument.Instrument) {
		in.Bond.BidPrice = 98.5
		in.LastUpdate = time.Now()
	}))

	d, emitted, err := e.Compute("US10Y", time.Now())
	require.NoError(t, err)
	require.True(t, emitted)
	assert.NotEmpty(t, d.Fields)

	_, emitted2, err := e.Compute("US10Y", time.Now())
	require.NoError(t, err)
	assert.False(t, emitted2, "a second pass with no state change must emit nothing")
}

func TestEngineDeltaMinimality(t *testing.T) {
	s := newStoreWithBond(t)
	e := New(s, nil)

	require.NoError(t, s.UpdateCurrent("US10Y", func(in *instrument.Instrument) {
		in.Bond.BidPrice = 97.25
	}))

	d, emitted, err := e.Compute("US10Y", time.Now())
	require.NoError(t, err)
	require.True(t, emitted)

	require.Contains(t, d.Fields, "bidPrice")
	assert.Equal(t, 97.25, d.Fields["bidPrice"].Number())
	for name := range d.Fields {
		assert.NotEqual(t, "askPrice", name)
		assert.NotEqual(t, "price", name)
		assert.NotEqual(t, "faceValue", name)
	}
}

func TestEngineRoundTripAppliesCleanly(t *testing.T) {
	s := newStoreWithBond(t)
	e := New(s, nil)

	require.NoError(t, s.UpdateCurrent("US10Y", func(in *instrument.Instrument) {
		in.Bond.Price = 102.5
		in.Bond.Yield = 3.1
	}))

	_, current, err := s.TakeSnapshotPair("US10Y")
	require.NoError(t, err)

	d, emitted, err := e.Compute("US10Y", time.Now())
	require.NoError(t, err)
	require.True(t, emitted)

	published, _, err := s.TakeSnapshotPair("US10Y")
	require.NoError(t, err)

	assert.Equal(t, current.Bond.Price, published.Bond.Price)
	assert.Equal(t, current.Bond.Yield, published.Bond.Yield)
	assert.Equal(t, d.Fields["price"].Number(), published.Bond.Price)
}
