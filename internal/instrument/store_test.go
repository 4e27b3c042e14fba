package instrument

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBond(id, sector, currency string) *Instrument {
	return &Instrument{
		ID:         id,
		Kind:       KindBond,
		Sector:     sector,
		Currency:   currency,
		Rating:     "AA",
		Status:     StatusActive,
		LastUpdate: time.Now(),
		Bond: &BondFields{
			Price:    100,
			Yield:    3.5,
			BidPrice: 99.9,
			AskPrice: 100.1,
			FaceValue: 1000,
		},
	}
}

func TestStoreInsertLookupRemove(t *testing.T) {
	s := NewStore()
	in := newBond("US10Y", "Government", "USD")

	require.NoError(t, s.Insert(in))
	assert.ErrorIs(t, s.Insert(in), ErrAlreadyExists)

	got, err := s.Lookup("US10Y")
	require.NoError(t, err)
	assert.Equal(t, "US10Y", got.ID)
	assert.Equal(t, 100.0, got.Bond.Price)

	require.NoError(t, s.Remove("US10Y"))
	_, err = s.Lookup("US10Y")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Remove("US10Y"), ErrNotFound)
}

func TestStoreLookupReturnsIndependentCopy(t *testing.T) {
	s := NewStore()
	in := newBond("US10Y", "Government", "USD")
	require.NoError(t, s.Insert(in))

	got, err := s.Lookup("US10Y")
	require.NoError(t, err)
	got.Bond.Price = 999

	again, err := s.Lookup("US10Y")
	require.NoError(t, err)
	assert.Equal(t, 100.0, again.Bond.Price)
}

func TestStoreSecondaryIndices(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Insert(newBond("US10Y", "Government", "USD")))
	require.NoError(t, s.Insert(newBond("US30Y", "Government", "USD")))
	require.NoError(t, s.Insert(newBond("DE10Y", "Government", "EUR")))

	byUSD := s.ListByCurrency("USD")
	assert.Len(t, byUSD, 2)

	byKind := s.ListByKind(KindBond)
	assert.Len(t, byKind, 3)

	require.NoError(t, s.Remove("US10Y"))
	assert.Len(t, s.ListByCurrency("USD"), 1)
	assert.Len(t, s.ListByKind(KindBond), 2)
}

func TestStoreTakeSnapshotPairAndReplacePublished(t *testing.T) {
	s := NewStore()
	in := newBond("US10Y", "Government", "USD")
	require.NoError(t, s.Insert(in))

	published, current, err := s.TakeSnapshotPair("US10Y")
	require.NoError(t, err)
	assert.Equal(t, published.Bond.Price, current.Bond.Price)

	require.NoError(t, s.UpdateCurrent("US10Y", func(i *Instrument) {
		i.Bond.Price = 101.5
	}))

	published, current, err = s.TakeSnapshotPair("US10Y")
	require.NoError(t, err)
	assert.Equal(t, 100.0, published.Bond.Price)
	assert.Equal(t, 101.5, current.Bond.Price)

	require.NoError(t, s.ReplacePublished("US10Y", current))
	published, _, err = s.TakeSnapshotPair("US10Y")
	require.NoError(t, err)
	assert.Equal(t, 101.5, published.Bond.Price)
}

func TestStoreMergeUpdateReindexes(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Insert(newBond("US10Y", "Government", "USD")))

	require.NoError(t, s.MergeUpdate("US10Y", func(i *Instrument) {
		i.Currency = "EUR"
	}))

	assert.Len(t, s.ListByCurrency("USD"), 0)
	assert.Len(t, s.ListByCurrency("EUR"), 1)
}
