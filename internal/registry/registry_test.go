package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketBounds(t *testing.T) {
	b := NewTokenBucket(5, 5) // 5 tokens, refill 5/sec
	now := time.Now()

	for i := 0; i < 5; i++ {
		assert.True(t, b.TryConsume(now))
	}
	assert.False(t, b.TryConsume(now), "bucket should be empty after draining capacity")

	later := now.Add(time.Second)
	assert.True(t, b.TryConsume(later), "bucket should have refilled after one second")
}

func TestTokenBucketReconfigurePreservesLevel(t *testing.T) {
	b := NewTokenBucket(10, 10)
	now := time.Now()
	for i := 0; i < 8; i++ {
		require.True(t, b.TryConsume(now))
	}
	assert.InDelta(t, 2, b.Level(now), 0.01)

	b.Reconfigure(20, 10) // capacity grows by 10
	assert.InDelta(t, 12, b.Level(now), 0.01)
}

func TestRegistryAdmitRequiresTokenAndSubscription(t *testing.T) {
	r := New(Defaults{MaxUpdatesPerSecond: 10, BucketSize: 10})
	require.NoError(t, r.Register("sess1"))

	_, err := r.AddSubscription("sess1", "sub1", []string{"US10Y"}, nil, 0)
	require.NoError(t, err)

	now := time.Now()
	ok, err := r.ConsumeToken("sess1", now)
	require.NoError(t, err)
	assert.True(t, ok)

	interested := r.LookupInterested("US10Y")
	assert.Contains(t, interested, "sess1")

	subs, err := r.SubscriptionsForInstrument("sess1", "US10Y")
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestRegistryPacingCap(t *testing.T) {
	r := New(Defaults{MaxUpdatesPerSecond: 5, BucketSize: 5})
	require.NoError(t, r.Register("sess1"))
	_, err := r.AddSubscription("sess1", "sub1", []string{"US10Y"}, nil, 0)
	require.NoError(t, err)

	now := time.Now()
	ok, err := r.CheckPacing("sess1", "US10Y", now)
	require.NoError(t, err)
	assert.True(t, ok, "first send has no prior lastSent, must pass")

	require.NoError(t, r.RecordSent("sess1", "US10Y", now))

	soon := now.Add(50 * time.Millisecond)
	ok, err = r.CheckPacing("sess1", "US10Y", soon)
	require.NoError(t, err)
	assert.False(t, ok, "1000/5 == 200ms interval must reject a 50ms-later send")

	later := now.Add(250 * time.Millisecond)
	ok, err = r.CheckPacing("sess1", "US10Y", later)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnregisterDetachesSession(t *testing.T) {
	r := New(Defaults{MaxUpdatesPerSecond: 10, BucketSize: 10})
	require.NoError(t, r.Register("sess1"))
	r.Unregister("sess1")

	_, err := r.ConsumeToken("sess1", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}
