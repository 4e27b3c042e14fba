// Package registry tracks connected subscribers, their subscriptions, and
// per-subscriber token buckets.
package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/deltafeed/deltafeed/internal/filter"
)

var (
	ErrNotFound      = fmt.Errorf("registry: not found")
	ErrAlreadyExists = fmt.Errorf("registry: already exists")
	ErrInvalidArgument = fmt.Errorf("registry: invalid argument")
)

// Subscription is a subscriber-owned record: an instrument id-set of
// interest, an optional predicate, and an optional desired frequency.
type Subscription struct {
	ID              string
	InstrumentIDs   []string
	Filter          *filter.Node
	UpdateFrequency float64 // updates/sec; 0 means "inherit server default"

	idSet map[string]struct{}
}

func newSubscription(id string, instrumentIDs []string, f *filter.Node, freq float64) (*Subscription, error) {
	if len(instrumentIDs) == 0 {
		return nil, fmt.Errorf("%w: subscription must name at least one instrument id", ErrInvalidArgument)
	}
	idSet := make(map[string]struct{}, len(instrumentIDs))
	for _, id := range instrumentIDs {
		idSet[id] = struct{}{}
	}
	return &Subscription{
		ID:              id,
		InstrumentIDs:   instrumentIDs,
		Filter:          f,
		UpdateFrequency: freq,
		idSet:           idSet,
	}, nil
}

func (s *Subscription) includes(instrumentID string) bool {
	_, ok := s.idSet[instrumentID]
	return ok
}

// session is the registry's internal per-subscriber state. Its bucket and
// lastSent map are mutated only through registry operations, never
// directly by session/transport tasks.
type session struct {
	mu            sync.Mutex
	subscriptions map[string]*Subscription
	bucket        *TokenBucket
	lastSent      map[string]time.Time // instrumentID -> last sent time
}

// Defaults carries the server-wide rate defaults new sessions and
// frequency-less subscriptions inherit.
type Defaults struct {
	MaxUpdatesPerSecond float64
	BucketSize          float64
}

// Registry is the subscriber registry: a single RWMutex protects the
// session map (a hash map, so lookup contention dominates, not an O(n)
// scan); each session's token bucket and lastSent map are guarded by their
// own mutex so pacing/token mutation never blocks a registry-wide read.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
	defaults Defaults
}

// New constructs an empty registry with the given server-wide rate defaults.
func New(defaults Defaults) *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		defaults: defaults,
	}
}

// Register creates a new subscriber session with its own token bucket.
func (r *Registry) Register(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[sessionID]; exists {
		return ErrAlreadyExists
	}
	r.sessions[sessionID] = &session{
		subscriptions: make(map[string]*Subscription),
		bucket:        NewTokenBucket(r.defaults.BucketSize, r.defaults.MaxUpdatesPerSecond),
		lastSent:      make(map[string]time.Time),
	}
	return nil
}

// Unregister immediately detaches a session and its subscriptions.
func (r *Registry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

func (r *Registry) get(sessionID string) (*session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// AddSubscription attaches a subscription to a session.
func (r *Registry) AddSubscription(sessionID, subscriptionID string, instrumentIDs []string, f *filter.Node, freq float64) (*Subscription, error) {
	sess, err := r.get(sessionID)
	if err != nil {
		return nil, err
	}
	sub, err := newSubscription(subscriptionID, instrumentIDs, f, freq)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if _, exists := sess.subscriptions[subscriptionID]; exists {
		return nil, ErrAlreadyExists
	}
	sess.subscriptions[subscriptionID] = sub
	return sub, nil
}

// RemoveSubscription detaches a subscription from a session.
func (r *Registry) RemoveSubscription(sessionID, subscriptionID string) error {
	sess, err := r.get(sessionID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if _, exists := sess.subscriptions[subscriptionID]; !exists {
		return ErrNotFound
	}
	delete(sess.subscriptions, subscriptionID)
	return nil
}

// LookupInterested returns the ids of every session with at least one
// subscription naming instrumentID.
func (r *Registry) LookupInterested(instrumentID string) []string {
	r.mu.RLock()
	sessions := make([]*session, 0, len(r.sessions))
	ids := make([]string, 0, len(r.sessions))
	for id, sess := range r.sessions {
		sessions = append(sessions, sess)
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	out := make([]string, 0, len(sessions))
	for i, sess := range sessions {
		sess.mu.Lock()
		interested := false
		for _, sub := range sess.subscriptions {
			if sub.includes(instrumentID) {
				interested = true
				break
			}
		}
		sess.mu.Unlock()
		if interested {
			out = append(out, ids[i])
		}
	}
	return out
}

// SubscriptionsForInstrument returns a session's subscriptions whose
// id-set includes instrumentID, used for both the per-instrument pacing
// interval computation and the predicate-match gate.
func (r *Registry) SubscriptionsForInstrument(sessionID, instrumentID string) ([]*Subscription, error) {
	sess, err := r.get(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	var out []*Subscription
	for _, sub := range sess.subscriptions {
		if sub.includes(instrumentID) {
			out = append(out, sub)
		}
	}
	return out, nil
}

// ConsumeToken performs the token-bucket admission check: it refills
// lazily and consumes exactly one token if available.
func (r *Registry) ConsumeToken(sessionID string, now time.Time) (bool, error) {
	sess, err := r.get(sessionID)
	if err != nil {
		return false, err
	}
	return sess.bucket.TryConsume(now), nil
}

// CheckPacing computes the effective minimum inter-update interval for
// (sessionID, instrumentID) as 1000/max(f) over the session's subscriptions
// that include this instrument, falling back to the server default if none
// specify a frequency, and reports whether enough time has elapsed since
// the last successful send.
func (r *Registry) CheckPacing(sessionID, instrumentID string, now time.Time) (bool, error) {
	sess, err := r.get(sessionID)
	if err != nil {
		return false, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	maxFreq := 0.0
	for _, sub := range sess.subscriptions {
		if sub.includes(instrumentID) && sub.UpdateFrequency > maxFreq {
			maxFreq = sub.UpdateFrequency
		}
	}
	if maxFreq <= 0 {
		maxFreq = r.defaults.MaxUpdatesPerSecond
	}
	interval := time.Duration(1000/maxFreq) * time.Millisecond

	last, ok := sess.lastSent[instrumentID]
	if !ok {
		return true, nil
	}
	return now.Sub(last) >= interval, nil
}

// RecordSent records the send time for (sessionID, instrumentID) after a
// delta has been handed to the transport adapter.
func (r *Registry) RecordSent(sessionID, instrumentID string, now time.Time) error {
	sess, err := r.get(sessionID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSent[instrumentID] = now
	return nil
}

// ReconfigureBucket adjusts capacity/refill rate for a single session's
// token bucket at runtime, preserving its current level.
func (r *Registry) ReconfigureBucket(sessionID string, capacity, refillRate float64) error {
	sess, err := r.get(sessionID)
	if err != nil {
		return err
	}
	sess.bucket.Reconfigure(capacity, refillRate)
	return nil
}

// DefaultsSnapshot returns the current server-wide rate defaults.
func (r *Registry) DefaultsSnapshot() Defaults {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaults
}

// ReconfigureDefaults updates the server-wide defaults applied to newly
// registered sessions; already-registered sessions keep their own bucket
// configuration unless individually reconfigured.
func (r *Registry) ReconfigureDefaults(defaults Defaults) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults = defaults
}

// Stats summarizes a session's diagnostic state, grounded in the teacher's
// per-client stats pattern.
type Stats struct {
	SessionID         string
	TokenLevel        float64
	SubscriptionCount int
	LastSent          map[string]time.Time
}

// SessionStats returns a diagnostic snapshot for one session.
func (r *Registry) SessionStats(sessionID string, now time.Time) (Stats, error) {
	sess, err := r.get(sessionID)
	if err != nil {
		return Stats{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	lastSent := make(map[string]time.Time, len(sess.lastSent))
	for k, v := range sess.lastSent {
		lastSent[k] = v
	}
	return Stats{
		SessionID:         sessionID,
		TokenLevel:        sess.bucket.Level(now),
		SubscriptionCount: len(sess.subscriptions),
		LastSent:          lastSent,
	}, nil
}
