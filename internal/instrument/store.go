package instrument

import (
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/tidwall/btree"
)

const shardCount = 32

// ErrNotFound and ErrAlreadyExists are returned by Store operations; callers
// at the admin boundary translate these into the apierr taxonomy.
var (
	ErrNotFound      = fmt.Errorf("instrument: not found")
	ErrAlreadyExists = fmt.Errorf("instrument: already exists")
)

// record is the per-instrument state the store partitions behind its own
// lock: current (under mutation by the tick generator) and published (the
// baseline the delta engine last emitted from).
type record struct {
	mu        sync.RWMutex
	current   *Instrument
	published *Instrument
}

type shard struct {
	mu   sync.RWMutex
	recs map[string]*record
}

// Store holds the authoritative current state and last-published snapshot
// of every instrument. It partitions instruments across a fixed number of
// shards so a writer to one instrument cannot block readers of another for
// longer than an O(1) critical section; secondary indices (by kind,
// currency, status, rating) are maintained separately under their own lock
// since they are read far less often than a single lookup-by-id.
type Store struct {
	shards [shardCount]*shard

	idxMu      sync.RWMutex
	byKind     map[Kind]*btree.Map[string, struct{}]
	byCurrency map[string]*btree.Map[string, struct{}]
	byStatus   map[Status]*btree.Map[string, struct{}]
	byRating   map[string]*btree.Map[string, struct{}]
}

// NewStore constructs an empty instrument store.
func NewStore() *Store {
	s := &Store{
		byKind:     make(map[Kind]*btree.Map[string, struct{}]),
		byCurrency: make(map[string]*btree.Map[string, struct{}]),
		byStatus:   make(map[Status]*btree.Map[string, struct{}]),
		byRating:   make(map[string]*btree.Map[string, struct{}]),
	}
	for i := range s.shards {
		s.shards[i] = &shard{recs: make(map[string]*record)}
	}
	return s
}

func (s *Store) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return s.shards[h.Sum32()%shardCount]
}

// Insert adds a new instrument. Its published snapshot is initialized to
// equal current, per the snapshot lifecycle contract.
func (s *Store) Insert(in *Instrument) error {
	sh := s.shardFor(in.ID)
	sh.mu.Lock()
	if _, exists := sh.recs[in.ID]; exists {
		sh.mu.Unlock()
		return ErrAlreadyExists
	}
	cur := in.Clone()
	sh.recs[in.ID] = &record{current: cur, published: cur.Clone()}
	sh.mu.Unlock()

	s.indexAdd(in)
	return nil
}

// Remove deletes an instrument and erases it from every secondary index.
func (s *Store) Remove(id string) error {
	sh := s.shardFor(id)
	sh.mu.Lock()
	rec, exists := sh.recs[id]
	if !exists {
		sh.mu.Unlock()
		return ErrNotFound
	}
	delete(sh.recs, id)
	sh.mu.Unlock()

	rec.mu.RLock()
	in := rec.current
	rec.mu.RUnlock()
	s.indexRemove(in)
	return nil
}

// Lookup returns a deep copy of an instrument's current state.
func (s *Store) Lookup(id string) (*Instrument, error) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	rec, exists := sh.recs[id]
	sh.mu.RUnlock()
	if !exists {
		return nil, ErrNotFound
	}
	rec.mu.RLock()
	defer rec.mu.RUnlock()
	return rec.current.Clone(), nil
}

// IDs returns every instrument id currently in the store, in no particular
// order, without copying instrument payloads.
func (s *Store) IDs() []string {
	out := make([]string, 0)
	for _, sh := range s.shards {
		sh.mu.RLock()
		for id := range sh.recs {
			out = append(out, id)
		}
		sh.mu.RUnlock()
	}
	return out
}

// ListAll returns a deep copy of every instrument's current state.
func (s *Store) ListAll() []*Instrument {
	out := make([]*Instrument, 0)
	for _, sh := range s.shards {
		sh.mu.RLock()
		recs := make([]*record, 0, len(sh.recs))
		for _, rec := range sh.recs {
			recs = append(recs, rec)
		}
		sh.mu.RUnlock()
		for _, rec := range recs {
			rec.mu.RLock()
			out = append(out, rec.current.Clone())
			rec.mu.RUnlock()
		}
	}
	return out
}

// ListByKind, ListByCurrency, ListByStatus and ListByRating return
// instruments matching the given secondary-index key, in id order.
func (s *Store) ListByKind(k Kind) []*Instrument       { return listByIndex(s, s.byKind, k) }
func (s *Store) ListByCurrency(c string) []*Instrument { return listByIndex(s, s.byCurrency, c) }
func (s *Store) ListByStatus(st Status) []*Instrument  { return listByIndex(s, s.byStatus, st) }
func (s *Store) ListByRating(r string) []*Instrument   { return listByIndex(s, s.byRating, r) }

// listByIndex is a free function, not a method, because Go methods cannot
// carry their own type parameters.
func listByIndex[K comparable](s *Store, idx map[K]*btree.Map[string, struct{}], key K) []*Instrument {
	s.idxMu.RLock()
	tree, ok := idx[key]
	var ids []string
	if ok {
		ids = make([]string, 0, tree.Len())
		tree.Scan(func(id string, _ struct{}) bool {
			ids = append(ids, id)
			return true
		})
	}
	s.idxMu.RUnlock()

	out := make([]*Instrument, 0, len(ids))
	for _, id := range ids {
		if in, err := s.Lookup(id); err == nil {
			out = append(out, in)
		}
	}
	return out
}

// UpdateCurrent atomically replaces an instrument's current state via a
// mutator function; used by the tick generator.
func (s *Store) UpdateCurrent(id string, mutate func(in *Instrument)) error {
	sh := s.shardFor(id)
	sh.mu.RLock()
	rec, exists := sh.recs[id]
	sh.mu.RUnlock()
	if !exists {
		return ErrNotFound
	}
	rec.mu.Lock()
	mutate(rec.current)
	rec.mu.Unlock()
	return nil
}

// MergeUpdate applies a partial field update by admin CRUD, re-indexing any
// secondary-index key the patch changes.
func (s *Store) MergeUpdate(id string, patch func(in *Instrument)) error {
	sh := s.shardFor(id)
	sh.mu.RLock()
	rec, exists := sh.recs[id]
	sh.mu.RUnlock()
	if !exists {
		return ErrNotFound
	}

	rec.mu.Lock()
	before := rec.current.Clone()
	patch(rec.current)
	after := rec.current.Clone()
	rec.mu.Unlock()

	s.indexRemove(before)
	s.indexAdd(after)
	return nil
}

// TakeSnapshotPair returns deep copies of (published, current) for delta
// computation, without holding the per-instrument lock across the caller's
// own work.
func (s *Store) TakeSnapshotPair(id string) (published, current *Instrument, err error) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	rec, exists := sh.recs[id]
	sh.mu.RUnlock()
	if !exists {
		return nil, nil, ErrNotFound
	}
	rec.mu.RLock()
	defer rec.mu.RUnlock()
	return rec.published.Clone(), rec.current.Clone(), nil
}

// ReplacePublished atomically swaps the published snapshot for a deep copy
// of the given state; called by the Delta Engine after a non-empty emission.
func (s *Store) ReplacePublished(id string, newPublished *Instrument) error {
	sh := s.shardFor(id)
	sh.mu.RLock()
	rec, exists := sh.recs[id]
	sh.mu.RUnlock()
	if !exists {
		return ErrNotFound
	}
	rec.mu.Lock()
	rec.published = newPublished.Clone()
	rec.mu.Unlock()
	return nil
}

func (s *Store) indexAdd(in *Instrument) {
	s.idxMu.Lock()
	defer s.idxMu.Unlock()
	treeFor(s.byKind, in.Kind).Set(in.ID, struct{}{})
	treeFor(s.byCurrency, in.Currency).Set(in.ID, struct{}{})
	treeFor(s.byStatus, in.Status).Set(in.ID, struct{}{})
	treeFor(s.byRating, in.Rating).Set(in.ID, struct{}{})
}

func (s *Store) indexRemove(in *Instrument) {
	if in == nil {
		return
	}
	s.idxMu.Lock()
	defer s.idxMu.Unlock()
	if t, ok := s.byKind[in.Kind]; ok {
		t.Delete(in.ID)
	}
	if t, ok := s.byCurrency[in.Currency]; ok {
		t.Delete(in.ID)
	}
	if t, ok := s.byStatus[in.Status]; ok {
		t.Delete(in.ID)
	}
	if t, ok := s.byRating[in.Rating]; ok {
		t.Delete(in.ID)
	}
}

func treeFor[K comparable](idx map[K]*btree.Map[string, struct{}], key K) *btree.Map[string, struct{}] {
	t, ok := idx[key]
	if !ok {
		t = btree.NewMap[string, struct{}](32)
		idx[key] = t
	}
	return t
}
