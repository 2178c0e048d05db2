package sim

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash/v2"
)

const contactShards = 16

type pairKey struct {
	lo, hi int
}

func makePairKey(a, b int) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// contactTracker remembers which pairs are inside an overlap episode that has
// already received its impulse. The marker is set on impact and released once the
// pair is seen apart again, so a pair resting in contact is impulsed only once.
type contactTracker struct {
	shards [contactShards]contactShard
}

type contactShard struct {
	mu    sync.Mutex
	pairs map[pairKey]struct{}
}

func newContactTracker() *contactTracker {
	t := &contactTracker{}
	for i := range t.shards {
		t.shards[i].pairs = make(map[pairKey]struct{})
	}
	return t
}

func (t *contactTracker) shard(k pairKey) *contactShard {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(k.lo))
	binary.LittleEndian.PutUint64(buf[8:], uint64(k.hi))
	return &t.shards[xxhash.Sum64(buf[:])%contactShards]
}

// begin marks k and reports whether it was unmarked before.
func (t *contactTracker) begin(k pairKey) bool {
	sh := t.shard(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.pairs[k]; ok {
		return false
	}
	sh.pairs[k] = struct{}{}
	return true
}

func (t *contactTracker) end(k pairKey) {
	sh := t.shard(k)
	sh.mu.Lock()
	delete(sh.pairs, k)
	sh.mu.Unlock()
}

func (t *contactTracker) active(k pairKey) bool {
	sh := t.shard(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	_, ok := sh.pairs[k]
	return ok
}

func (t *contactTracker) len() int {
	n := 0
	for i := range t.shards {
		sh := &t.shards[i]
		sh.mu.Lock()
		n += len(sh.pairs)
		sh.mu.Unlock()
	}
	return n
}
