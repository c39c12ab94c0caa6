// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dict implements a chained hash table that rehashes incrementally,
// spreading the cost of growing across many small mutating operations
// instead of stalling the caller for one large bucket-array copy. It is a
// direct port of the two-table rehashing scheme in Redis's dict.c, trading
// the original's manual memory management for Go's garbage collector while
// keeping every observable timing and ordering guarantee.
package dict

// initialSize is the bucket count of the first hash table a Dict allocates.
const initialSize = 4

// forceResizeRatio is the used/size ratio above which expand() fires even
// when opportunistic resizing has been disabled process-wide.
const forceResizeRatio = 5

var resizeEnabled = true

// EnableResize turns on opportunistic resizing process-wide. This affects
// every Dict; callers typically flip it off only while a persistence
// snapshot (or any copy-on-write-sensitive fork) is in progress.
func EnableResize() { resizeEnabled = true }

// DisableResize turns off opportunistic resizing process-wide. The
// forced-ratio resize (used/size > forceResizeRatio) still fires even while
// disabled, to bound worst-case chain length.
func DisableResize() { resizeEnabled = false }

// TypeDescriptor supplies the behavior a Dict needs over otherwise-opaque
// keys and values. Any field may be left nil; nil means "use identity" (no
// duplication, pointer/value equality via ==, no destructor call).
type TypeDescriptor struct {
	// HashFunction computes the hash of a key. Required.
	HashFunction func(key any) uint32

	// KeyDup, if set, is called to duplicate a key being inserted so the
	// Dict owns its own copy instead of the caller's.
	KeyDup func(privdata any, key any) any

	// ValueDup, if set, duplicates a value being inserted the same way.
	ValueDup func(privdata any, value any) any

	// KeyCompare, if set, compares two keys for equality. If nil, keys are
	// compared with ==.
	KeyCompare func(privdata any, k1, k2 any) bool

	// KeyDestructor, if set, is invoked when an entry holding this key is
	// freed (by Delete or Empty). Replace never destroys the key.
	KeyDestructor func(privdata any, key any)

	// ValueDestructor, if set, is invoked when an entry's value is
	// discarded (by Delete or Replace's old-value teardown).
	ValueDestructor func(privdata any, value any)
}

// Entry is one key/value pair stored in a Dict. Entries are singly linked
// within their bucket chain.
type Entry struct {
	key   any
	value any
	next  *Entry
}

// Key returns the entry's key.
func (e *Entry) Key() any { return e.key }

// Value returns the entry's value.
func (e *Entry) Value() any { return e.value }

// SetValue overwrites the entry's value in place, without touching the key
// or destroying the previous value. Used by AddRaw callers that fill in the
// value after claiming a blank entry.
func (e *Entry) SetValue(v any) { e.value = v }

// table is one side of a Dict's two-table rehashing scheme.
type table struct {
	buckets  []*Entry
	size     uint64
	sizemask uint64
	used     uint64
}

func newTable(size uint64) *table {
	if size == 0 {
		return &table{}
	}
	return &table{
		buckets:  make([]*Entry, size),
		size:     size,
		sizemask: size - 1,
	}
}

// Dict is a hash table with an associated TypeDescriptor. It holds exactly
// two tables, ht[0] and ht[1]; while rehashidx >= 0, entries are being
// migrated bucket-by-bucket from ht[0] into ht[1].
type Dict struct {
	typ       *TypeDescriptor
	privdata  any
	ht        [2]*table
	rehashidx int64 // -1 == not rehashing
	iterators uint32
}

// New creates an empty Dict. Both hash tables start at size 0; the first
// insert triggers allocation of ht[0].
func New(typ *TypeDescriptor, privdata any) *Dict {
	return &Dict{
		typ:       typ,
		privdata:  privdata,
		ht:        [2]*table{newTable(0), newTable(0)},
		rehashidx: -1,
	}
}

// Len returns the number of live entries across both tables.
func (d *Dict) Len() int {
	return int(d.ht[0].used + d.ht[1].used)
}

// isRehashing reports whether a rehash is in progress.
func (d *Dict) isRehashing() bool {
	return d.rehashidx != -1
}

func (d *Dict) hash(key any) uint32 {
	return d.typ.HashFunction(key)
}

func (d *Dict) keysEqual(k1, k2 any) bool {
	if d.typ.KeyCompare != nil {
		return d.typ.KeyCompare(d.privdata, k1, k2)
	}
	return k1 == k2
}

func (d *Dict) dupKey(key any) any {
	if d.typ.KeyDup != nil {
		return d.typ.KeyDup(d.privdata, key)
	}
	return key
}

func (d *Dict) dupValue(value any) any {
	if d.typ.ValueDup != nil {
		return d.typ.ValueDup(d.privdata, value)
	}
	return value
}

func (d *Dict) destroyKey(key any) {
	if d.typ.KeyDestructor != nil {
		d.typ.KeyDestructor(d.privdata, key)
	}
}

func (d *Dict) destroyValue(value any) {
	if d.typ.ValueDestructor != nil {
		d.typ.ValueDestructor(d.privdata, value)
	}
}

// rehashStep performs exactly one rehash(1) step, but only if no safe
// iterator is alive. Called at the top of every add/add_raw/delete*/find, per
// spec: this is what bounds rehashing to O(1) amortized per operation.
func (d *Dict) rehashStep() {
	if d.iterators == 0 {
		d.rehash(1)
	}
}

// rehash migrates up to n non-empty buckets of ht[0] into ht[1]. It returns
// true if more work remains, false once rehashing has completed (or there
// was nothing to do).
func (d *Dict) rehash(n int) bool {
	if !d.isRehashing() {
		return false
	}

	emptyVisits := n * 10
	for ; n > 0 && d.ht[0].used != 0; n-- {
		for d.ht[0].buckets[d.rehashidx] == nil {
			d.rehashidx++
			emptyVisits--
			if emptyVisits == 0 {
				return true
			}
		}

		ent := d.ht[0].buckets[d.rehashidx]
		for ent != nil {
			next := ent.next
			idx := uint64(d.hash(ent.key)) & d.ht[1].sizemask
			ent.next = d.ht[1].buckets[idx]
			d.ht[1].buckets[idx] = ent
			d.ht[0].used--
			d.ht[1].used++
			ent = next
		}
		d.ht[0].buckets[d.rehashidx] = nil
		d.rehashidx++
	}

	if d.ht[0].used == 0 {
		d.ht[0] = d.ht[1]
		d.ht[1] = newTable(0)
		d.rehashidx = -1
		return false
	}
	return true
}

// RehashMilliseconds performs rehash work in batches of 100 bucket steps
// until either rehashing completes or the given wall-clock budget (in
// milliseconds) is exhausted. Intended to be called from event-loop idle
// time, not from the hot mutating path. Returns 100 for every batch after
// which rehash work still remained; the batch that completes the rehash is
// not counted.
func (d *Dict) RehashMilliseconds(ms int) int {
	start := nowMillis()
	steps := 0
	for d.rehash(100) {
		steps += 100
		if nowMillis()-start > int64(ms) {
			break
		}
	}
	return steps
}

// Rehash performs up to n rehash steps right now, regardless of the safe
// iterator count. Exposed for tests and for callers that want explicit
// control (spec §8 scenario 2: "pause the event loop... call rehash(1) 10
// times").
func (d *Dict) Rehash(n int) bool {
	return d.rehash(n)
}

// nextPower returns the smallest power of two >= size, never smaller than
// initialSize. Ported from _dictNextPower.
func nextPower(size uint64) uint64 {
	if size >= 1<<62 {
		return 1 << 62
	}
	p := uint64(initialSize)
	for p < size {
		p <<= 1
	}
	return p
}

// expandIfNeeded is the resize-decision helper consulted before every
// insert, per spec §4.2.
func (d *Dict) expandIfNeeded() error {
	if d.isRehashing() {
		return nil
	}
	if d.ht[0].size == 0 {
		return d.expand(initialSize)
	}
	if d.ht[0].used >= d.ht[0].size &&
		(resizeEnabled || d.ht[0].used/d.ht[0].size > forceResizeRatio) {
		target := d.ht[0].size
		if d.ht[0].used > target {
			target = d.ht[0].used
		}
		return d.expand(target * 2)
	}
	return nil
}

// expand starts (possibly incremental) growth to a table of the smallest
// power of two >= size.
func (d *Dict) expand(size uint64) error {
	realsize := nextPower(size)

	if d.isRehashing() || d.ht[0].used > size {
		return ErrInvalid
	}

	n := newTable(realsize)

	if d.ht[0].buckets == nil {
		d.ht[0] = n
		return nil
	}

	d.ht[1] = n
	d.rehashidx = 0
	return nil
}

// Expand explicitly grows the Dict to the smallest power of two >= n. Fails
// with ErrInvalid if already rehashing or if n is smaller than the number of
// entries already present.
func (d *Dict) Expand(n uint64) error {
	return d.expand(n)
}

// Resize shrinks the Dict to the smallest power of two >= the current used
// count (never below initialSize). No-op if opportunistic resize is
// disabled globally or a rehash is already in progress.
func (d *Dict) Resize() error {
	if !resizeEnabled || d.isRehashing() {
		return nil
	}
	minimal := d.ht[0].used
	if minimal < initialSize {
		minimal = initialSize
	}
	return d.expand(minimal)
}

// lookup searches both tables (only the second while rehashing) for key,
// returning which table it was found in, its bucket index, and the matching
// entry plus the entry immediately before it in the chain (nil if it's the
// bucket head). found is false if the key isn't present.
func (d *Dict) lookup(key any, h uint32) (tableIdx int, idx uint64, ent, prev *Entry, found bool) {
	for t := 0; t < 2; t++ {
		ht := d.ht[t]
		if ht.size == 0 {
			if !d.isRehashing() {
				break
			}
			continue
		}
		idx = uint64(h) & ht.sizemask
		var p *Entry
		e := ht.buckets[idx]
		for e != nil {
			if d.keysEqual(key, e.key) {
				return t, idx, e, p, true
			}
			p = e
			e = e.next
		}
		if !d.isRehashing() {
			break
		}
	}
	return 0, 0, nil, nil, false
}

// Find returns the entry for key, if present.
func (d *Dict) Find(key any) (*Entry, bool) {
	if d.ht[0].size == 0 {
		return nil, false
	}
	d.rehashStep()
	_, _, ent, _, found := d.lookup(key, d.hash(key))
	if !found {
		return nil, false
	}
	return ent, true
}

// FetchValue is a convenience wrapper over Find that returns just the value.
func (d *Dict) FetchValue(key any) (any, bool) {
	ent, ok := d.Find(key)
	if !ok {
		return nil, false
	}
	return ent.value, true
}

// Exists reports whether key is present.
func (d *Dict) Exists(key any) bool {
	_, ok := d.Find(key)
	return ok
}

// keyIndexForInsert picks the table an insert should land in (ht[1] while
// rehashing, else ht[0]) and the bucket index within it, after first
// checking the key isn't already present anywhere in the Dict.
func (d *Dict) keyIndexForInsert(key any) (htIdx int, idx uint64, err error) {
	if err := d.expandIfNeeded(); err != nil {
		return 0, 0, err
	}

	h := d.hash(key)
	if _, _, _, _, found := d.lookup(key, h); found {
		return 0, 0, ErrKeyExists
	}

	htIdx = 0
	if d.isRehashing() {
		htIdx = 1
	}
	idx = uint64(h) & d.ht[htIdx].sizemask
	return htIdx, idx, nil
}

// AddRaw inserts a blank entry for key if absent and returns it for the
// caller to fill in with SetValue. Returns ErrKeyExists if key is already
// present.
func (d *Dict) AddRaw(key any) (*Entry, error) {
	d.rehashStep()

	htIdx, idx, err := d.keyIndexForInsert(key)
	if err != nil {
		return nil, err
	}

	ent := &Entry{key: d.dupKey(key)}
	ht := d.ht[htIdx]
	ent.next = ht.buckets[idx]
	ht.buckets[idx] = ent
	ht.used++
	return ent, nil
}

// Add inserts (key, value) only if key is absent.
func (d *Dict) Add(key, value any) error {
	ent, err := d.AddRaw(key)
	if err != nil {
		return err
	}
	ent.value = d.dupValue(value)
	return nil
}

// Replace inserts (key, value) if key is absent (reports isNew=true), or
// overwrites the existing value otherwise (isNew=false). The new value is
// installed before the old one is destroyed, so a value that happens to
// equal the key's current value (think: refcounted equality) is never
// destroyed out from under itself.
func (d *Dict) Replace(key, value any) (isNew bool, err error) {
	if err := d.Add(key, value); err == nil {
		return true, nil
	} else if err != ErrKeyExists {
		return false, err
	}

	ent, _ := d.Find(key)
	old := ent.value
	ent.value = d.dupValue(value)
	d.destroyValue(old)
	return false, nil
}

func (d *Dict) genericDelete(key any, noFree bool) (delKey, delValue any, err error) {
	if d.ht[0].size == 0 {
		return nil, nil, ErrNotFound
	}
	d.rehashStep()

	h := d.hash(key)
	t, idx, ent, prev, found := d.lookup(key, h)
	if !found {
		return nil, nil, ErrNotFound
	}

	ht := d.ht[t]
	if prev == nil {
		ht.buckets[idx] = ent.next
	} else {
		prev.next = ent.next
	}
	ht.used--

	if !noFree {
		d.destroyKey(ent.key)
		d.destroyValue(ent.value)
	}
	return ent.key, ent.value, nil
}

// Delete removes key, destroying its key and value via the TypeDescriptor.
// Returns ErrNotFound if key is absent.
func (d *Dict) Delete(key any) error {
	_, _, err := d.genericDelete(key, false)
	return err
}

// DeleteNoFree unlinks key's entry and returns ownership of its key/value to
// the caller without invoking the destructors. Returns ErrNotFound if key is
// absent.
func (d *Dict) DeleteNoFree(key any) (k, v any, err error) {
	return d.genericDelete(key, true)
}

// Empty clears both hash tables and resets the rehash cursor and iterator
// count.
func (d *Dict) Empty() {
	if d.typ.KeyDestructor != nil || d.typ.ValueDestructor != nil {
		for _, ht := range d.ht {
			for _, head := range ht.buckets {
				for e := head; e != nil; e = e.next {
					d.destroyKey(e.key)
					d.destroyValue(e.value)
				}
			}
		}
	}
	d.ht[0] = newTable(0)
	d.ht[1] = newTable(0)
	d.rehashidx = -1
	d.iterators = 0
}
