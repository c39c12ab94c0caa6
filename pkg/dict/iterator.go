// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dict

// Iterator walks every entry of a Dict, ht[0] first and then, while a
// rehash is in progress, ht[1]. It is forward-only and not restartable.
//
// An unsafe iterator (returned by Dict.Iterator) requires the caller not to
// mutate the Dict while it's alive. A safe iterator (Dict.SafeIterator)
// additionally disables the automatic one-step rehash for as long as it's
// alive, and tolerates the caller deleting the entry most recently returned
// by Next, because each step caches the following entry before returning
// the current one.
type Iterator struct {
	d        *Dict
	safe     bool
	table    int
	index    int64
	entry    *Entry
	nextNode *Entry
	started  bool
	released bool
}

// Iterator returns an unsafe iterator over d.
func (d *Dict) Iterator() *Iterator {
	return &Iterator{d: d, index: -1}
}

// SafeIterator returns a safe iterator over d, incrementing d's live safe
// iterator count for the duration of its life.
func (d *Dict) SafeIterator() *Iterator {
	it := &Iterator{d: d, safe: true, index: -1}
	d.iterators++
	return it
}

// Next advances the iterator and reports whether a further entry is
// available. Call Entry/Key/Value to read the current element after Next
// returns true.
func (it *Iterator) Next() bool {
	for {
		if it.entry == nil {
			ht := it.d.ht[it.table]
			it.index++
			if it.index >= int64(ht.size) {
				if it.d.isRehashing() && it.table == 0 {
					it.table++
					it.index = 0
					ht = it.d.ht[1]
				} else {
					return false
				}
			}
			if ht.size == 0 {
				return false
			}
			it.entry = ht.buckets[it.index]
		} else {
			it.entry = it.nextNode
		}

		if it.entry != nil {
			it.nextNode = it.entry.next
			return true
		}
	}
}

// Entry returns the entry Next last positioned on.
func (it *Iterator) Entry() *Entry { return it.entry }

// Key returns the key of the current entry.
func (it *Iterator) Key() any { return it.entry.key }

// Value returns the value of the current entry.
func (it *Iterator) Value() any { return it.entry.value }

// Close releases the iterator. For a safe iterator this decrements the
// Dict's live safe-iterator count, re-enabling automatic stepwise rehash
// once the count reaches zero. Unsafe iterators need not be closed, but
// calling Close on one is harmless.
func (it *Iterator) Close() {
	if it.released {
		return
	}
	it.released = true
	if it.safe {
		it.d.iterators--
	}
}
