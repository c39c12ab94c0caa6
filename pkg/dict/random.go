// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dict

import "math/rand/v2"

// RandomEntry returns a randomly chosen entry from the Dict: a bucket is
// picked uniformly at random across the combined size of both tables while
// rehashing (retrying while the chosen bucket is empty), then an element is
// picked uniformly at random from within that bucket's chain. Ported from
// dictGetRandomKey, which (unlike a naive "try N random buckets and give up"
// scheme) is guaranteed to make progress on any non-empty Dict.
func (d *Dict) RandomEntry() (*Entry, bool) {
	if d.Len() == 0 {
		return nil, false
	}

	d.rehashStep()

	var he *Entry
	if d.isRehashing() {
		for he == nil {
			total := d.ht[0].size + d.ht[1].size
			h := uint64(rand.Int64N(int64(total)))
			if h >= d.ht[0].size {
				he = d.ht[1].buckets[h-d.ht[0].size]
			} else {
				he = d.ht[0].buckets[h]
			}
		}
	} else {
		for he == nil {
			h := uint64(rand.Int64N(int64(d.ht[0].size))) & d.ht[0].sizemask
			he = d.ht[0].buckets[h]
		}
	}

	listlen := 0
	for e := he; e != nil; e = e.next {
		listlen++
	}
	listele := rand.IntN(listlen)
	for listele > 0 {
		he = he.next
		listele--
	}
	return he, true
}
