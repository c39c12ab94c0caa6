// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dict

import "github.com/cespare/xxhash/v2"

// hashFunctionSeed is the process-wide seed used by GenHashFunction and
// GenCaseHashFunction. It must be set, if at all, before any Dict using the
// default hash function is populated; changing it afterward invalidates the
// bucket placement of existing Dicts.
var hashFunctionSeed uint32 = 5381

// SetHashFunctionSeed sets the process-wide hash seed. Not safe to call once
// a Dict has entries in it.
func SetHashFunctionSeed(seed uint32) {
	hashFunctionSeed = seed
}

// HashFunctionSeed returns the current process-wide hash seed.
func HashFunctionSeed() uint32 {
	return hashFunctionSeed
}

// GenHashFunction is a variant of Bernstein's hash: hash = hash*33 + byte,
// seeded from the process-wide seed. Ported from dictGenHashFunction in
// the reference C implementation.
func GenHashFunction(buf []byte) uint32 {
	h := hashFunctionSeed
	for _, b := range buf {
		h = ((h << 5) + h) + uint32(b)
	}
	return h
}

// GenCaseHashFunction is GenHashFunction with each byte ASCII-lowercased
// first, for case-insensitive keys.
func GenCaseHashFunction(buf []byte) uint32 {
	h := hashFunctionSeed
	for _, b := range buf {
		h = ((h << 5) + h) + uint32(toLowerASCII(b))
	}
	return h
}

func toLowerASCII(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// IntHashFunction is the Thomas Wang 32-bit integer mix function, ported
// from dictIntHashFunction.
func IntHashFunction(key uint32) uint32 {
	key += ^(key << 15)
	key ^= key >> 10
	key += key << 3
	key ^= key >> 6
	key += ^(key << 11)
	key ^= key >> 16
	return key
}

// XXHashFunction is a faster, unseeded alternative to GenHashFunction for
// TypeDescriptors that don't need the process-wide seed contract (e.g. keys
// that are never rehashed-seed-dependent across process restarts). Backed by
// github.com/cespare/xxhash/v2, the hash library the wider retrieval pack
// reaches for in cache and storage code.
func XXHashFunction(buf []byte) uint32 {
	return uint32(xxhash.Sum64(buf))
}
