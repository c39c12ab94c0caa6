// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dict

import "errors"

var (
	// ErrKeyExists is returned by Add when the key is already present.
	ErrKeyExists = errors.New("dict: key exists")

	// ErrNotFound is returned by Delete/DeleteNoFree when the key is absent.
	ErrNotFound = errors.New("dict: key not found")

	// ErrInvalid is returned by Expand for a malformed resize request.
	ErrInvalid = errors.New("dict: invalid resize request")

	// ErrAllocFailure would be propagated from the allocator on an
	// out-of-memory condition. Go's runtime treats OOM as fatal and
	// unrecoverable, so no code path in this package returns it; it exists
	// so the Dict's error set is complete. See DESIGN.md.
	ErrAllocFailure = errors.New("dict: allocation failure")
)
