// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dict

import "time"

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
