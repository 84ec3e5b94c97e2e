//
// Date: 2026-02-15
// Copyright (c) 2026. All rights reserved.
//

package transport

import (
	"math/rand"
	"time"
)

const (
	backoffBase       = time.Second
	backoffCap        = 60 * time.Second
	maxReconnectTries = 20
)

// nextBackoff computes a randomized, full-jitter exponential backoff delay
// for the given zero-indexed attempt: base * 2^attempt, capped, then
// uniformly randomized in [0, cap].
func nextBackoff(attempt int) time.Duration {
	exp := backoffBase << uint(attempt)
	if exp <= 0 || exp > backoffCap { // overflow guard and explicit cap
		exp = backoffCap
	}
	return time.Duration(rand.Int63n(int64(exp) + 1))
}
