//
// Date: 2026-02-15
// Copyright (c) 2026. All rights reserved.
//

package transport

import (
	"sync/atomic"
	"time"
)

// atomic64 stores a time.Time as a lock-free UnixNano value, used to track
// the last-inbound-frame timestamp the heartbeat-timeout check reads from a
// different goroutine than the reader writes it from.
type atomic64 struct {
	nanos atomic.Int64
}

func (a *atomic64) Store(t time.Time) {
	a.nanos.Store(t.UnixNano())
}

func (a *atomic64) Load() time.Time {
	return time.Unix(0, a.nanos.Load())
}
