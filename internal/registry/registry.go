//
// Date: 2026-02-15
// Copyright (c) 2026. All rights reserved.
//

// Package registry holds the canonical, thread-safe set of currently-joined
// channels, which the Connection Manager walks via Snapshot to replay
// subscriptions after a reconnect. It never touches the socket
// itself; callers observe Join/Leave return values to decide whether to
// send a control frame now.
package registry

import "sync"

// ControlAction identifies whether a pending control message is a join or a
// leave.
type ControlAction int

const (
	ActionJoin ControlAction = iota
	ActionLeave
)

// ControlMessage is a channel mutation the Connection Manager must flush to
// the socket once the connection is READY.
type ControlMessage struct {
	Action  ControlAction
	Channel string
}

// Registry is the canonical set of joined channels, insertion-ordered for
// deterministic reconnect replay, plus a firehose flag for options clients.
type Registry struct {
	mu       sync.Mutex
	order    []string
	present  map[string]struct{}
	firehose bool
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{present: make(map[string]struct{})}
}

// Join adds channel to the registry if not already present. Returns true if
// the channel was newly added (meaning a join control message should be
// sent); false if it was already a member (idempotent no-op).
func (r *Registry) Join(channel string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.present[channel]; ok {
		return false
	}
	r.present[channel] = struct{}{}
	r.order = append(r.order, channel)
	return true
}

// Leave removes channel from the registry. Returns true if the channel was
// present and removed (meaning a leave control message should be sent);
// false if the channel was unknown (no-op).
func (r *Registry) Leave(channel string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.present[channel]; !ok {
		return false
	}
	delete(r.present, channel)
	for i, c := range r.order {
		if c == channel {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// LeaveAll clears every joined channel and returns the channels that were
// removed, in their prior insertion order, so the caller can emit leave
// control messages for each.
func (r *Registry) LeaveAll() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := r.order
	r.order = nil
	r.present = make(map[string]struct{})
	return removed
}

// SetFirehose marks whether the options firehose sentinel is joined.
func (r *Registry) SetFirehose(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.firehose = on
}

// Firehose reports whether the firehose sentinel is currently joined.
func (r *Registry) Firehose() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.firehose
}

// Snapshot returns every currently-joined channel in insertion order. Used
// by the Connection Manager on reconnect to re-emit a join message for each
// channel.
func (r *Registry) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of currently-joined channels.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}
