/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package controller

import (
	"context"
	"sync"
	"time"

	v2 "in-cloud.io/hostupdate/api/v2"
	"in-cloud.io/hostupdate/internal/statemachine"
)

// StuckTracker records how long each active shadow has sat at its current
// observed state, so advance() can detect a shadow that stopped making
// progress and force it into ErrorReset. Shaped after the teacher's
// DebounceState: a mutex-guarded map keyed by name, reset whenever the
// tracked value changes, read back to decide whether a timeout elapsed.
type StuckTracker struct {
	mu                sync.Mutex
	lastObservedAt    map[string]time.Time
	lastObservedState map[string]v2.State
}

// NewStuckTracker creates an empty tracker.
func NewStuckTracker() *StuckTracker {
	return &StuckTracker{
		lastObservedAt:    make(map[string]time.Time),
		lastObservedState: make(map[string]v2.State),
	}
}

// Observe records the current state for name, resetting the stuck clock
// if the state has changed since the last observation.
func (s *StuckTracker) Observe(name string, state v2.State, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastObservedState[name] != state {
		s.lastObservedState[name] = state
		s.lastObservedAt[name] = now
	} else if s.lastObservedAt[name].IsZero() {
		s.lastObservedAt[name] = now
	}
}

// StuckFor returns how long name has sat at its current observed state.
func (s *StuckTracker) StuckFor(name string, now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := s.lastObservedAt[name]
	if start.IsZero() {
		return 0
	}
	return now.Sub(start)
}

// Forget drops tracking state for name, e.g. once it returns to Idle.
func (s *StuckTracker) Forget(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lastObservedAt, name)
	delete(s.lastObservedState, name)
}

// Advance examines one active (in-flight) shadow and decides whether the
// controller must intervene: either nothing to do (the agent is still
// driving it within its timeout), or force it to ErrorReset because it has
// been stuck past stuckTimeout. Grounded on HandleDrainRetry's
// elapsed-vs-timeout shape from the teacher's drain retry handling.
func (s *StuckTracker) Advance(ctx context.Context, shadow *v2.HostUpdate, stuckTimeout time.Duration, now time.Time) (forceErrorReset bool) {
	name := shadow.Name
	state := shadow.Status.CurrentState

	if !statemachine.InFlight(state) {
		s.Forget(name)
		return false
	}

	s.Observe(name, state, now)

	if s.StuckFor(name, now) <= stuckTimeout {
		return false
	}

	s.Forget(name)
	return true
}
