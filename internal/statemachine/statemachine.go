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

// Package statemachine holds the update state machine shared by the agent
// and the controller, so both sides agree on which transitions are legal
// without importing each other.
package statemachine

import (
	"fmt"

	v2 "in-cloud.io/hostupdate/api/v2"
)

// Transition describes one legal move from one state to the next, and who
// is allowed to drive it.
type Transition struct {
	From v2.State
	To   v2.State
	// Driver is "controller" or "agent". The controller drives admission
	// (Idle -> StagedAndPerformedUpdate) and the reset out of the error
	// path (ErrorReset -> Idle); the agent drives everything that depends
	// on the host's own update API (StagedAndPerformedUpdate ->
	// RebootedIntoUpdate -> MonitoringUpdate -> Idle) and the entry into
	// ErrorReset from each in-flight state.
	Driver string
}

const (
	DriverController = "controller"
	DriverAgent      = "agent"
)

// table enumerates every legal transition. It is intentionally a flat list
// rather than a map-of-maps: the state machine is small enough that
// legibility wins over lookup speed, and a flat list is trivial to audit
// against spec.md's list of edges.
var table = []Transition{
	{From: v2.Idle, To: v2.StagedAndPerformedUpdate, Driver: DriverController},
	{From: v2.StagedAndPerformedUpdate, To: v2.RebootedIntoUpdate, Driver: DriverAgent},
	// The agent's refresh-updates/prepare-update/activate-update/reboot
	// sequence runs as one uninterruptible call (internal/agent's
	// performUpdate) and only publishes status once it is done, so the
	// observed status a node reports after admission can jump straight
	// from Idle to RebootedIntoUpdate without ever surfacing
	// StagedAndPerformedUpdate as a status value in between.
	{From: v2.Idle, To: v2.RebootedIntoUpdate, Driver: DriverAgent},
	{From: v2.RebootedIntoUpdate, To: v2.MonitoringUpdate, Driver: DriverAgent},
	{From: v2.MonitoringUpdate, To: v2.Idle, Driver: DriverAgent},
	{From: v2.MonitoringUpdate, To: v2.ErrorReset, Driver: DriverAgent},
	{From: v2.StagedAndPerformedUpdate, To: v2.ErrorReset, Driver: DriverAgent},
	{From: v2.RebootedIntoUpdate, To: v2.ErrorReset, Driver: DriverAgent},
	{From: v2.ErrorReset, To: v2.Idle, Driver: DriverController},
}

// IsValidTransition reports whether moving from `from` to `to` is permitted
// by the state machine, regardless of driver.
func IsValidTransition(from, to v2.State) bool {
	if from == to {
		return true
	}
	for _, t := range table {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}

// CanDrive reports whether the named driver ("controller" or "agent") is
// permitted to move the shadow from `from` to `to`.
func CanDrive(driver string, from, to v2.State) bool {
	if from == to {
		return true
	}
	for _, t := range table {
		if t.From == from && t.To == to {
			return t.Driver == driver
		}
	}
	return false
}

// Next validates and returns `to` as the next state starting from `from`,
// driven by `driver`. It returns an error describing the illegal edge
// rather than silently allowing it, since a state-machine violation is one
// of the conditions the error taxonomy (spec §7) calls "state-violation".
func Next(driver string, from, to v2.State) (v2.State, error) {
	if from == to {
		return to, nil
	}
	for _, t := range table {
		if t.From == from && t.To == to {
			if t.Driver != driver {
				return "", fmt.Errorf("state-violation: %s may not drive %s -> %s (owned by %s)", driver, from, to, t.Driver)
			}
			return to, nil
		}
	}
	return "", fmt.Errorf("state-violation: no transition %s -> %s", from, to)
}

// IsTerminal reports whether a state represents a settled rest position
// that neither side should spontaneously leave without a new directive:
// Idle (nothing in flight) is the only such state. ErrorReset is not
// terminal — the controller moves it back to Idle once it has recorded the
// error, except for a quarantined shadow, which it leaves in ErrorReset.
func IsTerminal(s v2.State) bool {
	return s == v2.Idle
}

// IsErrorState reports whether a shadow is in its error path.
func IsErrorState(s v2.State) bool {
	return s == v2.ErrorReset
}

// InFlight reports whether a shadow has an update actively in progress,
// i.e. is neither idle nor parked in the error state awaiting reset.
func InFlight(s v2.State) bool {
	return !IsTerminal(s) && !IsErrorState(s)
}
