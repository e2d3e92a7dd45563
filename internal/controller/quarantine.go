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
	v2 "in-cloud.io/hostupdate/api/v2"
)

// DefaultCrashThreshold is used when the operator leaves crash_threshold
// unconfigured.
const DefaultCrashThreshold = 3

// IsQuarantined reports whether a shadow has accumulated enough
// consecutive failures that the controller must stop advancing it,
// per spec.md §4.3 step 7 / §3's quarantine invariant.
func IsQuarantined(shadow *v2.HostUpdate, threshold int) bool {
	if threshold <= 0 {
		threshold = DefaultCrashThreshold
	}
	return shadow.Status.CurrentState == v2.ErrorReset && shadow.Status.CrashCount >= threshold
}

// Quarantine records the observable side effects of a shadow crossing the
// crash-count threshold: a metric bump and a warning event, grounded on
// the teacher's RecordDrainStuck metric-plus-ConditionDegraded-event
// pairing for stuck conditions. It never writes to the shadow itself —
// quarantine is a controller-side refusal to advance spec.state, not a
// state the shadow enters.
func Quarantine(recorder *EventRecorder, entry Entry) {
	if recorder != nil && entry.Node != nil {
		recorder.Quarantined(entry.Node, entry.Shadow.Status.CrashCount)
	}
}

// QuarantinedCount returns how many entries in the snapshot are currently
// quarantined, for the hostupdate_quarantined_nodes gauge.
func QuarantinedCount(snap *Snapshot, threshold int) int {
	count := 0
	for _, e := range snap.Entries {
		if IsQuarantined(e.Shadow, threshold) {
			count++
		}
	}
	return count
}
