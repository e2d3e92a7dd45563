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
	"fmt"
	"sort"
	"sync"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	v2 "in-cloud.io/hostupdate/api/v2"
	"in-cloud.io/hostupdate/pkg/scheduler"
	"in-cloud.io/hostupdate/pkg/semver"
)

// Unlimited marks max_concurrent_updates as having no cap.
const Unlimited = -1

// AdmissionState serializes the controller's admit-new-updates decision
// across reconcile passes, named after the teacher's DebounceState to
// match its single-mutex-guarded-bookkeeping idiom (spec.md §5's "single
// admission-critical-section mutex").
type AdmissionState struct {
	mu sync.Mutex
}

// NewAdmissionState creates an empty AdmissionState.
func NewAdmissionState() *AdmissionState {
	return &AdmissionState{}
}

// orderCandidates sorts idle candidates by node name, then by oldest
// observed version within ties, per spec.md §4.3's deterministic tie-break
// rule.
func orderCandidates(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Shadow.Name != out[j].Shadow.Name {
			return out[i].Shadow.Name < out[j].Shadow.Name
		}
		vi, erri := semver.Parse(out[i].Shadow.Status.CurrentVersion)
		vj, errj := semver.Parse(out[j].Shadow.Status.CurrentVersion)
		if erri != nil || errj != nil {
			return false
		}
		return vi.LessThan(vj)
	})
	return out
}

// Admit selects idle candidates to start an update on, up to the
// concurrency budget, while the maintenance window is open. It returns
// the entries it admitted; the caller is responsible for writing
// spec.state/spec.version (StageUpdate) and for the cordon/drain
// sequence that must precede leaving Idle.
func (a *AdmissionState) Admit(ctx context.Context, snap *Snapshot, window *scheduler.Window, maxConcurrent int, now time.Time) []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()

	logger := log.FromContext(ctx)

	if !window.Open(now) {
		logger.V(1).Info("scheduler window closed, admitting no new updates")
		return nil
	}

	active := len(snap.Active())
	if maxConcurrent != Unlimited && active >= maxConcurrent {
		return nil
	}

	budget := maxConcurrent - active
	if maxConcurrent == Unlimited {
		budget = len(snap.Entries)
	}

	candidates := orderCandidates(snap.IdleCandidates())
	if len(candidates) > budget {
		candidates = candidates[:budget]
	}
	return candidates
}

// StageUpdate writes spec.state = StagedAndPerformedUpdate and
// spec.version = the agent-reported available version for a newly
// admitted shadow, per spec.md §4.3 step 4.
func StageUpdate(ctx context.Context, c client.Client, shadow *v2.HostUpdate) error {
	target := shadow.Status.AvailableVersion
	if target == "" {
		return fmt.Errorf("shadow %s has no available version to stage", shadow.Name)
	}

	updated := shadow.DeepCopy()
	updated.Spec.State = v2.StagedAndPerformedUpdate
	updated.Spec.Version = target
	now := metav1.Now()
	updated.Spec.StateTransitionTimestamp = &now

	return c.Update(ctx, updated)
}
