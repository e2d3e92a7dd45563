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

package agent

import (
	"context"
	"errors"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	v2 "in-cloud.io/hostupdate/api/v2"
	"in-cloud.io/hostupdate/internal/statemachine"
	"in-cloud.io/hostupdate/pkg/shadowclient"
)

// reconcile drives one shadow through a single step of the state machine.
// Unlike the teacher's applyConfig (which performs an entire apply in one
// call), each call here advances at most one transition: the host-API
// operations backing StagedAndPerformedUpdate -> RebootedIntoUpdate may
// span a reboot the agent process does not survive, so reconcile is
// written to be safely re-entered from wherever the shadow's spec/status
// currently sit, mirroring the teacher's own re-entrant watch-driven
// handleNodeUpdate.
func (a *Agent) reconcile(ctx context.Context, shadow *v2.HostUpdate) error {
	log := agentLog.WithValues("node", a.nodeName)

	desired := shadow.Spec.State
	observed := shadow.Status.CurrentState

	if desired == v2.Idle && observed == v2.Idle {
		return a.refreshIdleObservation(ctx, shadow)
	}

	if desired == observed {
		return nil
	}

	// IsValidTransition, not CanDrive: the table's Driver label on the
	// Idle->StagedAndPerformedUpdate and ErrorReset->Idle edges records
	// who writes spec.state (the controller, at admission and
	// close-out), not who may act on the resulting spec/status mismatch.
	// Every admission and every error-reset the controller performs
	// shows up here as exactly one of those two edges, and the agent is
	// the one that must execute the host action (or, for the
	// error-reset edge, simply acknowledge it) regardless of that
	// bookkeeping label. Genuinely illegal jumps (skipping a state, or
	// driving an edge absent from the table entirely) still fall
	// through to the default case below.
	if !statemachine.IsValidTransition(observed, desired) {
		log.Info("ignoring illegal transition", "from", observed, "to", desired)
		return nil
	}

	switch desired {
	case v2.StagedAndPerformedUpdate:
		return a.performUpdate(ctx, shadow)
	case v2.RebootedIntoUpdate:
		return a.confirmReboot(ctx, shadow)
	case v2.MonitoringUpdate:
		return a.monitorUpdate(ctx, shadow)
	case v2.Idle:
		return a.settleIdle(ctx, shadow)
	default:
		return fmt.Errorf("state-violation: agent cannot drive to %s", desired)
	}
}

// performUpdate stages and performs the update through the host API, then
// writes the pending-reboot marker and requests a reboot. It corresponds
// to spec.md §4.2 item 3's refresh-updates/prepare-update/activate-update
// sequence.
func (a *Agent) performUpdate(ctx context.Context, shadow *v2.HostUpdate) error {
	log := agentLog.WithValues("node", a.nodeName, "target", shadow.Spec.Version)

	if err := a.hostAPI.RefreshUpdates(ctx); err != nil {
		return a.failTransient(ctx, shadow, fmt.Errorf("refresh-updates: %w", err))
	}
	if err := a.hostAPI.PrepareUpdate(ctx); err != nil {
		return a.failTransient(ctx, shadow, fmt.Errorf("prepare-update: %w", err))
	}
	if err := a.hostAPI.ActivateUpdate(ctx); err != nil {
		return a.failTransient(ctx, shadow, fmt.Errorf("activate-update: %w", err))
	}

	if err := a.pendingReboot.Write(shadow.Spec.Version); err != nil {
		return fmt.Errorf("recording pending reboot: %w", err)
	}

	log.Info("activated update, requesting reboot")
	if err := a.hostAPI.Reboot(ctx); err != nil {
		return a.failTransient(ctx, shadow, fmt.Errorf("reboot: %w", err))
	}

	return a.publishState(ctx, shadow, v2.RebootedIntoUpdate)
}

// confirmReboot observes whether the host has actually come back up
// running the target version. If the reported OS version does not yet
// match, the agent leaves the shadow alone and waits for the next
// reconcile pass (the reboot may simply not have completed yet); if the
// host is back with the right version, it advances to MonitoringUpdate.
func (a *Agent) confirmReboot(ctx context.Context, shadow *v2.HostUpdate) error {
	os, err := a.hostAPI.GetOS(ctx)
	if err != nil {
		return a.failTransient(ctx, shadow, fmt.Errorf("get-os: %w", err))
	}

	if os.VersionID != shadow.Spec.Version {
		agentLog.V(1).Info("reboot not yet observed", "node", a.nodeName, "have", os.VersionID, "want", shadow.Spec.Version)
		return nil
	}

	if err := a.pendingReboot.Clear(); err != nil {
		agentLog.Error(err, "failed to clear pending-reboot marker", "node", a.nodeName)
	}

	return a.publishState(ctx, shadow, v2.MonitoringUpdate)
}

// monitorUpdate watches the host's most-recent-command result for the
// activated update and decides between settling at Idle or failing into
// ErrorReset, per the non-transient-host-failure rule in spec.md §7.
func (a *Agent) monitorUpdate(ctx context.Context, shadow *v2.HostUpdate) error {
	status, err := a.hostAPI.GetUpdateStatus(ctx)
	if err != nil {
		return a.failTransient(ctx, shadow, fmt.Errorf("updates/status: %w", err))
	}

	if status.MostRecentCommand.ExitStatus != 0 {
		return a.failNonTransient(ctx, shadow, fmt.Errorf(
			"update command %q exited %d: %s",
			status.MostRecentCommand.Type, status.MostRecentCommand.ExitStatus, status.MostRecentCommand.Stderr))
	}

	return a.publishState(ctx, shadow, v2.Idle)
}

// refreshIdleObservation is spec.md §4.2 item 2's "refresh observed
// state" step, run while the shadow is fully settled at Idle: it polls
// the host for its running version and update availability so the
// controller's idle-candidate partition (internal/controller/snapshot.go)
// has fresh data to admit against. It never changes CurrentState.
func (a *Agent) refreshIdleObservation(ctx context.Context, shadow *v2.HostUpdate) error {
	os, err := a.hostAPI.GetOS(ctx)
	if err != nil {
		return a.failTransient(ctx, shadow, fmt.Errorf("get-os: %w", err))
	}

	updateStatus, err := a.hostAPI.GetUpdateStatus(ctx)
	if err != nil {
		return a.failTransient(ctx, shadow, fmt.Errorf("updates/status: %w", err))
	}

	status := shadow.Status
	status.CurrentVersion = os.VersionID
	status.AvailableVersion = updateStatus.ChosenUpdate
	status.UpdateAvailable = updateStatus.ChosenUpdate != "" && updateStatus.ChosenUpdate != os.VersionID

	if status == shadow.Status {
		return nil
	}

	_, err = a.shadows.PublishStatus(ctx, a.nodeName, shadow.ResourceVersion, status)
	if err != nil {
		return fmt.Errorf("publishing idle observation: %w", err)
	}
	return nil
}

// settleIdle is reached when the controller has reset an ErrorReset
// shadow back to Idle; the agent has nothing further to do beyond
// acknowledging the observed state matches.
func (a *Agent) settleIdle(ctx context.Context, shadow *v2.HostUpdate) error {
	return a.publishState(ctx, shadow, v2.Idle)
}

// failTransient records a host-API-level transient error without
// advancing the state machine; the caller will retry on the next
// reconcile tick. HTTP 423 (locked/busy) is already retried inside
// pkg/hostapi, so an error surfacing here means retries there were
// exhausted or the failure was a different transport error.
func (a *Agent) failTransient(ctx context.Context, shadow *v2.HostUpdate, err error) error {
	agentLog.Error(err, "transient host API error, will retry", "node", a.nodeName)
	return err
}

// failNonTransient accounts a crash against the shadow and moves it to
// ErrorReset.
func (a *Agent) failNonTransient(ctx context.Context, shadow *v2.HostUpdate, cause error) error {
	agentLog.Error(cause, "non-transient host failure, entering ErrorReset", "node", a.nodeName)

	status := shadow.Status
	status.CurrentState = v2.ErrorReset
	status.CrashCount++
	now := metav1.Now()
	status.StateTransitionFailureTimestamp = &now

	_, err := a.shadows.PublishStatus(ctx, a.nodeName, shadow.ResourceVersion, status)
	if err != nil {
		return fmt.Errorf("publishing ErrorReset status: %w", err)
	}
	return cause
}

// publishState writes a successful state transition to the shadow's
// status. On a conflict it refetches the shadow once and re-sends the same
// status against the fresh resourceVersion; a second failure is returned.
// Grounded on the teacher's
// fetchRMCWithRetry/wait.ExponentialBackoffWithContext refetch shape.
func (a *Agent) publishState(ctx context.Context, shadow *v2.HostUpdate, next v2.State) error {
	status := shadow.Status
	status.CurrentState = next
	if next == v2.Idle {
		status.CurrentVersion = shadow.Spec.Version
	}

	_, err := a.shadows.PublishStatus(ctx, a.nodeName, shadow.ResourceVersion, status)
	if err == nil {
		return nil
	}

	var conflict *shadowclient.ConflictError
	if !errors.As(err, &conflict) {
		return fmt.Errorf("publishing status: %w", err)
	}

	fresh, getErr := a.shadows.Get(ctx, a.nodeName)
	if getErr != nil {
		return fmt.Errorf("refetching shadow after conflict: %w", getErr)
	}
	_, err = a.shadows.PublishStatus(ctx, a.nodeName, fresh.ResourceVersion, status)
	if err != nil {
		return fmt.Errorf("publishing status after refetch: %w", err)
	}
	return nil
}
