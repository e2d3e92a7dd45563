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

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/handler"
	"sigs.k8s.io/controller-runtime/pkg/log"

	v2 "in-cloud.io/hostupdate/api/v2"
	"in-cloud.io/hostupdate/internal/controller/leaderelection"
	"in-cloud.io/hostupdate/pkg/drain"
	"in-cloud.io/hostupdate/pkg/scheduler"
)

// Reconciler drives the fleet-wide reconcile pass described by spec.md
// §4.3: snapshot, partition, advance stuck shadows, admit new updates,
// cordon/drain, uncordon, quarantine. Unlike the teacher's
// MachineConfigPoolReconciler, which reconciles one MachineConfigPool per
// call, this reconciler treats every incoming request (whether it names a
// HostUpdate or a Node) as a trigger to re-run the whole fleet pass, since
// admission is a single cross-node budget decision rather than a
// per-object one.
type Reconciler struct {
	client.Client
	Scheme *runtime.Scheme

	// Namespace is the controller's own namespace, passed through to
	// DrainNodeWithExclusions so it never evicts itself.
	Namespace string

	MaxConcurrentUpdates    int
	Window                  *scheduler.Window
	ExcludeFromLBWait       time.Duration
	StuckTimeout            time.Duration
	CrashThreshold          int
	DrainOpts               DrainOptions
	DrainExclusionNamespace string

	Admission *AdmissionState
	Stuck     *StuckTracker
	Events    *EventRecorder

	// Elector gates admission, cordon/drain and uncordon to a single
	// leader; a nil Elector always acts, which is how tests exercise
	// Reconcile without standing up leader election.
	Elector *leaderelection.Elector

	cordonMu   sync.Mutex
	cordonedAt map[string]time.Time
}

// NewReconciler builds a Reconciler with its internal bookkeeping
// initialized.
func NewReconciler(c client.Client, scheme *runtime.Scheme) *Reconciler {
	return &Reconciler{
		Client:     c,
		Scheme:     scheme,
		Admission:  NewAdmissionState(),
		Stuck:      NewStuckTracker(),
		cordonedAt: make(map[string]time.Time),
	}
}

// Reconcile implements reconcile.Reconciler.
func (r *Reconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	start := time.Now()
	logger := log.FromContext(ctx).WithValues("trigger", req.Name)

	if r.Elector != nil && !r.Elector.IsLeader() {
		return ctrl.Result{}, nil
	}

	snap, err := BuildSnapshot(ctx, r.Client)
	if err != nil {
		RecordReconcileResult("error")
		return ctrl.Result{}, err
	}

	now := time.Now()
	windowOpen := r.Window != nil && r.Window.Open(now)
	UpdateSchedulerWindowOpenGauge(windowOpen)

	r.recordDistributions(snap)
	UpdateQuarantinedNodesGauge(QuarantinedCount(snap, r.CrashThreshold))

	exclusions, err := r.loadDrainExclusions(ctx)
	if err != nil {
		logger.Error(err, "failed to load drain exclusions, draining without them")
	}

	r.advanceStuck(ctx, snap, now)
	r.settleErrors(ctx, snap)
	r.admitNew(ctx, snap, now)
	r.driveCordonDrain(ctx, snap, exclusions)
	r.uncordonSettled(ctx, snap)

	RecordReconcileResult("success")
	RecordReconcileDuration(time.Since(start).Seconds())
	return ctrl.Result{RequeueAfter: 30 * time.Second}, nil
}

func (r *Reconciler) loadDrainExclusions(ctx context.Context) (*drain.DrainConfig, error) {
	if r.Namespace == "" {
		return nil, nil
	}
	result, err := drain.LoadDrainConfig(ctx, r.Client, r.Namespace)
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// recordDistributions repopulates the hosts_state and hosts_version
// gauges from the current snapshot.
func (r *Reconciler) recordDistributions(snap *Snapshot) {
	states := make(map[string]int)
	versions := make(map[string]int)
	cordoned := 0
	for _, e := range snap.Entries {
		states[string(e.Shadow.Status.CurrentState)]++
		if v := e.Shadow.Status.CurrentVersion; v != "" {
			versions[v]++
		}
		if e.Node != nil && IsNodeCordoned(e.Node) {
			cordoned++
		}
	}
	RecordStateDistribution(states)
	RecordVersionDistribution(versions)
	UpdateCordonedNodesGauge(cordoned)
}

// advanceStuck forces any active shadow that has stopped making progress
// into ErrorReset, per spec.md §4.3 step 3.
func (r *Reconciler) advanceStuck(ctx context.Context, snap *Snapshot, now time.Time) {
	logger := log.FromContext(ctx)

	for _, e := range snap.Active() {
		if !r.Stuck.Advance(ctx, e.Shadow, r.StuckTimeout, now) {
			continue
		}

		updated := e.Shadow.DeepCopy()
		updated.Status.CurrentState = v2.ErrorReset
		updated.Status.CrashCount++
		if err := r.Status().Update(ctx, updated); err != nil {
			logger.Error(err, "failed to force stuck shadow into ErrorReset", "shadow", e.Shadow.Name)
			continue
		}

		RecordStuckReset()
		if e.Node != nil {
			r.Events.UpdateStuck(e.Node, e.Shadow.Status.CurrentState)
		}
	}
}

// settleErrors closes out shadows the agent has already driven to Idle
// (spec.state still points at the finished cycle) and resets
// non-quarantined ErrorReset shadows back to Idle so they rejoin the idle
// candidate pool on the next pass. Quarantined shadows are left alone,
// per spec.md §4.3 step 7.
func (r *Reconciler) settleErrors(ctx context.Context, snap *Snapshot) {
	logger := log.FromContext(ctx)

	for _, e := range snap.Active() {
		shadow := e.Shadow

		switch {
		case shadow.Status.CurrentState == v2.Idle && shadow.Spec.State != v2.Idle:
			updated := shadow.DeepCopy()
			updated.Spec.State = v2.Idle
			updated.Spec.Version = ""
			if err := r.Update(ctx, updated); err != nil {
				logger.Error(err, "failed to close out completed update", "shadow", shadow.Name)
				continue
			}
			if e.Node != nil {
				r.Events.UpdateComplete(e.Node, shadow.Status.CurrentVersion)
			}

		case shadow.Status.CurrentState == v2.ErrorReset && shadow.Spec.State != v2.Idle:
			if IsQuarantined(shadow, r.CrashThreshold) {
				Quarantine(r.Events, e)
				continue
			}
			updated := shadow.DeepCopy()
			updated.Spec.State = v2.Idle
			updated.Spec.Version = ""
			if err := r.Update(ctx, updated); err != nil {
				logger.Error(err, "failed to reset errored shadow to Idle", "shadow", shadow.Name)
			}
		}
	}
}

// admitNew selects idle candidates within the concurrency budget and
// scheduler window, records when each was admitted, and cordons its node
// (after applying the load-balancer exclusion label when ExcludeFromLBWait
// > 0). It writes nothing to the shadow: driveCordonDrain drains the node
// and only then stages the update via StageUpdate.
func (r *Reconciler) admitNew(ctx context.Context, snap *Snapshot, now time.Time) {
	logger := log.FromContext(ctx)

	admitted := r.Admission.Admit(ctx, snap, r.Window, r.MaxConcurrentUpdates, now)
	for _, e := range admitted {
		if e.Node == nil {
			continue
		}
		r.markCordoning(e.Node.Name, now)
		if err := r.cordonAndDrainStart(ctx, e); err != nil {
			logger.Error(err, "failed to begin cordon/drain for admitted node", "node", e.Node.Name)
		}
	}
}

// driveCordonDrain progresses every admitted node that is cordoned while
// its shadow is still Idle: once the load-balancer-exclusion wait has
// elapsed it drains the node, and it stages the update once drain
// completes.
func (r *Reconciler) driveCordonDrain(ctx context.Context, snap *Snapshot, exclusions *drain.DrainConfig) {
	logger := log.FromContext(ctx)

	for _, e := range snap.Entries {
		if e.Node == nil || IsActive(e.Shadow) || !IsNodeCordoned(e.Node) {
			continue
		}
		r.cordonMu.Lock()
		_, admitted := r.cordonedAt[e.Node.Name]
		r.cordonMu.Unlock()
		if !admitted {
			continue
		}

		if !r.lbWaitElapsed(e.Node.Name, time.Now()) {
			continue
		}

		complete, err := IsDrainCompleteWithExclusions(ctx, r.Client, e.Node, r.DrainOpts, exclusions, r.Namespace)
		if err != nil {
			logger.Error(err, "failed to check drain completion", "node", e.Node.Name)
			continue
		}
		if !complete {
			if err := DrainNodeWithExclusions(ctx, r.Client, e.Node, r.DrainOpts, exclusions, r.Namespace); err != nil {
				if pdb, ok := asPDBBlocked(err); ok {
					r.Events.DrainFailed(e.Node, pdb.Error())
				} else {
					logger.Error(err, "drain attempt failed", "node", e.Node.Name)
				}
			}
			continue
		}

		r.Events.DrainComplete(e.Node)
		if err := StageUpdate(ctx, r.Client, e.Shadow); err != nil {
			logger.Error(err, "failed to stage update after drain completed", "node", e.Node.Name)
			continue
		}
		r.Events.UpdateAdmitted(e.Node, e.Shadow.Status.AvailableVersion)
		r.forgetCordoning(e.Node.Name)
	}
}

// uncordonSettled rejoins a node to the schedulable/load-balanced pool
// once its shadow has reached MonitoringUpdate and the node reports
// Ready, per spec.md §4.3 step 6.
func (r *Reconciler) uncordonSettled(ctx context.Context, snap *Snapshot) {
	logger := log.FromContext(ctx)

	for _, e := range snap.Active() {
		if e.Node == nil || e.Shadow.Status.CurrentState != v2.MonitoringUpdate {
			continue
		}
		if !IsNodeReady(e.Node) || !IsNodeCordoned(e.Node) {
			continue
		}

		if err := IncludeInLoadBalancers(ctx, r.Client, e.Node); err != nil {
			logger.Error(err, "failed to re-include node in load balancers", "node", e.Node.Name)
			continue
		}
		if err := UncordonNode(ctx, r.Client, e.Node); err != nil {
			logger.Error(err, "failed to uncordon settled node", "node", e.Node.Name)
			continue
		}
		r.Events.NodeUncordoned(e.Node)
	}
}

func (r *Reconciler) cordonAndDrainStart(ctx context.Context, e Entry) error {
	if r.ExcludeFromLBWait > 0 {
		if err := ExcludeFromLoadBalancers(ctx, r.Client, e.Node); err != nil {
			return err
		}
	}

	if err := CordonNode(ctx, r.Client, e.Node); err != nil {
		return err
	}
	r.Events.NodeCordonStarted(e.Node)

	r.Events.NodeDrainStarted(e.Node)
	return nil
}

func (r *Reconciler) markCordoning(name string, now time.Time) {
	r.cordonMu.Lock()
	defer r.cordonMu.Unlock()
	if _, ok := r.cordonedAt[name]; !ok {
		r.cordonedAt[name] = now
	}
}

func (r *Reconciler) forgetCordoning(name string) {
	r.cordonMu.Lock()
	defer r.cordonMu.Unlock()
	delete(r.cordonedAt, name)
}

func (r *Reconciler) lbWaitElapsed(name string, now time.Time) bool {
	r.cordonMu.Lock()
	start, ok := r.cordonedAt[name]
	r.cordonMu.Unlock()
	if !ok {
		return true
	}
	return now.Sub(start) >= r.ExcludeFromLBWait
}

func asPDBBlocked(err error) (*PDBBlockedError, bool) {
	pdb, ok := err.(*PDBBlockedError)
	if ok {
		return pdb, true
	}
	return nil, false
}

// SetupWithManager wires the reconciler into the manager, watching both
// HostUpdate shadows and Nodes since either can change what the fleet
// pass should do next. Grounded on the teacher's
// ctrl.NewControllerManagedBy(mgr).For(...).Watches(...).Complete(r)
// wiring in machineconfigpool_controller.go.
func (r *Reconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&v2.HostUpdate{}).
		Watches(&corev1.Node{}, handler.EnqueueRequestsFromMapFunc(r.mapNodeToAnyHostUpdate)).
		Complete(r)
}

// mapNodeToAnyHostUpdate enqueues the HostUpdate shadow that shares the
// node's name, so a node readiness change (e.g. finishing its reboot)
// triggers a reconcile pass even when nothing about the shadow itself
// changed. Grounded on the teacher's mapNodeToPool.
func (r *Reconciler) mapNodeToAnyHostUpdate(ctx context.Context, obj client.Object) []ctrl.Request {
	node, ok := obj.(*corev1.Node)
	if !ok {
		return nil
	}
	return []ctrl.Request{{NamespacedName: client.ObjectKey{Name: node.Name}}}
}
