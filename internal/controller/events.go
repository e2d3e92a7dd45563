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
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/record"

	v2 "in-cloud.io/hostupdate/api/v2"
)

// Event reasons for the update lifecycle of a single shadow.
const (
	// ReasonNodeCordon indicates a node was cordoned for update.
	ReasonNodeCordon = "NodeCordon"

	// ReasonNodeDrain indicates drain was started on a node.
	ReasonNodeDrain = "NodeDrain"

	// ReasonDrainStuck indicates drain has exceeded timeout.
	ReasonDrainStuck = "DrainStuck"

	// ReasonDrainFailed indicates a drain attempt failed (will retry).
	ReasonDrainFailed = "DrainFailed"

	// ReasonDrainComplete indicates drain completed successfully.
	ReasonDrainComplete = "DrainComplete"

	// ReasonUpdateAdmitted indicates an update was admitted onto a node.
	ReasonUpdateAdmitted = "UpdateAdmitted"

	// ReasonUpdateStuck indicates a shadow has sat in an in-flight state
	// past its timeout and was forced into ErrorReset.
	ReasonUpdateStuck = "UpdateStuck"

	// ReasonUpdateComplete indicates a shadow returned to Idle on the
	// target version.
	ReasonUpdateComplete = "UpdateComplete"

	// ReasonNodeUncordon indicates a node was uncordoned after update.
	ReasonNodeUncordon = "NodeUncordon"

	// ReasonQuarantined indicates a node was quarantined after exceeding
	// the crash-count threshold.
	ReasonQuarantined = "Quarantined"
)

// EventRecorder emits Kubernetes events against a shadow's Node, for the
// operator-visible slice of the update lifecycle.
type EventRecorder struct {
	recorder record.EventRecorder
}

// NewEventRecorder creates a new EventRecorder.
func NewEventRecorder(recorder record.EventRecorder) *EventRecorder {
	return &EventRecorder{recorder: recorder}
}

// NodeCordonStarted emits a WARNING event when a node is cordoned for
// update. Warning because cordon is a destructive action - the node
// becomes unschedulable.
func (e *EventRecorder) NodeCordonStarted(node *corev1.Node) {
	if e.recorder == nil {
		return
	}
	e.recorder.Eventf(node, corev1.EventTypeWarning, ReasonNodeCordon,
		"Node cordoned for update (unschedulable)")
}

// NodeDrainStarted emits a WARNING event when drain is started on a node.
// Warning because drain is a destructive action - pods are being evicted.
func (e *EventRecorder) NodeDrainStarted(node *corev1.Node) {
	if e.recorder == nil {
		return
	}
	e.recorder.Eventf(node, corev1.EventTypeWarning, ReasonNodeDrain,
		"Drain started (evicting pods)")
}

// DrainStuck emits a warning event when drain exceeds timeout.
func (e *EventRecorder) DrainStuck(node *corev1.Node) {
	if e.recorder == nil {
		return
	}
	e.recorder.Eventf(node, corev1.EventTypeWarning, ReasonDrainStuck,
		"Drain stuck, timeout exceeded")
}

// DrainFailed emits a warning event when a drain attempt fails (will be
// retried).
func (e *EventRecorder) DrainFailed(node *corev1.Node, reason string) {
	if e.recorder == nil {
		return
	}
	e.recorder.Eventf(node, corev1.EventTypeWarning, ReasonDrainFailed,
		"Drain failed: %s (will retry)", reason)
}

// DrainComplete emits a normal event when drain completes successfully.
func (e *EventRecorder) DrainComplete(node *corev1.Node) {
	if e.recorder == nil {
		return
	}
	e.recorder.Eventf(node, corev1.EventTypeNormal, ReasonDrainComplete,
		"Drain completed")
}

// UpdateAdmitted emits a normal event when a shadow is admitted into the
// active update set.
func (e *EventRecorder) UpdateAdmitted(node *corev1.Node, targetVersion string) {
	if e.recorder == nil {
		return
	}
	e.recorder.Eventf(node, corev1.EventTypeNormal, ReasonUpdateAdmitted,
		"Admitted for update to version %s", targetVersion)
}

// UpdateStuck emits a warning event when a shadow is forced into
// ErrorReset after sitting in state without progress past its timeout.
func (e *EventRecorder) UpdateStuck(node *corev1.Node, state v2.State) {
	if e.recorder == nil {
		return
	}
	e.recorder.Eventf(node, corev1.EventTypeWarning, ReasonUpdateStuck,
		"Update stuck in state %s, forcing ErrorReset", state)
}

// UpdateComplete emits a normal event when a shadow successfully returns
// to Idle on the target version.
func (e *EventRecorder) UpdateComplete(node *corev1.Node, version string) {
	if e.recorder == nil {
		return
	}
	e.recorder.Eventf(node, corev1.EventTypeNormal, ReasonUpdateComplete,
		"Update complete, running version %s", version)
}

// NodeUncordoned emits a normal event when a node is uncordoned after
// update.
func (e *EventRecorder) NodeUncordoned(node *corev1.Node) {
	if e.recorder == nil {
		return
	}
	e.recorder.Eventf(node, corev1.EventTypeNormal, ReasonNodeUncordon,
		"Node uncordoned after successful update")
}

// Quarantined emits a warning event when a node is quarantined after
// exceeding the crash-count threshold.
func (e *EventRecorder) Quarantined(node *corev1.Node, crashCount int) {
	if e.recorder == nil {
		return
	}
	e.recorder.Eventf(node, corev1.EventTypeWarning, ReasonQuarantined,
		"Node quarantined after %d consecutive failures", crashCount)
}

// CreateEventRecorder creates an EventRecorder from a manager's scheme.
func CreateEventRecorder(mgr interface {
	GetEventRecorderFor(name string) record.EventRecorder
	GetScheme() *runtime.Scheme
}) *EventRecorder {
	return NewEventRecorder(mgr.GetEventRecorderFor("hostupdate-controller"))
}
