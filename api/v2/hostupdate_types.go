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

package v2

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// State names the position of a shadow in the update state machine.
// +kubebuilder:validation:Enum=Idle;StagedAndPerformedUpdate;RebootedIntoUpdate;MonitoringUpdate;ErrorReset
type State string

const (
	// Idle is both the initial and the terminal state.
	Idle State = "Idle"

	// StagedAndPerformedUpdate means the update has been downloaded, written
	// to the inactive partition, and the partition table flipped. No reboot yet.
	StagedAndPerformedUpdate State = "StagedAndPerformedUpdate"

	// RebootedIntoUpdate means the host has rebooted into the staged image.
	RebootedIntoUpdate State = "RebootedIntoUpdate"

	// MonitoringUpdate is the post-boot observation window.
	MonitoringUpdate State = "MonitoringUpdate"

	// ErrorReset is entered on any non-transient transition failure.
	ErrorReset State = "ErrorReset"
)

// HostUpdateSpec is the desired state of a host's update, written
// exclusively by the controller.
type HostUpdateSpec struct {
	// State is the desired machine state.
	// +kubebuilder:default="Idle"
	State State `json:"state,omitempty"`

	// Version is the desired target OS version (semver).
	// +optional
	Version string `json:"version,omitempty"`

	// StateTransitionTimestamp records when the controller last changed State.
	// +optional
	StateTransitionTimestamp *metav1.Time `json:"stateTransitionTimestamp,omitempty"`
}

// HostUpdateStatus is the observed state of a host's update, written
// exclusively by the agent for its own shadow.
type HostUpdateStatus struct {
	// CurrentState is the observed machine state.
	// +kubebuilder:default="Idle"
	CurrentState State `json:"currentState,omitempty"`

	// CurrentVersion is the observed running OS version.
	// +optional
	CurrentVersion string `json:"currentVersion,omitempty"`

	// TargetVersion is the version the agent is currently pursuing.
	// +optional
	TargetVersion string `json:"targetVersion,omitempty"`

	// CrashCount is the number of consecutive failed update attempts.
	// +kubebuilder:default=0
	CrashCount int `json:"crashCount,omitempty"`

	// StateTransitionFailureTimestamp is set when a transition fails and
	// cleared on the next successful transition.
	// +optional
	StateTransitionFailureTimestamp *metav1.Time `json:"stateTransitionFailureTimestamp,omitempty"`

	// UpdateAvailable records whether the host-local update API reported an
	// available update the last time the agent polled it, while Idle.
	// +optional
	UpdateAvailable bool `json:"updateAvailable,omitempty"`

	// AvailableVersion is the version the host-local update API reported
	// as chosen/available the last time the agent polled it, while Idle.
	// The controller copies this into spec.version when admitting the
	// shadow for update (spec.md §4.3 step 4). Has no v1 equivalent.
	// +optional
	AvailableVersion string `json:"availableVersion,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:resource:scope=Cluster,shortName=hup
// +kubebuilder:subresource:status
// +kubebuilder:printcolumn:name="Desired",type=string,JSONPath=`.spec.state`
// +kubebuilder:printcolumn:name="Current",type=string,JSONPath=`.status.currentState`
// +kubebuilder:printcolumn:name="Version",type=string,JSONPath=`.status.currentVersion`
// +kubebuilder:printcolumn:name="Crashes",type=integer,JSONPath=`.status.crashCount`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// HostUpdate is the shadow object that mirrors a single managed host's
// update state. Its name matches the host's node identifier. It carries no
// owner reference to that node, so deleting the node does not delete it.
type HostUpdate struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   HostUpdateSpec   `json:"spec,omitempty"`
	Status HostUpdateStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// HostUpdateList contains a list of HostUpdate.
type HostUpdateList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []HostUpdate `json:"items"`
}

func init() {
	SchemeBuilder.Register(&HostUpdate{}, &HostUpdateList{})
}
