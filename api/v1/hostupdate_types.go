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

package v1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// State names the position of a shadow in the update state machine, using
// the v1 vocabulary that keeps staging and performing the update as two
// separate states.
// +kubebuilder:validation:Enum=Idle;StagedUpdate;PerformedUpdate;RebootedIntoUpdate;MonitoringUpdate;ErrorReset
type State string

const (
	Idle               State = "Idle"
	StagedUpdate       State = "StagedUpdate"
	PerformedUpdate    State = "PerformedUpdate"
	RebootedIntoUpdate State = "RebootedIntoUpdate"
	MonitoringUpdate   State = "MonitoringUpdate"
	ErrorReset         State = "ErrorReset"
)

// HostUpdateSpec is the v1 desired state of a host's update.
type HostUpdateSpec struct {
	// +kubebuilder:default="Idle"
	State State `json:"state,omitempty"`
	// +optional
	Version string `json:"version,omitempty"`
	// +optional
	StateTransitionTimestamp *metav1.Time `json:"stateTransitionTimestamp,omitempty"`
}

// HostUpdateStatus is the v1 observed state of a host's update. v1 has no
// CrashCount or StateTransitionFailureTimestamp fields. On conversion to
// v1 the failure timestamp is kept only as an annotation (see
// api/v2/conversion.go) and CrashCount is dropped.
type HostUpdateStatus struct {
	// +kubebuilder:default="Idle"
	CurrentState State `json:"currentState,omitempty"`
	// +optional
	CurrentVersion string `json:"currentVersion,omitempty"`
	// +optional
	TargetVersion string `json:"targetVersion,omitempty"`
	// +optional
	UpdateAvailable bool `json:"updateAvailable,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:resource:scope=Cluster,shortName=hup
// +kubebuilder:subresource:status

// HostUpdate is the v1 representation of the shadow object. Only reachable
// through the conversion webhook; v2 is the storage version.
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
