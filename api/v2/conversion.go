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
	"fmt"

	v1 "in-cloud.io/hostupdate/api/v1"
)

// LossyConversionAnnotation records fields that a v2→v1→v2 round trip
// cannot carry losslessly, so operators reading v1 objects can tell status
// is reconstructed rather than observed.
const LossyConversionAnnotation = "hostupdate.in-cloud.io/converted-from-v2"

// ToV1 converts a v2 (storage) HostUpdate into its v1 representation.
// v1.StagedUpdate / v1.PerformedUpdate are collapsed in v2 into
// StagedAndPerformedUpdate; converting back down, StagedAndPerformedUpdate
// always maps to v1.PerformedUpdate, since by the time a v2 shadow is
// observed in that state the stage-and-perform action has already
// completed (the two halves of the v1 transition are atomic in v2).
func ToV1(in *HostUpdate) (*v1.HostUpdate, error) {
	if in == nil {
		return nil, fmt.Errorf("nil v2 HostUpdate")
	}

	out := &v1.HostUpdate{
		ObjectMeta: *in.ObjectMeta.DeepCopy(),
	}
	out.APIVersion = v1.GroupVersion.String()
	out.Kind = "HostUpdate"

	specState, err := stateToV1(in.Spec.State)
	if err != nil {
		return nil, fmt.Errorf("converting spec.state: %w", err)
	}
	out.Spec.State = specState
	out.Spec.Version = in.Spec.Version
	out.Spec.StateTransitionTimestamp = in.Spec.StateTransitionTimestamp.DeepCopy()

	currentState, err := stateToV1(in.Status.CurrentState)
	if err != nil {
		return nil, fmt.Errorf("converting status.currentState: %w", err)
	}
	out.Status.CurrentState = currentState
	out.Status.CurrentVersion = in.Status.CurrentVersion
	out.Status.TargetVersion = in.Status.TargetVersion
	out.Status.UpdateAvailable = in.Status.UpdateAvailable

	// CrashCount and StateTransitionFailureTimestamp have no v1 field; the
	// ErrorReset state itself carries enough signal for a v1-only client,
	// per spec.md §6.1 ("v2.ErrorReset -> v1.Idle with failure timestamp
	// preserved lossy-annotated"). We keep ErrorReset visible rather than
	// silently renaming it to Idle, since v1's own State enum already has
	// an ErrorReset value; only the failure timestamp is lossy.
	if in.Status.StateTransitionFailureTimestamp != nil {
		if out.Annotations == nil {
			out.Annotations = map[string]string{}
		}
		out.Annotations[LossyConversionAnnotation] = in.Status.StateTransitionFailureTimestamp.Format("2006-01-02T15:04:05Z07:00")
	}

	return out, nil
}

// FromV1 converts a v1 HostUpdate into v2, the storage version.
func FromV1(in *v1.HostUpdate) (*HostUpdate, error) {
	if in == nil {
		return nil, fmt.Errorf("nil v1 HostUpdate")
	}

	out := &HostUpdate{
		ObjectMeta: *in.ObjectMeta.DeepCopy(),
	}
	out.APIVersion = GroupVersion.String()
	out.Kind = "HostUpdate"

	specState, err := stateFromV1(in.Spec.State)
	if err != nil {
		return nil, fmt.Errorf("converting spec.state: %w", err)
	}
	out.Spec.State = specState
	out.Spec.Version = in.Spec.Version
	out.Spec.StateTransitionTimestamp = in.Spec.StateTransitionTimestamp.DeepCopy()

	currentState, err := stateFromV1(in.Status.CurrentState)
	if err != nil {
		return nil, fmt.Errorf("converting status.currentState: %w", err)
	}
	out.Status.CurrentState = currentState
	out.Status.CurrentVersion = in.Status.CurrentVersion
	out.Status.TargetVersion = in.Status.TargetVersion
	out.Status.UpdateAvailable = in.Status.UpdateAvailable

	return out, nil
}

func stateToV1(s State) (v1.State, error) {
	switch s {
	case Idle:
		return v1.Idle, nil
	case StagedAndPerformedUpdate:
		return v1.PerformedUpdate, nil
	case RebootedIntoUpdate:
		return v1.RebootedIntoUpdate, nil
	case MonitoringUpdate:
		return v1.MonitoringUpdate, nil
	case ErrorReset:
		return v1.ErrorReset, nil
	case "":
		return v1.Idle, nil
	default:
		return "", fmt.Errorf("unknown v2 state %q", s)
	}
}

func stateFromV1(s v1.State) (State, error) {
	switch s {
	case v1.Idle:
		return Idle, nil
	case v1.StagedUpdate, v1.PerformedUpdate:
		return StagedAndPerformedUpdate, nil
	case v1.RebootedIntoUpdate:
		return RebootedIntoUpdate, nil
	case v1.MonitoringUpdate:
		return MonitoringUpdate, nil
	case v1.ErrorReset:
		return ErrorReset, nil
	case "":
		return Idle, nil
	default:
		return "", fmt.Errorf("unknown v1 state %q", s)
	}
}
