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

	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	v2 "in-cloud.io/hostupdate/api/v2"
	"in-cloud.io/hostupdate/pkg/nodelabels"
)

// Entry pairs a shadow with the node it describes.
type Entry struct {
	Shadow *v2.HostUpdate
	Node   *corev1.Node
}

// Snapshot is an in-memory view of every managed shadow and its node,
// built once per reconcile pass. Mirrors the teacher's SelectNodes-style
// single list+index pass ahead of a reconcile decision.
type Snapshot struct {
	Entries []Entry
}

// BuildSnapshot lists every HostUpdate shadow and joins it against its
// node by name. Nodes that are not labeled as managed, or that have no
// corresponding shadow yet (the agent has not created one), are omitted;
// the agent is responsible for shadow creation (internal/agent/ensure.go).
func BuildSnapshot(ctx context.Context, c client.Client) (*Snapshot, error) {
	shadowList := &v2.HostUpdateList{}
	if err := c.List(ctx, shadowList); err != nil {
		return nil, fmt.Errorf("listing shadows: %w", err)
	}

	nodeList := &corev1.NodeList{}
	if err := c.List(ctx, nodeList); err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}

	nodesByName := make(map[string]*corev1.Node, len(nodeList.Items))
	for i := range nodeList.Items {
		node := &nodeList.Items[i]
		if !nodelabels.IsManaged(node.Labels) {
			continue
		}
		nodesByName[node.Name] = node
	}

	snap := &Snapshot{}
	for i := range shadowList.Items {
		shadow := &shadowList.Items[i]
		node, ok := nodesByName[shadow.Name]
		if !ok {
			continue
		}
		snap.Entries = append(snap.Entries, Entry{Shadow: shadow, Node: node})
	}

	return snap, nil
}

// IsActive reports whether a shadow has left Idle in either its desired
// or observed state, per spec.md §4.3 step 2.
func IsActive(shadow *v2.HostUpdate) bool {
	return shadow.Spec.State != v2.Idle || shadow.Status.CurrentState != v2.Idle
}

// Active returns every entry currently in flight.
func (s *Snapshot) Active() []Entry {
	var out []Entry
	for _, e := range s.Entries {
		if IsActive(e.Shadow) {
			out = append(out, e)
		}
	}
	return out
}

// IdleCandidates returns entries that are fully Idle but report an
// available update, per spec.md §4.3 step 2.
func (s *Snapshot) IdleCandidates() []Entry {
	var out []Entry
	for _, e := range s.Entries {
		if IsActive(e.Shadow) {
			continue
		}
		if e.Shadow.Status.UpdateAvailable {
			out = append(out, e)
		}
	}
	return out
}
