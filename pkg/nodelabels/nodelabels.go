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

// Package nodelabels names the node labels this system reads or writes
// that it does not itself own the lifecycle of. UpdaterInterfaceVersion is
// read-only: it is how a node opts into being managed. The load-balancer
// exclusion label is the one label the controller writes, and only while
// a node is draining.
package nodelabels

const (
	// UpdaterInterfaceVersion selects a node as managed by this system
	// when present and set to InterfaceVersion.
	UpdaterInterfaceVersion = "updater-interface-version"

	// InterfaceVersion is the only accepted value of
	// UpdaterInterfaceVersion today.
	InterfaceVersion = "2.0.0"

	// ExcludeFromExternalLoadBalancers is applied by the controller before
	// cordoning a node for update and removed once the node is safe to
	// rejoin, when exclude_from_lb_wait_seconds > 0.
	ExcludeFromExternalLoadBalancers = "node-role-exclude-from-external-load-balancers"
)

// IsManaged reports whether a node's labels mark it as managed by this
// system.
func IsManaged(labels map[string]string) bool {
	if labels == nil {
		return false
	}
	return labels[UpdaterInterfaceVersion] == InterfaceVersion
}

// IsExcludedFromLoadBalancers reports whether the load-balancer exclusion
// label is currently present.
func IsExcludedFromLoadBalancers(labels map[string]string) bool {
	if labels == nil {
		return false
	}
	_, ok := labels[ExcludeFromExternalLoadBalancers]
	return ok
}

// WithExcludedFromLoadBalancers returns a copy of labels with the
// exclusion label set. The upstream convention for this label is an empty
// value; presence, not content, is what kube-proxy and cloud LB
// controllers key off of.
func WithExcludedFromLoadBalancers(labels map[string]string) map[string]string {
	out := make(map[string]string, len(labels)+1)
	for k, v := range labels {
		out[k] = v
	}
	out[ExcludeFromExternalLoadBalancers] = ""
	return out
}

// WithoutExcludedFromLoadBalancers returns a copy of labels with the
// exclusion label removed.
func WithoutExcludedFromLoadBalancers(labels map[string]string) map[string]string {
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		if k == ExcludeFromExternalLoadBalancers {
			continue
		}
		out[k] = v
	}
	return out
}
