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

	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/util/retry"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"in-cloud.io/hostupdate/pkg/nodelabels"
)

// CordonNode marks a node unschedulable ahead of draining it for an
// update. Retried on conflict exactly as the teacher's CordonNode, since
// the node object is also written by the scheduler and other controllers.
func CordonNode(ctx context.Context, c client.Client, node *corev1.Node) error {
	logger := log.FromContext(ctx)

	return retry.RetryOnConflict(retry.DefaultBackoff, func() error {
		current := &corev1.Node{}
		if err := c.Get(ctx, client.ObjectKeyFromObject(node), current); err != nil {
			return err
		}

		if current.Spec.Unschedulable {
			return nil
		}

		current.Spec.Unschedulable = true
		if err := c.Update(ctx, current); err != nil {
			return err
		}

		logger.Info("node cordoned", "node", current.Name)
		return nil
	})
}

// UncordonNode clears unschedulable once a node has settled into
// MonitoringUpdate and is Ready.
func UncordonNode(ctx context.Context, c client.Client, node *corev1.Node) error {
	logger := log.FromContext(ctx)

	return retry.RetryOnConflict(retry.DefaultBackoff, func() error {
		current := &corev1.Node{}
		if err := c.Get(ctx, client.ObjectKeyFromObject(node), current); err != nil {
			return err
		}

		if !current.Spec.Unschedulable {
			return nil
		}

		current.Spec.Unschedulable = false
		if err := c.Update(ctx, current); err != nil {
			return err
		}

		logger.Info("node uncordoned", "node", current.Name)
		return nil
	})
}

func IsNodeCordoned(node *corev1.Node) bool {
	return node.Spec.Unschedulable
}

// IsNodeReady reports whether the node's Ready condition is true.
func IsNodeReady(node *corev1.Node) bool {
	for _, cond := range node.Status.Conditions {
		if cond.Type == corev1.NodeReady {
			return cond.Status == corev1.ConditionTrue
		}
	}
	return false
}

// ExcludeFromLoadBalancers applies the load-balancer exclusion label
// before a node is cordoned, per spec.md §4.3/§6.3. There is no
// equivalent step in the teacher's drain path (MachineConfig apply never
// touches external load balancing); this is added fresh, in the same
// retry-on-conflict idiom as the rest of this file.
func ExcludeFromLoadBalancers(ctx context.Context, c client.Client, node *corev1.Node) error {
	return retry.RetryOnConflict(retry.DefaultBackoff, func() error {
		current := &corev1.Node{}
		if err := c.Get(ctx, client.ObjectKeyFromObject(node), current); err != nil {
			return err
		}
		if nodelabels.IsExcludedFromLoadBalancers(current.Labels) {
			return nil
		}
		current.Labels = nodelabels.WithExcludedFromLoadBalancers(current.Labels)
		return c.Update(ctx, current)
	})
}

// IncludeInLoadBalancers removes the exclusion label once a node is safe
// to rejoin.
func IncludeInLoadBalancers(ctx context.Context, c client.Client, node *corev1.Node) error {
	return retry.RetryOnConflict(retry.DefaultBackoff, func() error {
		current := &corev1.Node{}
		if err := c.Get(ctx, client.ObjectKeyFromObject(node), current); err != nil {
			return err
		}
		if !nodelabels.IsExcludedFromLoadBalancers(current.Labels) {
			return nil
		}
		current.Labels = nodelabels.WithoutExcludedFromLoadBalancers(current.Labels)
		return c.Update(ctx, current)
	})
}
