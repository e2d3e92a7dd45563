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
	policyv1 "k8s.io/api/policy/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"in-cloud.io/hostupdate/pkg/drain"
)

// DrainOptions controls how aggressively a node is drained ahead of an
// update-triggered reboot.
type DrainOptions struct {
	GracePeriod   int64
	IgnoreDS      bool
	DeleteOrphans bool
}

// PDBBlockedError reports that a pod's PodDisruptionBudget refused the
// eviction; the caller should retry later rather than treat this as fatal.
type PDBBlockedError struct {
	Pod string
	Err error
}

func (e *PDBBlockedError) Error() string {
	return fmt.Sprintf("PDB blocked eviction of pod %s: %v", e.Pod, e.Err)
}

// DrainNode evicts every evictable pod from node. It does not wait for the
// eviction to complete; callers poll IsDrainComplete on subsequent
// reconciles, matching the disruption-budget-aware, non-blocking drain
// model of spec.md §4.3/§6.3.
func DrainNode(ctx context.Context, c client.Client, node *corev1.Node, opts DrainOptions, ownNamespace string) error {
	return DrainNodeWithExclusions(ctx, c, node, opts, nil, ownNamespace)
}

func DrainNodeWithExclusions(ctx context.Context, c client.Client, node *corev1.Node, opts DrainOptions, exclusions *drain.DrainConfig, ownNamespace string) error {
	logger := log.FromContext(ctx)

	podList := &corev1.PodList{}
	if err := c.List(ctx, podList, client.MatchingFields{"spec.nodeName": node.Name}); err != nil {
		return fmt.Errorf("failed to list pods on node %s: %w", node.Name, err)
	}

	evictable := FilterEvictablePodsWithExclusions(podList.Items, opts, exclusions, ownNamespace)
	if len(evictable) == 0 {
		logger.Info("drain complete, no pods to evict", "node", node.Name)
		return nil
	}

	var errs []error
	for i := range evictable {
		pod := &evictable[i]
		if err := EvictPod(ctx, c, pod, opts.GracePeriod); err != nil {
			errs = append(errs, fmt.Errorf("pod %s/%s: %w", pod.Namespace, pod.Name, err))
		} else {
			logger.Info("evicted pod", "pod", pod.Namespace+"/"+pod.Name, "node", node.Name)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("drain incomplete: %d/%d pods failed: %v", len(errs), len(evictable), errs[0])
	}

	logger.Info("drain complete", "node", node.Name, "evicted", len(evictable))
	return nil
}

func FilterEvictablePods(pods []corev1.Pod, opts DrainOptions, ownNamespace string) []corev1.Pod {
	return FilterEvictablePodsWithExclusions(pods, opts, nil, ownNamespace)
}

func FilterEvictablePodsWithExclusions(pods []corev1.Pod, opts DrainOptions, exclusions *drain.DrainConfig, ownNamespace string) []corev1.Pod {
	result := make([]corev1.Pod, 0, len(pods))

	for i := range pods {
		pod := &pods[i]

		if pod.DeletionTimestamp != nil {
			continue
		}

		if pod.Status.Phase == corev1.PodSucceeded || pod.Status.Phase == corev1.PodFailed {
			continue
		}

		if _, ok := pod.Annotations["kubernetes.io/config.mirror"]; ok {
			continue
		}

		if opts.IgnoreDS && IsDaemonSetPod(pod) {
			continue
		}

		if isOwnControllerPod(pod, ownNamespace) {
			continue
		}

		if !opts.DeleteOrphans && !HasController(pod) {
			continue
		}

		if exclusions != nil {
			if skip, _ := exclusions.ShouldSkipPod(pod); skip {
				continue
			}
		}

		result = append(result, *pod)
	}

	return result
}

func IsDaemonSetPod(pod *corev1.Pod) bool {
	for _, ref := range pod.OwnerReferences {
		if ref.Kind == "DaemonSet" {
			return true
		}
	}
	return false
}

func HasController(pod *corev1.Pod) bool {
	for _, ref := range pod.OwnerReferences {
		if ref.Controller != nil && *ref.Controller {
			return true
		}
	}
	return false
}

func EvictPod(ctx context.Context, c client.Client, pod *corev1.Pod, gracePeriod int64) error {
	eviction := &policyv1.Eviction{
		ObjectMeta: metav1.ObjectMeta{
			Name:      pod.Name,
			Namespace: pod.Namespace,
		},
	}

	if gracePeriod >= 0 {
		eviction.DeleteOptions = &metav1.DeleteOptions{
			GracePeriodSeconds: &gracePeriod,
		}
	}

	err := c.SubResource("eviction").Create(ctx, pod, eviction)
	if err != nil {
		if apierrors.IsTooManyRequests(err) {
			return &PDBBlockedError{Pod: pod.Name, Err: err}
		}
		if apierrors.IsNotFound(err) {
			return nil
		}
		return err
	}

	return nil
}

func IsDrainComplete(ctx context.Context, c client.Client, node *corev1.Node, opts DrainOptions, ownNamespace string) (bool, error) {
	return IsDrainCompleteWithExclusions(ctx, c, node, opts, nil, ownNamespace)
}

func IsDrainCompleteWithExclusions(ctx context.Context, c client.Client, node *corev1.Node, opts DrainOptions, exclusions *drain.DrainConfig, ownNamespace string) (bool, error) {
	podList := &corev1.PodList{}
	if err := c.List(ctx, podList, client.MatchingFields{"spec.nodeName": node.Name}); err != nil {
		return false, err
	}

	evictable := FilterEvictablePodsWithExclusions(podList.Items, opts, exclusions, ownNamespace)
	return len(evictable) == 0, nil
}

const (
	LabelAppName      = "app.kubernetes.io/name"
	LabelControlPlane = "control-plane"
	OwnAppName        = "hostupdate"
	OwnControllerName = "controller-manager"
)

// isOwnControllerPod never evicts the controller itself off a node it is
// busy draining.
func isOwnControllerPod(pod *corev1.Pod, ownNamespace string) bool {
	if pod.Namespace == ownNamespace {
		return true
	}

	if pod.Labels != nil &&
		pod.Labels[LabelAppName] == OwnAppName &&
		pod.Labels[LabelControlPlane] == OwnControllerName {
		return true
	}

	return false
}
