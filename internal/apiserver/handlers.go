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

package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	v2 "in-cloud.io/hostupdate/api/v2"
	"in-cloud.io/hostupdate/internal/controller"
	"in-cloud.io/hostupdate/internal/statemachine"
)

// Handlers backs the HTTP routes an agent speaks to: shadow read/write and
// pod eviction. It holds the cluster client directly (the teacher's
// pkg/client wraps the same controller-runtime client.Client this talks
// to; the API server sits one layer further out, fronting that client
// with authn/authz rather than calling it from inside the cluster).
type Handlers struct {
	Client    client.Client
	Cache     *ShadowCache
	Namespace string
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// GetShadow serves GET /shadows/{name}.
func (h *Handlers) GetShadow(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	logger := log.FromContext(r.Context()).WithValues("shadow", name)

	if cached, ok := h.Cache.Get(name); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	var shadow v2.HostUpdate
	if err := h.Client.Get(r.Context(), client.ObjectKey{Name: name}, &shadow); err != nil {
		if apierrors.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "shadow not found")
			return
		}
		logger.Error(err, "getting shadow")
		writeError(w, http.StatusInternalServerError, "getting shadow")
		return
	}

	h.Cache.Put(&shadow)
	writeJSON(w, http.StatusOK, &shadow)
}

// EnsureShadow serves POST /shadows/{name}, creating the shadow if it does
// not already exist. Creation is idempotent: an AlreadyExists race is
// treated as success and the existing object is returned.
func (h *Handlers) EnsureShadow(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	logger := log.FromContext(r.Context()).WithValues("shadow", name)

	var existing v2.HostUpdate
	err := h.Client.Get(r.Context(), client.ObjectKey{Name: name}, &existing)
	if err == nil {
		h.Cache.Put(&existing)
		writeJSON(w, http.StatusOK, &existing)
		return
	}
	if !apierrors.IsNotFound(err) {
		logger.Error(err, "getting shadow")
		writeError(w, http.StatusInternalServerError, "getting shadow")
		return
	}

	shadow := &v2.HostUpdate{}
	shadow.Name = name
	shadow.Spec.State = v2.Idle
	if createErr := h.Client.Create(r.Context(), shadow); createErr != nil {
		if apierrors.IsAlreadyExists(createErr) {
			if getErr := h.Client.Get(r.Context(), client.ObjectKey{Name: name}, shadow); getErr == nil {
				h.Cache.Put(shadow)
				writeJSON(w, http.StatusOK, shadow)
				return
			}
		}
		logger.Error(createErr, "creating shadow")
		writeError(w, http.StatusInternalServerError, "creating shadow")
		return
	}

	h.Cache.Put(shadow)
	writeJSON(w, http.StatusCreated, shadow)
}

type publishStatusRequest struct {
	ResourceVersion string              `json:"resourceVersion"`
	Status          v2.HostUpdateStatus `json:"status"`
}

// PublishStatus serves POST /shadows/{name}/status. It is the only write
// path an agent has to its own shadow's status, and it enforces the
// resourceVersion precondition the agent's shadowclient.Client contract
// promises: a stale resourceVersion comes back as a 409, never silently
// overwritten.
func (h *Handlers) PublishStatus(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	logger := log.FromContext(r.Context()).WithValues("shadow", name)

	var req publishStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "decoding request body")
		return
	}

	var shadow v2.HostUpdate
	if err := h.Client.Get(r.Context(), client.ObjectKey{Name: name}, &shadow); err != nil {
		if apierrors.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "shadow not found")
			return
		}
		logger.Error(err, "getting shadow")
		writeError(w, http.StatusInternalServerError, "getting shadow")
		return
	}

	if req.ResourceVersion != "" && shadow.ResourceVersion != req.ResourceVersion {
		writeError(w, http.StatusConflict, "resource version conflict")
		return
	}

	if !statemachine.IsValidTransition(shadow.Status.CurrentState, req.Status.CurrentState) {
		writeError(w, http.StatusUnprocessableEntity, "state-violation: illegal transition from "+
			string(shadow.Status.CurrentState)+" to "+string(req.Status.CurrentState))
		return
	}

	shadow.Status = req.Status
	if err := h.Client.Status().Update(r.Context(), &shadow); err != nil {
		if apierrors.IsConflict(err) {
			h.Cache.Invalidate(name)
			writeError(w, http.StatusConflict, "resource version conflict")
			return
		}
		logger.Error(err, "updating shadow status")
		writeError(w, http.StatusInternalServerError, "updating shadow status")
		return
	}

	h.Cache.Put(&shadow)
	writeJSON(w, http.StatusOK, &shadow)
}

// EvictPod serves POST /eviction/{node}, the sole path an agent has to ask
// the cluster to evict a pod still running on its own node during a drain
// retry. The request body names the pod; authorizedForNode already
// guarantees the caller is that node, so no further per-pod ownership
// check is needed beyond the node-scoped path.
type evictRequest struct {
	PodName      string `json:"podName"`
	PodNamespace string `json:"podNamespace"`
	GracePeriod  int64  `json:"gracePeriodSeconds"`
}

func (h *Handlers) EvictPod(w http.ResponseWriter, r *http.Request) {
	node := r.PathValue("node")
	logger := log.FromContext(r.Context()).WithValues("node", node)

	var req evictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "decoding request body")
		return
	}

	var pod corev1.Pod
	key := client.ObjectKey{Name: req.PodName, Namespace: req.PodNamespace}
	if err := h.Client.Get(r.Context(), key, &pod); err != nil {
		if apierrors.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "pod not found")
			return
		}
		logger.Error(err, "getting pod")
		writeError(w, http.StatusInternalServerError, "getting pod")
		return
	}
	if pod.Spec.NodeName != node {
		writeError(w, http.StatusForbidden, "pod is not scheduled on the calling node")
		return
	}

	grace := req.GracePeriod
	if err := controller.EvictPod(r.Context(), h.Client, &pod, grace); err != nil {
		var pdbErr *controller.PDBBlockedError
		if errors.As(err, &pdbErr) {
			writeError(w, http.StatusTooManyRequests, pdbErr.Error())
			return
		}
		logger.Error(err, "evicting pod")
		writeError(w, http.StatusInternalServerError, "evicting pod")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "evicted"})
}
