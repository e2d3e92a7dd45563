//go:build unit

package apiserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	v2 "in-cloud.io/hostupdate/api/v2"
)

func newHandlersTestScheme(t *testing.T) *runtime.Scheme {
	t.Helper()
	scheme := runtime.NewScheme()
	if err := v2.AddToScheme(scheme); err != nil {
		t.Fatalf("adding v2 to scheme: %v", err)
	}
	return scheme
}

func TestGetShadow_FetchesAndCaches(t *testing.T) {
	scheme := newHandlersTestScheme(t)
	shadow := &v2.HostUpdate{
		ObjectMeta: metav1.ObjectMeta{Name: "node-a"},
		Status:     v2.HostUpdateStatus{CurrentState: v2.Idle},
	}
	c := fake.NewClientBuilder().WithScheme(scheme).WithStatusSubresource(&v2.HostUpdate{}).WithObjects(shadow).Build()
	h := &Handlers{Client: c, Cache: NewShadowCache()}

	req := httptest.NewRequest(http.MethodGet, "/shadows/node-a", nil)
	req.SetPathValue("name", "node-a")
	rec := httptest.NewRecorder()

	h.GetShadow(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got v2.HostUpdate
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Name != "node-a" {
		t.Fatalf("expected shadow node-a, got %q", got.Name)
	}
	if _, ok := h.Cache.Get("node-a"); !ok {
		t.Fatal("expected shadow to be cached after a successful get")
	}
}

func TestGetShadow_NotFound(t *testing.T) {
	scheme := newHandlersTestScheme(t)
	c := fake.NewClientBuilder().WithScheme(scheme).WithStatusSubresource(&v2.HostUpdate{}).Build()
	h := &Handlers{Client: c, Cache: NewShadowCache()}

	req := httptest.NewRequest(http.MethodGet, "/shadows/node-a", nil)
	req.SetPathValue("name", "node-a")
	rec := httptest.NewRecorder()

	h.GetShadow(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestEnsureShadow_CreatesIdleShadow(t *testing.T) {
	scheme := newHandlersTestScheme(t)
	c := fake.NewClientBuilder().WithScheme(scheme).WithStatusSubresource(&v2.HostUpdate{}).Build()
	h := &Handlers{Client: c, Cache: NewShadowCache()}

	req := httptest.NewRequest(http.MethodPost, "/shadows/node-a", bytes.NewReader([]byte(`{"name":"node-a"}`)))
	req.SetPathValue("name", "node-a")
	rec := httptest.NewRecorder()

	h.EnsureShadow(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var shadow v2.HostUpdate
	if err := c.Get(context.Background(), client.ObjectKey{Name: "node-a"}, &shadow); err != nil {
		t.Fatalf("getting created shadow: %v", err)
	}
	if shadow.Spec.State != v2.Idle {
		t.Fatalf("expected newly created shadow to start Idle, got %s", shadow.Spec.State)
	}
}

func TestPublishStatus_RejectsStaleResourceVersion(t *testing.T) {
	scheme := newHandlersTestScheme(t)
	shadow := &v2.HostUpdate{ObjectMeta: metav1.ObjectMeta{Name: "node-a"}}
	c := fake.NewClientBuilder().WithScheme(scheme).WithStatusSubresource(&v2.HostUpdate{}).WithObjects(shadow).Build()
	h := &Handlers{Client: c, Cache: NewShadowCache()}

	body, _ := json.Marshal(publishStatusRequest{
		ResourceVersion: "stale-version",
		Status:          v2.HostUpdateStatus{CurrentState: v2.MonitoringUpdate},
	})
	req := httptest.NewRequest(http.MethodPost, "/shadows/node-a/status", bytes.NewReader(body))
	req.SetPathValue("name", "node-a")
	rec := httptest.NewRecorder()

	h.PublishStatus(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestPublishStatus_UpdatesStatus(t *testing.T) {
	scheme := newHandlersTestScheme(t)
	shadow := &v2.HostUpdate{
		ObjectMeta: metav1.ObjectMeta{Name: "node-a"},
		Status:     v2.HostUpdateStatus{CurrentState: v2.RebootedIntoUpdate},
	}
	c := fake.NewClientBuilder().WithScheme(scheme).WithStatusSubresource(&v2.HostUpdate{}).WithObjects(shadow).Build()
	h := &Handlers{Client: c, Cache: NewShadowCache()}

	body, _ := json.Marshal(publishStatusRequest{
		Status: v2.HostUpdateStatus{CurrentState: v2.MonitoringUpdate, CurrentVersion: "1.1.0"},
	})
	req := httptest.NewRequest(http.MethodPost, "/shadows/node-a/status", bytes.NewReader(body))
	req.SetPathValue("name", "node-a")
	rec := httptest.NewRecorder()

	h.PublishStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got v2.HostUpdate
	if err := c.Get(context.Background(), client.ObjectKey{Name: "node-a"}, &got); err != nil {
		t.Fatalf("getting shadow: %v", err)
	}
	if got.Status.CurrentState != v2.MonitoringUpdate {
		t.Fatalf("expected status published, got %s", got.Status.CurrentState)
	}
}

func TestPublishStatus_RejectsSkippedState(t *testing.T) {
	scheme := newHandlersTestScheme(t)
	shadow := &v2.HostUpdate{
		ObjectMeta: metav1.ObjectMeta{Name: "node-a"},
		Status:     v2.HostUpdateStatus{CurrentState: v2.Idle},
	}
	c := fake.NewClientBuilder().WithScheme(scheme).WithStatusSubresource(&v2.HostUpdate{}).WithObjects(shadow).Build()
	h := &Handlers{Client: c, Cache: NewShadowCache()}

	// Idle -> MonitoringUpdate skips StagedAndPerformedUpdate and
	// RebootedIntoUpdate entirely; the state machine has no such edge.
	body, _ := json.Marshal(publishStatusRequest{
		Status: v2.HostUpdateStatus{CurrentState: v2.MonitoringUpdate},
	})
	req := httptest.NewRequest(http.MethodPost, "/shadows/node-a/status", bytes.NewReader(body))
	req.SetPathValue("name", "node-a")
	rec := httptest.NewRecorder()

	h.PublishStatus(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}

	var got v2.HostUpdate
	if err := c.Get(context.Background(), client.ObjectKey{Name: "node-a"}, &got); err != nil {
		t.Fatalf("getting shadow: %v", err)
	}
	if got.Status.CurrentState != v2.Idle {
		t.Fatalf("expected status to remain unchanged at Idle, got %s", got.Status.CurrentState)
	}
}
