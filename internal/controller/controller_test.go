//go:build unit

package controller

import (
	"context"
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	v2 "in-cloud.io/hostupdate/api/v2"
	"in-cloud.io/hostupdate/internal/controller/leaderelection"
	"in-cloud.io/hostupdate/pkg/nodelabels"
	"in-cloud.io/hostupdate/pkg/scheduler"
)

func newControllerTestScheme(t *testing.T) *runtime.Scheme {
	t.Helper()
	scheme := runtime.NewScheme()
	if err := corev1.AddToScheme(scheme); err != nil {
		t.Fatalf("adding corev1 to scheme: %v", err)
	}
	if err := v2.AddToScheme(scheme); err != nil {
		t.Fatalf("adding v2 to scheme: %v", err)
	}
	return scheme
}

func alwaysOpenWindow(t *testing.T) *scheduler.Window {
	t.Helper()
	w, err := scheduler.NewWindow("", "", "")
	if err != nil {
		t.Fatalf("building always-open window: %v", err)
	}
	return w
}

func readyNode(name string) *corev1.Node {
	return &corev1.Node{
		ObjectMeta: metav1.ObjectMeta{Name: name, Labels: map[string]string{
			nodelabels.UpdaterInterfaceVersion: nodelabels.InterfaceVersion,
		}},
		Status: corev1.NodeStatus{
			Conditions: []corev1.NodeCondition{{Type: corev1.NodeReady, Status: corev1.ConditionTrue}},
		},
	}
}

func TestReconcile_AdmitsIdleCandidateAndCordonsNode(t *testing.T) {
	scheme := newControllerTestScheme(t)
	node := readyNode("node-a")
	shadow := &v2.HostUpdate{
		ObjectMeta: metav1.ObjectMeta{Name: "node-a"},
		Spec:       v2.HostUpdateSpec{State: v2.Idle},
		Status: v2.HostUpdateStatus{
			CurrentState:     v2.Idle,
			CurrentVersion:   "1.0.0",
			UpdateAvailable:  true,
			AvailableVersion: "1.1.0",
		},
	}

	c := fake.NewClientBuilder().
		WithScheme(scheme).
		WithStatusSubresource(&v2.HostUpdate{}).
		WithObjects(node, shadow).
		Build()

	r := NewReconciler(c, scheme)
	r.Window = alwaysOpenWindow(t)
	r.MaxConcurrentUpdates = Unlimited
	r.Events = NewEventRecorder(record.NewFakeRecorder(20))

	if _, err := r.Reconcile(context.Background(), ctrl.Request{}); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}

	var gotNode corev1.Node
	if err := c.Get(context.Background(), client.ObjectKey{Name: "node-a"}, &gotNode); err != nil {
		t.Fatalf("getting node: %v", err)
	}
	if !gotNode.Spec.Unschedulable {
		t.Fatal("expected admitted node to be cordoned")
	}
}

func TestReconcile_ForcesStuckActiveShadowIntoErrorReset(t *testing.T) {
	scheme := newControllerTestScheme(t)
	node := readyNode("node-a")
	shadow := &v2.HostUpdate{
		ObjectMeta: metav1.ObjectMeta{Name: "node-a"},
		Spec:       v2.HostUpdateSpec{State: v2.StagedAndPerformedUpdate, Version: "1.1.0"},
		Status:     v2.HostUpdateStatus{CurrentState: v2.RebootedIntoUpdate},
	}

	c := fake.NewClientBuilder().
		WithScheme(scheme).
		WithStatusSubresource(&v2.HostUpdate{}).
		WithObjects(node, shadow).
		Build()

	r := NewReconciler(c, scheme)
	r.Window = alwaysOpenWindow(t)
	r.MaxConcurrentUpdates = Unlimited
	r.StuckTimeout = 0 // any elapsed time at all counts as stuck for this test
	r.Events = NewEventRecorder(record.NewFakeRecorder(20))

	// The first pass only establishes the stuck-clock baseline (a shadow
	// is never reported stuck on its very first observation); the second
	// pass, however little real time has elapsed, exceeds the zero timeout.
	if _, err := r.Reconcile(context.Background(), ctrl.Request{}); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}
	if _, err := r.Reconcile(context.Background(), ctrl.Request{}); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}

	var got v2.HostUpdate
	if err := c.Get(context.Background(), client.ObjectKey{Name: "node-a"}, &got); err != nil {
		t.Fatalf("getting shadow: %v", err)
	}
	if got.Status.CurrentState != v2.ErrorReset {
		t.Fatalf("expected shadow forced into ErrorReset, got %s", got.Status.CurrentState)
	}
	if got.Status.CrashCount != 1 {
		t.Fatalf("expected crash count incremented to 1, got %d", got.Status.CrashCount)
	}
}

func TestReconcile_ClosesOutCompletedCycle(t *testing.T) {
	scheme := newControllerTestScheme(t)
	node := readyNode("node-a")
	shadow := &v2.HostUpdate{
		ObjectMeta: metav1.ObjectMeta{Name: "node-a"},
		Spec:       v2.HostUpdateSpec{State: v2.StagedAndPerformedUpdate, Version: "1.1.0"},
		Status:     v2.HostUpdateStatus{CurrentState: v2.Idle, CurrentVersion: "1.1.0"},
	}

	c := fake.NewClientBuilder().
		WithScheme(scheme).
		WithStatusSubresource(&v2.HostUpdate{}).
		WithObjects(node, shadow).
		Build()

	r := NewReconciler(c, scheme)
	r.Window = alwaysOpenWindow(t)
	r.MaxConcurrentUpdates = Unlimited
	r.Events = NewEventRecorder(record.NewFakeRecorder(20))

	if _, err := r.Reconcile(context.Background(), ctrl.Request{}); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}

	var got v2.HostUpdate
	if err := c.Get(context.Background(), client.ObjectKey{Name: "node-a"}, &got); err != nil {
		t.Fatalf("getting shadow: %v", err)
	}
	if got.Spec.State != v2.Idle {
		t.Fatalf("expected spec.state closed out to Idle, got %s", got.Spec.State)
	}
}

func TestReconcile_QuarantinedShadowIsNotResetToIdle(t *testing.T) {
	scheme := newControllerTestScheme(t)
	node := readyNode("node-a")
	shadow := &v2.HostUpdate{
		ObjectMeta: metav1.ObjectMeta{Name: "node-a"},
		Spec:       v2.HostUpdateSpec{State: v2.StagedAndPerformedUpdate, Version: "1.1.0"},
		Status:     v2.HostUpdateStatus{CurrentState: v2.ErrorReset, CrashCount: DefaultCrashThreshold},
	}

	c := fake.NewClientBuilder().
		WithScheme(scheme).
		WithStatusSubresource(&v2.HostUpdate{}).
		WithObjects(node, shadow).
		Build()

	r := NewReconciler(c, scheme)
	r.Window = alwaysOpenWindow(t)
	r.MaxConcurrentUpdates = Unlimited
	r.CrashThreshold = DefaultCrashThreshold
	fakeRecorder := record.NewFakeRecorder(20)
	r.Events = NewEventRecorder(fakeRecorder)

	if _, err := r.Reconcile(context.Background(), ctrl.Request{}); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}

	var got v2.HostUpdate
	if err := c.Get(context.Background(), client.ObjectKey{Name: "node-a"}, &got); err != nil {
		t.Fatalf("getting shadow: %v", err)
	}
	if got.Spec.State == v2.Idle {
		t.Fatal("expected quarantined shadow to remain un-reset")
	}

	select {
	case e := <-fakeRecorder.Events:
		if e == "" {
			t.Fatal("expected a quarantine event")
		}
	default:
		t.Fatal("expected a quarantine event to be emitted")
	}
}

func TestReconcile_NonLeaderDoesNothing(t *testing.T) {
	scheme := newControllerTestScheme(t)
	node := readyNode("node-a")
	shadow := &v2.HostUpdate{
		ObjectMeta: metav1.ObjectMeta{Name: "node-a"},
		Spec:       v2.HostUpdateSpec{State: v2.Idle},
		Status: v2.HostUpdateStatus{
			CurrentState:    v2.Idle,
			UpdateAvailable: true,
		},
	}

	c := fake.NewClientBuilder().
		WithScheme(scheme).
		WithStatusSubresource(&v2.HostUpdate{}).
		WithObjects(node, shadow).
		Build()

	r := NewReconciler(c, scheme)
	r.Window = alwaysOpenWindow(t)
	r.MaxConcurrentUpdates = Unlimited
	r.Events = NewEventRecorder(record.NewFakeRecorder(20))
	r.Elector = leaderelection.New(leaderelection.Config{}) // starts Follower, Run never called

	if _, err := r.Reconcile(context.Background(), ctrl.Request{}); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}

	var gotNode corev1.Node
	if err := c.Get(context.Background(), client.ObjectKey{Name: "node-a"}, &gotNode); err != nil {
		t.Fatalf("getting node: %v", err)
	}
	if gotNode.Spec.Unschedulable {
		t.Fatal("expected non-leader reconcile to make no changes")
	}
}
