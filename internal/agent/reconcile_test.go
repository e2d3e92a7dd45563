//go:build unit

package agent

import (
	"context"
	"testing"

	"go.uber.org/mock/gomock"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	v2 "in-cloud.io/hostupdate/api/v2"
	"in-cloud.io/hostupdate/internal/agent/mocks"
	"in-cloud.io/hostupdate/pkg/hostapi"
)

func newTestAgent(t *testing.T, shadows *mocks.MockShadowGetter, host *mocks.MockHostAPI) *Agent {
	t.Helper()
	return &Agent{
		nodeName:      "node-a",
		shadows:       shadows,
		hostAPI:       host,
		pendingReboot: NewPendingRebootMarker(t.TempDir()),
	}
}

func TestReconcile_IdleRefreshesObservationWithoutChangingState(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	shadows := mocks.NewMockShadowGetter(ctrl)
	host := mocks.NewMockHostAPI(ctrl)
	a := newTestAgent(t, shadows, host)

	shadow := &v2.HostUpdate{
		ObjectMeta: metav1.ObjectMeta{Name: "node-a", ResourceVersion: "9"},
		Spec:       v2.HostUpdateSpec{State: v2.Idle},
		Status:     v2.HostUpdateStatus{CurrentState: v2.Idle, CurrentVersion: "1.2.2"},
	}

	host.EXPECT().GetOS(gomock.Any()).Return(hostapi.OSInfo{VersionID: "1.2.2"}, nil)
	host.EXPECT().GetUpdateStatus(gomock.Any()).Return(hostapi.UpdateStatus{ChosenUpdate: "1.3.0"}, nil)
	shadows.EXPECT().PublishStatus(gomock.Any(), "node-a", "9", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, status v2.HostUpdateStatus) (*v2.HostUpdate, error) {
			if status.CurrentState != v2.Idle {
				t.Errorf("expected state to remain Idle, got %s", status.CurrentState)
			}
			if !status.UpdateAvailable || status.AvailableVersion != "1.3.0" {
				t.Errorf("expected update-available 1.3.0, got available=%v version=%s", status.UpdateAvailable, status.AvailableVersion)
			}
			return shadow, nil
		})

	if err := a.reconcile(context.Background(), shadow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReconcile_IdleRefreshSkipsPublishWhenUnchanged(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	shadows := mocks.NewMockShadowGetter(ctrl)
	host := mocks.NewMockHostAPI(ctrl)
	a := newTestAgent(t, shadows, host)

	shadow := &v2.HostUpdate{
		ObjectMeta: metav1.ObjectMeta{Name: "node-a", ResourceVersion: "9"},
		Spec:       v2.HostUpdateSpec{State: v2.Idle},
		Status:     v2.HostUpdateStatus{CurrentState: v2.Idle, CurrentVersion: "1.2.2"},
	}

	host.EXPECT().GetOS(gomock.Any()).Return(hostapi.OSInfo{VersionID: "1.2.2"}, nil)
	host.EXPECT().GetUpdateStatus(gomock.Any()).Return(hostapi.UpdateStatus{}, nil)

	if err := a.reconcile(context.Background(), shadow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReconcile_NoopWhenNonIdleDesiredMatchesObserved(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	shadows := mocks.NewMockShadowGetter(ctrl)
	host := mocks.NewMockHostAPI(ctrl)
	a := newTestAgent(t, shadows, host)

	shadow := &v2.HostUpdate{
		Spec:   v2.HostUpdateSpec{State: v2.MonitoringUpdate},
		Status: v2.HostUpdateStatus{CurrentState: v2.MonitoringUpdate},
	}

	if err := a.reconcile(context.Background(), shadow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReconcile_PerformUpdate_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	shadows := mocks.NewMockShadowGetter(ctrl)
	host := mocks.NewMockHostAPI(ctrl)
	a := newTestAgent(t, shadows, host)

	shadow := &v2.HostUpdate{
		ObjectMeta: metav1.ObjectMeta{Name: "node-a", ResourceVersion: "1"},
		Spec:       v2.HostUpdateSpec{State: v2.StagedAndPerformedUpdate, Version: "1.2.3"},
		Status:     v2.HostUpdateStatus{CurrentState: v2.Idle},
	}

	host.EXPECT().RefreshUpdates(gomock.Any()).Return(nil)
	host.EXPECT().PrepareUpdate(gomock.Any()).Return(nil)
	host.EXPECT().ActivateUpdate(gomock.Any()).Return(nil)
	host.EXPECT().Reboot(gomock.Any()).Return(nil)
	shadows.EXPECT().PublishStatus(gomock.Any(), "node-a", "1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, status v2.HostUpdateStatus) (*v2.HostUpdate, error) {
			if status.CurrentState != v2.RebootedIntoUpdate {
				t.Errorf("expected status RebootedIntoUpdate, got %s", status.CurrentState)
			}
			return shadow, nil
		})

	if err := a.reconcile(context.Background(), shadow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if target, ok := a.pendingReboot.Read(); !ok || target != "1.2.3" {
		t.Errorf("expected pending-reboot marker for 1.2.3, got (%q, %v)", target, ok)
	}
}

func TestReconcile_ConfirmReboot_WaitsUntilVersionMatches(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	shadows := mocks.NewMockShadowGetter(ctrl)
	host := mocks.NewMockHostAPI(ctrl)
	a := newTestAgent(t, shadows, host)

	shadow := &v2.HostUpdate{
		ObjectMeta: metav1.ObjectMeta{Name: "node-a", ResourceVersion: "2"},
		Spec:       v2.HostUpdateSpec{State: v2.RebootedIntoUpdate, Version: "1.2.3"},
		Status:     v2.HostUpdateStatus{CurrentState: v2.StagedAndPerformedUpdate},
	}

	host.EXPECT().GetOS(gomock.Any()).Return(hostapi.OSInfo{VersionID: "1.2.2"}, nil)

	if err := a.reconcile(context.Background(), shadow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReconcile_ConfirmReboot_AdvancesWhenVersionMatches(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	shadows := mocks.NewMockShadowGetter(ctrl)
	host := mocks.NewMockHostAPI(ctrl)
	a := newTestAgent(t, shadows, host)

	shadow := &v2.HostUpdate{
		ObjectMeta: metav1.ObjectMeta{Name: "node-a", ResourceVersion: "2"},
		Spec:       v2.HostUpdateSpec{State: v2.RebootedIntoUpdate, Version: "1.2.3"},
		Status:     v2.HostUpdateStatus{CurrentState: v2.StagedAndPerformedUpdate},
	}

	host.EXPECT().GetOS(gomock.Any()).Return(hostapi.OSInfo{VersionID: "1.2.3"}, nil)
	shadows.EXPECT().PublishStatus(gomock.Any(), "node-a", "2", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, status v2.HostUpdateStatus) (*v2.HostUpdate, error) {
			if status.CurrentState != v2.MonitoringUpdate {
				t.Errorf("expected status MonitoringUpdate, got %s", status.CurrentState)
			}
			return shadow, nil
		})

	if err := a.reconcile(context.Background(), shadow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReconcile_MonitorUpdate_NonTransientFailureEntersErrorReset(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	shadows := mocks.NewMockShadowGetter(ctrl)
	host := mocks.NewMockHostAPI(ctrl)
	a := newTestAgent(t, shadows, host)

	shadow := &v2.HostUpdate{
		ObjectMeta: metav1.ObjectMeta{Name: "node-a", ResourceVersion: "3"},
		Spec:       v2.HostUpdateSpec{State: v2.MonitoringUpdate, Version: "1.2.3"},
		Status:     v2.HostUpdateStatus{CurrentState: v2.RebootedIntoUpdate},
	}

	host.EXPECT().GetUpdateStatus(gomock.Any()).Return(hostapi.UpdateStatus{
		MostRecentCommand: hostapi.Command{Type: "activate-update", ExitStatus: 1, Stderr: "boom"},
	}, nil)
	shadows.EXPECT().PublishStatus(gomock.Any(), "node-a", "3", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, status v2.HostUpdateStatus) (*v2.HostUpdate, error) {
			if status.CurrentState != v2.ErrorReset {
				t.Errorf("expected status ErrorReset, got %s", status.CurrentState)
			}
			if status.CrashCount != 1 {
				t.Errorf("expected crash count 1, got %d", status.CrashCount)
			}
			if status.StateTransitionFailureTimestamp == nil {
				t.Error("expected StateTransitionFailureTimestamp to be set")
			}
			return shadow, nil
		})

	if err := a.reconcile(context.Background(), shadow); err == nil {
		t.Fatal("expected error to propagate for non-transient host failure")
	}
}

func TestReconcile_MonitorUpdate_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	shadows := mocks.NewMockShadowGetter(ctrl)
	host := mocks.NewMockHostAPI(ctrl)
	a := newTestAgent(t, shadows, host)

	shadow := &v2.HostUpdate{
		ObjectMeta: metav1.ObjectMeta{Name: "node-a", ResourceVersion: "4"},
		Spec:       v2.HostUpdateSpec{State: v2.MonitoringUpdate, Version: "1.2.3"},
		Status:     v2.HostUpdateStatus{CurrentState: v2.RebootedIntoUpdate},
	}

	host.EXPECT().GetUpdateStatus(gomock.Any()).Return(hostapi.UpdateStatus{
		MostRecentCommand: hostapi.Command{Type: "activate-update", ExitStatus: 0},
	}, nil)
	shadows.EXPECT().PublishStatus(gomock.Any(), "node-a", "4", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, status v2.HostUpdateStatus) (*v2.HostUpdate, error) {
			if status.CurrentState != v2.Idle {
				t.Errorf("expected status Idle, got %s", status.CurrentState)
			}
			if status.CurrentVersion != "1.2.3" {
				t.Errorf("expected current version 1.2.3, got %s", status.CurrentVersion)
			}
			return shadow, nil
		})

	if err := a.reconcile(context.Background(), shadow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReconcile_IgnoresTransitionNotOwnedByAgent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	shadows := mocks.NewMockShadowGetter(ctrl)
	host := mocks.NewMockHostAPI(ctrl)
	a := newTestAgent(t, shadows, host)

	shadow := &v2.HostUpdate{
		Spec:   v2.HostUpdateSpec{State: v2.StagedAndPerformedUpdate},
		Status: v2.HostUpdateStatus{CurrentState: v2.ErrorReset},
	}

	// ErrorReset -> StagedAndPerformedUpdate is not an edge of the state
	// machine at all (the only way out of ErrorReset is the controller's
	// reset to Idle), so reconcile must not call the host API.
	if err := a.reconcile(context.Background(), shadow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
