//go:build unit

package controller

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordStateDistribution(t *testing.T) {
	RecordStateDistribution(map[string]int{"Idle": 3, "MonitoringUpdate": 1})
	if got := testutil.ToFloat64(hostsState.WithLabelValues("Idle")); got != 3 {
		t.Errorf("expected 3 idle hosts, got %v", got)
	}
	if got := testutil.ToFloat64(hostsState.WithLabelValues("MonitoringUpdate")); got != 1 {
		t.Errorf("expected 1 monitoring host, got %v", got)
	}
}

func TestUpdateControllerLeaderGauge(t *testing.T) {
	UpdateControllerLeaderGauge(LeaderStateLeader)
	if got := testutil.ToFloat64(controllerLeader); got != 2 {
		t.Errorf("expected leader gauge 2, got %v", got)
	}
}

func TestUpdateSchedulerWindowOpenGauge(t *testing.T) {
	UpdateSchedulerWindowOpenGauge(true)
	if got := testutil.ToFloat64(schedulerWindowOpen); got != 1 {
		t.Errorf("expected window-open gauge 1, got %v", got)
	}
	UpdateSchedulerWindowOpenGauge(false)
	if got := testutil.ToFloat64(schedulerWindowOpen); got != 0 {
		t.Errorf("expected window-open gauge 0, got %v", got)
	}
}
